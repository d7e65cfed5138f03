package server

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/msto63/vaani/internal/language"
	"github.com/msto63/vaani/internal/translate"
)

// TranslatePrompt builds the provider prompt for a translate request
func TranslatePrompt(mode translate.Mode, dest, text string) string {
	if mode == translate.ModeSummary {
		return fmt.Sprintf("Explain this text in language '%s' simply: %s", dest, text)
	}
	return fmt.Sprintf("Translate this text to language '%s' accurately: %s", dest, text)
}

// ParseLanguagePrompt asks the provider for the code of the language named in phrase
func ParseLanguagePrompt(phrase string, table *language.Table) string {
	var sb strings.Builder
	sb.WriteString("The user asked for a language. Reply with only the code from this list, or 'none' if no language is named.\n")
	for _, l := range table.All() {
		fmt.Fprintf(&sb, "%s: %s\n", l.Code, l.Name)
	}
	fmt.Fprintf(&sb, "Request: %s", phrase)
	return sb.String()
}

// parseCodeReply extracts a known code from a provider reply such as "Code: te."
func parseCodeReply(reply string, table *language.Table) (language.Language, bool) {
	if l, ok := table.Lookup(strings.Trim(strings.TrimSpace(reply), ".\"'`")); ok {
		return l, true
	}
	fields := strings.FieldsFunc(reply, func(r rune) bool {
		return unicode.IsSpace(r) || r == ':' || r == '.' || r == ',' || r == '"' || r == '\'' || r == '`' || r == '(' || r == ')'
	})
	for _, f := range fields {
		if l, ok := table.Lookup(f); ok {
			return l, true
		}
	}
	return language.Language{}, false
}
