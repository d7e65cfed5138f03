// ============================================================================
// Vaani - Scan, Translate, Speak
// ============================================================================
//
// Package:     language
// Description: Supported language table and spoken-phrase resolution
// Author:      Mike Stoffels
// Created:     2026-10-03
// License:     MIT
// ============================================================================

package language

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Neutral is the code of the UI language used for system prompts
const Neutral = "en"

// Language is one supported translation target
type Language struct {
	Name   string `yaml:"name" json:"name"`
	Code   string `yaml:"code" json:"code"`
	Native string `yaml:"native,omitempty" json:"native,omitempty"`
	Voice  string `yaml:"voice,omitempty" json:"voice,omitempty"`
}

// VoiceTag returns the speech tag for the language, falling back to the code
func (l Language) VoiceTag() string {
	if l.Voice != "" {
		return l.Voice
	}
	return l.Code
}

// Label returns "Name (Native)" or just the name
func (l Language) Label() string {
	if l.Native != "" && l.Native != l.Name {
		return fmt.Sprintf("%s (%s)", l.Name, l.Native)
	}
	return l.Name
}

// builtin is ordered alphabetically with English last
var builtin = []Language{
	{Name: "Assamese", Code: "as", Native: "অসমীয়া", Voice: "as-IN"},
	{Name: "Bengali", Code: "bn", Native: "বাংলা", Voice: "bn-IN"},
	{Name: "Bodo", Code: "brx", Native: "बड़ो", Voice: "hi-IN"},
	{Name: "Dogri", Code: "doi", Native: "डोगरी", Voice: "hi-IN"},
	{Name: "Gujarati", Code: "gu", Native: "ગુજરાતી", Voice: "gu-IN"},
	{Name: "Hindi", Code: "hi", Native: "हिन्दी", Voice: "hi-IN"},
	{Name: "Kannada", Code: "kn", Native: "ಕನ್ನಡ", Voice: "kn-IN"},
	{Name: "Kashmiri", Code: "ks", Native: "कॉशुर", Voice: "hi-IN"},
	{Name: "Konkani", Code: "kok", Native: "कोंकणी", Voice: "hi-IN"},
	{Name: "Maithili", Code: "mai", Native: "मैथिली", Voice: "hi-IN"},
	{Name: "Malayalam", Code: "ml", Native: "മലയാളം", Voice: "ml-IN"},
	{Name: "Manipuri", Code: "mni-Mtei", Native: "ꯃꯤꯇꯩꯂꯣꯟ", Voice: "hi-IN"},
	{Name: "Marathi", Code: "mr", Native: "मराठी", Voice: "mr-IN"},
	{Name: "Nepali", Code: "ne", Native: "नेपाली", Voice: "ne-NP"},
	{Name: "Odia", Code: "or", Native: "ଓଡ଼ିଆ", Voice: "or-IN"},
	{Name: "Punjabi", Code: "pa", Native: "ਪੰਜਾਬੀ", Voice: "pa-IN"},
	{Name: "Sanskrit", Code: "sa", Native: "संस्कृतम्", Voice: "hi-IN"},
	{Name: "Santali", Code: "sat", Native: "ᱥᱟᱱᱛᱟᱲᱤ", Voice: "hi-IN"},
	{Name: "Sindhi", Code: "sd", Native: "سنڌي", Voice: "hi-IN"},
	{Name: "Tamil", Code: "ta", Native: "தமிழ்", Voice: "ta-IN"},
	{Name: "Telugu", Code: "te", Native: "తెలుగు", Voice: "te-IN"},
	{Name: "Urdu", Code: "ur", Native: "اردو", Voice: "ur-PK"},
	{Name: "English", Code: "en", Native: "English", Voice: "en-US"},
}

// Table is an immutable set of supported languages
type Table struct {
	languages []Language
	byCode    map[string]int
	byName    map[string]int
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the built-in table
func Default() *Table {
	defaultOnce.Do(func() {
		defaultTable = NewTable(builtin)
	})
	return defaultTable
}

// NewTable builds a table; later entries replace earlier ones with the same code
func NewTable(languages []Language) *Table {
	t := &Table{
		byCode: make(map[string]int),
		byName: make(map[string]int),
	}
	for _, l := range languages {
		l.Code = strings.TrimSpace(l.Code)
		if l.Code == "" {
			continue
		}
		if l.Name == "" {
			l.Name = l.Code
		}
		if idx, ok := t.byCode[strings.ToLower(l.Code)]; ok {
			delete(t.byName, strings.ToLower(t.languages[idx].Name))
			t.languages[idx] = l
		} else {
			t.byCode[strings.ToLower(l.Code)] = len(t.languages)
			t.languages = append(t.languages, l)
		}
		t.byName[strings.ToLower(l.Name)] = t.byCode[strings.ToLower(l.Code)]
	}
	return t
}

// tableFile is the YAML layout accepted by LoadTable
type tableFile struct {
	Replace   bool       `yaml:"replace"`
	Languages []Language `yaml:"languages"`
}

// LoadTable reads a YAML file and merges it over the built-in table.
// With `replace: true` the file defines the whole table.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read language table: %w", err)
	}

	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse language table: %w", err)
	}
	if len(file.Languages) == 0 {
		return nil, fmt.Errorf("language table %s defines no languages", path)
	}

	if file.Replace {
		return NewTable(file.Languages), nil
	}
	merged := append(append([]Language{}, builtin...), file.Languages...)
	return NewTable(merged), nil
}

// Lookup finds a language by code (case-insensitive)
func (t *Table) Lookup(code string) (Language, bool) {
	idx, ok := t.byCode[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return Language{}, false
	}
	return t.languages[idx], true
}

// Find resolves a code, an English name or a native label
func (t *Table) Find(codeOrName string) (Language, bool) {
	if l, ok := t.Lookup(codeOrName); ok {
		return l, true
	}
	key := strings.ToLower(strings.TrimSpace(codeOrName))
	if idx, ok := t.byName[key]; ok {
		return t.languages[idx], true
	}
	for _, l := range t.languages {
		if l.Native != "" && strings.EqualFold(l.Native, key) {
			return l, true
		}
	}
	return Language{}, false
}

// MatchPhrase returns the language whose name or native label appears in phrase.
// The longest name wins so that e.g. "Maithili" is not shadowed by a shorter match.
func (t *Table) MatchPhrase(phrase string) (Language, bool) {
	lower := strings.ToLower(phrase)

	candidates := make([]Language, 0, 2)
	for _, l := range t.languages {
		if containsWord(lower, strings.ToLower(l.Name)) || (l.Native != "" && strings.Contains(phrase, l.Native)) {
			candidates = append(candidates, l)
		}
	}
	if len(candidates) == 0 {
		return Language{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].Name) > len(candidates[j].Name)
	})
	return candidates[0], true
}

// All returns the languages in table order
func (t *Table) All() []Language {
	out := make([]Language, len(t.languages))
	copy(out, t.languages)
	return out
}

// Len returns the number of languages
func (t *Table) Len() int {
	return len(t.languages)
}

func containsWord(haystack, word string) bool {
	for _, field := range strings.FieldsFunc(haystack, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '?' || r == '\'' || r == '"'
	}) {
		if field == word {
			return true
		}
	}
	return false
}
