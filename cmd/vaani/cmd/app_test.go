package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/msto63/vaani/internal/language"
	"github.com/msto63/vaani/internal/translate"
	"github.com/msto63/vaani/pkg/core/config"
	vaerr "github.com/msto63/vaani/pkg/core/error"
)

func TestParseModeFlag(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		summary bool
		want    translate.Mode
		wantErr bool
	}{
		{"empty", "", false, translate.ModeFull, false},
		{"translate", "translate", false, translate.ModeFull, false},
		{"summary", "summary", false, translate.ModeSummary, false},
		{"flag wins", "translate", true, translate.ModeSummary, false},
		{"unknown", "poem", false, translate.ModeFull, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseModeFlag(tt.value, tt.summary)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("mode = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNeutralTag(t *testing.T) {
	table := language.Default()
	en, _ := table.Lookup("en")
	if got := neutralTag(table, "en"); got != en.VoiceTag() {
		t.Errorf("neutralTag(en) = %q, want %q", got, en.VoiceTag())
	}
	if got := neutralTag(table, "xx-YY"); got != "xx-YY" {
		t.Errorf("neutralTag(unknown) = %q", got)
	}
}

func TestNewListener(t *testing.T) {
	c := config.Default()

	if l := newListener(c, false, strings.NewReader(""), &strings.Builder{}); l != nil {
		t.Errorf("listener without microphone or typed input = %T, want nil", l)
	}

	var out strings.Builder
	l := newListener(c, true, strings.NewReader("Translate to Telugu\n"), &out)
	if l == nil {
		t.Fatal("typed listener is nil")
	}
	phrase, err := l.Listen(context.Background())
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	if phrase != "Translate to Telugu" {
		t.Errorf("phrase = %q", phrase)
	}
}

func TestFormatError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		err      error
		want     string
		wantHint bool
	}{
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: "Error: boom\n",
		},
		{
			name:     "no text carries code and hint",
			err:      vaerr.Wrap(vaerr.New("no text").WithCode(vaerr.CodeNoTextFound), "scan"),
			want:     "Error: scan: no text [NO_TEXT_FOUND]\n",
			wantHint: true,
		},
		{
			name:     "unreachable with message",
			msg:      "translation failed",
			err:      translate.ErrServiceUnreachable,
			want:     "Error: translation failed: translation service unreachable [SERVICE_UNREACHABLE]\n",
			wantHint: true,
		},
		{
			name: "code without hint",
			err:  vaerr.New("bad").WithCode(vaerr.CodeConfigError),
			want: "Error: bad [CONFIG_ERROR]\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatError(tt.msg, tt.err)
			if !strings.HasPrefix(got, tt.want) {
				t.Errorf("formatError() = %q, want prefix %q", got, tt.want)
			}
			if hint := strings.Contains(got, "Hint: "); hint != tt.wantHint {
				t.Errorf("hint present = %v, want %v (%q)", hint, tt.wantHint, got)
			}
		})
	}
}
