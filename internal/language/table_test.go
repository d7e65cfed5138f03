package language

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_Contents(t *testing.T) {
	table := Default()

	if table.Len() != 23 {
		t.Errorf("Len() = %v, want 23", table.Len())
	}

	required := []string{"te", "hi", "ta", "kn", "ml", "bn", "gu", "mr", "pa", "en"}
	for _, code := range required {
		if _, ok := table.Lookup(code); !ok {
			t.Errorf("Lookup(%q) not found", code)
		}
	}

	if _, ok := table.Lookup(Neutral); !ok {
		t.Error("neutral language must be in the table")
	}
}

func TestTable_Lookup(t *testing.T) {
	tests := []struct {
		code      string
		wantName  string
		wantVoice string
		wantOK    bool
	}{
		{"te", "Telugu", "te-IN", true},
		{"TE", "Telugu", "te-IN", true},
		{" ur ", "Urdu", "ur-PK", true},
		{"mni-mtei", "Manipuri", "hi-IN", true},
		{"xx", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, ok := Default().Lookup(tt.code)
			if ok != tt.wantOK {
				t.Fatalf("Lookup() ok = %v, want %v", ok, tt.wantOK)
			}
			if got.Name != tt.wantName {
				t.Errorf("Name = %v, want %v", got.Name, tt.wantName)
			}
			if got.VoiceTag() != tt.wantVoice && tt.wantOK {
				t.Errorf("VoiceTag() = %v, want %v", got.VoiceTag(), tt.wantVoice)
			}
		})
	}
}

func TestTable_Find(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"hi", "hi"},
		{"Hindi", "hi"},
		{"kannada", "kn"},
		{"తెలుగు", "te"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Default().Find(tt.input)
			if !ok {
				t.Fatalf("Find(%q) not found", tt.input)
			}
			if got.Code != tt.want {
				t.Errorf("Find(%q) = %v, want %v", tt.input, got.Code, tt.want)
			}
		})
	}
}

func TestTable_MatchPhrase(t *testing.T) {
	tests := []struct {
		phrase string
		want   string
		wantOK bool
	}{
		{"Translate to Telugu", "te", true},
		{"please read it in tamil!", "ta", true},
		{"హిందీ లో కాదు, తెలుగు", "te", true},
		{"translate to klingon", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			got, ok := Default().MatchPhrase(tt.phrase)
			if ok != tt.wantOK {
				t.Fatalf("MatchPhrase() ok = %v, want %v", ok, tt.wantOK)
			}
			if got.Code != tt.want {
				t.Errorf("MatchPhrase() = %v, want %v", got.Code, tt.want)
			}
		})
	}
}

func TestNewTable_ReplacesDuplicateCodes(t *testing.T) {
	table := NewTable([]Language{
		{Name: "Hindi", Code: "hi", Voice: "hi-IN"},
		{Name: "Hindustani", Code: "hi", Voice: "hi-IN"},
		{Code: ""},
	})

	if table.Len() != 1 {
		t.Fatalf("Len() = %v, want 1", table.Len())
	}
	if _, ok := table.Find("Hindi"); ok {
		t.Error("replaced name should no longer resolve")
	}
	if got, _ := table.Find("hindustani"); got.Code != "hi" {
		t.Errorf("Find(hindustani) = %v, want hi", got.Code)
	}
}

func TestLanguage_Label(t *testing.T) {
	te, _ := Default().Lookup("te")
	if te.Label() != "Telugu (తెలుగు)" {
		t.Errorf("Label() = %v", te.Label())
	}
	en, _ := Default().Lookup("en")
	if en.Label() != "English" {
		t.Errorf("Label() = %v, want English", en.Label())
	}
	if (Language{Code: "xx"}).VoiceTag() != "xx" {
		t.Error("VoiceTag() should fall back to code")
	}
}

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()

	merge := filepath.Join(dir, "merge.yaml")
	os.WriteFile(merge, []byte(`
languages:
  - name: Tulu
    code: tcy
    native: ತುಳು
    voice: kn-IN
  - name: Telugu
    code: te
    voice: te-IN
`), 0644)

	table, err := LoadTable(merge)
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}
	if table.Len() != 24 {
		t.Errorf("Len() = %v, want 24", table.Len())
	}
	if tulu, ok := table.Lookup("tcy"); !ok || tulu.VoiceTag() != "kn-IN" {
		t.Errorf("Lookup(tcy) = %+v, %v", tulu, ok)
	}
	if te, _ := table.Lookup("te"); te.Native != "" {
		t.Errorf("override should replace the entry, got native %q", te.Native)
	}

	replace := filepath.Join(dir, "replace.yaml")
	os.WriteFile(replace, []byte("replace: true\nlanguages:\n  - {name: English, code: en, voice: en-US}\n"), 0644)

	table, err = LoadTable(replace)
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}
	if table.Len() != 1 {
		t.Errorf("Len() = %v, want 1", table.Len())
	}
}

func TestLoadTable_Errors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.yaml")
	os.WriteFile(empty, []byte("languages: []\n"), 0644)
	broken := filepath.Join(dir, "broken.yaml")
	os.WriteFile(broken, []byte("languages: [\n"), 0644)

	for _, path := range []string{filepath.Join(dir, "missing.yaml"), empty, broken} {
		if _, err := LoadTable(path); err == nil {
			t.Errorf("LoadTable(%s) expected error", filepath.Base(path))
		}
	}
}
