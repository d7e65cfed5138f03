package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"seconds", "30s", 30 * time.Second, false},
		{"minutes", "5m", 5 * time.Minute, false},
		{"complex", "1h30m", 90 * time.Minute, false},
		{"milliseconds", "1200ms", 1200 * time.Millisecond, false},
		{"invalid", "invalid", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))

			if (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalText() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && d.Duration != tt.expected {
				t.Errorf("UnmarshalText() = %v, want %v", d.Duration, tt.expected)
			}
		})
	}
}

func TestDuration_MarshalText(t *testing.T) {
	d := Duration{45 * time.Second}
	result, err := d.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText() error = %v", err)
	}
	if string(result) != "45s" {
		t.Errorf("MarshalText() = %v, want 45s", string(result))
	}
}

func TestConfig_applyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.General.Name != "Vaani" {
		t.Errorf("General.Name = %v, want Vaani", cfg.General.Name)
	}
	if cfg.Service.BaseURL != "http://127.0.0.1:8000" {
		t.Errorf("Service.BaseURL = %v, want http://127.0.0.1:8000", cfg.Service.BaseURL)
	}
	if cfg.Service.TranslateTimeout.Duration != 45*time.Second {
		t.Errorf("Service.TranslateTimeout = %v, want 45s", cfg.Service.TranslateTimeout.Duration)
	}
	if cfg.Capture.Languages != "eng+hin+tel+tam+kan+mar+guj+ben+pan+mal" {
		t.Errorf("Capture.Languages = %v", cfg.Capture.Languages)
	}
	if cfg.Capture.RenderScale != 1.5 {
		t.Errorf("Capture.RenderScale = %v, want 1.5", cfg.Capture.RenderScale)
	}
	if cfg.Capture.MinTextLength != 5 {
		t.Errorf("Capture.MinTextLength = %v, want 5", cfg.Capture.MinTextLength)
	}
	if cfg.Speech.LocalThreshold != 100 {
		t.Errorf("Speech.LocalThreshold = %v, want 100", cfg.Speech.LocalThreshold)
	}
	if cfg.Speech.NeutralLanguage != "en" {
		t.Errorf("Speech.NeutralLanguage = %v, want en", cfg.Speech.NeutralLanguage)
	}
	if cfg.Speech.Rate != 1.0 {
		t.Errorf("Speech.Rate = %v, want 1.0", cfg.Speech.Rate)
	}
	if cfg.Listen.SampleRate != 16000 {
		t.Errorf("Listen.SampleRate = %v, want 16000", cfg.Listen.SampleRate)
	}
	if cfg.History.Backend != "sqlite" {
		t.Errorf("History.Backend = %v, want sqlite", cfg.History.Backend)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %v, want 8000", cfg.Server.Port)
	}
	if cfg.Server.Provider != "ollama" {
		t.Errorf("Server.Provider = %v, want ollama", cfg.Server.Provider)
	}
}

func TestConfig_Addresses(t *testing.T) {
	cfg := Default()

	if got := cfg.ServerAddress(); got != "127.0.0.1:8000" {
		t.Errorf("ServerAddress() = %v, want 127.0.0.1:8000", got)
	}

	cfg.Status.Listen = ":9999"
	if got := cfg.StatusURL(); got != "ws://127.0.0.1:9999/ws/status" {
		t.Errorf("StatusURL() = %v", got)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.toml"); err == nil {
		t.Error("Load() expected error for non-existent file")
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
[general]
data_dir = "` + tmpDir + `"

[service]
base_url = "http://translator.local:8000"
translate_timeout = "10s"

[speech]
local_threshold = 60
rate = 1.25

[server.piper.voices]
te = "te_IN-venkatesh-medium"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.BaseURL != "http://translator.local:8000" {
		t.Errorf("Service.BaseURL = %v", cfg.Service.BaseURL)
	}
	if cfg.Service.TranslateTimeout.Duration != 10*time.Second {
		t.Errorf("Service.TranslateTimeout = %v, want 10s", cfg.Service.TranslateTimeout.Duration)
	}
	if cfg.Speech.LocalThreshold != 60 {
		t.Errorf("Speech.LocalThreshold = %v, want 60", cfg.Speech.LocalThreshold)
	}
	if cfg.Speech.Rate != 1.25 {
		t.Errorf("Speech.Rate = %v, want 1.25", cfg.Speech.Rate)
	}
	if cfg.Server.Piper.Voices["te"] != "te_IN-venkatesh-medium" {
		t.Errorf("Server.Piper.Voices[te] = %v", cfg.Server.Piper.Voices["te"])
	}
	if cfg.History.Path != filepath.Join(tmpDir, "vaani.db") {
		t.Errorf("History.Path = %v, want derived from data_dir", cfg.History.Path)
	}
	if cfg.Speech.NeutralLanguage != "en" {
		t.Errorf("Speech.NeutralLanguage = %v, want en (default)", cfg.Speech.NeutralLanguage)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	os.WriteFile(configPath, []byte("[service]\ntranslate_timeout = \"soon\"\n"), 0644)

	if _, err := Load(configPath); err == nil {
		t.Error("Load() expected error for invalid duration")
	}
}

func TestConfig_expandEnvVars(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "secret-key-123")

	cfg := &Config{}
	cfg.Server.Providers.OpenAI.APIKey = "$TEST_OPENAI_KEY"
	cfg.expandEnvVars()

	if cfg.Server.Providers.OpenAI.APIKey != "secret-key-123" {
		t.Errorf("APIKey = %v, want secret-key-123", cfg.Server.Providers.OpenAI.APIKey)
	}
}

func TestLoadFromEnv_NoConfigFound(t *testing.T) {
	t.Setenv("VAANI_CONFIG", "")
	t.Setenv("HOME", t.TempDir())

	originalWd, _ := os.Getwd()
	os.Chdir(t.TempDir())
	defer os.Chdir(originalWd)

	_, err := LoadFromEnv()
	if !errors.Is(err, ErrNoConfigFile) {
		t.Errorf("LoadFromEnv() error = %v, want ErrNoConfigFile", err)
	}

	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("LoadOrDefault() should return defaults, got port %v", cfg.Server.Port)
	}
}

func TestLoadFromEnv_UsesVariable(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "custom.toml")
	os.WriteFile(configPath, []byte("[server]\nport = 9100\n"), 0644)
	t.Setenv("VAANI_CONFIG", configPath)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %v, want 9100", cfg.Server.Port)
	}
}

func TestLoad_ExampleConfig(t *testing.T) {
	cfg, err := Load("../../../configs/config.example.toml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Listen.SilenceDuration.Duration != 1200*time.Millisecond {
		t.Errorf("Listen.SilenceDuration = %v, want 1.2s", cfg.Listen.SilenceDuration.Duration)
	}
	if cfg.Server.Piper.Voices["hi"] != "hi_IN-pratham-medium" {
		t.Errorf("Server.Piper.Voices = %v", cfg.Server.Piper.Voices)
	}
	if cfg.Watch.Settle.Duration != 500*time.Millisecond {
		t.Errorf("Watch.Settle = %v, want 500ms", cfg.Watch.Settle.Duration)
	}
}
