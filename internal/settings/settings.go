// ============================================================================
// Vaani - Scan, Translate, Speak
// ============================================================================
//
// Package:     settings
// Description: Per-user preferences that survive restarts
// Author:      Mike Stoffels
// Created:     2026-10-09
// License:     MIT
// ============================================================================

package settings

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/msto63/vaani/internal/speech"
	"github.com/msto63/vaani/internal/translate"
	"github.com/msto63/vaani/pkg/core/config"
)

// File holds persistent user settings
type File struct {
	SpeechRate     float64 `json:"speech_rate"`
	Mode           string  `json:"mode"`
	LastLanguage   string  `json:"last_language"`
	LocalThreshold int     `json:"local_threshold"`
}

// DefaultPath returns ~/.config/vaani/settings.json
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "vaani", "settings.json"), nil
}

// Load reads settings from path. A missing file yields zero settings.
func Load(path string) (File, error) {
	var s File
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, err
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return File{}, err
	}
	return s, nil
}

// Save writes settings to path, creating the directory
func Save(path string, s File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	s.SpeechRate = speech.ClampRate(s.SpeechRate)

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Apply overlays the non-zero settings onto cfg
func (s File) Apply(cfg *config.Config) {
	if s.SpeechRate > 0 {
		cfg.Speech.Rate = speech.ClampRate(s.SpeechRate)
	}
	if s.LocalThreshold > 0 {
		cfg.Speech.LocalThreshold = s.LocalThreshold
	}
	if s.LastLanguage != "" {
		cfg.Watch.Language = s.LastLanguage
	}
}

// TranslateMode returns the remembered mode, defaulting to full translation
func (s File) TranslateMode() translate.Mode {
	mode, err := translate.ParseMode(s.Mode)
	if err != nil {
		return translate.ModeFull
	}
	return mode
}

// Remember stores the mode and language of the latest translation
func (s *File) Remember(mode translate.Mode, lang string) {
	s.Mode = mode.WireName()
	if lang != "" {
		s.LastLanguage = lang
	}
}
