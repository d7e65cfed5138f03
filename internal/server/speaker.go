package server

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/msto63/vaani/internal/language"
)

// Synthesizer turns text into WAV audio
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

// DefaultVoices maps language codes to piper voice models
var DefaultVoices = map[string]string{
	"en": "en_US-lessac-medium",
	"hi": "hi_IN-pratham-medium",
	"te": "te_IN-maya-medium",
	"ml": "ml_IN-meera-medium",
	"ne": "ne_NP-google-medium",
}

// PiperSpeaker runs the piper binary once per request
type PiperSpeaker struct {
	binary   string
	modelDir string
	voices   map[string]string
}

// NewPiperSpeaker creates a speaker; voices extend DefaultVoices
func NewPiperSpeaker(binary, modelDir string, voices map[string]string) *PiperSpeaker {
	merged := make(map[string]string, len(DefaultVoices)+len(voices))
	for k, v := range DefaultVoices {
		merged[k] = v
	}
	for k, v := range voices {
		merged[strings.ToLower(k)] = v
	}
	return &PiperSpeaker{binary: binary, modelDir: modelDir, voices: merged}
}

// Binary returns the configured piper executable
func (p *PiperSpeaker) Binary() string {
	return p.binary
}

// Voice returns the model for lang, falling back to English
func (p *PiperSpeaker) Voice(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if v, ok := p.voices[lang]; ok {
		return v
	}
	return p.voices[language.Neutral]
}

// ModelPath returns the .onnx path for a voice
func (p *PiperSpeaker) ModelPath(voice string) string {
	if filepath.Ext(voice) == ".onnx" || filepath.IsAbs(voice) {
		return voice
	}
	return filepath.Join(p.modelDir, voice+".onnx")
}

// Synthesize runs piper with text on stdin and returns the WAV file it wrote
func (p *PiperSpeaker) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty text")
	}

	out, err := os.CreateTemp("", "vaani-speak-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	cmd := exec.CommandContext(ctx, p.binary, "--model", p.ModelPath(p.Voice(lang)), "--output_file", outPath)
	cmd.Stdin = strings.NewReader(text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("piper failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read piper output: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("piper produced no audio")
	}
	return data, nil
}
