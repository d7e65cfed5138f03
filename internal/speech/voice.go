package speech

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

const (
	// MinRate and MaxRate bound the speaking rate multiplier
	MinRate = 0.5
	MaxRate = 2.0
)

// LocalVoice speaks text on the device without any network call
type LocalVoice interface {
	Speak(ctx context.Context, text, tag string) error
}

// ClampRate keeps a rate within [MinRate, MaxRate]; zero means 1.0
func ClampRate(rate float64) float64 {
	if rate == 0 || math.IsNaN(rate) {
		return 1.0
	}
	return math.Max(MinRate, math.Min(MaxRate, rate))
}

// LanguageOf returns the primary subtag of a voice tag ("hi-IN" -> "hi")
func LanguageOf(tag string) string {
	tag = strings.ReplaceAll(tag, "_", "-")
	if i := strings.IndexByte(tag, '-'); i > 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}

// voiceEngine describes a speech command line
type voiceEngine struct {
	binary   string
	baseWPM  int
	voiceArg func(v *ExecVoice, ctx context.Context, tag string) (string, bool)
}

// ExecVoice speaks through "say" on macOS or espeak-ng elsewhere
type ExecVoice struct {
	engine voiceEngine
	rate   float64

	voicesOnce sync.Once
	voices     map[string]string
}

var (
	sayEngine    = voiceEngine{binary: "say", baseWPM: 200, voiceArg: (*ExecVoice).sayVoice}
	espeakEngine = voiceEngine{binary: "espeak-ng", baseWPM: 175, voiceArg: (*ExecVoice).espeakVoice}
)

// NewExecVoice picks an engine by name ("say", "espeak-ng", "espeak" or "auto")
func NewExecVoice(name string, rate float64) (*ExecVoice, error) {
	var engine voiceEngine
	switch strings.ToLower(name) {
	case "say":
		engine = sayEngine
	case "espeak-ng":
		engine = espeakEngine
	case "espeak":
		engine = espeakEngine
		engine.binary = "espeak"
	case "", "auto":
		if runtime.GOOS == "darwin" {
			engine = sayEngine
		} else if _, err := exec.LookPath("espeak-ng"); err == nil {
			engine = espeakEngine
		} else {
			engine = espeakEngine
			engine.binary = "espeak"
		}
	default:
		return nil, fmt.Errorf("unknown local voice %q", name)
	}

	if _, err := exec.LookPath(engine.binary); err != nil {
		return nil, fmt.Errorf("local voice %s not available: %w", engine.binary, err)
	}
	return &ExecVoice{engine: engine, rate: ClampRate(rate)}, nil
}

// Binary returns the speech command in use
func (v *ExecVoice) Binary() string {
	return v.engine.binary
}

// Speak says text with the voice for tag. When the engine has no voice for
// tag, or speaking with it fails, the device default voice is used.
func (v *ExecVoice) Speak(ctx context.Context, text, tag string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if voice, ok := v.engine.voiceArg(v, ctx, tag); ok {
		err := v.run(ctx, voice, text)
		if err == nil || ctx.Err() != nil {
			return err
		}
	}
	return v.run(ctx, "", text)
}

func (v *ExecVoice) run(ctx context.Context, voice, text string) error {
	cmd := exec.CommandContext(ctx, v.engine.binary, v.args(voice, text)...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w", v.engine.binary, err)
	}
	return nil
}

func (v *ExecVoice) args(voice, text string) []string {
	var args []string
	if voice != "" {
		args = append(args, "-v", voice)
	}
	wpm := int(math.Round(float64(v.engine.baseWPM) * v.rate))
	if v.engine.binary == "say" {
		args = append(args, "-r", strconv.Itoa(wpm))
	} else {
		args = append(args, "-s", strconv.Itoa(wpm))
	}
	return append(args, text)
}

func (v *ExecVoice) espeakVoice(ctx context.Context, tag string) (string, bool) {
	lang := LanguageOf(tag)
	return lang, lang != ""
}

// sayVoice finds an installed voice whose locale matches tag
func (v *ExecVoice) sayVoice(ctx context.Context, tag string) (string, bool) {
	v.voicesOnce.Do(func() {
		out, err := exec.CommandContext(ctx, "say", "-v", "?").Output()
		if err == nil {
			v.voices = parseSayVoices(out)
		}
	})
	locale := strings.ToLower(strings.ReplaceAll(tag, "-", "_"))
	if name, ok := v.voices[locale]; ok {
		return name, true
	}
	name, ok := v.voices[LanguageOf(tag)]
	return name, ok
}

// parseSayVoices maps locale ("hi_in") and language ("hi") to the first
// voice name listed for it by `say -v ?`.
func parseSayVoices(out []byte) map[string]string {
	voices := make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		locale := strings.ToLower(fields[len(fields)-1])
		name := strings.Join(fields[:len(fields)-1], " ")
		if _, ok := voices[locale]; !ok {
			voices[locale] = name
		}
		lang := LanguageOf(locale)
		if _, ok := voices[lang]; !ok {
			voices[lang] = name
		}
	}
	return voices
}
