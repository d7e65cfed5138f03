package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/msto63/vaani/internal/capture"
	"github.com/msto63/vaani/internal/history"
	"github.com/msto63/vaani/internal/language"
	"github.com/msto63/vaani/internal/listen"
	"github.com/msto63/vaani/internal/pipeline"
	"github.com/msto63/vaani/internal/service"
	"github.com/msto63/vaani/internal/speech"
	"github.com/msto63/vaani/internal/translate"
	"github.com/msto63/vaani/pkg/core/config"
	"github.com/msto63/vaani/pkg/core/logging"
)

// app holds the components shared by the client commands
type app struct {
	client       *service.Client
	capture      *capture.Adapter
	languages    *language.Table
	dispatcher   *speech.Dispatcher
	history      *history.Store
	backend      history.Backend
	orchestrator *pipeline.Orchestrator
	listener     listen.Listener
	logger       *logging.Logger
}

// appOptions selects how a spoken language choice is captured
type appOptions struct {
	// TypedPhrases reads the phrase from stdin when the microphone is disabled
	TypedPhrases bool
	Mode         translate.Mode
}

func newApp(ctx context.Context, c *config.Config, opts appOptions) (*app, error) {
	a := &app{logger: logging.New("vaani")}

	table := language.Default()
	if c.Languages.TableFile != "" {
		t, err := language.LoadTable(c.Languages.TableFile)
		if err != nil {
			return nil, err
		}
		table = t
	}
	a.languages = table

	a.client = service.NewClient(service.Config{BaseURL: c.Service.BaseURL, Timeout: 2 * time.Minute})

	paginator := capture.NewPopplerPaginator(c.Capture.PdfinfoPath, c.Capture.PdftoppmPath, c.Capture.RenderScale)
	engine := capture.NewTesseractEngine(c.Capture.TessdataPrefix, paginator.DPI())
	a.capture = capture.NewAdapter(engine, paginator, capture.Config{
		Languages:     c.Capture.Languages,
		MinImageWidth: c.Capture.MinImageWidth,
		Timeout:       c.Capture.Timeout.Duration,
	})

	dispatcher, err := newDispatcher(c, a.client, a.logger)
	if err != nil {
		return nil, err
	}
	a.dispatcher = dispatcher

	backend, err := history.Open(c.History.Backend, c.History.Path)
	if err != nil {
		return nil, err
	}
	a.backend = backend
	a.history = history.NewStore(backend)
	a.history.LoadAll(ctx)

	a.listener = newListener(c, opts.TypedPhrases, os.Stdin, os.Stderr)

	a.orchestrator = pipeline.New(pipeline.Options{
		Capture:       a.capture,
		Translator:    translate.NewRequestor(a.client, c.Service.TranslateTimeout.Duration),
		Resolver:      language.NewResolver(a.client, table, c.Service.ParseTimeout.Duration),
		Speaker:       a.dispatcher,
		History:       a.history,
		Listener:      a.listener,
		Languages:     table,
		NeutralTag:    neutralTag(table, c.Speech.NeutralLanguage),
		MinTextLength: c.Capture.MinTextLength,
		Mode:          opts.Mode,
	})
	return a, nil
}

// Close stops playback and releases the history backend
func (a *app) Close() error {
	a.dispatcher.Stop()
	a.orchestrator.Close()
	return a.backend.Close()
}

func newDispatcher(c *config.Config, remote *service.Client, logger *logging.Logger) (*speech.Dispatcher, error) {
	player, err := speech.NewPlayer(c.Speech.Player, c.Speech.PlayerCommand)
	if err != nil {
		return nil, err
	}

	var local speech.LocalVoice
	if v, err := speech.NewExecVoice(c.Speech.LocalVoice, c.Speech.Rate); err != nil {
		logger.Warn("Local voice unavailable, prompts need the language service", "error", err)
	} else {
		local = v
	}

	return speech.NewDispatcher(local, timedSpeaker{remote, c.Service.SpeakTimeout.Duration}, player, speech.Config{
		NeutralLanguage: c.Speech.NeutralLanguage,
		LocalThreshold:  c.Speech.LocalThreshold,
	}), nil
}

// newListener returns the microphone listener when enabled. Otherwise,
// with typed set, phrases are read line by line from r.
func newListener(c *config.Config, typed bool, r io.Reader, w io.Writer) listen.Listener {
	if c.Listen.Enabled {
		vadCfg := listen.Config{
			SampleRate:        c.Listen.SampleRate,
			Mode:              c.Listen.VADMode,
			SilenceDuration:   c.Listen.SilenceDuration.Duration,
			MinSpeechDuration: c.Listen.MinSpeech.Duration,
		}
		detector, err := listen.NewWebRTCVAD(vadCfg)
		if err == nil {
			// 30ms frames
			source := listen.NewCapture(c.Listen.SampleRate, c.Listen.SampleRate*30/1000)
			transcriber := listen.NewWhisperHTTP(c.Listen.WhisperURL, c.Listen.Language, c.Listen.SampleRate, c.Listen.Timeout.Duration)
			return listen.NewMicListener(source, detector, transcriber, listen.MicConfig{
				SampleRate:  c.Listen.SampleRate,
				MaxDuration: c.Listen.MaxDuration.Duration,
				VAD:         vadCfg,
			})
		}
		logging.New("vaani").Warn("Microphone listener unavailable", "error", err)
	}
	if typed {
		return listen.NewLineListener(r, w)
	}
	return nil
}

func neutralTag(table *language.Table, code string) string {
	if l, ok := table.Lookup(code); ok {
		return l.VoiceTag()
	}
	return code
}

// timedSpeaker bounds every /speak request
type timedSpeaker struct {
	client  *service.Client
	timeout time.Duration
}

func (s timedSpeaker) Speak(ctx context.Context, text, lang string) (service.Audio, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.client.Speak(ctx, text, lang)
}

func parseModeFlag(s string, summary bool) (translate.Mode, error) {
	if summary {
		return translate.ModeSummary, nil
	}
	mode, err := translate.ParseMode(s)
	if err != nil {
		return mode, fmt.Errorf("invalid mode %q: %w", s, err)
	}
	return mode, nil
}
