// ============================================================================
// Vaani - Scan, Translate, Speak
// ============================================================================
//
// Package:     listen
// Description: Captures a short spoken phrase for language selection
// Author:      Mike Stoffels
// Created:     2026-10-07
// License:     MIT
// ============================================================================

// Package listen records one spoken phrase ("Translate to Telugu") and
// returns its transcript.
package listen

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/msto63/vaani/pkg/core/logging"
)

// ErrNothingHeard is returned when no speech was captured
var ErrNothingHeard = errors.New("nothing heard")

// Listener captures one phrase
type Listener interface {
	Listen(ctx context.Context) (string, error)
}

// Transcriber converts mono float32 samples to text
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32) (string, error)
}

// Source delivers microphone buffers
type Source interface {
	Start(ctx context.Context) error
	Output() <-chan []float32
	Stop() error
}

// MicConfig configures a MicListener
type MicConfig struct {
	SampleRate  int
	MaxDuration time.Duration
	VAD         Config
}

// MicListener records from a Source until the speaker pauses, then transcribes
type MicListener struct {
	source      Source
	detector    Detector
	transcriber Transcriber
	cfg         MicConfig
	logger      *logging.Logger
}

// NewMicListener wires a source, a voice activity detector and a transcriber
func NewMicListener(source Source, detector Detector, transcriber Transcriber, cfg MicConfig) *MicListener {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}
	if cfg.MaxDuration == 0 {
		cfg.MaxDuration = 8 * time.Second
	}
	return &MicListener{
		source:      source,
		detector:    detector,
		transcriber: transcriber,
		cfg:         cfg,
		logger:      logging.New("listen"),
	}
}

// Listen records one utterance and returns its transcript
func (m *MicListener) Listen(ctx context.Context) (string, error) {
	samples, err := m.record(ctx)
	if err != nil {
		return "", err
	}

	text, err := m.transcriber.Transcribe(ctx, samples)
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNothingHeard
	}

	m.logger.Debug("Phrase transcribed", "text", text)
	return text, nil
}

func (m *MicListener) record(ctx context.Context) ([]float32, error) {
	recCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := m.source.Start(recCtx); err != nil {
		return nil, fmt.Errorf("failed to start capture: %w", err)
	}
	defer m.source.Stop()

	tracker := NewSpeechTracker(m.cfg.VAD)
	var recorded []float32
	var elapsed time.Duration

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case buf, ok := <-m.source.Output():
			if !ok {
				return m.finish(tracker, recorded)
			}

			speech, err := m.detector.Process(buf)
			if err != nil {
				return nil, fmt.Errorf("voice detection failed: %w", err)
			}

			frame := time.Duration(len(buf)) * time.Second / time.Duration(m.cfg.SampleRate)
			elapsed += frame
			tracker.Update(speech, frame)
			if tracker.Started() {
				recorded = append(recorded, buf...)
			}

			if tracker.ShouldEndRecording() || elapsed >= m.cfg.MaxDuration {
				return m.finish(tracker, recorded)
			}
		}
	}
}

func (m *MicListener) finish(tracker *SpeechTracker, recorded []float32) ([]float32, error) {
	if !tracker.IsValidSpeech() {
		return nil, ErrNothingHeard
	}
	return recorded, nil
}

// LineListener reads the phrase as a line of text. It backs typed
// selection in the terminal and scripted input.
type LineListener struct {
	prompt io.Writer
	reader *bufio.Reader
}

// NewLineListener reads from r and writes a prompt to w (which may be nil)
func NewLineListener(r io.Reader, w io.Writer) *LineListener {
	return &LineListener{prompt: w, reader: bufio.NewReader(r)}
}

// Listen returns the next non-empty line
func (l *LineListener) Listen(ctx context.Context) (string, error) {
	if l.prompt != nil {
		fmt.Fprint(l.prompt, "Say a language: ")
	}

	type result struct {
		line string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		line, err := l.reader.ReadString('\n')
		done <- result{line, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		line := strings.TrimSpace(r.line)
		if line == "" {
			if r.err != nil && !errors.Is(r.err, io.EOF) {
				return "", r.err
			}
			return "", ErrNothingHeard
		}
		return line, nil
	}
}
