// ============================================================================
// Vaani - Scan, Translate, Speak
// ============================================================================
//
// Package:     speech
// Description: Audio output through PortAudio or an external player
// Author:      Mike Stoffels
// Created:     2026-10-06
// License:     MIT
// ============================================================================

package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// ErrUnsupportedFormat is returned by a player that cannot decode the payload
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Player plays an encoded audio payload until done or cancelled
type Player interface {
	Play(ctx context.Context, data []byte, contentType string) error
}

// PortAudioPlayer plays 16-bit PCM WAV through the default output device
type PortAudioPlayer struct {
	mu         sync.Mutex
	bufferSize int
}

// NewPortAudioPlayer creates a WAV player
func NewPortAudioPlayer() *PortAudioPlayer {
	return &PortAudioPlayer{bufferSize: 1024}
}

// Play decodes data as WAV and streams it, checking ctx between buffers
func (p *PortAudioPlayer) Play(ctx context.Context, data []byte, contentType string) error {
	if !IsWAV(data) {
		return ErrUnsupportedFormat
	}
	info, err := parseWAV(data)
	if err != nil {
		return fmt.Errorf("failed to parse WAV: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer portaudio.Terminate()

	samples := pcmToFloat32(info.Data)
	frames := p.bufferSize
	buffer := make([]float32, frames*info.Channels)

	stream, err := portaudio.OpenDefaultStream(0, info.Channels, info.SampleRate, frames, &buffer)
	if err != nil {
		return fmt.Errorf("failed to open output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start output stream: %w", err)
	}
	defer stream.Stop()

	for pos := 0; pos < len(samples); pos += len(buffer) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		for i := range buffer {
			if pos+i < len(samples) {
				buffer[i] = samples[pos+i]
			} else {
				buffer[i] = 0
			}
		}
		if err := stream.Write(); err != nil {
			return fmt.Errorf("failed to write to stream: %w", err)
		}
	}
	return nil
}

// CommandPlayer hands the payload to an external program via a temp file
type CommandPlayer struct {
	name string
	args []string
}

// knownPlayers are tried in order when no command is configured
var knownPlayers = [][]string{
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
	{"mpv", "--no-video", "--really-quiet"},
	{"afplay"},
	{"paplay"},
	{"aplay", "-q"},
}

// NewCommandPlayer parses command ("ffplay -nodisp"); empty picks the first
// installed known player.
func NewCommandPlayer(command string) (*CommandPlayer, error) {
	if fields := strings.Fields(command); len(fields) > 0 {
		return &CommandPlayer{name: fields[0], args: fields[1:]}, nil
	}
	for _, candidate := range knownPlayers {
		if _, err := exec.LookPath(candidate[0]); err == nil {
			return &CommandPlayer{name: candidate[0], args: candidate[1:]}, nil
		}
	}
	return nil, fmt.Errorf("no audio player found")
}

// Play writes data to a temp file and runs the player on it
func (c *CommandPlayer) Play(ctx context.Context, data []byte, contentType string) error {
	f, err := os.CreateTemp("", "vaani-audio-*"+extensionFor(contentType, data))
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write audio: %w", err)
	}
	f.Close()

	args := append(append([]string{}, c.args...), f.Name())
	cmd := exec.CommandContext(ctx, c.name, args...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w", c.name, err)
	}
	return nil
}

func extensionFor(contentType string, data []byte) string {
	ct := strings.ToLower(contentType)
	switch {
	case IsWAV(data), strings.Contains(ct, "wav"):
		return ".wav"
	case strings.Contains(ct, "mpeg"), strings.Contains(ct, "mp3"):
		return ".mp3"
	case strings.Contains(ct, "ogg"):
		return ".ogg"
	default:
		return ".audio"
	}
}

// fallbackPlayer uses PortAudio for WAV and an external program otherwise
type fallbackPlayer struct {
	wav   Player
	other Player
}

func (f *fallbackPlayer) Play(ctx context.Context, data []byte, contentType string) error {
	if f.wav != nil {
		err := f.wav.Play(ctx, data, contentType)
		if !errors.Is(err, ErrUnsupportedFormat) {
			return err
		}
	}
	if f.other == nil {
		return ErrUnsupportedFormat
	}
	return f.other.Play(ctx, data, contentType)
}

// NewPlayer builds the player selected by kind: "portaudio", "command" or "auto"
func NewPlayer(kind, command string) (Player, error) {
	switch strings.ToLower(kind) {
	case "portaudio":
		return NewPortAudioPlayer(), nil
	case "command":
		return NewCommandPlayer(command)
	case "", "auto":
		cmd, err := NewCommandPlayer(command)
		if err != nil {
			return &fallbackPlayer{wav: NewPortAudioPlayer()}, nil
		}
		return &fallbackPlayer{wav: NewPortAudioPlayer(), other: cmd}, nil
	default:
		return nil, fmt.Errorf("unknown player %q", kind)
	}
}
