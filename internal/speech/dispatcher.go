// ============================================================================
// Vaani - Scan, Translate, Speak
// ============================================================================
//
// Package:     speech
// Description: Chooses between local and remote voice and owns playback
// Author:      Mike Stoffels
// Created:     2026-10-06
// License:     MIT
// ============================================================================

// Package speech plays results aloud. Short text in the neutral language is
// spoken by the local voice; everything else is synthesized remotely and
// falls back to the local voice when that fails.
package speech

import (
	"context"
	"sync"
	"unicode/utf8"

	"github.com/msto63/vaani/internal/service"
	vaerr "github.com/msto63/vaani/pkg/core/error"
	"github.com/msto63/vaani/pkg/core/logging"
)

// Status is the observable playback status
type Status string

const (
	StatusIdle            Status = "IDLE"
	StatusRequestingAudio Status = "REQUESTING_AUDIO"
	StatusPlaying         Status = "PLAYING"
)

// DefaultLocalThreshold is the length below which neutral text stays local
const DefaultLocalThreshold = 100

// ErrAudioServiceFailed marks a failed remote synthesis or playback
var ErrAudioServiceFailed = vaerr.New("audio service failed").WithCode(vaerr.CodeAudioServiceFailed)

// Request is a single playback request
type Request struct {
	Content     string
	LanguageTag string
}

// RemoteSpeaker synthesizes audio for text
type RemoteSpeaker interface {
	Speak(ctx context.Context, text, lang string) (service.Audio, error)
}

// Config configures a Dispatcher
type Config struct {
	NeutralLanguage string
	LocalThreshold  int
}

// Dispatcher owns the single active playback
type Dispatcher struct {
	local     LocalVoice
	remote    RemoteSpeaker
	player    Player
	neutral   string
	threshold int
	logger    *logging.Logger

	// playMu serializes Play so cancel-then-start never overlaps
	playMu sync.Mutex

	mu      sync.Mutex
	status  Status
	gen     uint64
	cancel  context.CancelFunc
	done    chan struct{}
	lastErr error
	subs    []func(Status)
}

// NewDispatcher creates an idle dispatcher
func NewDispatcher(local LocalVoice, remote RemoteSpeaker, player Player, cfg Config) *Dispatcher {
	if cfg.NeutralLanguage == "" {
		cfg.NeutralLanguage = "en"
	}
	if cfg.LocalThreshold <= 0 {
		cfg.LocalThreshold = DefaultLocalThreshold
	}
	return &Dispatcher{
		local:     local,
		remote:    remote,
		player:    player,
		neutral:   LanguageOf(cfg.NeutralLanguage),
		threshold: cfg.LocalThreshold,
		status:    StatusIdle,
		logger:    logging.New("speech"),
	}
}

// Subscribe registers fn for status changes. Callbacks run synchronously
// and must not call back into the Dispatcher.
func (d *Dispatcher) Subscribe(fn func(Status)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs = append(d.subs, fn)
}

// Status returns the current status
func (d *Dispatcher) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// UsesLocalVoice reports whether req is spoken without a remote call
func (d *Dispatcher) UsesLocalVoice(req Request) bool {
	return LanguageOf(req.LanguageTag) == d.neutral &&
		utf8.RuneCountInString(req.Content) < d.threshold
}

// Play cancels any active playback, waits for it to wind down and starts
// req in the background. It returns once the new playback has started.
func (d *Dispatcher) Play(ctx context.Context, req Request) {
	d.playMu.Lock()
	defer d.playMu.Unlock()

	d.mu.Lock()
	prevCancel, prevDone := d.cancel, d.done
	d.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
		<-prevDone
	}

	playCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	d.mu.Lock()
	d.gen++
	gen := d.gen
	d.cancel = cancel
	d.done = done
	d.lastErr = nil
	d.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		err := d.run(playCtx, gen, req)

		d.mu.Lock()
		if d.gen == gen {
			d.lastErr = err
		}
		d.mu.Unlock()
		d.setStatus(gen, StatusIdle)
	}()
}

// Stop cancels playback and forces IDLE. Safe to call at any time.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	d.gen++
	changed := d.status != StatusIdle
	d.status = StatusIdle
	subs := d.subs
	if changed {
		for _, fn := range subs {
			fn(StatusIdle)
		}
	}
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the current playback finishes and returns its error.
// Stopped playbacks report nil.
func (d *Dispatcher) Wait(ctx context.Context) error {
	d.mu.Lock()
	done, gen := d.done, d.gen
	d.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gen != gen {
		return nil
	}
	return d.lastErr
}

func (d *Dispatcher) run(ctx context.Context, gen uint64, req Request) error {
	if d.UsesLocalVoice(req) || d.remote == nil {
		d.setStatus(gen, StatusPlaying)
		return d.speakLocal(ctx, req)
	}

	d.setStatus(gen, StatusRequestingAudio)
	err := d.playRemote(ctx, gen, req)
	if err == nil || ctx.Err() != nil {
		return nil
	}

	d.logger.Warn("Remote audio failed, using local voice",
		"error", err,
		"lang", req.LanguageTag,
		"chars", utf8.RuneCountInString(req.Content))
	d.setStatus(gen, StatusPlaying)
	return d.speakLocal(ctx, req)
}

func (d *Dispatcher) playRemote(ctx context.Context, gen uint64, req Request) error {
	audio, err := d.remote.Speak(ctx, req.Content, LanguageOf(req.LanguageTag))
	if err != nil {
		return vaerr.Wrap(ErrAudioServiceFailed, err.Error()).WithDetail("stage", "synthesize")
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	d.setStatus(gen, StatusPlaying)
	if d.player == nil {
		return vaerr.Wrap(ErrAudioServiceFailed, "no audio player configured")
	}
	if err := d.player.Play(ctx, audio.Data, audio.ContentType); err != nil {
		return vaerr.Wrap(ErrAudioServiceFailed, err.Error()).WithDetail("stage", "playback")
	}
	return nil
}

func (d *Dispatcher) speakLocal(ctx context.Context, req Request) error {
	if d.local == nil {
		return vaerr.New("no local voice available").WithCode(vaerr.CodeAudioServiceFailed)
	}
	if err := d.local.Speak(ctx, req.Content, req.LanguageTag); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		d.logger.Warn("Local voice failed", "error", err, "lang", req.LanguageTag)
		return err
	}
	return nil
}

// setStatus publishes s unless the playback of gen has been superseded
func (d *Dispatcher) setStatus(gen uint64, s Status) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.gen != gen || d.status == s {
		return
	}
	d.status = s
	for _, fn := range d.subs {
		fn(s)
	}
}
