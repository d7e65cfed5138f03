// ============================================================================
// Vaani - Scan, Translate, Speak
// ============================================================================
//
// Package:     translate
// Description: Translation requests with failure classification
// Author:      Mike Stoffels
// Created:     2026-10-03
// License:     MIT
// ============================================================================

package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/msto63/vaani/internal/service"
	vaerr "github.com/msto63/vaani/pkg/core/error"
	"github.com/msto63/vaani/pkg/core/logging"
)

var (
	// ErrServiceUnreachable covers transport errors, timeouts and non-2xx answers
	ErrServiceUnreachable = vaerr.New("translation service unreachable").WithCode(vaerr.CodeServiceUnreachable)

	// ErrEmptyTranslation is returned when the service answered without text
	ErrEmptyTranslation = vaerr.New("empty translation").WithCode(vaerr.CodeEmptyTranslation)
)

// Mode selects full translation or a simplified summary
type Mode int

const (
	ModeFull Mode = iota
	ModeSummary
)

// String returns the display name of the mode
func (m Mode) String() string {
	if m == ModeSummary {
		return "SUMMARY"
	}
	return "FULL"
}

// WireName returns the value sent in the "mode" field
func (m Mode) WireName() string {
	if m == ModeSummary {
		return "summary"
	}
	return "translate"
}

// Toggle returns the other mode
func (m Mode) Toggle() Mode {
	if m == ModeSummary {
		return ModeFull
	}
	return ModeSummary
}

// ParseMode accepts "full", "translate", "summary" (case-insensitive)
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "full", "translate":
		return ModeFull, nil
	case "summary", "summarize":
		return ModeSummary, nil
	default:
		return ModeFull, fmt.Errorf("unknown mode %q", s)
	}
}

// Backend performs the raw /translate call
type Backend interface {
	Translate(ctx context.Context, req service.TranslateRequest) (service.TranslateResponse, error)
}

// Requestor sends one translation per call and classifies failures
type Requestor struct {
	backend Backend
	timeout time.Duration
	logger  *logging.Logger
}

// NewRequestor creates a requestor; a zero timeout disables the per-call deadline
func NewRequestor(backend Backend, timeout time.Duration) *Requestor {
	return &Requestor{
		backend: backend,
		timeout: timeout,
		logger:  logging.New("translate"),
	}
}

// Translate returns the translated text or ErrServiceUnreachable / ErrEmptyTranslation
func (r *Requestor) Translate(ctx context.Context, text, dest string, mode Mode) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := r.backend.Translate(ctx, service.TranslateRequest{
		Text: text,
		Dest: dest,
		Mode: mode.WireName(),
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		wrapped := vaerr.Wrap(ErrServiceUnreachable, err.Error()).
			WithOperation("translate").
			WithDetail("dest", dest)
		var statusErr *service.StatusError
		if errors.As(err, &statusErr) {
			wrapped.WithDetail("status", statusErr.StatusCode)
		}
		return "", wrapped
	}

	if resp.Error != "" {
		sentinel := ErrServiceUnreachable
		if resp.Code == service.CodeEmptyOutput {
			sentinel = ErrEmptyTranslation
		}
		return "", vaerr.Wrap(sentinel, resp.Error).
			WithOperation("translate").
			WithDetail("dest", dest).
			WithDetail("service_code", resp.Code)
	}

	translated := strings.TrimSpace(resp.TranslatedText)
	if translated == "" {
		return "", vaerr.Wrap(ErrEmptyTranslation, "service returned no translated_text").
			WithOperation("translate").
			WithDetail("dest", dest)
	}

	r.logger.Info("Translation received",
		"dest", dest,
		"mode", mode.WireName(),
		"chars", len([]rune(translated)),
		"duration", time.Since(start).String())
	return translated, nil
}
