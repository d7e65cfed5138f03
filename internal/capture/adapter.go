// ============================================================================
// Vaani - Scan, Translate, Speak
// ============================================================================
//
// Package:     capture
// Description: OCR and document pagination behind a single adapter
// Author:      Mike Stoffels
// Created:     2026-10-05
// License:     MIT
// ============================================================================

// Package capture turns photographed or uploaded pages into text.
package capture

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"time"

	vaerr "github.com/msto63/vaani/pkg/core/error"
	"github.com/msto63/vaani/pkg/core/logging"
)

// DefaultLanguages is the multi-script OCR hint
const DefaultLanguages = "eng+hin+tel+tam+kan+mar+guj+ben+pan+mal"

// ErrCaptureFailed covers every OCR and rasterization failure
var ErrCaptureFailed = vaerr.New("capture failed").WithCode(vaerr.CodeCaptureFailed)

// Config configures an Adapter
type Config struct {
	Languages     string
	MinImageWidth int
	Timeout       time.Duration
}

// Adapter runs OCR and opens paginated documents
type Adapter struct {
	engine    Engine
	paginator Paginator
	languages []string
	minWidth  int
	timeout   time.Duration
	logger    *logging.Logger
}

// NewAdapter wires an OCR engine and a paginator
func NewAdapter(engine Engine, paginator Paginator, cfg Config) *Adapter {
	if cfg.Languages == "" {
		cfg.Languages = DefaultLanguages
	}
	return &Adapter{
		engine:    engine,
		paginator: paginator,
		languages: SplitLanguages(cfg.Languages),
		minWidth:  cfg.MinImageWidth,
		timeout:   cfg.Timeout,
		logger:    logging.New("capture"),
	}
}

// LoadImage recognizes the text in an encoded image
func (a *Adapter) LoadImage(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", vaerr.Wrap(ErrCaptureFailed, "empty image")
	}

	img, err := Normalize(data, a.minWidth)
	if err != nil {
		a.logger.Warn("Image normalization failed", "error", err)
		return "", vaerr.Wrap(ErrCaptureFailed, err.Error())
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	text, err := a.engine.Recognize(ctx, img, a.languages)
	if err != nil {
		if ctx.Err() == context.Canceled {
			return "", err
		}
		a.logger.Warn("OCR failed", "error", err)
		return "", vaerr.Wrap(ErrCaptureFailed, err.Error()).WithDetail("stage", "ocr")
	}

	a.logger.Debug("OCR completed", "chars", len([]rune(text)), "duration", time.Since(start))
	return text, nil
}

// Paginate opens a multi-page document
func (a *Adapter) Paginate(ctx context.Context, data []byte) (Document, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	doc, err := a.paginator.Open(ctx, data)
	if err != nil {
		if ctx.Err() == context.Canceled {
			return nil, err
		}
		a.logger.Warn("Pagination failed", "error", err)
		return nil, vaerr.Wrap(ErrCaptureFailed, err.Error()).WithDetail("stage", "paginate")
	}
	a.logger.Debug("Document opened", "pages", doc.PageCount())
	return doc, nil
}

// RenderPage rasterizes page i of doc
func (a *Adapter) RenderPage(ctx context.Context, doc Document, i int) ([]byte, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	img, err := doc.Page(ctx, i)
	if err != nil {
		if ctx.Err() == context.Canceled {
			return nil, err
		}
		return nil, vaerr.Wrap(ErrCaptureFailed, err.Error()).WithDetail("stage", "render").WithDetail("page", i)
	}
	return img, nil
}

// withTimeout bounds one external tool call by the configured timeout
func (a *Adapter) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.timeout)
}

var pdfMagic = []byte("%PDF-")

// IsPaginated reports whether a file is a multi-page document,
// judged by extension or leading magic bytes.
func IsPaginated(name string, data []byte) bool {
	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		return true
	}
	return bytes.HasPrefix(data, pdfMagic)
}
