// ============================================================================
// Vaani - Scan, Translate, Speak
// ============================================================================
//
// Package:     pipeline
// Description: Sequences capture, language choice, translation and playback
// Author:      Mike Stoffels
// Created:     2026-10-08
// License:     MIT
// ============================================================================

// Package pipeline drives a single scan-translate-speak session. Every
// presentation (CLI, TUI, hot folder) issues commands to one Orchestrator
// and observes its Session.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/msto63/vaani/internal/capture"
	"github.com/msto63/vaani/internal/history"
	"github.com/msto63/vaani/internal/language"
	"github.com/msto63/vaani/internal/listen"
	"github.com/msto63/vaani/internal/speech"
	"github.com/msto63/vaani/internal/translate"
	vaerr "github.com/msto63/vaani/pkg/core/error"
	"github.com/msto63/vaani/pkg/core/logging"
)

// Spoken prompts, always in the neutral language
const (
	PromptFoundText         = "Found text. Select a language."
	PromptNotRecognized     = "Language not recognized. Try saying: Translate to Telugu"
	PromptTranslationFailed = "Error connecting to AI. Reading original text."
	PromptNoText            = "No readable text found. Please try again."
	PromptCaptureFailed     = "Could not read the document. Please try again."
)

// DefaultMinTextLength is the shortest OCR result accepted
const DefaultMinTextLength = 5

var (
	// ErrInvalidState is returned for commands issued in the wrong state
	ErrInvalidState = vaerr.New("command not valid in current state").WithCode(vaerr.CodeInvalidState)

	// ErrInvalidPageIndex is returned by SelectPage for out-of-range pages
	ErrInvalidPageIndex = vaerr.New("page index out of range").WithCode(vaerr.CodeInvalidPageIndex)

	// ErrNoTextFound is returned when OCR yields too little text
	ErrNoTextFound = vaerr.New("no readable text found").WithCode(vaerr.CodeNoTextFound)

	// ErrStaleResult is returned when a result arrives after the session moved on
	ErrStaleResult = vaerr.New("result discarded, session moved on").WithCode(vaerr.CodeStaleResult)
)

// File is a captured or uploaded input
type File struct {
	Name string
	Data []byte
}

// Capturer recognizes text and opens paginated documents
type Capturer interface {
	LoadImage(ctx context.Context, data []byte) (string, error)
	Paginate(ctx context.Context, data []byte) (capture.Document, error)
	RenderPage(ctx context.Context, doc capture.Document, i int) ([]byte, error)
}

// Translator requests a translation or summary
type Translator interface {
	Translate(ctx context.Context, text, dest string, mode translate.Mode) (string, error)
}

// Resolver maps a spoken phrase to a language
type Resolver interface {
	Resolve(ctx context.Context, phrase string) (language.Language, error)
}

// Speaker plays requests; Play cancels whatever is playing
type Speaker interface {
	Play(ctx context.Context, req speech.Request)
	Stop()
}

// History records successful translations
type History interface {
	NewEntry(text, lang string) history.Entry
	Record(ctx context.Context, entry history.Entry) error
	Get(id int64) (history.Entry, error)
}

// Options wires an Orchestrator
type Options struct {
	Capture    Capturer
	Translator Translator
	Resolver   Resolver
	Speaker    Speaker
	History    History
	Listener   listen.Listener
	Languages  *language.Table

	// NeutralTag is the voice tag for prompts (default "en-US")
	NeutralTag    string
	MinTextLength int
	Mode          translate.Mode
}

// Session is a snapshot of the orchestrator
type Session struct {
	ID             string
	State          State
	SourceText     string
	ResultText     string
	TargetLanguage string
	Mode           translate.Mode
	PageCount      int
	Busy           bool
	Notice         string
	LastError      error
	UpdatedAt      time.Time
}

// Orchestrator owns the single live session
type Orchestrator struct {
	opts   Options
	sm     *StateMachine
	id     string
	logger *logging.Logger

	// playMu orders a guarded Play against silence; taken before mu.
	playMu sync.Mutex

	mu        sync.Mutex
	gen       uint64
	silenced  uint64
	busy      bool
	source    string
	result    string
	target    string
	mode      translate.Mode
	doc       capture.Document
	notice    string
	lastErr   error
	playback  *speech.Request
	updatedAt time.Time
	observers []func(Session)
}

// New creates an orchestrator in READY
func New(opts Options) *Orchestrator {
	if opts.NeutralTag == "" {
		opts.NeutralTag = "en-US"
	}
	if opts.MinTextLength <= 0 {
		opts.MinTextLength = DefaultMinTextLength
	}
	if opts.Languages == nil {
		opts.Languages = language.Default()
	}

	id := uuid.NewString()
	o := &Orchestrator{
		opts:      opts,
		sm:        NewStateMachine(),
		id:        id,
		logger:    logging.New("pipeline").WithSession(id),
		mode:      opts.Mode,
		updatedAt: time.Now(),
	}
	o.sm.AddListener(func(from, to State) {
		o.logger.Debug("State changed", "from", from.String(), "to", to.String())
	})
	return o
}

// ID returns the session identifier
func (o *Orchestrator) ID() string {
	return o.id
}

// State returns the current state
func (o *Orchestrator) State() State {
	return o.sm.Current()
}

// OnStateChange registers a listener for raw state transitions. Listeners
// run with the session lock held and must not call back into the Orchestrator.
func (o *Orchestrator) OnStateChange(fn StateChangeListener) {
	o.sm.AddListener(fn)
}

// Subscribe registers fn to receive a snapshot after every change
func (o *Orchestrator) Subscribe(fn func(Session)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, fn)
}

// Snapshot returns the current session
func (o *Orchestrator) Snapshot() Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() Session {
	pages := 0
	if o.doc != nil {
		pages = o.doc.PageCount()
	}
	return Session{
		ID:             o.id,
		State:          o.sm.Current(),
		SourceText:     o.source,
		ResultText:     o.result,
		TargetLanguage: o.target,
		Mode:           o.mode,
		PageCount:      pages,
		Busy:           o.busy || o.sm.Current().Busy(),
		Notice:         o.notice,
		LastError:      o.lastErr,
		UpdatedAt:      o.updatedAt,
	}
}

// SubmitCapture starts a new capture. Paginated input moves to PAGE_SELECT,
// anything else is scanned right away.
func (o *Orchestrator) SubmitCapture(ctx context.Context, f File) error {
	o.mu.Lock()
	if err := o.expect("SubmitCapture", StateReady); err != nil {
		o.mu.Unlock()
		return err
	}

	o.clearLocked()
	o.gen++
	gen := o.gen

	if !capture.IsPaginated(f.Name, f.Data) {
		o.sm.Transition(StateScanning)
		o.touchLocked()
		o.mu.Unlock()
		o.after(ctx, nil)
		return o.scan(ctx, gen, f.Data)
	}

	o.busy = true
	o.touchLocked()
	o.mu.Unlock()
	o.after(ctx, nil)

	doc, err := o.opts.Capture.Paginate(ctx, f.Data)

	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		if doc != nil {
			doc.Close()
		}
		return o.stale("paginate")
	}
	o.busy = false
	if err != nil {
		return o.failCaptureLocked(ctx, err)
	}

	o.doc = doc
	o.sm.Transition(StatePageSelect)
	o.touchLocked()
	o.mu.Unlock()

	o.logger.Info("Document opened", "file", f.Name, "pages", doc.PageCount())
	o.after(ctx, nil)
	return nil
}

// SelectPage rasterizes page index of the pending document and scans it
func (o *Orchestrator) SelectPage(ctx context.Context, index int) error {
	o.mu.Lock()
	if err := o.expect("SelectPage", StatePageSelect); err != nil {
		o.mu.Unlock()
		return err
	}

	pages := o.doc.PageCount()
	if index < 0 || index >= pages {
		o.mu.Unlock()
		return vaerr.Wrap(ErrInvalidPageIndex, "select page").
			WithDetail("index", index).
			WithDetail("pages", pages)
	}

	o.busy = true
	o.gen++
	gen := o.gen
	doc := o.doc
	o.touchLocked()
	o.mu.Unlock()
	o.after(ctx, nil)

	img, err := o.opts.Capture.RenderPage(ctx, doc, index)

	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		return o.stale("render")
	}
	o.busy = false
	o.closeDocLocked()
	if err != nil {
		o.sm.Transition(StateReady)
		return o.failCaptureLocked(ctx, err)
	}

	o.sm.Transition(StateScanning)
	o.touchLocked()
	o.mu.Unlock()
	o.after(ctx, nil)

	return o.scan(ctx, gen, img)
}

func (o *Orchestrator) scan(ctx context.Context, gen uint64, img []byte) error {
	start := time.Now()
	text, err := o.opts.Capture.LoadImage(ctx, img)

	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		return o.stale("ocr")
	}
	if err != nil {
		o.sm.Transition(StateReady)
		return o.failCaptureLocked(ctx, err)
	}

	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < o.opts.MinTextLength {
		o.sm.Transition(StateReady)
		o.lastErr = vaerr.Wrap(ErrNoTextFound, "scan").WithDetail("chars", utf8.RuneCountInString(text))
		err := o.lastErr
		o.touchLocked()
		o.mu.Unlock()

		o.logger.Info("No readable text", "chars", utf8.RuneCountInString(text))
		o.say(ctx, PromptNoText)
		return err
	}

	o.source = text
	o.sm.Transition(StateChoosing)
	o.touchLocked()
	o.mu.Unlock()

	o.logger.Info("Text recognized", "chars", utf8.RuneCountInString(text), "duration", time.Since(start))
	o.say(ctx, PromptFoundText)
	return nil
}

// failCaptureLocked records a capture failure and unlocks. The caller has
// already moved the state machine back to READY.
func (o *Orchestrator) failCaptureLocked(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) {
		o.touchLocked()
		o.mu.Unlock()
		o.after(ctx, nil)
		return err
	}

	o.lastErr = err
	o.touchLocked()
	o.mu.Unlock()

	o.logger.LogError(vaerr.Wrap(err, "capture failed").WithOperation("scan"))
	o.say(ctx, PromptCaptureFailed)
	return err
}

// ToggleMode flips between full translation and summary
func (o *Orchestrator) ToggleMode() (translate.Mode, error) {
	o.mu.Lock()
	if err := o.expect("ToggleMode", StateChoosing); err != nil {
		o.mu.Unlock()
		return o.mode, err
	}
	o.mode = o.mode.Toggle()
	mode := o.mode
	o.touchLocked()
	o.mu.Unlock()

	o.after(context.Background(), nil)
	return mode, nil
}

// SetMode selects the mode directly; valid in READY and CHOOSING
func (o *Orchestrator) SetMode(mode translate.Mode) error {
	o.mu.Lock()
	if err := o.expect("SetMode", StateReady, StateChoosing); err != nil {
		o.mu.Unlock()
		return err
	}
	o.mode = mode
	o.touchLocked()
	o.mu.Unlock()

	o.after(context.Background(), nil)
	return nil
}

// ChooseLanguage translates the recognized text into the given language,
// named by code or by name.
func (o *Orchestrator) ChooseLanguage(ctx context.Context, code string) error {
	o.mu.Lock()
	if err := o.expect("ChooseLanguage", StateChoosing); err != nil {
		o.mu.Unlock()
		return err
	}

	lang, ok := o.opts.Languages.Find(code)
	if !ok {
		o.mu.Unlock()
		return vaerr.Wrap(language.ErrNotRecognized, "choose language").WithDetail("code", code)
	}
	return o.translateLocked(ctx, lang)
}

// StartVoiceSelection listens for a phrase and translates into the
// language it names. Unrecognized phrases leave the session in CHOOSING.
func (o *Orchestrator) StartVoiceSelection(ctx context.Context) error {
	o.mu.Lock()
	if err := o.expect("StartVoiceSelection", StateChoosing); err != nil {
		o.mu.Unlock()
		return err
	}
	if o.opts.Listener == nil || o.opts.Resolver == nil {
		o.mu.Unlock()
		return vaerr.New("voice selection not configured").WithCode(vaerr.CodeConfigError)
	}

	o.busy = true
	o.gen++
	gen := o.gen
	o.touchLocked()
	o.mu.Unlock()
	o.after(ctx, nil)

	phrase, err := o.opts.Listener.Listen(ctx)
	var lang language.Language
	if err == nil {
		lang, err = o.opts.Resolver.Resolve(ctx, phrase)
	}

	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		return o.stale("listen")
	}
	o.busy = false
	if err != nil {
		if errors.Is(err, context.Canceled) {
			o.touchLocked()
			o.mu.Unlock()
			o.after(ctx, nil)
			return err
		}
		if !errors.Is(err, language.ErrNotRecognized) {
			err = vaerr.Wrap(language.ErrNotRecognized, err.Error()).WithDetail("stage", "listen")
		}
		o.lastErr = err
		o.touchLocked()
		o.mu.Unlock()

		o.logger.Info("Language not recognized", "phrase", phrase)
		o.say(ctx, PromptNotRecognized)
		return err
	}

	o.logger.Info("Language resolved", "phrase", phrase, "lang", lang.Code)
	return o.translateLocked(ctx, lang)
}

// translateLocked runs the translation for lang; called with mu held,
// returns with mu released.
func (o *Orchestrator) translateLocked(ctx context.Context, lang language.Language) error {
	o.gen++
	gen := o.gen
	source, mode := o.source, o.mode
	o.target = lang.Code
	o.sm.Transition(StateTranslating)
	o.touchLocked()
	o.mu.Unlock()
	o.after(ctx, nil)

	start := time.Now()
	result, err := o.opts.Translator.Translate(ctx, source, lang.Code, mode)

	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		return o.stale("translate")
	}
	if errors.Is(err, context.Canceled) {
		o.resetLocked()
		o.mu.Unlock()
		o.after(ctx, nil)
		return err
	}

	if err != nil {
		o.result = PromptTranslationFailed
		o.lastErr = err
		o.notice = PromptTranslationFailed
		o.playback = o.prompt(PromptTranslationFailed + " " + source)
		o.sm.Transition(StatePlaying)
		o.touchLocked()
		c := o.cueLocked(o.playback)
		o.mu.Unlock()

		o.logger.LogError(vaerr.Wrap(err, "translation failed").
			WithOperation("translate").
			WithDetail("lang", lang.Code).
			WithDetail("mode", mode.String()))
		o.after(ctx, c)
		return err
	}

	o.result = result
	if o.opts.History != nil {
		entry := o.opts.History.NewEntry(result, lang.Code)
		if herr := o.opts.History.Record(ctx, entry); herr != nil {
			o.logger.Warn("Failed to record history", "error", herr)
		}
	}
	o.playback = &speech.Request{Content: result, LanguageTag: lang.VoiceTag()}
	o.sm.Transition(StatePlaying)
	o.touchLocked()
	c := o.cueLocked(o.playback)
	o.mu.Unlock()

	o.logger.Info("Translation completed",
		"lang", lang.Code,
		"mode", mode.String(),
		"chars", utf8.RuneCountInString(result),
		"duration", time.Since(start))
	o.after(ctx, c)
	return nil
}

// Stop silences playback without leaving PLAYING
func (o *Orchestrator) Stop() error {
	o.mu.Lock()
	if err := o.expect("Stop", StatePlaying); err != nil {
		o.mu.Unlock()
		return err
	}
	o.mu.Unlock()

	o.silence()
	return nil
}

// Back silences playback, clears the session and returns to READY
func (o *Orchestrator) Back() error {
	o.mu.Lock()
	if err := o.expect("Back", StatePlaying); err != nil {
		o.mu.Unlock()
		return err
	}
	o.clearLocked()
	o.sm.Transition(StateReady)
	o.touchLocked()
	o.mu.Unlock()

	o.silence()
	o.after(context.Background(), nil)
	return nil
}

// OpenHistoryEntry shows a recorded result without speaking it
func (o *Orchestrator) OpenHistoryEntry(id int64) error {
	o.mu.Lock()
	if err := o.expect("OpenHistoryEntry", StateReady); err != nil {
		o.mu.Unlock()
		return err
	}
	if o.opts.History == nil {
		o.mu.Unlock()
		return vaerr.New("history not configured").WithCode(vaerr.CodeConfigError)
	}

	entry, err := o.opts.History.Get(id)
	if err != nil {
		o.mu.Unlock()
		return err
	}

	o.clearLocked()
	o.result = entry.Text
	o.target = entry.Language
	o.playback = &speech.Request{Content: entry.Text, LanguageTag: o.voiceTag(entry.Language)}
	o.sm.Transition(StatePlaying)
	o.touchLocked()
	o.mu.Unlock()

	o.after(context.Background(), nil)
	return nil
}

// Replay speaks the current result again
func (o *Orchestrator) Replay(ctx context.Context) error {
	o.mu.Lock()
	if err := o.expect("Replay", StatePlaying); err != nil {
		o.mu.Unlock()
		return err
	}
	c := o.cueLocked(o.playback)
	o.mu.Unlock()

	o.start(ctx, c)
	return nil
}

// Reset abandons any work in progress and returns to READY. Results that
// arrive afterwards are discarded.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.resetLocked()
	o.mu.Unlock()

	o.silence()
	o.after(context.Background(), nil)
}

// Close releases the pending document and stops playback
func (o *Orchestrator) Close() error {
	o.Reset()
	return nil
}

func (o *Orchestrator) resetLocked() {
	o.gen++
	o.busy = false
	o.clearLocked()
	o.sm.Reset()
	o.touchLocked()
}

func (o *Orchestrator) clearLocked() {
	o.closeDocLocked()
	o.source = ""
	o.result = ""
	o.target = ""
	o.notice = ""
	o.lastErr = nil
	o.playback = nil
}

func (o *Orchestrator) closeDocLocked() {
	if o.doc != nil {
		if err := o.doc.Close(); err != nil {
			o.logger.Warn("Failed to close document", "error", err)
		}
		o.doc = nil
	}
}

func (o *Orchestrator) touchLocked() {
	o.updatedAt = time.Now()
}

// expect rejects the command unless the session is idle in one of states
func (o *Orchestrator) expect(cmd string, states ...State) error {
	current := o.sm.Current()
	if !o.busy {
		for _, s := range states {
			if s == current {
				return nil
			}
		}
	}

	o.logger.Warn("Command rejected", "command", cmd, "state", current.String(), "busy", o.busy)
	return vaerr.Wrap(ErrInvalidState, cmd).
		WithDetail("state", current.String()).
		WithDetail("busy", o.busy).
		WithOperation(cmd)
}

func (o *Orchestrator) stale(stage string) error {
	o.logger.Debug("Discarding stale result", "stage", stage)
	return vaerr.Wrap(ErrStaleResult, stage)
}

func (o *Orchestrator) prompt(text string) *speech.Request {
	return &speech.Request{Content: text, LanguageTag: o.opts.NeutralTag}
}

func (o *Orchestrator) voiceTag(code string) string {
	if lang, ok := o.opts.Languages.Lookup(code); ok {
		return lang.VoiceTag()
	}
	return code
}

// say records text as the current notice and speaks it
func (o *Orchestrator) say(ctx context.Context, text string) {
	o.mu.Lock()
	o.notice = text
	c := o.cueLocked(o.prompt(text))
	o.mu.Unlock()
	o.after(ctx, c)
}

// cue is a playback request tagged with the silence count it was
// planned under
type cue struct {
	req  speech.Request
	mark uint64
}

func (o *Orchestrator) cueLocked(req *speech.Request) *cue {
	if req == nil {
		return nil
	}
	return &cue{req: *req, mark: o.silenced}
}

// after notifies observers and starts c, both outside the lock
func (o *Orchestrator) after(ctx context.Context, c *cue) {
	o.mu.Lock()
	snap := o.snapshotLocked()
	observers := o.observers
	o.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
	o.start(ctx, c)
}

// start plays c unless Stop, Back or Reset ran after it was planned
func (o *Orchestrator) start(ctx context.Context, c *cue) {
	if c == nil || o.opts.Speaker == nil {
		return
	}
	o.playMu.Lock()
	defer o.playMu.Unlock()

	o.mu.Lock()
	live := c.mark == o.silenced
	o.mu.Unlock()
	if live {
		o.opts.Speaker.Play(ctx, c.req)
	}
}

// silence invalidates every planned cue and stops the speaker
func (o *Orchestrator) silence() {
	o.playMu.Lock()
	defer o.playMu.Unlock()

	o.mu.Lock()
	o.silenced++
	o.mu.Unlock()
	if o.opts.Speaker != nil {
		o.opts.Speaker.Stop()
	}
}
