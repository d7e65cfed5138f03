package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/msto63/vaani/internal/capture"
	"github.com/msto63/vaani/internal/history"
	"github.com/msto63/vaani/internal/language"
	"github.com/msto63/vaani/internal/speech"
	"github.com/msto63/vaani/internal/translate"
	vaerr "github.com/msto63/vaani/pkg/core/error"
	"github.com/msto63/vaani/pkg/core/logging"
)

// --- fakes ---

type fakeDoc struct {
	pages  int
	closed bool
}

func (d *fakeDoc) PageCount() int { return d.pages }
func (d *fakeDoc) Page(ctx context.Context, i int) ([]byte, error) {
	return []byte("page"), nil
}
func (d *fakeDoc) Close() error { d.closed = true; return nil }

type fakeCapture struct {
	text        string
	err         error
	doc         *fakeDoc
	paginateErr error
	renderErr   error
	rendered    []int
	ocrCalls    int
}

func (f *fakeCapture) LoadImage(ctx context.Context, data []byte) (string, error) {
	f.ocrCalls++
	return f.text, f.err
}

func (f *fakeCapture) Paginate(ctx context.Context, data []byte) (capture.Document, error) {
	if f.paginateErr != nil {
		return nil, f.paginateErr
	}
	return f.doc, nil
}

func (f *fakeCapture) RenderPage(ctx context.Context, doc capture.Document, i int) ([]byte, error) {
	f.rendered = append(f.rendered, i)
	if f.renderErr != nil {
		return nil, f.renderErr
	}
	return doc.Page(ctx, i)
}

type translateCall struct {
	text, dest string
	mode       translate.Mode
}

type fakeTranslator struct {
	mu      sync.Mutex
	result  string
	err     error
	calls   []translateCall
	started chan struct{}
	release chan struct{}
}

func (f *fakeTranslator) Translate(ctx context.Context, text, dest string, mode translate.Mode) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, translateCall{text, dest, mode})
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.result, f.err
}

func (f *fakeTranslator) Calls() []translateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]translateCall(nil), f.calls...)
}

type fakeSpeaker struct {
	mu    sync.Mutex
	plays []speech.Request
	stops int
}

func (f *fakeSpeaker) Play(ctx context.Context, req speech.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays = append(f.plays, req)
}

func (f *fakeSpeaker) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeSpeaker) Last() (speech.Request, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.plays) == 0 {
		return speech.Request{}, false
	}
	return f.plays[len(f.plays)-1], true
}

func (f *fakeSpeaker) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.plays)
}

type fakeParser struct {
	code  string
	err   error
	calls int
}

func (f *fakeParser) ParseLanguage(ctx context.Context, phrase string) (string, error) {
	f.calls++
	return f.code, f.err
}

type fakeListener struct {
	phrase string
	err    error
}

func (f *fakeListener) Listen(ctx context.Context) (string, error) {
	return f.phrase, f.err
}

type harness struct {
	o          *Orchestrator
	capture    *fakeCapture
	translator *fakeTranslator
	speaker    *fakeSpeaker
	history    *history.Store
	parser     *fakeParser
	listener   *fakeListener
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		capture:    &fakeCapture{text: "hello world", doc: &fakeDoc{pages: 3}},
		translator: &fakeTranslator{result: "హలో"},
		speaker:    &fakeSpeaker{},
		history:    history.NewStore(history.NewMemoryBackend()),
		parser:     &fakeParser{},
		listener:   &fakeListener{},
	}
	h.history.LoadAll(context.Background())
	h.o = New(Options{
		Capture:    h.capture,
		Translator: h.translator,
		Resolver:   language.NewResolver(h.parser, language.Default(), 0),
		Speaker:    h.speaker,
		History:    h.history,
		Listener:   h.listener,
	})
	return h
}

func (h *harness) toChoosing(t *testing.T) {
	t.Helper()
	if err := h.o.SubmitCapture(context.Background(), File{Name: "photo.jpg", Data: []byte("img")}); err != nil {
		t.Fatalf("SubmitCapture() error = %v", err)
	}
	if got := h.o.State(); got != StateChoosing {
		t.Fatalf("state = %s, want CHOOSING", got)
	}
}

func (h *harness) toPlaying(t *testing.T) {
	t.Helper()
	h.toChoosing(t)
	if err := h.o.ChooseLanguage(context.Background(), "te"); err != nil {
		t.Fatalf("ChooseLanguage() error = %v", err)
	}
}

// --- tests ---

func TestSubmitCapture_NonPaginatedScans(t *testing.T) {
	h := newHarness(t)

	var states []State
	h.o.OnStateChange(func(from, to State) { states = append(states, to) })

	h.toChoosing(t)

	want := []State{StateScanning, StateChoosing}
	if len(states) != len(want) || states[0] != want[0] || states[1] != want[1] {
		t.Errorf("transitions = %v, want %v", states, want)
	}
	snap := h.o.Snapshot()
	if snap.SourceText != "hello world" {
		t.Errorf("SourceText = %q", snap.SourceText)
	}
	last, _ := h.speaker.Last()
	if last.Content != PromptFoundText || last.LanguageTag != "en-US" {
		t.Errorf("spoken = %+v, want found-text prompt", last)
	}
}

func TestSubmitCapture_NoTextFound(t *testing.T) {
	h := newHarness(t)
	h.capture.text = "  ab \n"

	err := h.o.SubmitCapture(context.Background(), File{Name: "photo.jpg", Data: []byte("img")})
	if !errors.Is(err, ErrNoTextFound) {
		t.Fatalf("error = %v, want ErrNoTextFound", err)
	}
	if h.o.State() != StateReady {
		t.Errorf("state = %s, want READY", h.o.State())
	}
	if h.o.Snapshot().SourceText != "" {
		t.Error("SourceText set despite NoTextFound")
	}
	last, _ := h.speaker.Last()
	if last.Content != PromptNoText {
		t.Errorf("spoken = %q", last.Content)
	}
}

func TestSubmitCapture_OCRFailure(t *testing.T) {
	h := newHarness(t)
	h.capture.err = vaerr.Wrap(capture.ErrCaptureFailed, "tesseract crashed")

	err := h.o.SubmitCapture(context.Background(), File{Name: "photo.jpg", Data: []byte("img")})
	if !errors.Is(err, capture.ErrCaptureFailed) {
		t.Fatalf("error = %v, want CaptureFailed", err)
	}
	if h.o.State() != StateReady {
		t.Errorf("state = %s, want READY", h.o.State())
	}
	if h.capture.ocrCalls != 1 {
		t.Errorf("OCR calls = %d, want 1 (no retry)", h.capture.ocrCalls)
	}
	last, _ := h.speaker.Last()
	if last.Content != PromptCaptureFailed {
		t.Errorf("spoken = %q", last.Content)
	}
}

func TestFailuresLoggedWithCode(t *testing.T) {
	tests := []struct {
		name string
		run  func(h *harness)
		want []string
	}{
		{
			name: "capture",
			run: func(h *harness) {
				h.capture.err = vaerr.Wrap(capture.ErrCaptureFailed, "tesseract crashed")
				_ = h.o.SubmitCapture(context.Background(), File{Name: "photo.jpg", Data: []byte("img")})
			},
			want: []string{`"error_code":"CAPTURE_FAILED"`, `"error_operation":"scan"`},
		},
		{
			name: "translate",
			run: func(h *harness) {
				h.translator.err = vaerr.Wrap(translate.ErrServiceUnreachable, "refused")
				_ = h.o.SubmitCapture(context.Background(), File{Name: "photo.jpg", Data: []byte("img")})
				_ = h.o.ChooseLanguage(context.Background(), "te")
			},
			want: []string{`"error_code":"SERVICE_UNREACHABLE"`, `"error_operation":"translate"`, `"error_lang":"te"`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			before := logging.DefaultLoggerConfig("pipeline")
			defer logging.Configure(before)
			logging.Configure(logging.LoggerConfig{Level: "info", Format: "json", Output: &buf})

			tt.run(newHarness(t))

			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("log output missing %s: %q", w, buf.String())
				}
			}
		})
	}
}

func TestPaginatedCapture(t *testing.T) {
	h := newHarness(t)

	if err := h.o.SubmitCapture(context.Background(), File{Name: "letter.pdf", Data: []byte("%PDF-1.7")}); err != nil {
		t.Fatalf("SubmitCapture() error = %v", err)
	}
	if h.o.State() != StatePageSelect {
		t.Fatalf("state = %s, want PAGE_SELECT", h.o.State())
	}
	if n := h.o.Snapshot().PageCount; n != 3 {
		t.Errorf("PageCount = %d, want 3", n)
	}

	for _, bad := range []int{-1, 3, 10} {
		err := h.o.SelectPage(context.Background(), bad)
		if !errors.Is(err, ErrInvalidPageIndex) {
			t.Errorf("SelectPage(%d) error = %v, want ErrInvalidPageIndex", bad, err)
		}
		if h.o.State() != StatePageSelect {
			t.Errorf("state after SelectPage(%d) = %s", bad, h.o.State())
		}
	}

	if err := h.o.SelectPage(context.Background(), 2); err != nil {
		t.Fatalf("SelectPage(2) error = %v", err)
	}
	if h.o.State() != StateChoosing {
		t.Errorf("state = %s, want CHOOSING", h.o.State())
	}
	if len(h.capture.rendered) != 1 || h.capture.rendered[0] != 2 {
		t.Errorf("rendered = %v", h.capture.rendered)
	}
	if !h.capture.doc.closed {
		t.Error("document not discarded after page selection")
	}
}

func TestPaginatedCapture_Failures(t *testing.T) {
	t.Run("paginate", func(t *testing.T) {
		h := newHarness(t)
		h.capture.paginateErr = vaerr.Wrap(capture.ErrCaptureFailed, "broken")

		err := h.o.SubmitCapture(context.Background(), File{Name: "x.pdf"})
		if !errors.Is(err, capture.ErrCaptureFailed) {
			t.Errorf("error = %v", err)
		}
		if h.o.State() != StateReady {
			t.Errorf("state = %s", h.o.State())
		}
	})

	t.Run("render", func(t *testing.T) {
		h := newHarness(t)
		h.capture.renderErr = vaerr.Wrap(capture.ErrCaptureFailed, "pdftoppm")

		h.o.SubmitCapture(context.Background(), File{Name: "x.pdf"})
		err := h.o.SelectPage(context.Background(), 0)
		if !errors.Is(err, capture.ErrCaptureFailed) {
			t.Errorf("error = %v", err)
		}
		if h.o.State() != StateReady {
			t.Errorf("state = %s, want READY", h.o.State())
		}
		if h.capture.ocrCalls != 0 {
			t.Error("OCR ran after render failure")
		}
	})
}

func TestChooseLanguage_Success(t *testing.T) {
	h := newHarness(t)
	h.toPlaying(t)

	calls := h.translator.Calls()
	if len(calls) != 1 {
		t.Fatalf("translate calls = %d", len(calls))
	}
	if calls[0] != (translateCall{"hello world", "te", translate.ModeFull}) {
		t.Errorf("request = %+v", calls[0])
	}

	snap := h.o.Snapshot()
	if snap.State != StatePlaying || snap.ResultText != "హలో" || snap.TargetLanguage != "te" {
		t.Errorf("snapshot = %+v", snap)
	}

	entries := h.history.Entries()
	if len(entries) != 1 || entries[0].Text != "హలో" || entries[0].Language != "te" {
		t.Errorf("history = %+v", entries)
	}

	last, _ := h.speaker.Last()
	if last.Content != "హలో" || last.LanguageTag != "te-IN" {
		t.Errorf("spoken = %+v", last)
	}
}

func TestChooseLanguage_FailureSubstitutesText(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"empty", vaerr.Wrap(translate.ErrEmptyTranslation, "empty")},
		{"unreachable", vaerr.Wrap(translate.ErrServiceUnreachable, "refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.translator.err = tt.err
			h.toChoosing(t)

			err := h.o.ChooseLanguage(context.Background(), "hi")
			if !errors.Is(err, tt.err) {
				t.Errorf("error = %v, want %v", err, tt.err)
			}

			snap := h.o.Snapshot()
			if snap.State != StatePlaying {
				t.Errorf("state = %s, want PLAYING", snap.State)
			}
			if snap.ResultText != PromptTranslationFailed {
				t.Errorf("ResultText = %q", snap.ResultText)
			}
			if len(h.history.Entries()) != 0 {
				t.Error("history recorded on failure")
			}
			last, _ := h.speaker.Last()
			if last.LanguageTag != "en-US" {
				t.Errorf("failure notice tag = %q, want neutral", last.LanguageTag)
			}
		})
	}
}

func TestChooseLanguage_Unsupported(t *testing.T) {
	h := newHarness(t)
	h.toChoosing(t)

	err := h.o.ChooseLanguage(context.Background(), "klingon")
	if !errors.Is(err, language.ErrNotRecognized) {
		t.Errorf("error = %v, want NotRecognized", err)
	}
	if h.o.State() != StateChoosing {
		t.Errorf("state = %s", h.o.State())
	}
	if len(h.translator.Calls()) != 0 {
		t.Error("translation requested for unsupported language")
	}
}

func TestToggleMode(t *testing.T) {
	h := newHarness(t)

	if _, err := h.o.ToggleMode(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("ToggleMode() in READY error = %v", err)
	}

	h.toChoosing(t)
	mode, err := h.o.ToggleMode()
	if err != nil || mode != translate.ModeSummary {
		t.Fatalf("ToggleMode() = %v, %v", mode, err)
	}
	if h.o.State() != StateChoosing {
		t.Errorf("state changed to %s", h.o.State())
	}

	h.o.ChooseLanguage(context.Background(), "ta")
	if calls := h.translator.Calls(); calls[0].mode != translate.ModeSummary {
		t.Errorf("mode = %v, want summary", calls[0].mode)
	}

	// mode persists across translations
	h.o.Back()
	h.toChoosing(t)
	if h.o.Snapshot().Mode != translate.ModeSummary {
		t.Error("mode reset by new capture")
	}
}

func TestStartVoiceSelection(t *testing.T) {
	t.Run("resolved", func(t *testing.T) {
		h := newHarness(t)
		h.listener.phrase = "Translate to Telugu"
		h.parser.code = "te"
		h.toChoosing(t)

		if err := h.o.StartVoiceSelection(context.Background()); err != nil {
			t.Fatalf("StartVoiceSelection() error = %v", err)
		}
		if h.o.State() != StatePlaying {
			t.Errorf("state = %s", h.o.State())
		}
		if calls := h.translator.Calls(); len(calls) != 1 || calls[0].dest != "te" {
			t.Errorf("calls = %+v", calls)
		}
	})

	t.Run("not recognized", func(t *testing.T) {
		h := newHarness(t)
		h.listener.phrase = "gibberish"
		h.parser.code = ""
		h.toChoosing(t)

		err := h.o.StartVoiceSelection(context.Background())
		if !errors.Is(err, language.ErrNotRecognized) {
			t.Errorf("error = %v, want NotRecognized", err)
		}
		if h.o.State() != StateChoosing {
			t.Errorf("state = %s, want CHOOSING", h.o.State())
		}
		if len(h.translator.Calls()) != 0 {
			t.Error("translation requested")
		}
		last, _ := h.speaker.Last()
		if last.Content != PromptNotRecognized {
			t.Errorf("spoken = %q", last.Content)
		}
	})

	t.Run("nothing heard", func(t *testing.T) {
		h := newHarness(t)
		h.listener.err = errors.New("nothing heard")
		h.toChoosing(t)

		err := h.o.StartVoiceSelection(context.Background())
		if !errors.Is(err, language.ErrNotRecognized) {
			t.Errorf("error = %v, want NotRecognized", err)
		}
		if h.parser.calls != 0 {
			t.Error("resolver called without a phrase")
		}
		if h.o.State() != StateChoosing {
			t.Errorf("state = %s", h.o.State())
		}
	})
}

func TestInvalidStateCommands(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	checks := map[string]error{
		"SelectPage":          h.o.SelectPage(ctx, 0),
		"ChooseLanguage":      h.o.ChooseLanguage(ctx, "te"),
		"StartVoiceSelection": h.o.StartVoiceSelection(ctx),
		"Stop":                h.o.Stop(),
		"Back":                h.o.Back(),
		"Replay":              h.o.Replay(ctx),
	}
	for name, err := range checks {
		if !errors.Is(err, ErrInvalidState) {
			t.Errorf("%s in READY: error = %v, want ErrInvalidState", name, err)
		}
	}
	if h.o.State() != StateReady {
		t.Errorf("state = %s", h.o.State())
	}

	h.toChoosing(t)
	if err := h.o.SubmitCapture(ctx, File{Name: "a.png"}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("SubmitCapture in CHOOSING: error = %v", err)
	}
	if err := h.o.OpenHistoryEntry(1); !errors.Is(err, ErrInvalidState) {
		t.Errorf("OpenHistoryEntry in CHOOSING: error = %v", err)
	}
}

func TestStopAndBack(t *testing.T) {
	h := newHarness(t)
	h.toPlaying(t)

	if err := h.o.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := h.o.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
	if h.o.State() != StatePlaying {
		t.Errorf("Stop changed state to %s", h.o.State())
	}
	if h.speaker.stops != 2 {
		t.Errorf("speaker stops = %d", h.speaker.stops)
	}

	if err := h.o.Back(); err != nil {
		t.Fatalf("Back() error = %v", err)
	}
	snap := h.o.Snapshot()
	if snap.State != StateReady || snap.SourceText != "" || snap.ResultText != "" || snap.TargetLanguage != "" {
		t.Errorf("snapshot after Back = %+v", snap)
	}
}

func TestSilenceBeforePlaybackStarts(t *testing.T) {
	tests := []struct {
		name      string
		silence   func(o *Orchestrator) error
		wantState State
	}{
		{name: "stop", silence: func(o *Orchestrator) error { return o.Stop() }, wantState: StatePlaying},
		{name: "back", silence: func(o *Orchestrator) error { return o.Back() }, wantState: StateReady},
		{name: "reset", silence: func(o *Orchestrator) error { o.Reset(); return nil }, wantState: StateReady},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.toChoosing(t)

			// Observers run after PLAYING is entered and before the
			// result reaches the speaker.
			var once sync.Once
			h.o.Subscribe(func(s Session) {
				if s.State != StatePlaying {
					return
				}
				once.Do(func() {
					if err := tt.silence(h.o); err != nil {
						t.Errorf("%s error = %v", tt.name, err)
					}
				})
			})

			if err := h.o.ChooseLanguage(context.Background(), "te"); err != nil {
				t.Fatalf("ChooseLanguage() error = %v", err)
			}
			h.speaker.mu.Lock()
			for _, p := range h.speaker.plays {
				if p.Content == "హలో" {
					t.Errorf("result played after %s", tt.name)
				}
			}
			h.speaker.mu.Unlock()
			if got := h.o.State(); got != tt.wantState {
				t.Errorf("state = %s, want %s", got, tt.wantState)
			}
		})
	}
}

func TestReplayAfterStopPlays(t *testing.T) {
	h := newHarness(t)
	h.toPlaying(t)
	if err := h.o.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	before := h.speaker.Count()
	if err := h.o.Replay(context.Background()); err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if h.speaker.Count() != before+1 {
		t.Fatalf("plays = %d, want %d", h.speaker.Count(), before+1)
	}
	if last, _ := h.speaker.Last(); last.Content != "హలో" {
		t.Errorf("replayed %q", last.Content)
	}
}

func TestStopWithDispatcher(t *testing.T) {
	h := newHarness(t)
	d := speech.NewDispatcher(blockingVoice{}, nil, nil, speech.Config{})
	h.o.opts.Speaker = d
	h.toPlaying(t)

	for i := 0; i < 2; i++ {
		if err := h.o.Stop(); err != nil {
			t.Fatalf("Stop() #%d error = %v", i+1, err)
		}
		if d.Status() != speech.StatusIdle {
			t.Errorf("dispatcher status after Stop #%d = %s", i+1, d.Status())
		}
	}
}

type blockingVoice struct{}

func (blockingVoice) Speak(ctx context.Context, text, tag string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestOpenHistoryEntryAndReplay(t *testing.T) {
	h := newHarness(t)
	h.toPlaying(t)
	h.o.Back()

	entry := h.history.Entries()[0]
	before := h.speaker.Count()

	if err := h.o.OpenHistoryEntry(entry.ID); err != nil {
		t.Fatalf("OpenHistoryEntry() error = %v", err)
	}
	snap := h.o.Snapshot()
	if snap.State != StatePlaying || snap.ResultText != entry.Text || snap.TargetLanguage != "te" {
		t.Errorf("snapshot = %+v", snap)
	}
	if h.speaker.Count() != before {
		t.Error("OpenHistoryEntry issued audio")
	}

	if err := h.o.Replay(context.Background()); err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	last, _ := h.speaker.Last()
	if last.Content != entry.Text || last.LanguageTag != "te-IN" {
		t.Errorf("replayed = %+v", last)
	}

	h.o.Back()
	if err := h.o.OpenHistoryEntry(entry.ID + 99); !errors.Is(err, history.ErrEntryNotFound) {
		t.Errorf("unknown entry error = %v", err)
	}
	if h.o.State() != StateReady {
		t.Errorf("state = %s", h.o.State())
	}
}

func TestStaleTranslationDiscarded(t *testing.T) {
	h := newHarness(t)
	h.translator.started = make(chan struct{}, 1)
	h.translator.release = make(chan struct{})
	h.toChoosing(t)

	done := make(chan error, 1)
	go func() { done <- h.o.ChooseLanguage(context.Background(), "te") }()

	<-h.translator.started
	if h.o.State() != StateTranslating {
		t.Fatalf("state = %s, want TRANSLATING", h.o.State())
	}
	if err := h.o.SubmitCapture(context.Background(), File{Name: "b.png"}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("SubmitCapture while translating: %v", err)
	}

	h.o.Reset()
	close(h.translator.release)

	select {
	case err := <-done:
		if !errors.Is(err, ErrStaleResult) {
			t.Errorf("ChooseLanguage() error = %v, want ErrStaleResult", err)
		}
	case <-time.After(time.Second):
		t.Fatal("ChooseLanguage did not return")
	}

	snap := h.o.Snapshot()
	if snap.State != StateReady || snap.ResultText != "" {
		t.Errorf("stale result applied: %+v", snap)
	}
	if len(h.history.Entries()) != 0 {
		t.Error("stale result recorded in history")
	}
}

func TestCancelledTranslationResets(t *testing.T) {
	h := newHarness(t)
	h.translator.err = context.Canceled
	h.toChoosing(t)

	err := h.o.ChooseLanguage(context.Background(), "te")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v", err)
	}
	if h.o.State() != StateReady {
		t.Errorf("state = %s, want READY", h.o.State())
	}
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	h := newHarness(t)
	var mu sync.Mutex
	var seen []State
	h.o.Subscribe(func(s Session) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s.State)
	})

	h.toPlaying(t)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) == 0 || seen[len(seen)-1] != StatePlaying {
		t.Errorf("observed states = %v", seen)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateReady, StatePageSelect, true},
		{StateReady, StateScanning, true},
		{StateReady, StatePlaying, true},
		{StateReady, StateChoosing, false},
		{StatePageSelect, StateScanning, true},
		{StatePageSelect, StateReady, true},
		{StateScanning, StateChoosing, true},
		{StateScanning, StateReady, true},
		{StateChoosing, StateTranslating, true},
		{StateChoosing, StateReady, false},
		{StateTranslating, StatePlaying, true},
		{StateTranslating, StateReady, false},
		{StatePlaying, StateReady, true},
		{StatePlaying, StateChoosing, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
