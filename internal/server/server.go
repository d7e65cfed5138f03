package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/msto63/vaani/internal/language"
	"github.com/msto63/vaani/internal/service"
	"github.com/msto63/vaani/internal/status"
	"github.com/msto63/vaani/internal/translate"
	"github.com/msto63/vaani/pkg/core/cache"
	"github.com/msto63/vaani/pkg/core/health"
	"github.com/msto63/vaani/pkg/core/logging"
	"github.com/msto63/vaani/pkg/core/version"
)

const maxBodyBytes = 1 << 20

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Host:         "127.0.0.1",
		Port:         8000,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		CacheTTL:     30 * time.Minute,
	}
}

// Server is the language service: translation, language parsing and speech
type Server struct {
	httpServer *http.Server
	provider   Provider
	speaker    Synthesizer
	table      *language.Table
	cache      *cache.Cache[string]
	health     *health.Registry
	hub        *status.Hub
	logger     *logging.Logger
	config     Config
}

// New creates a server. hub may be nil to disable /ws/status.
func New(cfg Config, provider Provider, speaker Synthesizer, table *language.Table, hub *status.Hub) *Server {
	if table == nil {
		table = language.Default()
	}
	s := &Server{
		provider: provider,
		speaker:  speaker,
		table:    table,
		cache:    cache.New[string](cache.Config{TTL: cfg.CacheTTL}),
		health:   health.NewRegistry("vaani", version.Version),
		hub:      hub,
		logger:   logging.New("server"),
		config:   cfg,
	}

	s.health.RegisterFunc("provider", func(ctx context.Context) health.CheckResult {
		if s.provider == nil {
			return health.CheckResult{Status: health.StatusUnhealthy, Message: "no provider configured"}
		}
		return health.CheckResult{Status: health.StatusHealthy, Message: s.provider.Name()}
	})
	if o, ok := provider.(*OllamaProvider); ok {
		s.health.Register(health.HTTPCheck("ollama", o.BaseURL()+"/api/tags", 3*time.Second))
	}
	if p, ok := speaker.(*PiperSpeaker); ok {
		s.health.Register(health.BinaryCheck("piper", p.Binary(), false))
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /translate", s.handleTranslate)
	mux.HandleFunc("POST /parse-language", s.handleParseLanguage)
	mux.HandleFunc("POST /speak", s.handleSpeak)
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.hub != nil {
		mux.Handle("GET /ws/status", s.hub)
	}
	return corsMiddleware(loggingMiddleware(s.logger, mux))
}

// Health returns the health registry
func (s *Server) Health() *health.Registry {
	return s.health
}

// Run serves until ctx ends, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	name := "none"
	if s.provider != nil {
		name = s.provider.Name()
	}
	s.logger.Info("Starting language service", "addr", ln.Addr().String(), "provider", name)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("Shutting down language service")
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

var errEmptyOutput = errors.New("provider returned empty text")

// ErrorResponse is returned for rejected requests
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req service.TranslateRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "text is required")
		return
	}
	if req.Dest == "" {
		req.Dest = language.Neutral
	}
	mode, err := translate.ParseMode(req.Mode)
	if err != nil {
		mode = translate.ModeFull
	}

	logger := requestLogger(s.logger, r)
	logger.Info("Translating", "dest", req.Dest, "mode", mode.WireName(), "chars", len(req.Text))

	key := cache.Key(mode.WireName(), req.Dest, req.Text)
	text, err := s.cache.GetOrSet(key, func() (string, error) {
		if s.provider == nil {
			return "", errors.New("no provider configured")
		}
		out, err := s.provider.Complete(r.Context(), TranslatePrompt(mode, req.Dest, req.Text))
		if err == nil && strings.TrimSpace(out) == "" {
			err = errEmptyOutput
		}
		return out, err
	})
	if err != nil {
		// Failures answer 200 with a readable message; error and code let
		// clients tell it apart from a translation.
		logger.Error("Translation failed", "error", err)
		s.publish(r, "translate", "error")
		code := service.CodeProviderFailed
		if errors.Is(err, errEmptyOutput) {
			code = service.CodeEmptyOutput
		}
		writeJSON(w, http.StatusOK, service.TranslateResponse{
			TranslatedText: "Error: " + err.Error(),
			Error:          err.Error(),
			Code:           code,
		})
		return
	}

	s.publish(r, "translate", "ok")
	writeJSON(w, http.StatusOK, service.TranslateResponse{TranslatedText: text})
}

func (s *Server) handleParseLanguage(w http.ResponseWriter, r *http.Request) {
	var req service.ParseLanguageRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	logger := requestLogger(s.logger, r)
	lang, ok := s.parseLanguage(r.Context(), logger, req.Text)
	if !ok {
		logger.Info("No language recognized", "phrase", req.Text)
		s.publish(r, "parse-language", "not_recognized")
		writeJSON(w, http.StatusOK, service.ParseLanguageResponse{})
		return
	}

	logger.Info("Language recognized", "code", lang.Code)
	s.publish(r, "parse-language", "ok")
	writeJSON(w, http.StatusOK, service.ParseLanguageResponse{Code: lang.Code})
}

// parseLanguage asks the provider first and falls back to a name match
func (s *Server) parseLanguage(ctx context.Context, logger *logging.Logger, phrase string) (language.Language, bool) {
	if strings.TrimSpace(phrase) == "" {
		return language.Language{}, false
	}
	if s.provider != nil {
		reply, err := s.provider.Complete(ctx, ParseLanguagePrompt(phrase, s.table))
		if err != nil {
			logger.Warn("Provider failed to parse language, using name match", "error", err)
		} else if l, ok := parseCodeReply(reply, s.table); ok {
			return l, true
		}
	}
	return s.table.MatchPhrase(phrase)
}

func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	var req service.SpeakRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "text is required")
		return
	}

	logger := requestLogger(s.logger, r)
	if s.speaker == nil {
		writeError(w, http.StatusInternalServerError, "speech_unavailable", "no synthesizer configured")
		return
	}

	logger.Info("Generating audio", "lang", req.Lang, "chars", len(req.Text))
	audio, err := s.speaker.Synthesize(r.Context(), req.Text, req.Lang)
	if err != nil {
		logger.Error("Speech synthesis failed", "error", err)
		s.publish(r, "speak", "error")
		writeError(w, http.StatusInternalServerError, "speech_failed", err.Error())
		return
	}

	s.publish(r, "speak", "ok")
	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	w.Write(audio)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	report := s.health.Check(ctx)
	code := http.StatusOK
	if !report.Healthy() {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, report)
}

func (s *Server) publish(r *http.Request, endpoint, outcome string) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(status.Event{
		Type:    status.TypeService,
		Session: r.Header.Get(requestIDHeader),
		State:   endpoint,
		Notice:  outcome,
	})
}

func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

const requestIDHeader = "X-Request-ID"

func requestLogger(logger *logging.Logger, r *http.Request) *logging.Logger {
	return logger.WithSession(r.Header.Get(requestIDHeader))
}

// loggingMiddleware assigns a request ID and logs every request
func loggingMiddleware(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)

		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		logger.Info("HTTP request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"duration", time.Since(start),
		)
	})
}

// corsMiddleware allows any origin, as the mobile and web clients need
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// responseWrapper captures the status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection
func (w *responseWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}
