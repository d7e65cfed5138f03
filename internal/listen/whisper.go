package listen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/msto63/vaani/internal/speech"
)

// WhisperHTTP transcribes through an OpenAI-compatible
// /v1/audio/transcriptions endpoint (whisper.cpp server, LocalAI)
type WhisperHTTP struct {
	baseURL    string
	language   string
	model      string
	sampleRate int
	client     *http.Client
}

// NewWhisperHTTP creates a client. An empty language lets the server detect it.
func NewWhisperHTTP(baseURL, language string, sampleRate int, timeout time.Duration) *WhisperHTTP {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &WhisperHTTP{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		language:   language,
		model:      "whisper-1",
		sampleRate: sampleRate,
		client:     &http.Client{Timeout: timeout},
	}
}

// Transcribe uploads samples as a WAV file
func (w *WhisperHTTP) Transcribe(ctx context.Context, samples []float32) (string, error) {
	wav := speech.EncodeWAV(int16ToBytes(floatToInt16(samples)), w.sampleRate, 1)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "phrase.wav")
	if err != nil {
		return "", fmt.Errorf("failed to create form: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return "", fmt.Errorf("failed to create form: %w", err)
	}
	mw.WriteField("model", w.model)
	mw.WriteField("response_format", "json")
	if w.language != "" {
		mw.WriteField("language", w.language)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to create form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/v1/audio/transcriptions", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("server returned %d: %s", resp.StatusCode, string(msg))
	}

	var response struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return strings.TrimSpace(response.Text), nil
}
