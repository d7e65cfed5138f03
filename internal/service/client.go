// ============================================================================
// Vaani - Scan, Translate, Speak
// ============================================================================
//
// Package:     service
// Description: HTTP client for the remote language service
// Author:      Mike Stoffels
// Created:     2026-10-03
// License:     MIT
// ============================================================================

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxAudioBytes caps the size of a /speak response
const maxAudioBytes = 32 << 20

// StatusError is returned when the service answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Body)
}

// Client is the client for the language service
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds language service client configuration
type Config struct {
	BaseURL string
	// Timeout is a transport-level upper bound; callers add per-call deadlines.
	Timeout time.Duration
}

// DefaultConfig returns default client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://127.0.0.1:8000",
		Timeout: 2 * time.Minute,
	}
}

// NewClient creates a new language service client
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// BaseURL returns the configured service URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// TranslateRequest is the body of POST /translate
type TranslateRequest struct {
	Text string `json:"text"`
	Dest string `json:"dest"`
	Mode string `json:"mode"`
}

// TranslateResponse is the body returned by /translate.
// A missing field decodes to the empty string. Error and Code are set when
// the provider failed; TranslatedText then holds a readable message only.
type TranslateResponse struct {
	TranslatedText string `json:"translated_text"`
	Error          string `json:"error,omitempty"`
	Code           string `json:"code,omitempty"`
}

// Codes reported in TranslateResponse.Code
const (
	CodeProviderFailed = "provider_failed"
	CodeEmptyOutput    = "empty_output"
)

// ParseLanguageRequest is the body of POST /parse-language
type ParseLanguageRequest struct {
	Text string `json:"text"`
	Dest string `json:"dest"`
}

// ParseLanguageResponse carries the recognized language code, if any
type ParseLanguageResponse struct {
	Code string `json:"code,omitempty"`
}

// SpeakRequest is the body of POST /speak
type SpeakRequest struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

// Audio is a synthesized audio payload
type Audio struct {
	Data        []byte
	ContentType string
}

// Translate sends text to /translate
func (c *Client) Translate(ctx context.Context, req TranslateRequest) (TranslateResponse, error) {
	var out TranslateResponse
	err := c.postJSON(ctx, "/translate", req, &out)
	return out, err
}

// ParseLanguage asks the service which language a spoken phrase names
func (c *Client) ParseLanguage(ctx context.Context, phrase string) (string, error) {
	var out ParseLanguageResponse
	if err := c.postJSON(ctx, "/parse-language", ParseLanguageRequest{Text: phrase, Dest: ""}, &out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Code), nil
}

// Speak requests synthesized audio for text in the given language tag
func (c *Client) Speak(ctx context.Context, text, lang string) (Audio, error) {
	resp, err := c.post(ctx, "/speak", SpeakRequest{Text: text, Lang: lang})
	if err != nil {
		return Audio{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return Audio{}, fmt.Errorf("failed to read audio: %w", err)
	}
	if len(data) == 0 {
		return Audio{}, fmt.Errorf("empty audio payload")
	}

	return Audio{Data: data, ContentType: resp.Header.Get("Content-Type")}, nil
}

// HealthCheck checks that the service answers on /health
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out interface{}) error {
	resp, err := c.post(ctx, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// post returns the response only for 2xx statuses; the caller closes the body
func (c *Client) post(ctx context.Context, path string, in interface{}) (*http.Response, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	return resp, nil
}
