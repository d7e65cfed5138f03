// ============================================================================
// Vaani - Scan, Translate, Speak
// ============================================================================
//
// Package:     server
// Description: LLM provider backends for the language service
// Author:      Mike Stoffels
// Created:     2026-10-11
// License:     MIT
// ============================================================================

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	openai "github.com/meguminnnnnnnnn/go-openai"

	"github.com/msto63/vaani/pkg/core/config"
)

// Provider completes a single prompt
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProviderType names a supported backend
type ProviderType string

const (
	ProviderOllama    ProviderType = "ollama"
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
)

const defaultMaxTokens = 2048

// NewProvider builds the provider selected by cfg.Provider. A model string
// like "openai:gpt-4o" overrides both provider and model.
func NewProvider(cfg config.ServerConfig) (Provider, error) {
	kind := ProviderType(strings.ToLower(cfg.Provider))
	model := cfg.Model
	if p, m, ok := strings.Cut(model, ":"); ok {
		switch ProviderType(p) {
		case ProviderOllama, ProviderOpenAI, ProviderAnthropic:
			kind, model = ProviderType(p), m
		}
	}

	switch kind {
	case ProviderOllama:
		pc := cfg.Providers.Ollama
		if model == "" {
			model = pc.Model
		}
		return NewOllamaProvider(pc.BaseURL, model, cfg.WriteTimeout.Duration), nil
	case ProviderOpenAI:
		pc := cfg.Providers.OpenAI
		if model == "" {
			model = pc.Model
		}
		return NewOpenAIProvider(pc.APIKey, model, pc.BaseURL)
	case ProviderAnthropic:
		pc := cfg.Providers.Anthropic
		if model == "" {
			model = pc.Model
		}
		return NewAnthropicProvider(pc.APIKey, model, pc.BaseURL)
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// OllamaProvider talks to a local Ollama server
type OllamaProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllamaProvider creates an Ollama backend
func NewOllamaProvider(baseURL, model string, timeout time.Duration) *OllamaProvider {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OllamaProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return string(ProviderOllama)
}

// BaseURL returns the Ollama server URL
func (p *OllamaProvider) BaseURL() string {
	return p.baseURL
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Complete generates a response with /api/generate
func (p *OllamaProvider) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ollamaGenerateRequest{Model: p.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ollama error: %s - %s", resp.Status, strings.TrimSpace(string(bodyBytes)))
	}

	var out ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return strings.TrimSpace(out.Response), nil
}

// OpenAIProvider uses the OpenAI chat completions API or a compatible server
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates an OpenAI backend
func NewOpenAIProvider(apiKey, model, baseURL string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return string(ProviderOpenAI)
}

// Complete sends prompt as a single user message
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: defaultMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// AnthropicProvider uses the Anthropic messages API
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicProvider creates an Anthropic backend
func NewAnthropicProvider(apiKey, model, baseURL string) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &AnthropicProvider{client: anthropic.NewClient(apiKey, opts...), model: model}, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return string(ProviderAnthropic)
}

// Complete sends prompt as a single user message and joins the text blocks
func (p *AnthropicProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(p.model),
		Messages: []anthropic.Message{{
			Role:    anthropic.RoleUser,
			Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(prompt)},
		}},
		MaxTokens: defaultMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			sb.WriteString(*block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text in response")
	}
	return strings.TrimSpace(sb.String()), nil
}
