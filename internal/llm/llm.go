// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm wraps the text-generation APIs used for search strategy
// generation and paper reports. Callers depend on Completer so tests can
// supply a mock.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/review-engine/pkg/types"
)

// Provider names accepted in AIConfig.Provider.
const (
	ProviderGemini = "gemini"
	ProviderClaude = "claude"
)

// Default models per provider.
const (
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultClaudeModel = "claude-sonnet-4-5"
)

const defaultMaxRetries = 3

// ErrNoAPIKey is returned by New when the provider has no key configured.
var ErrNoAPIKey = errors.New("no API key configured")

// Completer turns a prompt into generated text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// New builds the Completer selected by cfg.Provider (Gemini when empty),
// wrapped with retries.
func New(ctx context.Context, cfg types.AIConfig, log *zap.Logger) (Completer, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	var c Completer
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderGemini, "google":
		g, err := NewGemini(ctx, cfg)
		if err != nil {
			return nil, err
		}
		c = g
	case ProviderClaude, "anthropic":
		c = &Claude{APIKey: cfg.APIKey, Model: cfg.Model, Temperature: cfg.Temperature}
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
	return &Retrying{Completer: c, MaxRetries: cfg.MaxRetries, Log: log}, nil
}

// RetryDelay is the pause before the first retry; it doubles each attempt.
// Tests set it to zero.
var RetryDelay = 2 * time.Second

// Retrying retries a Completer on error.
type Retrying struct {
	Completer  Completer
	MaxRetries int
	Log        *zap.Logger
}

// Complete calls the wrapped Completer up to MaxRetries+1 times.
func (r *Retrying) Complete(ctx context.Context, prompt string) (string, error) {
	retries := r.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}

	var lastErr error
	delay := RetryDelay
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			log.Info("retrying completion", zap.Int("attempt", attempt), zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		out, err := r.Completer.Complete(ctx, prompt)
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("completion failed after %d attempts: %w", retries+1, lastErr)
}

// ExtractJSON pulls the JSON payload out of a model response: the body of a
// ```json fence, else of the first bare ``` fence, else the trimmed text.
func ExtractJSON(text string) string {
	if _, after, ok := strings.Cut(text, "```json"); ok {
		body, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(body)
	}
	if _, after, ok := strings.Cut(text, "```"); ok {
		body, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(text)
}
