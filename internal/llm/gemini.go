// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/pdiddy/review-engine/pkg/types"
)

// Gemini completes prompts with the Gemini API.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGemini creates a Gemini client from cfg.
func NewGemini(ctx context.Context, cfg types.AIConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{client: client, model: model, temperature: cfg.Temperature}, nil
}

// Complete sends prompt as a single user turn and returns the response text.
func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	temp := g.temperature
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents,
		&genai.GenerateContentConfig{Temperature: &temp})
	if err != nil {
		return "", fmt.Errorf("calling Gemini API: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("Gemini API returned empty content")
	}
	return text, nil
}

// Model returns the model identifier in use.
func (g *Gemini) Model() string { return g.model }
