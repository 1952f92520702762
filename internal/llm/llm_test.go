// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/review-engine/pkg/types"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"json fence", "Here:\n```json\n{\"a\":1}\n```\nthanks", `{"a":1}`},
		{"bare fence", "```\n[1,2]\n```", "[1,2]"},
		{"raw", "  {\"a\":2}\n", `{"a":2}`},
		{"unterminated fence", "```json\n{\"a\":3}", `{"a":3}`},
		{"json fence wins over earlier bare", "```\nx\n```\n```json\n{}\n```", "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.in))
		})
	}
}

func TestRetrying(t *testing.T) {
	old := RetryDelay
	RetryDelay = 0
	defer func() { RetryDelay = old }()

	calls := 0
	flaky := CompleterFunc(func(context.Context, string) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("unavailable")
		}
		return "ok", nil
	})
	out, err := (&Retrying{Completer: flaky, MaxRetries: 3}).Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, calls)

	calls = 0
	failing := CompleterFunc(func(context.Context, string) (string, error) {
		calls++
		return "", errors.New("down")
	})
	_, err = (&Retrying{Completer: failing, MaxRetries: 1}).Complete(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, 2, calls)
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(context.Background(), types.AIConfig{}, nil)
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = New(context.Background(), types.AIConfig{APIKey: "k", Provider: "parrot"}, nil)
	assert.Error(t, err)

	c, err := New(context.Background(), types.AIConfig{APIKey: "k", Provider: "claude"}, nil)
	require.NoError(t, err)
	r, ok := c.(*Retrying)
	require.True(t, ok)
	assert.IsType(t, &Claude{}, r.Completer)
}

func TestClaudeComplete(t *testing.T) {
	var got claudeRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"content":[{"type":"text","text":"hello "},{"type":"tool_use"},{"type":"text","text":"world"}]}`)
	}))
	defer ts.Close()
	old := claudeAPIURL
	claudeAPIURL = ts.URL
	defer func() { claudeAPIURL = old }()

	c := &Claude{APIKey: "secret", Temperature: 0.3, Client: ts.Client()}
	out, err := c.Complete(context.Background(), "say hi")
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
	assert.Equal(t, DefaultClaudeModel, got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "say hi", got.Messages[0].Content)
	assert.InDelta(t, 0.3, got.Temperature, 1e-6)
}

func TestClaudeErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"http error", http.StatusUnauthorized, `{"error":"bad key"}`, "returned 401"},
		{"bad json", http.StatusOK, `{`, "decoding"},
		{"no text", http.StatusOK, `{"content":[]}`, "no text content"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer ts.Close()
			old := claudeAPIURL
			claudeAPIURL = ts.URL
			defer func() { claudeAPIURL = old }()

			_, err := (&Claude{APIKey: "k", Client: ts.Client()}).Complete(context.Background(), "p")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
