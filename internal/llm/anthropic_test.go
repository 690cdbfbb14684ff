package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/diacheck/internal/llm"
)

func newTestAnthropicProvider(t *testing.T, handler http.HandlerFunc) *llm.AnthropicProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := llm.NewAnthropicProvider(llm.AnthropicConfig{
		APIKey:  "test-key",
		Model:   "claude-haiku-4-5",
		BaseURL: server.URL,
	})
	require.NoError(t, err)
	return p
}

func anthropicMessage(text, stop string) map[string]any {
	return map[string]any{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
	}
}

func anthropicError(status int, kind string, header http.Header) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for k, v := range header {
			w.Header()[k] = v
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"type":  "error",
			"error": map[string]any{"type": kind, "message": kind},
		})
	}
}

func TestAnthropicProvider_HappyPath(t *testing.T) {
	var got map[string]any
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropicMessage(
			`{"summary":"Glucose is high.","recommendations":["Book a fasting glucose test."]}`, "end_turn"))
	})

	resp, err := p.Generate(context.Background(), llm.Request{
		System:    "You explain diabetes risk assessments.",
		Prompt:    "Summarize.",
		Schema:    narrativeSchema(),
		MaxTokens: 256,
	})
	require.NoError(t, err)
	assert.Equal(t, 50, resp.Usage.InputTokens)
	assert.Equal(t, 80, resp.Usage.Total())
	assert.Equal(t, "claude-haiku-4-5-20251001", resp.Model)
	assert.Equal(t, "claude-haiku-4-5", p.ModelID())

	assert.Equal(t, "claude-haiku-4-5", got["model"])
	messages, _ := got["messages"].([]any)
	assert.Len(t, messages, 1)
	assert.Contains(t, got, "output_config")
}

func TestAnthropicProvider_SchemaViolation(t *testing.T) {
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropicMessage(`{"summary":42}`, "end_turn"))
	})

	_, err := p.Generate(context.Background(), llm.Request{Prompt: "Summarize.", Schema: narrativeSchema(), MaxTokens: 256})
	assert.True(t, llm.IsKind(err, llm.KindInvalid), "got %v", err)
}

func TestAnthropicProvider_Truncated(t *testing.T) {
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropicMessage(`{"summary":"Gluc`, "max_tokens"))
	})

	_, err := p.Generate(context.Background(), llm.Request{Prompt: "Summarize.", MaxTokens: 8})
	var e *llm.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, llm.KindTruncated, e.Kind)
	assert.Equal(t, `{"summary":"Gluc`, string(e.Content))
}

func TestAnthropicProvider_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		kind       string
		header     http.Header
		want       llm.ErrorKind
		retryAfter time.Duration
	}{
		{"rate limit", http.StatusTooManyRequests, "rate_limit_error", http.Header{"Retry-After": {"2"}}, llm.KindRateLimited, 2 * time.Second},
		{"bad key", http.StatusUnauthorized, "authentication_error", nil, llm.KindRejected, 0},
		{"server error", http.StatusInternalServerError, "api_error", nil, llm.KindUnavailable, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			h := anthropicError(tt.status, tt.kind, tt.header)
			p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
				calls++
				h(w, r)
			})
			_, err := p.Generate(context.Background(), llm.Request{Prompt: "test", MaxTokens: 100})
			var e *llm.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.want, e.Kind)
			assert.Equal(t, tt.retryAfter, e.RetryAfter)
			assert.Equal(t, 1, calls, "SDK retries are off")
		})
	}
}

func TestAnthropicProvider_RequiresKey(t *testing.T) {
	_, err := llm.NewAnthropicProvider(llm.AnthropicConfig{Model: "claude-haiku-4-5"})
	assert.Error(t, err)
}
