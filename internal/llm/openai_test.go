package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/diacheck/internal/llm"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *llm.OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := llm.NewOpenAIProvider(llm.OpenAIConfig{
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
		BaseURL: server.URL + "/v1",
	})
	require.NoError(t, err)
	return p
}

func chatCompletion(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   "gpt-4o-mini-2024-07-18",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
	}
}

func TestOpenAIProvider_HappyPath(t *testing.T) {
	var got map[string]any
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion(
			`{"summary":"BMI is high.","recommendations":["Increase activity."]}`, "stop"))
	})

	resp, err := p.Generate(context.Background(), llm.Request{
		System:    "You explain diabetes risk assessments.",
		Prompt:    "Summarize.",
		Schema:    narrativeSchema(),
		MaxTokens: 256,
	})
	require.NoError(t, err)
	assert.Equal(t, 40, resp.Usage.InputTokens)
	assert.Equal(t, 25, resp.Usage.OutputTokens)
	assert.Equal(t, "gpt-4o-mini-2024-07-18", resp.Model)

	assert.Equal(t, "gpt-4o-mini", got["model"])
	format, _ := got["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	messages, _ := got["messages"].([]any)
	require.Len(t, messages, 2, "system + prompt")
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])
}

func TestOpenAIProvider_Truncated(t *testing.T) {
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion(`{"summary":"B`, "length"))
	})

	_, err := p.Generate(context.Background(), llm.Request{Prompt: "Summarize.", MaxTokens: 4})
	assert.True(t, llm.IsKind(err, llm.KindTruncated), "got %v", err)
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		body := chatCompletion("", "stop")
		body["choices"] = []map[string]any{}
		json.NewEncoder(w).Encode(body)
	})

	_, err := p.Generate(context.Background(), llm.Request{Prompt: "x"})
	assert.True(t, llm.IsKind(err, llm.KindInvalid), "got %v", err)
}

func TestOpenAIProvider_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   llm.ErrorKind
	}{
		{"rate limit", http.StatusTooManyRequests, llm.KindRateLimited},
		{"bad request", http.StatusBadRequest, llm.KindRejected},
		{"server error", http.StatusInternalServerError, llm.KindUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"type": "server_error", "message": tt.name},
				})
			})
			_, err := p.Generate(context.Background(), llm.Request{Prompt: "test", MaxTokens: 100})
			assert.True(t, llm.IsKind(err, tt.want), "got %v", err)
		})
	}
}

func TestOpenRouterProvider(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion(`hello`, "stop"))
	}))
	t.Cleanup(server.Close)

	p, err := llm.NewOpenRouterProvider(llm.OpenRouterConfig{
		APIKey:  "sk-or-test",
		Model:   "meta-llama/llama-3-8b",
		BaseURL: server.URL + "/api/v1",
	})
	require.NoError(t, err)
	assert.Equal(t, "meta-llama/llama-3-8b", p.ModelID())

	resp, err := p.Generate(context.Background(), llm.Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello", string(resp.Content))
	assert.Equal(t, "/api/v1/chat/completions", path)

	_, err = llm.NewOpenRouterProvider(llm.OpenRouterConfig{Model: "openai/gpt-4o-mini"})
	assert.Error(t, err)
}
