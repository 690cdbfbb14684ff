package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/diacheck/internal/llm"
)

func newTestGeminiProvider(t *testing.T, handler http.HandlerFunc) *llm.GeminiProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := llm.NewGeminiProvider(context.Background(), llm.GeminiConfig{
		APIKey:  "test-key",
		Model:   "gemini-2.0-flash",
		BaseURL: server.URL + "/",
	})
	require.NoError(t, err)
	return p
}

func geminiResponse(text, finish string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{{
			"content":      map[string]any{"role": "model", "parts": []map[string]any{{"text": text}}},
			"finishReason": finish,
		}},
		"usageMetadata": map[string]any{"promptTokenCount": 30, "candidatesTokenCount": 12, "totalTokenCount": 42},
	}
}

func TestGeminiProvider_HappyPath(t *testing.T) {
	var (
		path string
		got  map[string]any
	)
	p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(geminiResponse(`{"summary":"Fine.","recommendations":[]}`, "STOP"))
	})

	resp, err := p.Generate(context.Background(), llm.Request{
		System:    "You explain diabetes risk assessments.",
		Prompt:    "Summarize.",
		Schema:    narrativeSchema(),
		MaxTokens: 256,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":"Fine.","recommendations":[]}`, string(resp.Content))
	assert.Equal(t, 30, resp.Usage.InputTokens)
	assert.Equal(t, 12, resp.Usage.OutputTokens)
	assert.Equal(t, "gemini-2.0-flash", resp.Model)

	assert.True(t, strings.HasSuffix(path, "models/gemini-2.0-flash:generateContent"), path)
	conf, _ := got["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", conf["responseMimeType"])
	assert.Contains(t, conf, "responseJsonSchema")
	assert.Contains(t, got, "systemInstruction")
}

func TestGeminiProvider_Truncated(t *testing.T) {
	p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(geminiResponse(`{"summ`, "MAX_TOKENS"))
	})
	_, err := p.Generate(context.Background(), llm.Request{Prompt: "Summarize.", MaxTokens: 4})
	assert.True(t, llm.IsKind(err, llm.KindTruncated), "got %v", err)
}

func TestGeminiProvider_Errors(t *testing.T) {
	tests := []struct {
		status int
		want   llm.ErrorKind
	}{
		{http.StatusTooManyRequests, llm.KindRateLimited},
		{http.StatusForbidden, llm.KindRejected},
		{http.StatusServiceUnavailable, llm.KindUnavailable},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"code": tt.status, "message": "nope", "status": "ERROR"},
				})
			})
			_, err := p.Generate(context.Background(), llm.Request{Prompt: "x"})
			assert.True(t, llm.IsKind(err, tt.want), "got %v", err)
		})
	}
}
