package llm

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhisek/diacheck/internal/store"
)

// LoggingProvider writes one zerolog line per attempt and, when events is
// set, one stored LLM request event.
type LoggingProvider struct {
	inner    Provider
	provider string
	events   store.EventRepo
	log      zerolog.Logger
}

// WithLogging wraps p with request logging. events may be nil.
func WithLogging(p Provider, providerName string, events store.EventRepo, log zerolog.Logger) Provider {
	return &LoggingProvider{inner: p, provider: providerName, events: events, log: log}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	purpose := string(req.Purpose)
	if purpose == "" {
		purpose = "unspecified"
	}
	data := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     purpose,
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: requestText(req),
	}
	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			data.Model = resp.Model
		}
		data.ResponseBody = string(resp.Content)
	}

	ev := l.log.Debug()
	if err != nil {
		data.ErrorMessage = err.Error()
		ev = l.log.Warn().Err(err)
		if kind, ok := KindOf(err); ok {
			ev = ev.Stringer("kind", kind)
		}
	}
	ev.Str("provider", data.Provider).
		Str("model", data.Model).
		Str("purpose", purpose).
		Int64("latency_ms", data.LatencyMs).
		Int("input_tokens", data.InputTokens).
		Int("output_tokens", data.OutputTokens).
		Msg("llm request")

	if l.events != nil {
		if logErr := l.events.AppendLLMRequest(ctx, data); logErr != nil {
			l.log.Warn().Err(logErr).Msg("failed to record LLM request event")
		}
	}
	return resp, err
}

func (l *LoggingProvider) ModelID() string { return l.inner.ModelID() }

// requestText is the stored form of a request: system prompt, user prompt
// and schema, each under a bracketed heading.
func requestText(req Request) string {
	var parts []string
	if req.System != "" {
		parts = append(parts, "[system]\n"+req.System)
	}
	parts = append(parts, "[prompt]\n"+req.Prompt)
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			parts = append(parts, "[schema: "+req.Schema.Name+"]\n"+string(def))
		}
	}
	return strings.Join(parts, "\n\n")
}
