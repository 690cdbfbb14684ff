package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/diacheck/internal/llm"
	"github.com/abhisek/diacheck/internal/llm/llmtest"
)

func retryConfig() llm.RetryConfig {
	return llm.RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     10 * time.Millisecond,
		Multiplier:  2,
	}
}

const okJSON = `{"ok":true}`

func TestRetry(t *testing.T) {
	tests := []struct {
		name      string
		steps     []llmtest.Step
		wantErr   llm.ErrorKind
		wantOK    bool
		wantCalls int
	}{
		{"first attempt", []llmtest.Step{llmtest.Reply(okJSON)}, 0, true, 1},
		{"unavailable then ok",
			[]llmtest.Step{llmtest.Fail(llm.KindUnavailable), llmtest.Reply(okJSON)}, 0, true, 2},
		{"rate limited then ok",
			[]llmtest.Step{llmtest.Fail(llm.KindRateLimited), llmtest.Reply(okJSON)}, 0, true, 2},
		{"gives up after max attempts",
			[]llmtest.Step{
				llmtest.Fail(llm.KindUnavailable), llmtest.Fail(llm.KindUnavailable),
				llmtest.Fail(llm.KindUnavailable), llmtest.Reply(okJSON),
			}, llm.KindUnavailable, false, 3},
		{"truncated is final",
			[]llmtest.Step{llmtest.Fail(llm.KindTruncated), llmtest.Reply(okJSON)}, llm.KindTruncated, false, 1},
		{"rejected is final",
			[]llmtest.Step{llmtest.Fail(llm.KindRejected), llmtest.Reply(okJSON)}, llm.KindRejected, false, 1},
		{"invalid retried once",
			[]llmtest.Step{llmtest.Fail(llm.KindInvalid), llmtest.Fail(llm.KindInvalid), llmtest.Reply(okJSON)},
			llm.KindInvalid, false, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := llmtest.New(tt.steps...)
			resp, err := llm.WithRetry(p, retryConfig()).Generate(context.Background(), llm.Request{})
			assert.Equal(t, tt.wantCalls, p.Calls())
			if tt.wantOK {
				require.NoError(t, err)
				assert.JSONEq(t, okJSON, string(resp.Content))
				return
			}
			assert.True(t, llm.IsKind(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestRetry_UnclassifiedErrorIsFinal(t *testing.T) {
	p := llmtest.New(llmtest.Step{Err: errors.New("boom")}, llmtest.Reply(okJSON))
	_, err := llm.WithRetry(p, retryConfig()).Generate(context.Background(), llm.Request{})
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 1, p.Calls())
}

func TestRetry_CancelledContext(t *testing.T) {
	p := llmtest.New(llmtest.Fail(llm.KindUnavailable), llmtest.Reply(okJSON))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := llm.WithRetry(p, retryConfig()).Generate(ctx, llm.Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, p.Calls())
}

func TestRetry_HonoursRetryAfter(t *testing.T) {
	limited := llmtest.Step{Err: &llm.Error{Kind: llm.KindRateLimited, RetryAfter: 30 * time.Millisecond}}
	p := llmtest.New(limited, llmtest.Reply(okJSON))

	start := time.Now()
	_, err := llm.WithRetry(p, retryConfig()).Generate(context.Background(), llm.Request{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestRetry_SingleAttempt(t *testing.T) {
	cfg := retryConfig()
	cfg.MaxAttempts = 1
	p := llmtest.New(llmtest.Fail(llm.KindUnavailable), llmtest.Reply(okJSON))

	_, err := llm.WithRetry(p, cfg).Generate(context.Background(), llm.Request{})
	assert.Error(t, err)
	assert.Equal(t, 1, p.Calls())
	assert.Equal(t, llmtest.ModelID, llm.WithRetry(p, cfg).ModelID())
}
