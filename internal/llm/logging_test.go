package llm_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/diacheck/internal/llm"
	"github.com/abhisek/diacheck/internal/llm/llmtest"
	"github.com/abhisek/diacheck/internal/store"
)

type recordingRepo struct {
	store.EventRepo
	events []store.LLMRequestEventData
	err    error
}

func (r *recordingRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.events = append(r.events, data)
	return r.err
}

func TestLoggingProvider_RecordsSuccess(t *testing.T) {
	repo := &recordingRepo{}
	p := llm.WithLogging(llmtest.New(llmtest.Step{
		Content: []byte(`{"summary":"ok","recommendations":[]}`),
		Usage:   llm.Usage{InputTokens: 12, OutputTokens: 7},
	}), llm.ProviderOpenAI, repo, zerolog.Nop())

	_, err := p.Generate(context.Background(), llm.Request{
		Purpose: llm.PurposeNarrative,
		System:  "sys",
		Prompt:  "glucose 148",
		Schema:  narrativeSchema(),
	})
	require.NoError(t, err)

	require.Len(t, repo.events, 1)
	e := repo.events[0]
	assert.Equal(t, llm.ProviderOpenAI, e.Provider)
	assert.Equal(t, llmtest.ModelID, e.Model)
	assert.Equal(t, string(llm.PurposeNarrative), e.Purpose)
	assert.True(t, e.Success)
	assert.Equal(t, 12, e.InputTokens)
	assert.True(t, strings.HasPrefix(e.RequestBody, "[system]\nsys\n\n[prompt]\nglucose 148\n\n[schema: risk-narrative]\n{"), e.RequestBody)
	assert.Contains(t, e.ResponseBody, `"summary"`)
}

func TestLoggingProvider_RecordsFailureAndSurvivesRepoError(t *testing.T) {
	var buf bytes.Buffer
	repo := &recordingRepo{err: errors.New("disk full")}
	p := llm.WithLogging(llmtest.New(llmtest.Fail(llm.KindUnavailable)), llm.ProviderGemini, repo, zerolog.New(&buf))

	_, err := p.Generate(context.Background(), llm.Request{Prompt: "x"})
	assert.True(t, llm.IsKind(err, llm.KindUnavailable))

	require.Len(t, repo.events, 1)
	assert.False(t, repo.events[0].Success)
	assert.Contains(t, repo.events[0].ErrorMessage, "unavailable")
	assert.Equal(t, "unspecified", repo.events[0].Purpose)
	assert.Contains(t, buf.String(), `"kind":"unavailable"`)
	assert.Contains(t, buf.String(), "failed to record LLM request event")
}

func TestLoggingProvider_NilRepo(t *testing.T) {
	p := llm.WithLogging(llmtest.New(llmtest.Reply(`"hi"`)), llm.ProviderOpenAI, nil, zerolog.Nop())
	_, err := p.Generate(context.Background(), llm.Request{})
	assert.NoError(t, err)
	assert.Equal(t, llmtest.ModelID, p.ModelID())
}
