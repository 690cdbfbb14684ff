// Package llmtest provides a scripted llm.Provider for tests.
package llmtest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/abhisek/diacheck/internal/llm"
)

// ModelID is reported by every scripted Provider.
const ModelID = "scripted"

// Step is one scripted outcome.
type Step struct {
	Content json.RawMessage
	Usage   llm.Usage
	Err     error
}

// Reply is a successful step returning content.
func Reply(content string) Step {
	return Step{Content: json.RawMessage(content)}
}

// Fail is a failing step of the given kind.
func Fail(kind llm.ErrorKind) Step {
	return Step{Err: &llm.Error{Kind: kind, Err: errors.New("scripted " + kind.String())}}
}

// Provider plays its steps in order, one per Generate call. Successful
// content is validated against the request schema like a real provider
// does. Once the script is used up every call fails with KindRejected.
type Provider struct {
	mu       sync.Mutex
	steps    []Step
	requests []llm.Request
}

// New returns a Provider that plays steps.
func New(steps ...Step) *Provider {
	return &Provider{steps: steps}
}

func (p *Provider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(p.steps) == 0 {
		return nil, &llm.Error{Kind: llm.KindRejected, Err: errors.New("llmtest: script exhausted")}
	}
	step := p.steps[0]
	p.steps = p.steps[1:]

	if step.Err != nil {
		return nil, step.Err
	}
	if req.Schema != nil {
		if err := req.Schema.Validate(step.Content); err != nil {
			return nil, err
		}
	}
	return &llm.Response{Content: step.Content, Usage: step.Usage, Model: ModelID}, nil
}

func (p *Provider) ModelID() string { return ModelID }

// Requests returns the requests seen so far.
func (p *Provider) Requests() []llm.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.Request(nil), p.requests...)
}

// Calls is the number of Generate calls so far.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}
