// Package llm talks to hosted language models for the advisory narrative.
// Every request is single turn and, when a Schema is set, the response is
// JSON validated against it before it reaches the caller.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates one structured response per request.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	// ModelID is the model the provider sends requests to.
	ModelID() string
}

// Purpose tags a request in the event log.
type Purpose string

const (
	PurposeNarrative Purpose = "advisory-narrative"
	PurposeProbe     Purpose = "probe"
)

// Request is a single-turn prompt.
type Request struct {
	Purpose Purpose
	System  string
	Prompt  string
	// Schema constrains the response. Nil means free text.
	Schema      *Schema
	MaxTokens   int
	Temperature float64
}

// Response holds the model output.
type Response struct {
	Content json.RawMessage
	Usage   Usage
	// Model is the model that actually served the request, which gateways
	// may report differently from ModelID.
	Model string
}

// Usage is the token count for one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Total is input plus output tokens.
func (u Usage) Total() int { return u.InputTokens + u.OutputTokens }

// complete turns raw provider output into a Response, rejecting truncated
// or schema-violating content.
func complete(req Request, content json.RawMessage, truncated bool, usage Usage, model string) (*Response, error) {
	if truncated {
		return nil, &Error{Kind: KindTruncated, Content: content}
	}
	if req.Schema != nil {
		if err := req.Schema.Validate(content); err != nil {
			return nil, err
		}
	}
	return &Response{Content: content, Usage: usage, Model: model}, nil
}
