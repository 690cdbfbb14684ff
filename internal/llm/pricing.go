package llm

import "regexp"

// ModelCost is per-million-token pricing in USD.
type ModelCost struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost is the USD cost of one request.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*c.InputPerMTok/1_000_000 +
		float64(outputTokens)*c.OutputPerMTok/1_000_000
}

var dateSuffix = regexp.MustCompile(`-\d{8}$`)

// LookupCost returns pricing for a model ID as reported in responses.
// Dated snapshots ("claude-haiku-4-5-20251001") resolve to their alias.
// OpenRouter IDs are not priced.
func LookupCost(modelID string) *ModelCost {
	if c, ok := modelCosts[modelID]; ok {
		return &c
	}
	if c, ok := modelCosts[dateSuffix.ReplaceAllString(modelID, "")]; ok {
		return &c
	}
	return nil
}

var modelCosts = map[string]ModelCost{
	"claude-haiku-4-5":  {1, 5},
	"claude-sonnet-4-5": {3, 15},

	"gpt-4o-mini":  {0.15, 0.6},
	"gpt-4.1-mini": {0.4, 1.6},

	"gemini-2.0-flash": {0.1, 0.4},
	"gemini-2.5-flash": {0.3, 2.5},
}
