package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/diacheck/internal/evaluator"
	"github.com/abhisek/diacheck/internal/patient"
)

var (
	// ErrNotFound is returned when no record matches an ID.
	ErrNotFound = errors.New("not found")

	// ErrAmbiguousID is returned when an ID prefix matches several records.
	ErrAmbiguousID = errors.New("ambiguous id prefix")
)

// QueryOpts configures list queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	Offset  int       // skip this many results
	Since   time.Time // created_at >= Since
	Purpose string    // LLM events only
}

// Assessment is one stored scoring run.
type Assessment struct {
	ID        uuid.UUID
	CreatedAt time.Time

	// Source names the collector: "cli", "form" or "http".
	Source string

	Vector patient.Vector

	// Label and Confidence are nil when no model was available or the
	// model cannot report a confidence.
	Label      *int
	Confidence *float64
	Classifier string
	ModelMode  string

	RiskScore int
	RiskTier  evaluator.Tier
	Statuses  []evaluator.ParameterStatus
	Advice    *Advice
}

// Advice is the advice shown with an assessment, nil when none was asked
// for.
type Advice struct {
	Source          string   `json:"source"`
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// AssessmentRepo persists assessments.
type AssessmentRepo interface {
	// Save stores a, assigning ID and CreatedAt when zero.
	Save(ctx context.Context, a *Assessment) error

	// Get returns the assessment whose ID starts with idPrefix.
	Get(ctx context.Context, idPrefix string) (*Assessment, error)

	// List returns assessments newest first.
	List(ctx context.Context, opts QueryOpts) ([]Assessment, error)

	// Count returns the number of stored assessments.
	Count(ctx context.Context) (int, error)

	// Prune deletes all but the keep most recent assessments and reports
	// how many were removed.
	Prune(ctx context.Context, keep int) (int, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLM request.
type LLMRequestEvent struct {
	ID        int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates token usage for one purpose or model.
type LLMUsage struct {
	Key          string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns one event or ErrNotFound.
	GetLLMEvent(ctx context.Context, id int64) (*LLMRequestEvent, error)

	// LLMUsageByPurpose aggregates usage per purpose label.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)

	// LLMUsageByModel aggregates usage per model ID.
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}
