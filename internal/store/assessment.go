package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/abhisek/diacheck/internal/evaluator"
	"github.com/abhisek/diacheck/internal/patient"
)

var assessmentColumns = []string{
	"id", "created_at", "source", "vector", "label", "confidence",
	"classifier", "model_mode", "risk_score", "risk_tier", "statuses", "narrative",
}

type assessmentRow struct {
	ID         string          `db:"id"`
	CreatedAt  int64           `db:"created_at"`
	Source     string          `db:"source"`
	Vector     string          `db:"vector"`
	Label      sql.NullInt64   `db:"label"`
	Confidence sql.NullFloat64 `db:"confidence"`
	Classifier string          `db:"classifier"`
	ModelMode  string          `db:"model_mode"`
	RiskScore  int             `db:"risk_score"`
	RiskTier   string          `db:"risk_tier"`
	Statuses   string          `db:"statuses"`
	Advice     string          `db:"narrative"`
}

// assessmentRepo implements AssessmentRepo with ent's SQL builder and sqlx.
type assessmentRepo struct {
	db  *sqlx.DB
	sql *entsql.DialectBuilder
}

func (r *assessmentRepo) Save(ctx context.Context, a *Assessment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	vec, err := json.Marshal(a.Vector)
	if err != nil {
		return fmt.Errorf("marshal vector: %w", err)
	}
	statuses, err := json.Marshal(a.Statuses)
	if err != nil {
		return fmt.Errorf("marshal statuses: %w", err)
	}

	var advice string
	if a.Advice != nil {
		b, err := json.Marshal(a.Advice)
		if err != nil {
			return fmt.Errorf("marshal advice: %w", err)
		}
		advice = string(b)
	}

	var label, confidence any
	if a.Label != nil {
		label = int64(*a.Label)
	}
	if a.Confidence != nil {
		confidence = *a.Confidence
	}

	query, args := r.sql.Insert(tableAssessments).
		Columns(assessmentColumns...).
		Values(
			a.ID.String(), a.CreatedAt.UnixMilli(), a.Source, string(vec), label, confidence,
			a.Classifier, a.ModelMode, a.RiskScore, string(a.RiskTier), string(statuses), advice,
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save assessment: %w", err)
	}
	return nil
}

func (r *assessmentRepo) Get(ctx context.Context, idPrefix string) (*Assessment, error) {
	idPrefix = strings.ToLower(strings.TrimSpace(idPrefix))
	if idPrefix == "" {
		return nil, fmt.Errorf("assessment id: %w", ErrNotFound)
	}

	query, args := r.sql.Select(assessmentColumns...).
		From(r.sql.Table(tableAssessments)).
		Where(entsql.HasPrefix("id", idPrefix)).
		Limit(2).
		Query()

	var rows []assessmentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query assessment: %w", err)
	}
	switch len(rows) {
	case 0:
		return nil, fmt.Errorf("assessment %s: %w", idPrefix, ErrNotFound)
	case 1:
		return rows[0].toAssessment()
	default:
		return nil, fmt.Errorf("assessment %s: %w", idPrefix, ErrAmbiguousID)
	}
}

func (r *assessmentRepo) List(ctx context.Context, opts QueryOpts) ([]Assessment, error) {
	sel := r.sql.Select(assessmentColumns...).
		From(r.sql.Table(tableAssessments)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id"))
	if !opts.Since.IsZero() {
		sel.Where(entsql.GTE("created_at", opts.Since.UnixMilli()))
	}
	switch {
	case opts.Limit > 0:
		sel.Limit(opts.Limit)
	case opts.Offset > 0:
		// SQLite rejects OFFSET without LIMIT.
		sel.Limit(math.MaxInt32)
	}
	if opts.Offset > 0 {
		sel.Offset(opts.Offset)
	}
	query, args := sel.Query()

	var rows []assessmentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	out := make([]Assessment, 0, len(rows))
	for _, row := range rows {
		a, err := row.toAssessment()
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, nil
}

func (r *assessmentRepo) Count(ctx context.Context) (int, error) {
	query, args := r.sql.Select(entsql.Count("*")).
		From(r.sql.Table(tableAssessments)).
		Query()
	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count assessments: %w", err)
	}
	return n, nil
}

func (r *assessmentRepo) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	query, args := r.sql.Select("id").
		From(r.sql.Table(tableAssessments)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).
		Query()
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return 0, fmt.Errorf("query assessments for prune: %w", err)
	}
	if len(ids) <= keep {
		return 0, nil
	}

	stale := make([]any, 0, len(ids)-keep)
	for _, id := range ids[keep:] {
		stale = append(stale, id)
	}
	query, args = r.sql.Delete(tableAssessments).
		Where(entsql.In("id", stale...)).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("prune assessments: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return len(stale), nil
	}
	return int(n), nil
}

func (row assessmentRow) toAssessment() (*Assessment, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("assessment id %q: %w", row.ID, err)
	}

	a := &Assessment{
		ID:         id,
		CreatedAt:  time.UnixMilli(row.CreatedAt).UTC(),
		Source:     row.Source,
		Classifier: row.Classifier,
		ModelMode:  row.ModelMode,
		RiskScore:  row.RiskScore,
		RiskTier:   evaluator.Tier(row.RiskTier),
	}
	if row.Label.Valid {
		l := int(row.Label.Int64)
		a.Label = &l
	}
	if row.Confidence.Valid {
		c := row.Confidence.Float64
		a.Confidence = &c
	}

	var v patient.Vector
	if err := json.Unmarshal([]byte(row.Vector), &v); err != nil {
		return nil, fmt.Errorf("assessment %s vector: %w", row.ID, err)
	}
	a.Vector = v
	if err := json.Unmarshal([]byte(row.Statuses), &a.Statuses); err != nil {
		return nil, fmt.Errorf("assessment %s statuses: %w", row.ID, err)
	}
	a.Advice = decodeAdvice(row.Advice)
	return a, nil
}

// decodeAdvice reads the narrative column. Rows written before advice was
// stored as JSON hold plain text, which becomes the summary.
func decodeAdvice(text string) *Advice {
	if text == "" {
		return nil
	}
	var adv Advice
	if strings.HasPrefix(text, "{") && json.Unmarshal([]byte(text), &adv) == nil {
		return &adv
	}
	return &Advice{Source: "legacy", Summary: text}
}
