package classifier

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/abhisek/diacheck/internal/patient"
)

// Metadata describes a persisted model.
type Metadata struct {
	// Version is an optional semantic version ("v1.2.0") for published models.
	Version   string    `json:"version,omitempty"`
	TrainedAt time.Time `json:"trained_at"`
	Samples   int       `json:"samples"`
}

// envelope is the on-disk JSON format of a persisted model.
type envelope struct {
	Kind     string          `json:"kind"`
	Features []string        `json:"features"`
	Model    json.RawMessage `json:"model"`
	Metadata
}

// validator is implemented by every persistable classifier.
type validator interface {
	validate(dim int) error
}

func featureNames() []string {
	fields := patient.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return names
}

// Save writes c as an indented JSON model file.
func Save(w io.Writer, c Classifier, meta Metadata) error {
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", c.Kind(), err)
	}
	env := envelope{
		Kind:     c.Kind(),
		Features: featureNames(),
		Model:    body,
		Metadata: meta,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	return nil
}

// Load reads a model file written by Save. It rejects unknown kinds,
// feature lists that differ from the patient vector layout, and payloads
// whose parameters would make prediction fail.
func Load(r io.Reader) (Classifier, Metadata, error) {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, Metadata{}, fmt.Errorf("decode model file: %w", err)
	}
	if !slices.Equal(env.Features, featureNames()) {
		return nil, Metadata{}, fmt.Errorf("model features %v do not match %v", env.Features, featureNames())
	}

	var c Classifier
	switch env.Kind {
	case KindRandomForest:
		c = &RandomForest{}
	case KindLinearSVM:
		c = &LinearSVM{}
	case KindNearestNeighbors:
		c = &NearestNeighbors{}
	default:
		return nil, Metadata{}, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}

	if len(env.Model) == 0 {
		return nil, Metadata{}, fmt.Errorf("model file has no %s payload", env.Kind)
	}
	if err := json.Unmarshal(env.Model, c); err != nil {
		return nil, Metadata{}, fmt.Errorf("decode %s payload: %w", env.Kind, err)
	}
	if err := c.(validator).validate(patient.NumFields); err != nil {
		return nil, Metadata{}, fmt.Errorf("invalid %s model: %w", env.Kind, err)
	}
	return c, env.Metadata, nil
}
