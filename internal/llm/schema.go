package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is the JSON Schema a response must satisfy. Declare schemas as
// package-level pointers; the compiled form is built on first use.
type Schema struct {
	// Name is sent as the tool or schema name, e.g. "risk-narrative".
	Name        string
	Description string
	Definition  map[string]any

	once     sync.Once
	compiled *jsonschema.Schema
	err      error
}

// Validate checks raw against the schema. Failures are KindInvalid.
func (s *Schema) Validate(raw json.RawMessage) error {
	compiled, err := s.compile()
	if err != nil {
		return &Error{Kind: KindInvalid, Content: raw, Err: err}
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &Error{Kind: KindInvalid, Content: raw, Err: fmt.Errorf("not JSON: %w", err)}
	}
	if err := compiled.Validate(doc); err != nil {
		return &Error{Kind: KindInvalid, Content: raw, Err: err}
	}
	return nil
}

// Decode validates raw and unmarshals it into v.
func (s *Schema) Decode(raw json.RawMessage, v any) error {
	if err := s.Validate(raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &Error{Kind: KindInvalid, Content: raw, Err: err}
	}
	return nil
}

func (s *Schema) compile() (*jsonschema.Schema, error) {
	s.once.Do(func() {
		def, err := json.Marshal(s.Definition)
		if err != nil {
			s.err = fmt.Errorf("schema %s: %w", s.Name, err)
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(def))
		if err != nil {
			s.err = fmt.Errorf("schema %s: %w", s.Name, err)
			return
		}
		url := "schema://" + s.Name + ".json"
		c := jsonschema.NewCompiler()
		if err := c.AddResource(url, doc); err != nil {
			s.err = fmt.Errorf("schema %s: %w", s.Name, err)
			return
		}
		if s.compiled, err = c.Compile(url); err != nil {
			s.err = fmt.Errorf("schema %s: %w", s.Name, err)
		}
	})
	return s.compiled, s.err
}
