package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/abhisek/diacheck/internal/assessment"
	"github.com/abhisek/diacheck/internal/evaluator"
	"github.com/abhisek/diacheck/internal/patient"
	"github.com/abhisek/diacheck/internal/predictor"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status         string         `json:"status"`
	ModelAvailable bool           `json:"model_available"`
	ModelMode      predictor.Mode `json:"model_mode"`
	Classifier     string         `json:"classifier,omitempty"`
	ModelVersion   string         `json:"model_version,omitempty"`
}

type evaluateResponse struct {
	Statuses []evaluator.ParameterStatus `json:"statuses"`
	Risk     evaluator.Risk              `json:"risk"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: code, Message: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	p := s.svc.Predictor()
	resp := healthResponse{
		Status:         "ok",
		ModelAvailable: p.Available(),
		ModelMode:      p.Mode(),
		Classifier:     p.Kind(),
		ModelVersion:   p.Metadata().Version,
	}
	if !resp.ModelAvailable {
		resp.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	advice, err := boolParam(r, "advice")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}
	save, err := boolParam(r, "save")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}
	if save && !s.svc.CanSave() {
		writeError(w, http.StatusBadRequest, "history_disabled", "history store not configured")
		return
	}

	v, ok := s.decodeVector(w, r)
	if !ok {
		return
	}

	p := s.svc.Predictor()
	if !p.Available() {
		msg := predictor.ErrModelUnavailable.Error()
		if cause := p.Cause(); cause != nil {
			msg = fmt.Sprintf("%s: %v", msg, cause)
		}
		writeError(w, http.StatusServiceUnavailable, "model_unavailable", msg)
		return
	}

	rep, err := s.svc.Assess(r.Context(), v, assessment.Options{
		Advice: advice,
		Save:   save,
		Source: assessment.SourceHTTP,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("assessment failed")
		writeError(w, http.StatusInternalServerError, "internal", "assessment failed")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	v, ok := s.decodeVector(w, r)
	if !ok {
		return
	}
	statuses := evaluator.Evaluate(v)
	writeJSON(w, http.StatusOK, evaluateResponse{
		Statuses: statuses,
		Risk:     evaluator.RiskScore(statuses),
	})
}

// decodeVector reads a JSON object holding exactly the eight field keys.
// It writes the error response itself and reports whether decoding
// succeeded.
func (s *Server) decodeVector(w http.ResponseWriter, r *http.Request) (patient.Vector, bool) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	var raw map[string]*float64
	err := dec.Decode(&raw)
	if err == nil && raw == nil {
		err = errors.New("body must be a JSON object")
	}
	if err == nil {
		switch extra := dec.Decode(&struct{}{}); {
		case extra == nil:
			err = errors.New("unexpected data after the JSON object")
		case !errors.Is(extra, io.EOF):
			err = extra
		}
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", err.Error())
			return patient.Vector{}, false
		}
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return patient.Vector{}, false
	}

	v, err := vectorFromMap(raw)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_vector", err.Error())
		return patient.Vector{}, false
	}
	if err := v.CheckBounds(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "out_of_range", err.Error())
		return patient.Vector{}, false
	}
	return v, true
}

func vectorFromMap(raw map[string]*float64) (patient.Vector, error) {
	known := make(map[string]bool, patient.NumFields)
	values := make([]float64, 0, patient.NumFields)
	var missing, null []string
	for _, f := range patient.Fields() {
		known[string(f)] = true
		val, ok := raw[string(f)]
		switch {
		case !ok:
			missing = append(missing, string(f))
		case val == nil:
			null = append(null, string(f))
		default:
			values = append(values, *val)
		}
	}

	var unknown []string
	for k := range raw {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)

	var problems []string
	if len(missing) > 0 {
		problems = append(problems, "missing "+strings.Join(missing, ", "))
	}
	if len(null) > 0 {
		problems = append(problems, "null "+strings.Join(null, ", "))
	}
	if len(unknown) > 0 {
		problems = append(problems, "unknown "+strings.Join(unknown, ", "))
	}
	if len(problems) > 0 {
		return patient.Vector{}, fmt.Errorf("%w: %s", patient.ErrInvalidVector, strings.Join(problems, "; "))
	}
	return patient.FromSlice(values)
}

func boolParam(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %q is not a boolean", name, raw)
	}
	return b, nil
}
