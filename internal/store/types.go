package store

import (
	"time"

	"github.com/gescholt/globtim/internal/pipeline"
)

// RunRecord is the persisted form of one pipeline run: the configuration it
// ran with, the objective name, and the full result (terminal approximant,
// classified points, warnings, fit history). The per-degree trace streams
// separately to trace.jsonl and is not duplicated here.
type RunRecord struct {
	// RunID is the unique identifier for this run.
	RunID string `json:"runId"`

	// Objective is the registered objective name the run evaluated.
	Objective string `json:"objective"`

	// Config is the full core configuration, kept so stored runs are
	// reproducible.
	Config pipeline.Config `json:"config"`

	// Result is the run output. Nil for records of failed runs.
	Result *pipeline.Result `json:"result,omitempty"`

	// Timestamp records when this record was created.
	Timestamp time.Time `json:"timestamp"`
}

// RunInfo is record metadata for listings, without the coefficient and point
// payloads.
type RunInfo struct {
	RunID     string    `json:"runId"`
	Objective string    `json:"objective"`
	Basis     string    `json:"basis"`
	Dimension int       `json:"dimension"`
	Degree    int       `json:"degree"`
	Residual  float64   `json:"residual"`
	Points    int       `json:"points"`
	Warnings  int       `json:"warnings"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRunRecord packages a pipeline result for persistence.
func NewRunRecord(objective string, cfg pipeline.Config, result *pipeline.Result) *RunRecord {
	return &RunRecord{
		RunID:     result.RunID,
		Objective: objective,
		Config:    cfg,
		Result:    result,
		Timestamp: time.Now(),
	}
}

// ToInfo converts a full record to its listing metadata.
func (r *RunRecord) ToInfo() RunInfo {
	info := RunInfo{
		RunID:     r.RunID,
		Objective: r.Objective,
		Basis:     r.Config.Basis,
		Dimension: r.Config.Dimension,
		Timestamp: r.Timestamp,
	}
	if r.Result != nil {
		if r.Result.Approximant != nil {
			info.Degree = r.Result.Approximant.Degree
			info.Residual = r.Result.Approximant.Residual
		}
		info.Points = len(r.Result.Points)
		info.Warnings = len(r.Result.Warnings)
	}
	return info
}

// Validate checks that the record can be persisted and later reloaded.
func (r *RunRecord) Validate() error {
	if r.RunID == "" {
		return &ValidationError{Field: "RunID", Reason: "cannot be empty"}
	}
	if r.Objective == "" {
		return &ValidationError{Field: "Objective", Reason: "cannot be empty"}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if r.Result != nil && r.Result.RunID != r.RunID {
		return &ValidationError{Field: "Result.RunID", Reason: "does not match record RunID"}
	}
	return nil
}

// ValidationError represents a run-record validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
