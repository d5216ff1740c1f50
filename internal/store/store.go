package store

// Store defines run-record persistence. Implementations must be safe for
// concurrent use.
//
// Error handling conventions:
//   - Return nil error on success
//   - Return ErrNotFound if a run doesn't exist (for Load/Delete)
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// SaveRun atomically persists a run record. An existing record for the
	// same run ID is overwritten. Implementations should write via a temp
	// file + rename so a crash cannot leave a torn record.
	SaveRun(runID string, record *RunRecord) error

	// LoadRun retrieves the record for the given run.
	// Returns ErrNotFound if no record exists.
	LoadRun(runID string) (*RunRecord, error)

	// ListRuns returns metadata for all stored runs; empty if none exist.
	ListRuns() ([]RunInfo, error)

	// DeleteRun removes the record and all associated artifacts
	// (result.json, trace.jsonl) for the given run.
	// Returns ErrNotFound if no record exists.
	DeleteRun(runID string) error
}

// ErrNotFound is returned when a requested run does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing run record.
type NotFoundError struct {
	RunID string
}

func (e *NotFoundError) Error() string {
	if e.RunID != "" {
		return "run not found: " + e.RunID
	}
	return "run not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
