package store

// Store persists solve results.
// Implementations must be safe for concurrent use.
//
// Error handling conventions:
//   - Return ErrNotFound if the result doesn't exist (for Load/Delete)
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// SaveResult atomically writes a result, replacing any earlier result with
	// the same ID.
	SaveResult(result *Result) error

	// LoadResult returns ErrNotFound if no result exists for id.
	LoadResult(id string) (*Result, error)

	// ListResults returns metadata for every stored result, newest first.
	ListResults() ([]ResultInfo, error)

	// DeleteResult removes the result and its artifacts:
	//   - result.json
	//   - trace.jsonl
	//   - samples.jsonl
	DeleteResult(id string) error
}

// ErrNotFound is returned when a requested result does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing result.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return "result not found: " + e.ID
	}
	return "result not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
