package services

import (
	"errors"
	"fmt"
)

// ErrMissingCredential means no grading-service key was supplied. It is the
// only failure that stops a batch before it starts.
var ErrMissingCredential = errors.New("grading service credential is missing")

// ArchiveError means an archive could not be opened; its documents are left
// out of the batch.
type ArchiveError struct {
	Archive string
	Err     error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive %s: %v", e.Archive, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// ExtractionError means a document's text could not be read.
type ExtractionError struct {
	File string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.File, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// GradingServiceError wraps a failed or unparseable scoring call.
type GradingServiceError struct {
	Err error
}

func (e *GradingServiceError) Error() string {
	return e.Err.Error()
}

func (e *GradingServiceError) Unwrap() error { return e.Err }

// ValidationError reports a batch that exceeded the size cap. It is resolved by
// truncation, never returned from a run.
type ValidationError struct {
	Found   int
	Limit   int
	Dropped int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("found %d documents, processing the first %d (%d dropped)", e.Found, e.Limit, e.Dropped)
}

type PreconditionError struct {
	Err error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition failed: %v", e.Err)
}

func (e *PreconditionError) Unwrap() error { return e.Err }
