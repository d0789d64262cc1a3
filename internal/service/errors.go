package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrEmbeddingTimeout is returned when a synchronous embedding request
	// exceeds its bounded wait. The late result, if any, is discarded.
	ErrEmbeddingTimeout = errors.New("embedding timed out")
	// ErrDimensionMismatch is returned when vectors of inconsistent length
	// reach the combiner or the vector store.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrUnsupportedModality is returned when a file extension maps to no
	// known modality. Rejected before any job is enqueued.
	ErrUnsupportedModality = errors.New("unsupported modality")
	// ErrJobSystemUnavailable is returned when the job queue cannot accept
	// an ingestion job. Status reads never return it; they degrade to the
	// last persisted status instead.
	ErrJobSystemUnavailable = errors.New("job system unavailable")
	// ErrSearchPersistence is returned when the search record batch insert
	// fails. The batch is rolled back as a whole; the query row survives.
	ErrSearchPersistence = errors.New("search persistence failed")
	// ErrStorageIO is returned when a stored file is missing or unreadable.
	ErrStorageIO = errors.New("storage I/O failure")
)

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
