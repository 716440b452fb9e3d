package offload

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no resource exists for a handle.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidHandle is returned when a handle cannot be parsed.
	ErrInvalidHandle = errors.New("invalid resource handle")

	// ErrClosed is returned by a store that has been closed.
	ErrClosed = errors.New("store closed")

	// ErrNotJSON is returned by Query when the payload is not valid JSON.
	ErrNotJSON = errors.New("resource payload is not JSON")

	// ErrPathNotFound is returned by Query when the path matches nothing.
	ErrPathNotFound = errors.New("path not found in resource")
)

// StorageError represents an error from a storage backend.
type StorageError struct {
	Backend   string // Storage backend type ("sqlite", "memory")
	Operation string // Operation that failed ("persist", "retrieve", "prune", etc.)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}
