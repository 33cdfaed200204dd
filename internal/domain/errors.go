package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for editor operations
var (
	ErrUnknownNode           = errors.New("unknown node")
	ErrUnknownEdge           = errors.New("unknown edge")
	ErrUnknownConnectionType = errors.New("unknown connection type")
	ErrInvalidHandle         = errors.New("invalid handle")
	ErrInvalidKind           = errors.New("invalid node kind")
	ErrInvalidPosition       = errors.New("position must be finite")
	ErrInvalidState          = errors.New("gesture not allowed in current state")
	ErrSyncFailure           = errors.New("device sync failed")
	ErrSnapshotNotFound      = errors.New("snapshot not found")
	ErrStorageIO             = errors.New("storage unavailable")
	ErrMalformedElement      = errors.New("malformed element")
)

// OpError records the operation and entity a sentinel error applies to
type OpError struct {
	Op  string
	ID  string
	Err error
}

// Error implements the error interface
func (e *OpError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %q: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying sentinel
func (e *OpError) Unwrap() error {
	return e.Err
}

// StorageError wraps a failure of the snapshot storage medium.
// It always matches ErrStorageIO and also exposes the driver error.
type StorageError struct {
	Op    string
	Cause error
}

// Error implements the error interface
func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrStorageIO, e.Cause)
}

// Unwrap returns the driver error
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// Is reports ErrStorageIO as a match
func (e *StorageError) Is(target error) bool {
	return target == ErrStorageIO
}

// NewStorageError wraps cause for operation op, or returns nil for a nil cause
func NewStorageError(op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &StorageError{Op: op, Cause: cause}
}
