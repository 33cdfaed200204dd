package domain

import (
	"errors"
	"io"
	"testing"
)

func TestOpError(t *testing.T) {
	err := &OpError{Op: "add edge", ID: "n1", Err: ErrUnknownNode}

	if !errors.Is(err, ErrUnknownNode) {
		t.Error("expected OpError to match its sentinel")
	}
	if err.Error() != `add edge "n1": unknown node` {
		t.Errorf("unexpected message: %s", err.Error())
	}

	noID := &OpError{Op: "restore", Err: ErrInvalidPosition}
	if noID.Error() != "restore: position must be finite" {
		t.Errorf("unexpected message: %s", noID.Error())
	}
}

func TestStorageError(t *testing.T) {
	err := NewStorageError("save snapshot", io.ErrUnexpectedEOF)

	if !errors.Is(err, ErrStorageIO) {
		t.Error("expected StorageError to match ErrStorageIO")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("expected StorageError to unwrap to its cause")
	}

	var se *StorageError
	if !errors.As(err, &se) || se.Op != "save snapshot" {
		t.Error("expected errors.As to recover the StorageError")
	}

	if NewStorageError("noop", nil) != nil {
		t.Error("expected nil cause to produce nil error")
	}
}
