package repository

import (
	"context"
	"strconv"

	"netcanvas/internal/domain"
)

// SnapshotStore persists named topology snapshots
type SnapshotStore interface {
	// Save appends a new snapshot
	Save(ctx context.Context, name string, nodes []domain.Node, edges []domain.Edge) (*domain.Snapshot, error)

	// Replace overwrites the graph of an existing snapshot, keeping its name
	Replace(ctx context.Context, id int64, nodes []domain.Node, edges []domain.Edge) (*domain.Snapshot, error)

	// List returns every snapshot summary in insertion order
	List(ctx context.Context) ([]domain.SnapshotSummary, error)

	// Load returns a full snapshot
	Load(ctx context.Context, id int64) (*domain.Snapshot, error)

	// Delete removes a snapshot; deleting a missing ID is not an error
	Delete(ctx context.Context, id int64) error

	// Close releases resources
	Close() error
}

// NotFound builds the error returned for a missing snapshot
func NotFound(op string, id int64) error {
	return &domain.OpError{Op: op, ID: strconv.FormatInt(id, 10), Err: domain.ErrSnapshotNotFound}
}
