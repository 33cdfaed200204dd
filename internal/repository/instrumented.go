package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"netcanvas/internal/domain"
	"netcanvas/internal/metrics"
)

// Instrumented wraps a SnapshotStore with metrics and logging
type Instrumented struct {
	store   SnapshotStore
	metrics *metrics.Registry
	logger  *slog.Logger
}

// NewInstrumented wraps store. A nil registry disables metrics.
func NewInstrumented(store SnapshotStore, m *metrics.Registry, logger *slog.Logger) *Instrumented {
	if logger == nil {
		logger = slog.Default()
	}
	return &Instrumented{store: store, metrics: m, logger: logger}
}

func (s *Instrumented) observe(op string, start time.Time, err error) {
	s.metrics.RecordStorageOperation(op, err, time.Since(start))
	if errors.Is(err, domain.ErrStorageIO) {
		s.logger.Warn("snapshot store operation failed", "op", op, "error", err)
	}
}

// Save implements SnapshotStore
func (s *Instrumented) Save(ctx context.Context, name string, nodes []domain.Node, edges []domain.Edge) (*domain.Snapshot, error) {
	start := time.Now()
	snap, err := s.store.Save(ctx, name, nodes, edges)
	s.observe("save", start, err)
	return snap, err
}

// Replace implements SnapshotStore
func (s *Instrumented) Replace(ctx context.Context, id int64, nodes []domain.Node, edges []domain.Edge) (*domain.Snapshot, error) {
	start := time.Now()
	snap, err := s.store.Replace(ctx, id, nodes, edges)
	s.observe("replace", start, err)
	return snap, err
}

// List implements SnapshotStore
func (s *Instrumented) List(ctx context.Context) ([]domain.SnapshotSummary, error) {
	start := time.Now()
	list, err := s.store.List(ctx)
	s.observe("list", start, err)
	return list, err
}

// Load implements SnapshotStore
func (s *Instrumented) Load(ctx context.Context, id int64) (*domain.Snapshot, error) {
	start := time.Now()
	snap, err := s.store.Load(ctx, id)
	s.observe("load", start, err)
	return snap, err
}

// Delete implements SnapshotStore
func (s *Instrumented) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	err := s.store.Delete(ctx, id)
	s.observe("delete", start, err)
	return err
}

// Close implements SnapshotStore
func (s *Instrumented) Close() error {
	return s.store.Close()
}
