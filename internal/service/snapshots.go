package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"netcanvas/internal/codec"
	"netcanvas/internal/domain"
	"netcanvas/internal/graph"
)

// errNoStore is returned by snapshot operations when the editor has no store
var errNoStore = fmt.Errorf("%w: no snapshot store configured", domain.ErrStorageIO)

// LoadResult reports a snapshot load
type LoadResult struct {
	Snapshot domain.SnapshotSummary `json:"snapshot"`
	Report   graph.RestoreReport    `json:"report"`
}

// copyGraph takes a consistent copy of the canvas for persistence.
// The caller must hold e.mu.
func (e *Editor) copyGraph(op string) ([]domain.Node, []domain.Edge, error) {
	if !e.canCommand() {
		return nil, nil, e.invalidState(op)
	}
	return e.model.Nodes(), e.model.Edges(), nil
}

// SaveSnapshot persists the current canvas under name as a new entry
func (e *Editor) SaveSnapshot(ctx context.Context, name string) (*domain.Snapshot, error) {
	if e.store == nil {
		return nil, errNoStore
	}

	e.mu.Lock()
	nodes, edges, err := e.copyGraph("save snapshot")
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	snap, err := e.store.Save(ctx, name, nodes, edges)
	e.metrics.RecordGesture("save_snapshot", err)
	if err != nil {
		return nil, fmt.Errorf("failed to save snapshot %q: %w", name, err)
	}

	e.logger.Info("snapshot saved", "id", snap.ID, "name", snap.Name, "nodes", len(nodes), "edges", len(edges))
	e.publish(EventSnapshotSaved, snap.Summary())
	return snap, nil
}

// ReplaceSnapshot overwrites an existing snapshot with the current canvas
func (e *Editor) ReplaceSnapshot(ctx context.Context, id int64) (*domain.Snapshot, error) {
	if e.store == nil {
		return nil, errNoStore
	}

	e.mu.Lock()
	nodes, edges, err := e.copyGraph("replace snapshot")
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	snap, err := e.store.Replace(ctx, id, nodes, edges)
	e.metrics.RecordGesture("replace_snapshot", err)
	if err != nil {
		return nil, fmt.Errorf("failed to replace snapshot %d: %w", id, err)
	}

	e.logger.Info("snapshot replaced", "id", snap.ID, "name", snap.Name)
	e.publish(EventSnapshotSaved, snap.Summary())
	return snap, nil
}

// ListSnapshots returns stored snapshots in the order they were saved
func (e *Editor) ListSnapshots(ctx context.Context) ([]domain.SnapshotSummary, error) {
	if e.store == nil {
		return nil, errNoStore
	}
	list, err := e.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return list, nil
}

// GetSnapshot fetches a stored snapshot without touching the canvas
func (e *Editor) GetSnapshot(ctx context.Context, id int64) (*domain.Snapshot, error) {
	if e.store == nil {
		return nil, errNoStore
	}
	return e.store.Load(ctx, id)
}

// LoadSnapshot replaces the canvas with a stored snapshot.
// On a missing snapshot or storage failure the canvas is left untouched.
// Invalid items inside the snapshot are skipped and listed in the report.
func (e *Editor) LoadSnapshot(ctx context.Context, id int64) (*LoadResult, error) {
	if e.store == nil {
		return nil, errNoStore
	}

	e.mu.Lock()
	ok := e.canCommand()
	e.mu.Unlock()
	if !ok {
		return nil, &domain.OpError{Op: "load snapshot", Err: domain.ErrInvalidState}
	}

	snap, err := e.store.Load(ctx, id)
	if err != nil {
		e.metrics.RecordGesture("load_snapshot", err)
		return nil, fmt.Errorf("failed to load snapshot %d: %w", id, err)
	}

	return e.restore(snap, "load snapshot")
}

// ImportSnapshot parses a document and loads it onto the canvas.
// The imported snapshot is not persisted.
func (e *Editor) ImportSnapshot(r io.Reader, format string) (*LoadResult, error) {
	imp, err := codec.ImporterFor(format)
	if err != nil {
		return nil, err
	}
	snap, err := imp.Parse(r)
	if err != nil {
		return nil, err
	}
	return e.restore(snap, "import snapshot")
}

func (e *Editor) restore(snap *domain.Snapshot, op string) (result *LoadResult, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() { e.record("load_snapshot", err) }()

	// a gesture may have started while the store was being read
	if !e.canCommand() {
		return nil, e.invalidState(op)
	}

	report := e.model.Restore(snap.Nodes, snap.Edges)
	report.SkipMalformed(snap.Malformed)
	e.setState(StateIdle)

	skipped := map[string]int{}
	for _, s := range report.Skipped {
		skipped[s.Kind]++
	}
	for kind, n := range skipped {
		e.metrics.RecordRestoreSkipped(kind, n)
	}
	if !report.Complete() {
		e.logger.Warn("snapshot restored partially", "name", snap.Name, "skipped", len(report.Skipped))
	}

	result = &LoadResult{Snapshot: snap.Summary(), Report: report}
	result.Snapshot.NodeCount = report.NodesLoaded
	result.Snapshot.EdgeCount = report.EdgesLoaded

	e.publish(EventSnapshotLoaded, result)
	return result, nil
}

// ExportSnapshot writes a stored snapshot in the given format.
// An id of zero exports the live canvas instead.
func (e *Editor) ExportSnapshot(ctx context.Context, id int64, format string, w io.Writer) error {
	exp, err := codec.ExporterFor(format)
	if err != nil {
		return err
	}

	var snap *domain.Snapshot
	if id == 0 {
		e.mu.Lock()
		snap = domain.NewSnapshot("canvas", e.model.Nodes(), e.model.Edges())
		e.mu.Unlock()
	} else {
		if snap, err = e.GetSnapshot(ctx, id); err != nil {
			return err
		}
	}

	return exp.Export(snap, w)
}

// DeleteSnapshot removes a stored snapshot; a missing id is not an error
func (e *Editor) DeleteSnapshot(ctx context.Context, id int64) error {
	if e.store == nil {
		return errNoStore
	}
	err := e.store.Delete(ctx, id)
	e.metrics.RecordGesture("delete_snapshot", err)
	if err != nil && !errors.Is(err, domain.ErrSnapshotNotFound) {
		return fmt.Errorf("failed to delete snapshot %d: %w", id, err)
	}

	e.publish(EventSnapshotDeleted, map[string]int64{"id": id})
	return nil
}
