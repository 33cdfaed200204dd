package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"netcanvas/internal/domain"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestRepo creates an in-memory SQLite repository for testing
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

// assertNoError fails the test if err is not nil
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// assertEqual fails the test if expected != actual
func assertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}

// sampleGraph returns two nodes joined by one labelled edge
func sampleGraph() ([]domain.Node, []domain.Edge) {
	router := domain.NewNode("node-1", domain.NodeKindWanRouter, "Edge Router", domain.NewPosition(100, 100))
	device := domain.NewNode("device-abc", domain.NodeKindMonitoredDevice, "ws-01", domain.NewPosition(350.5, -20.25))
	device.Status = domain.NodeStatusIdle
	device.DeviceInfo = &domain.DeviceInfo{OS: "Windows 11", AlertCount: 2, AppCount: 40}

	edge := domain.Edge{
		ID:             "edge-node-1-device-abc-1767225600000000000",
		SourceNodeID:   router.ID,
		TargetNodeID:   device.ID,
		SourceHandle:   domain.HandleRight,
		TargetHandle:   domain.HandleLeft,
		ConnectionType: domain.ConnTypeWifi,
		Label:          "office AP",
	}
	return []domain.Node{router, device}, []domain.Edge{edge}
}

// ============================================================================
// Snapshot Tests
// ============================================================================

func TestSaveLoadRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	nodes, edges := sampleGraph()

	saved, err := repo.Save(ctx, "HQ Layout", nodes, edges)
	assertNoError(t, err)
	if saved.ID == 0 {
		t.Fatal("expected store-assigned id")
	}

	loaded, err := repo.Load(ctx, saved.ID)
	assertNoError(t, err)

	assertEqual(t, "HQ Layout", loaded.Name)
	assertEqual(t, nodes, loaded.Nodes)
	assertEqual(t, edges, loaded.Edges)
	if !loaded.SavedAt.Equal(saved.SavedAt) {
		t.Errorf("savedAt = %v, want %v", loaded.SavedAt, saved.SavedAt)
	}
}

func TestSaveEmptyGraph(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, "blank", nil, nil)
	assertNoError(t, err)

	loaded, err := repo.Load(ctx, saved.ID)
	assertNoError(t, err)
	assertEqual(t, []domain.Node{}, loaded.Nodes)
	assertEqual(t, []domain.Edge{}, loaded.Edges)
}

func TestSaveDoesNotDeduplicateNames(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	nodes, edges := sampleGraph()

	first, err := repo.Save(ctx, "HQ Layout", nodes, edges)
	assertNoError(t, err)
	second, err := repo.Save(ctx, "HQ Layout", nodes[:1], nil)
	assertNoError(t, err)

	if first.ID == second.ID {
		t.Fatal("expected two distinct snapshots")
	}

	list, err := repo.List(ctx)
	assertNoError(t, err)
	assertEqual(t, 2, len(list))
}

func TestListInsertionOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	nodes, edges := sampleGraph()

	names := []string{"zulu", "alpha", "mike"}
	for _, name := range names {
		_, err := repo.Save(ctx, name, nodes, edges)
		assertNoError(t, err)
	}

	list, err := repo.List(ctx)
	assertNoError(t, err)
	assertEqual(t, len(names), len(list))
	for i, s := range list {
		assertEqual(t, names[i], s.Name)
		assertEqual(t, 2, s.NodeCount)
		assertEqual(t, 1, s.EdgeCount)
	}
}

func TestListEmpty(t *testing.T) {
	repo := newTestRepo(t)

	list, err := repo.List(context.Background())
	assertNoError(t, err)
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", list)
	}
}

func TestLoadNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Load(context.Background(), 999)
	if !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	nodes, edges := sampleGraph()

	saved, err := repo.Save(ctx, "temp", nodes, edges)
	assertNoError(t, err)

	assertNoError(t, repo.Delete(ctx, saved.ID))
	assertNoError(t, repo.Delete(ctx, saved.ID))

	_, err = repo.Load(ctx, saved.ID)
	if !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound after delete, got %v", err)
	}
}

func TestReplace(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	nodes, edges := sampleGraph()

	saved, err := repo.Save(ctx, "HQ Layout", nodes, edges)
	assertNoError(t, err)

	later := saved.SavedAt.Add(time.Hour)
	repo.now = func() time.Time { return later }

	moved := append([]domain.Node{}, nodes...)
	moved[0].Position = domain.NewPosition(1, 2)

	replaced, err := repo.Replace(ctx, saved.ID, moved, nil)
	assertNoError(t, err)
	assertEqual(t, saved.ID, replaced.ID)
	assertEqual(t, "HQ Layout", replaced.Name)

	loaded, err := repo.Load(ctx, saved.ID)
	assertNoError(t, err)
	assertEqual(t, moved, loaded.Nodes)
	assertEqual(t, []domain.Edge{}, loaded.Edges)
	if !loaded.SavedAt.Equal(later) {
		t.Errorf("savedAt = %v, want %v", loaded.SavedAt, later)
	}

	list, err := repo.List(ctx)
	assertNoError(t, err)
	assertEqual(t, 1, len(list))

	t.Run("missing id", func(t *testing.T) {
		_, err := repo.Replace(ctx, 12345, nodes, edges)
		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
		}
	})
}

func TestSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netcanvas.db")
	ctx := context.Background()
	nodes, edges := sampleGraph()

	repo, err := New(path)
	assertNoError(t, err)
	saved, err := repo.Save(ctx, "persisted", nodes, edges)
	assertNoError(t, err)
	assertNoError(t, repo.Close())

	reopened, err := New(path)
	assertNoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(ctx, saved.ID)
	assertNoError(t, err)
	assertEqual(t, edges, loaded.Edges)
}

func TestClosedDatabaseIsStorageError(t *testing.T) {
	repo, err := New(":memory:")
	assertNoError(t, err)
	repo.Close()

	_, err = repo.Save(context.Background(), "x", nil, nil)
	if !errors.Is(err, domain.ErrStorageIO) {
		t.Fatalf("expected ErrStorageIO, got %v", err)
	}
	var storageErr *domain.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected *domain.StorageError, got %T", err)
	}
}

// ============================================================================
// Helper Function Tests
// ============================================================================

func TestTimeHelpers(t *testing.T) {
	ts := time.Date(2026, 4, 5, 6, 7, 8, 123456789, time.UTC)
	if got := parseTime(formatTime(ts)); !got.Equal(ts) {
		t.Errorf("parseTime(formatTime()) = %v, want %v", got, ts)
	}
	if got := parseTime("not a time"); !got.IsZero() {
		t.Errorf("expected zero time, got %v", got)
	}
}
