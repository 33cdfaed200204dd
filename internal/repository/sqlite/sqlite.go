package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"netcanvas/internal/domain"
	"netcanvas/internal/repository"
)

// Repository implements repository.SnapshotStore using SQLite
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

var _ repository.SnapshotStore = (*Repository)(nil)

// New opens (or creates) the database at dbPath and migrates the schema.
// ":memory:" opens a private in-memory database.
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if isMemory(dbPath) {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	repo := &Repository{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, "file::memory:")
}

func dsn(path string) string {
	if isMemory(path) {
		return "file::memory:?_pragma=busy_timeout(5000)"
	}
	return "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		saved_at TEXT NOT NULL,
		node_count INTEGER NOT NULL DEFAULT 0,
		edge_count INTEGER NOT NULL DEFAULT 0,
		payload BLOB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_name ON snapshots(name);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Save implements repository.SnapshotStore
func (r *Repository) Save(ctx context.Context, name string, nodes []domain.Node, edges []domain.Edge) (*domain.Snapshot, error) {
	snap := domain.NewSnapshot(name, nodes, edges)
	snap.SavedAt = r.now()

	data, err := repository.EncodePayload(snap.Nodes, snap.Edges)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO snapshots (name, saved_at, node_count, edge_count, payload)
		VALUES (?, ?, ?, ?, ?)
	`, snap.Name, formatTime(snap.SavedAt), len(snap.Nodes), len(snap.Edges), data)
	if err != nil {
		return nil, domain.NewStorageError("save snapshot", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, domain.NewStorageError("save snapshot", err)
	}
	snap.ID = id
	return snap, nil
}

// Replace implements repository.SnapshotStore
func (r *Repository) Replace(ctx context.Context, id int64, nodes []domain.Node, edges []domain.Edge) (*domain.Snapshot, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.NewStorageError("replace snapshot", err)
	}
	defer tx.Rollback()

	var name string
	err = tx.QueryRowContext(ctx, `SELECT name FROM snapshots WHERE id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.NotFound("replace snapshot", id)
	}
	if err != nil {
		return nil, domain.NewStorageError("replace snapshot", err)
	}

	snap := domain.NewSnapshot(name, nodes, edges)
	snap.ID = id
	snap.SavedAt = r.now()

	data, err := repository.EncodePayload(snap.Nodes, snap.Edges)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE snapshots SET saved_at = ?, node_count = ?, edge_count = ?, payload = ?
		WHERE id = ?
	`, formatTime(snap.SavedAt), len(snap.Nodes), len(snap.Edges), data, id)
	if err != nil {
		return nil, domain.NewStorageError("replace snapshot", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.NewStorageError("replace snapshot", err)
	}
	return snap, nil
}

// List implements repository.SnapshotStore
func (r *Repository) List(ctx context.Context) ([]domain.SnapshotSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, saved_at, node_count, edge_count
		FROM snapshots
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, domain.NewStorageError("list snapshots", err)
	}
	defer rows.Close()

	summaries := make([]domain.SnapshotSummary, 0)
	for rows.Next() {
		var (
			s       domain.SnapshotSummary
			savedAt string
		)
		if err := rows.Scan(&s.ID, &s.Name, &savedAt, &s.NodeCount, &s.EdgeCount); err != nil {
			return nil, domain.NewStorageError("list snapshots", err)
		}
		s.SavedAt = parseTime(savedAt)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("list snapshots", err)
	}
	return summaries, nil
}

// Load implements repository.SnapshotStore
func (r *Repository) Load(ctx context.Context, id int64) (*domain.Snapshot, error) {
	var (
		snap    = &domain.Snapshot{ID: id}
		savedAt string
		data    []byte
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT name, saved_at, payload FROM snapshots WHERE id = ?
	`, id).Scan(&snap.Name, &savedAt, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.NotFound("load snapshot", id)
	}
	if err != nil {
		return nil, domain.NewStorageError("load snapshot", err)
	}

	snap.SavedAt = parseTime(savedAt)
	if err := repository.DecodePayload(data, snap); err != nil {
		return nil, domain.NewStorageError("load snapshot", err)
	}
	return snap, nil
}

// Delete implements repository.SnapshotStore
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id); err != nil {
		return domain.NewStorageError("delete snapshot", err)
	}
	return nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
