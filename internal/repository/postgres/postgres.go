// Package postgres implements the snapshot store on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"netcanvas/internal/domain"
	"netcanvas/internal/repository"
)

// Store implements repository.SnapshotStore using a pgx connection pool
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ repository.SnapshotStore = (*Store)(nil)

// New connects to databaseURL and creates the schema if needed
func New(ctx context.Context, databaseURL string) (*Store, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	s := &Store{pool: pool, now: func() time.Time { return time.Now().UTC() }}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS snapshots (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			saved_at TIMESTAMPTZ NOT NULL,
			node_count INTEGER NOT NULL DEFAULT 0,
			edge_count INTEGER NOT NULL DEFAULT 0,
			payload BYTEA NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_snapshots_name ON snapshots(name);
	`)
	return err
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Save implements repository.SnapshotStore
func (s *Store) Save(ctx context.Context, name string, nodes []domain.Node, edges []domain.Edge) (*domain.Snapshot, error) {
	snap := domain.NewSnapshot(name, nodes, edges)
	snap.SavedAt = s.now()

	data, err := repository.EncodePayload(snap.Nodes, snap.Edges)
	if err != nil {
		return nil, err
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO snapshots (name, saved_at, node_count, edge_count, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, snap.Name, snap.SavedAt, len(snap.Nodes), len(snap.Edges), data).Scan(&snap.ID)
	if err != nil {
		return nil, domain.NewStorageError("save snapshot", err)
	}
	return snap, nil
}

// Replace implements repository.SnapshotStore
func (s *Store) Replace(ctx context.Context, id int64, nodes []domain.Node, edges []domain.Edge) (*domain.Snapshot, error) {
	snap := domain.NewSnapshot("", nodes, edges)
	snap.ID = id
	snap.SavedAt = s.now()

	data, err := repository.EncodePayload(snap.Nodes, snap.Edges)
	if err != nil {
		return nil, err
	}

	err = s.pool.QueryRow(ctx, `
		UPDATE snapshots SET saved_at = $2, node_count = $3, edge_count = $4, payload = $5
		WHERE id = $1
		RETURNING name
	`, id, snap.SavedAt, len(snap.Nodes), len(snap.Edges), data).Scan(&snap.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.NotFound("replace snapshot", id)
	}
	if err != nil {
		return nil, domain.NewStorageError("replace snapshot", err)
	}
	return snap, nil
}

// List implements repository.SnapshotStore
func (s *Store) List(ctx context.Context) ([]domain.SnapshotSummary, error) {
	rows, err := s.pool.Query(ctx, `
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
		var sum domain.SnapshotSummary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.SavedAt, &sum.NodeCount, &sum.EdgeCount); err != nil {
			return nil, domain.NewStorageError("list snapshots", err)
		}
		sum.SavedAt = sum.SavedAt.UTC()
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("list snapshots", err)
	}
	return summaries, nil
}

// Load implements repository.SnapshotStore
func (s *Store) Load(ctx context.Context, id int64) (*domain.Snapshot, error) {
	snap := &domain.Snapshot{ID: id}
	var data []byte

	err := s.pool.QueryRow(ctx, `
		SELECT name, saved_at, payload FROM snapshots WHERE id = $1
	`, id).Scan(&snap.Name, &snap.SavedAt, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.NotFound("load snapshot", id)
	}
	if err != nil {
		return nil, domain.NewStorageError("load snapshot", err)
	}

	snap.SavedAt = snap.SavedAt.UTC()
	if err := repository.DecodePayload(data, snap); err != nil {
		return nil, domain.NewStorageError("load snapshot", err)
	}
	return snap, nil
}

// Delete implements repository.SnapshotStore
func (s *Store) Delete(ctx context.Context, id int64) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM snapshots WHERE id = $1`, id); err != nil {
		return domain.NewStorageError("delete snapshot", err)
	}
	return nil
}

// Close closes the connection pool
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
