package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netcanvas/internal/domain"
)

// newTestStore connects to the database named by NETCANVAS_TEST_POSTGRES_DSN
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("NETCANVAS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("NETCANVAS_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	store, err := New(ctx, dsn)
	require.NoError(t, err)

	_, err = store.pool.Exec(ctx, `TRUNCATE snapshots RESTART IDENTITY`)
	require.NoError(t, err)

	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreContract(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	nodes := []domain.Node{
		domain.NewNode("a", domain.NodeKindLanSwitch, "core", domain.NewPosition(0, 0)),
		domain.NewNode("b", domain.NodeKindPrinter, "printer", domain.NewPosition(250, 0)),
	}
	edges := []domain.Edge{{
		ID: "e1", SourceNodeID: "a", TargetNodeID: "b",
		SourceHandle: domain.HandleRight, TargetHandle: domain.HandleLeft,
		ConnectionType: domain.ConnTypeEthernet,
	}}

	first, err := store.Save(ctx, "HQ Layout", nodes, edges)
	require.NoError(t, err)
	second, err := store.Save(ctx, "HQ Layout", nodes[:1], nil)
	require.NoError(t, err)
	assert.Less(t, first.ID, second.ID)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, 1, list[0].EdgeCount)

	loaded, err := store.Load(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, nodes, loaded.Nodes)
	assert.Equal(t, edges, loaded.Edges)

	replaced, err := store.Replace(ctx, second.ID, nodes, edges)
	require.NoError(t, err)
	assert.Equal(t, "HQ Layout", replaced.Name)

	require.NoError(t, store.Delete(ctx, first.ID))
	require.NoError(t, store.Delete(ctx, first.ID))

	_, err = store.Load(ctx, first.ID)
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)

	_, err = store.Replace(ctx, first.ID, nodes, edges)
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New(context.Background(), "::not a url::")
	assert.Error(t, err)
}
