package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netcanvas/internal/config"
	"netcanvas/internal/service"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestSnapshotCommands(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Storage.Path = filepath.Join(dir, "canvas.db")

	doc := filepath.Join(dir, "lab.json")
	require.NoError(t, os.WriteFile(doc, []byte(`{
  "name": "lab",
  "nodes": [
    {"id": "r1", "kind": "WanRouter", "label": "core", "position": {"x": 0, "y": 0}},
    {"id": "s1", "kind": "LanSwitch", "label": "tor", "position": {"x": 300, "y": 0}}
  ],
  "edges": [
    {"id": "e1", "sourceNodeId": "r1", "targetNodeId": "s1", "sourceHandle": "right", "targetHandle": "left", "connectionType": "ethernet"}
  ]
}`), 0o644))

	require.NoError(t, withEditor(ctx, cfg, func(s *snapshotCLI) error {
		return s.importFile(ctx, doc, "", "")
	}))

	var listing bytes.Buffer
	require.NoError(t, withEditor(ctx, cfg, func(s *snapshotCLI) error {
		return s.list(ctx, &listing)
	}))
	assert.Contains(t, listing.String(), "lab")
	assert.Contains(t, listing.String(), "NODES")

	out := filepath.Join(dir, "lab.yaml")
	require.NoError(t, withEditor(ctx, cfg, func(s *snapshotCLI) error {
		return s.export(ctx, 1, "yaml", out, nil)
	}))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "r1")

	require.NoError(t, withEditor(ctx, cfg, func(s *snapshotCLI) error {
		return s.delete(ctx, 1)
	}))

	listing.Reset()
	require.NoError(t, withEditor(ctx, cfg, func(s *snapshotCLI) error {
		return s.list(ctx, &listing)
	}))
	assert.NotContains(t, listing.String(), "lab")
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	_, err := openStore(context.Background(), config.StorageConfig{Driver: "mongo"}, nil)
	assert.Error(t, err)
}

func TestNewSyncerDisabled(t *testing.T) {
	assert.Nil(t, newSyncer(config.InventoryConfig{}, nil))
	assert.NotNil(t, newSyncer(config.InventoryConfig{URL: "http://inventory.local/devices"}, nil))
}

func TestLoadDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yml")
	require.NoError(t, os.WriteFile(path, []byte(`name: seed
nodes:
  - id: fw
    kind: Firewall
    label: edge
    position: {x: 0, y: 0}
  - id: bad
    kind: Toaster
    position: {x: 10, y: 10}
edges: []
`), 0o644))

	editor := service.NewEditor()
	result, err := loadDocument(editor, path, "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Report.NodesLoaded)
	assert.Len(t, result.Report.Skipped, 1)
	assert.Len(t, editor.View().Nodes, 1)

	// a broken reload keeps the current canvas
	require.NoError(t, os.WriteFile(path, []byte("nodes: [\n"), 0o644))
	reloadSeed(editor)(path)
	assert.Len(t, editor.View().Nodes, 1)

	_, err = loadDocument(editor, filepath.Join(dir, "missing.json"), "")
	assert.Error(t, err)
}
