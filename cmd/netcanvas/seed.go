package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"netcanvas/internal/service"
)

// formatFromPath guesses a codec format from the file extension
func formatFromPath(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}

// loadDocument replaces the canvas with the topology document at path
func loadDocument(editor *service.Editor, path, format string) (*service.LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer closeQuietly(path, f)

	if format == "" {
		format = formatFromPath(path)
	}

	result, err := editor.ImportSnapshot(f, format)
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", path, err)
	}
	for _, sk := range result.Report.Skipped {
		slog.Warn("Skipped invalid element", "file", path, "kind", sk.Kind, "id", sk.ID, "reason", sk.Reason)
	}
	return result, nil
}

// reloadSeed is the watcher callback; failures are logged and the canvas is left as is
func reloadSeed(editor *service.Editor) func(path string) {
	return func(path string) {
		result, err := loadDocument(editor, path, "")
		if err != nil {
			slog.Warn("Failed to reload seed file", "path", path, "err", err)
			return
		}
		slog.Info("Reloaded seed file", "path", path, "nodes", result.Report.NodesLoaded, "edges", result.Report.EdgesLoaded)
	}
}
