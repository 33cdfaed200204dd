package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"netcanvas/internal/config"
	"netcanvas/internal/metrics"
	"netcanvas/internal/service"
)

// snapshotCLI runs snapshot commands through an offline editor session
type snapshotCLI struct {
	editor *service.Editor
}

func withEditor(ctx context.Context, cfg *config.Config, fn func(*snapshotCLI) error) error {
	reg := metrics.NewRegistry()

	store, err := openStore(ctx, cfg.Storage, reg)
	if err != nil {
		return err
	}
	defer closeQuietly("snapshot store", store)

	return fn(&snapshotCLI{
		editor: service.NewEditor(
			service.WithStore(store),
			service.WithMetrics(reg),
			service.WithLogger(slog.Default()),
			service.WithConfig(service.EditorConfig{
				MinDistance: cfg.Editor.MinDistance,
				Grid:        cfg.Editor.Grid,
			}),
		),
	})
}

func (s *snapshotCLI) list(ctx context.Context, w io.Writer) error {
	snaps, err := s.editor.ListSnapshots(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tNODES\tEDGES\tCREATED")
	for _, snap := range snaps {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n", snap.ID, snap.Name, snap.NodeCount, snap.EdgeCount, snap.SavedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return tw.Flush() //nolint:wrapcheck
}

func (s *snapshotCLI) export(ctx context.Context, id int64, format, output string, stdout io.Writer) error {
	w := stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer closeQuietly(output, f)
		w = f
	}

	if err := s.editor.ExportSnapshot(ctx, id, format, w); err != nil {
		return fmt.Errorf("exporting snapshot %d: %w", id, err)
	}
	if output != "" {
		slog.Info("Exported snapshot", "id", id, "format", format, "file", output)
	}
	return nil
}

func (s *snapshotCLI) importFile(ctx context.Context, path, name, format string) error {
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if _, err := loadDocument(s.editor, path, format); err != nil {
		return err
	}

	snap, err := s.editor.SaveSnapshot(ctx, name)
	if err != nil {
		return err
	}

	slog.Info("Imported snapshot", "id", snap.ID, "name", snap.Name, "nodes", len(snap.Nodes), "edges", len(snap.Edges))
	return nil
}

func (s *snapshotCLI) delete(ctx context.Context, id int64) error {
	if err := s.editor.DeleteSnapshot(ctx, id); err != nil {
		return err
	}
	slog.Info("Deleted snapshot", "id", id)
	return nil
}
