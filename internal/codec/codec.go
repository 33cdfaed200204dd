// Package codec converts topology snapshots to and from portable documents.
package codec

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"netcanvas/internal/domain"
)

var (
	// ErrUnsupportedFormat is returned for an unknown format name
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrMalformedDocument wraps decode failures of an imported document
	ErrMalformedDocument = errors.New("malformed document")
)

// Importer interface for importing snapshots from various formats
type Importer interface {
	Parse(r io.Reader) (*domain.Snapshot, error)
	Format() string
}

// Exporter interface for exporting snapshots to various formats
type Exporter interface {
	Export(snap *domain.Snapshot, w io.Writer) error
	Format() string
	ContentType() string
}

// ImporterFor returns the importer registered under format
func ImporterFor(format string) (Importer, error) {
	switch normalize(format) {
	case "json", "":
		return NewJSONCodec(), nil
	case "yaml":
		return NewYAMLCodec(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// ExporterFor returns the exporter registered under format
func ExporterFor(format string) (Exporter, error) {
	switch normalize(format) {
	case "json", "":
		return NewJSONCodec(), nil
	case "yaml":
		return NewYAMLCodec(), nil
	case "ansible-inventory":
		return NewAnsibleCodec(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// Formats lists the export format names
func Formats() []string {
	return []string{"json", "yaml", "ansible-inventory"}
}

func normalize(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	switch f {
	case "yml":
		return "yaml"
	case "ansible":
		return "ansible-inventory"
	}
	return f
}

// normalizeImported fills defaults on a decoded snapshot.
// The store assigns IDs, so any ID in the document is dropped.
func normalizeImported(snap *domain.Snapshot) *domain.Snapshot {
	snap.ID = 0
	if snap.Name == "" {
		snap.Name = "imported"
	}
	if snap.Nodes == nil {
		snap.Nodes = []domain.Node{}
	}
	if snap.Edges == nil {
		snap.Edges = []domain.Edge{}
	}
	return snap
}
