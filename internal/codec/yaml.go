package codec

import (
	"fmt"
	"io"
	"time"

	"netcanvas/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// ContentType returns the MIME type of exported documents
func (c *YAMLCodec) ContentType() string {
	return "application/yaml"
}

// yamlDocument keeps nodes and edges undecoded so each element can fail alone
type yamlDocument struct {
	Name    string      `yaml:"name"`
	Nodes   []yaml.Node `yaml:"nodes"`
	Edges   []yaml.Node `yaml:"edges"`
	SavedAt time.Time   `yaml:"savedAt"`
}

// Parse imports a snapshot from YAML. Nodes and edges that fail to decode
// are collected in Snapshot.Malformed instead of failing the document.
func (c *YAMLCodec) Parse(r io.Reader) (*domain.Snapshot, error) {
	var doc yamlDocument
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w: %w", ErrMalformedDocument, err)
	}

	snap := domain.Snapshot{
		Name:    doc.Name,
		Nodes:   make([]domain.Node, 0, len(doc.Nodes)),
		Edges:   make([]domain.Edge, 0, len(doc.Edges)),
		SavedAt: doc.SavedAt,
	}
	for i := range doc.Nodes {
		var n domain.Node
		if err := doc.Nodes[i].Decode(&n); err != nil {
			snap.Malformed = append(snap.Malformed, domain.NewMalformedElement("node", i, yamlElementID(&doc.Nodes[i]), err))
			continue
		}
		snap.Nodes = append(snap.Nodes, n)
	}
	for i := range doc.Edges {
		var e domain.Edge
		if err := doc.Edges[i].Decode(&e); err != nil {
			snap.Malformed = append(snap.Malformed, domain.NewMalformedElement("edge", i, yamlElementID(&doc.Edges[i]), err))
			continue
		}
		snap.Edges = append(snap.Edges, e)
	}

	return normalizeImported(&snap), nil
}

func yamlElementID(n *yaml.Node) string {
	var head struct {
		ID string `yaml:"id"`
	}
	if err := n.Decode(&head); err != nil {
		return ""
	}
	return head.ID
}

// Export exports a snapshot to YAML
func (c *YAMLCodec) Export(snap *domain.Snapshot, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
