package repository

import (
	"encoding/json"
	"fmt"

	"github.com/golang/snappy"

	"netcanvas/internal/domain"
)

// payload is the blob stored for each snapshot
type payload struct {
	Nodes []domain.Node `json:"nodes"`
	Edges []domain.Edge `json:"edges"`
}

// EncodePayload serializes a graph for storage
func EncodePayload(nodes []domain.Node, edges []domain.Edge) ([]byte, error) {
	if nodes == nil {
		nodes = []domain.Node{}
	}
	if edges == nil {
		edges = []domain.Edge{}
	}

	raw, err := json.Marshal(payload{Nodes: nodes, Edges: edges})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot payload: %w", err)
	}
	return snappy.Encode(nil, raw), nil
}

// DecodePayload restores a graph written by EncodePayload into snap.
// Nodes and edges that no longer decode land in snap.Malformed.
func DecodePayload(data []byte, snap *domain.Snapshot) error {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return fmt.Errorf("failed to decompress snapshot payload: %w", err)
	}

	var p struct {
		Nodes []json.RawMessage `json:"nodes"`
		Edges []json.RawMessage `json:"edges"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("failed to unmarshal snapshot payload: %w", err)
	}
	snap.Nodes, snap.Edges, snap.Malformed = domain.DecodeElementsJSON(p.Nodes, p.Edges)
	return nil
}
