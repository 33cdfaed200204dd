package domain

import (
	"encoding/json"
	"fmt"
)

// MalformedElement is a node or edge that could not be decoded from a
// document. The rest of the document still loads.
type MalformedElement struct {
	Kind  string // "node" or "edge"
	Index int
	ID    string // empty when the id itself was unreadable
	Err   error
}

// NewMalformedElement wraps err with ErrMalformedElement
func NewMalformedElement(kind string, index int, id string, err error) MalformedElement {
	return MalformedElement{
		Kind:  kind,
		Index: index,
		ID:    id,
		Err:   fmt.Errorf("%w: %s %d: %w", ErrMalformedElement, kind, index, err),
	}
}

// DecodeElementsJSON decodes each raw node and edge on its own so one bad
// element does not sink the others
func DecodeElementsJSON(rawNodes, rawEdges []json.RawMessage) ([]Node, []Edge, []MalformedElement) {
	var malformed []MalformedElement

	nodes := make([]Node, 0, len(rawNodes))
	for i, raw := range rawNodes {
		var n Node
		if err := json.Unmarshal(raw, &n); err != nil {
			malformed = append(malformed, NewMalformedElement("node", i, rawElementID(raw), err))
			continue
		}
		nodes = append(nodes, n)
	}

	edges := make([]Edge, 0, len(rawEdges))
	for i, raw := range rawEdges {
		var e Edge
		if err := json.Unmarshal(raw, &e); err != nil {
			malformed = append(malformed, NewMalformedElement("edge", i, rawElementID(raw), err))
			continue
		}
		edges = append(edges, e)
	}

	return nodes, edges, malformed
}

func rawElementID(raw json.RawMessage) string {
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return ""
	}
	return head.ID
}

// UnmarshalJSON decodes the snapshot envelope strictly and its nodes and
// edges one at a time, collecting undecodable ones in Malformed
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	type envelope Snapshot
	var doc struct {
		envelope
		Nodes []json.RawMessage `json:"nodes"`
		Edges []json.RawMessage `json:"edges"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	*s = Snapshot(doc.envelope)
	s.Nodes, s.Edges, s.Malformed = DecodeElementsJSON(doc.Nodes, doc.Edges)
	return nil
}
