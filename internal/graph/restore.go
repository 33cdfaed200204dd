package graph

import (
	"errors"

	"netcanvas/internal/domain"
)

var (
	errEmptyID = errors.New("empty id")
	// errDuplicateID marks an item whose ID already appeared earlier in a restore
	errDuplicateID = errors.New("duplicate id")
)

// Skipped describes one item dropped during a restore
type Skipped struct {
	Kind   string `json:"kind"` // "node" or "edge"
	ID     string `json:"id"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// RestoreReport summarizes a wholesale replacement of the model contents
type RestoreReport struct {
	NodesLoaded int       `json:"nodesLoaded"`
	EdgesLoaded int       `json:"edgesLoaded"`
	Skipped     []Skipped `json:"skipped,omitempty"`
}

// Complete reports whether every item was restored
func (r RestoreReport) Complete() bool {
	return len(r.Skipped) == 0
}

// SkipMalformed adds elements that never decoded to the skip list, ahead of
// the items Restore itself rejected
func (r *RestoreReport) SkipMalformed(elems []domain.MalformedElement) {
	if len(elems) == 0 {
		return
	}
	skipped := make([]Skipped, 0, len(elems)+len(r.Skipped))
	for _, el := range elems {
		skipped = append(skipped, Skipped{Kind: el.Kind, ID: el.ID, Reason: el.Err.Error(), Err: el.Err})
	}
	r.Skipped = append(skipped, r.Skipped...)
}

// Restore replaces the model contents with nodes and edges.
// Invalid items are skipped and reported rather than failing the whole
// restore, so a partially corrupted snapshot still loads its valid subset.
func (m *Model) Restore(nodes []domain.Node, edges []domain.Edge) RestoreReport {
	var report RestoreReport
	m.Clear()

	skip := func(kind, id string, err error) {
		report.Skipped = append(report.Skipped, Skipped{Kind: kind, ID: id, Reason: err.Error(), Err: err})
	}

	for _, n := range nodes {
		switch {
		case n.ID == "":
			skip("node", n.ID, errEmptyID)
			continue
		case m.nodes[n.ID] != nil:
			skip("node", n.ID, errDuplicateID)
			continue
		case !n.Kind.Valid():
			skip("node", n.ID, domain.ErrInvalidKind)
			continue
		case !n.Position.IsFinite():
			skip("node", n.ID, domain.ErrInvalidPosition)
			continue
		}
		node := n.Clone()
		if !node.Status.Valid() {
			node.Status = domain.NodeStatusOffline
		}
		m.insertNode(node)
		report.NodesLoaded++
	}

	for _, e := range edges {
		if _, err := domain.ResolveConnectionType(e.ConnectionType); err != nil {
			skip("edge", e.ID, domain.ErrUnknownConnectionType)
			continue
		}
		if e.ID == "" {
			skip("edge", e.ID, errEmptyID)
			continue
		}
		if m.edges[e.ID] != nil {
			skip("edge", e.ID, errDuplicateID)
			continue
		}
		if m.nodes[e.SourceNodeID] == nil || m.nodes[e.TargetNodeID] == nil {
			skip("edge", e.ID, domain.ErrUnknownNode)
			continue
		}
		if !e.SourceHandle.Valid() || !e.TargetHandle.Valid() {
			skip("edge", e.ID, domain.ErrInvalidHandle)
			continue
		}
		edge := e
		m.edges[edge.ID] = &edge
		m.edgeOrder = append(m.edgeOrder, edge.ID)
		report.EdgesLoaded++
	}

	return report
}
