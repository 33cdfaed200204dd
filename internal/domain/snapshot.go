package domain

import "time"

// Snapshot is a named, persisted copy of the full node/edge graph
type Snapshot struct {
	ID      int64     `json:"id" yaml:"id,omitempty"`
	Name    string    `json:"name" yaml:"name"`
	Nodes   []Node    `json:"nodes" yaml:"nodes"`
	Edges   []Edge    `json:"edges" yaml:"edges"`
	SavedAt time.Time `json:"savedAt" yaml:"savedAt"`

	// Malformed lists graph elements dropped while decoding the document
	Malformed []MalformedElement `json:"-" yaml:"-"`
}

// NewSnapshot creates a snapshot stamped with the current UTC time.
// Nil collections are normalized to empty slices so they encode as [].
func NewSnapshot(name string, nodes []Node, edges []Edge) *Snapshot {
	if nodes == nil {
		nodes = make([]Node, 0)
	}
	if edges == nil {
		edges = make([]Edge, 0)
	}
	return &Snapshot{
		Name:    name,
		Nodes:   nodes,
		Edges:   edges,
		SavedAt: time.Now().UTC(),
	}
}

// SnapshotSummary is the listing view of a snapshot without its graph
type SnapshotSummary struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	NodeCount int       `json:"nodeCount"`
	EdgeCount int       `json:"edgeCount"`
	SavedAt   time.Time `json:"savedAt"`
}

// Summary returns the listing view of s
func (s *Snapshot) Summary() SnapshotSummary {
	return SnapshotSummary{
		ID:        s.ID,
		Name:      s.Name,
		NodeCount: len(s.Nodes),
		EdgeCount: len(s.Edges),
		SavedAt:   s.SavedAt,
	}
}
