// Package graph holds the canonical node and edge state of one editing session.
//
// Model is the only mutation surface for the topology: every other component
// reads copies from it and writes back through its methods. It performs no I/O
// and is not safe for concurrent use; the editor serializes access to it.
package graph

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"netcanvas/internal/domain"
)

const (
	manualNodePrefix = "node-"
	deviceNodePrefix = "device-"
)

// Model owns the node and edge collections of a topology
type Model struct {
	nodes     map[string]*domain.Node
	nodeOrder []string
	edges     map[string]*domain.Edge
	edgeOrder []string
	now       func() time.Time
}

// Option configures a Model
type Option func(*Model)

// WithClock overrides the clock used for edge IDs
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		m.now = now
	}
}

// New creates an empty model
func New(opts ...Option) *Model {
	m := &Model{
		nodes: make(map[string]*domain.Node),
		edges: make(map[string]*domain.Edge),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddNode creates a palette node at pos and inserts it
func (m *Model) AddNode(kind domain.NodeKind, label string, pos domain.Position, info *domain.DeviceInfo) (domain.Node, error) {
	if !kind.Valid() {
		return domain.Node{}, &domain.OpError{Op: "add node", ID: string(kind), Err: domain.ErrInvalidKind}
	}
	if !pos.IsFinite() {
		return domain.Node{}, &domain.OpError{Op: "add node", Err: domain.ErrInvalidPosition}
	}

	node := domain.NewNode(m.newNodeID(manualNodePrefix), kind, label, pos)
	if info != nil {
		copied := *info
		node.DeviceInfo = &copied
	}
	m.insertNode(node)
	return node.Clone(), nil
}

// AddDeviceNode turns a sync candidate into a node at pos.
// The node ID is derived from the device ID and falls back to a suffixed
// form when a node for the same device is already on the canvas.
func (m *Model) AddDeviceNode(c domain.Candidate, pos domain.Position) (domain.Node, error) {
	if !pos.IsFinite() {
		return domain.Node{}, &domain.OpError{Op: "add device node", ID: c.DeviceID, Err: domain.ErrInvalidPosition}
	}

	id := deviceNodePrefix + c.DeviceID
	if _, taken := m.nodes[id]; taken || c.DeviceID == "" {
		id = m.newNodeID(id + "-")
	}

	info := c.DeviceInfo
	node := domain.Node{
		ID:         id,
		Kind:       domain.NodeKindMonitoredDevice,
		Label:      c.Label,
		Position:   pos,
		Status:     c.Status,
		DeviceInfo: &info,
	}
	if !node.Status.Valid() {
		node.Status = domain.NodeStatusOffline
	}
	m.insertNode(node)
	return node.Clone(), nil
}

func (m *Model) newNodeID(prefix string) string {
	for {
		id := prefix + uuid.NewString()
		if _, taken := m.nodes[id]; !taken {
			return id
		}
	}
}

func (m *Model) insertNode(node domain.Node) {
	m.nodes[node.ID] = &node
	m.nodeOrder = append(m.nodeOrder, node.ID)
}

// AddEdge connects two existing nodes.
// Nothing is inserted unless every check passes.
func (m *Model) AddEdge(sourceID, targetID string, sourceHandle, targetHandle domain.Handle, connType domain.ConnectionType) (domain.Edge, error) {
	if _, ok := m.nodes[sourceID]; !ok {
		return domain.Edge{}, &domain.OpError{Op: "add edge", ID: sourceID, Err: domain.ErrUnknownNode}
	}
	if _, ok := m.nodes[targetID]; !ok {
		return domain.Edge{}, &domain.OpError{Op: "add edge", ID: targetID, Err: domain.ErrUnknownNode}
	}
	if !sourceHandle.Valid() {
		return domain.Edge{}, &domain.OpError{Op: "add edge", ID: string(sourceHandle), Err: domain.ErrInvalidHandle}
	}
	if !targetHandle.Valid() {
		return domain.Edge{}, &domain.OpError{Op: "add edge", ID: string(targetHandle), Err: domain.ErrInvalidHandle}
	}
	if _, err := domain.ResolveConnectionType(connType); err != nil {
		return domain.Edge{}, err
	}

	created := m.now()
	id := domain.EdgeID(sourceID, targetID, created)
	for {
		if _, taken := m.edges[id]; !taken {
			break
		}
		created = created.Add(time.Nanosecond)
		id = domain.EdgeID(sourceID, targetID, created)
	}

	edge := domain.Edge{
		ID:             id,
		SourceNodeID:   sourceID,
		TargetNodeID:   targetID,
		SourceHandle:   sourceHandle,
		TargetHandle:   targetHandle,
		ConnectionType: connType,
	}
	m.edges[id] = &edge
	m.edgeOrder = append(m.edgeOrder, id)
	return edge, nil
}

// UpdateNodePosition moves a node.
// Unknown IDs are ignored so stale drag callbacks are harmless.
func (m *Model) UpdateNodePosition(id string, pos domain.Position) error {
	if !pos.IsFinite() {
		return &domain.OpError{Op: "update node position", ID: id, Err: domain.ErrInvalidPosition}
	}
	if node, ok := m.nodes[id]; ok {
		node.Position = pos
	}
	return nil
}

// ApplyPositions writes a batch of positions.
// Unknown IDs are skipped; the batch is rejected as a whole if any position is not finite.
func (m *Model) ApplyPositions(positions map[string]domain.Position) error {
	for id, pos := range positions {
		if !pos.IsFinite() {
			return &domain.OpError{Op: "apply positions", ID: id, Err: domain.ErrInvalidPosition}
		}
	}
	for id, pos := range positions {
		if node, ok := m.nodes[id]; ok {
			node.Position = pos
		}
	}
	return nil
}

// RemoveEdge deletes an edge; removing an absent ID is not an error
func (m *Model) RemoveEdge(id string) {
	if _, ok := m.edges[id]; !ok {
		return
	}
	delete(m.edges, id)
	m.edgeOrder = lo.Without(m.edgeOrder, id)
}

// RemoveNode deletes a node and every edge attached to it.
// It returns the IDs of the cascaded edges.
func (m *Model) RemoveNode(id string) []string {
	if _, ok := m.nodes[id]; !ok {
		return nil
	}

	removed := lo.Filter(m.edgeOrder, func(edgeID string, _ int) bool {
		return m.edges[edgeID].Involves(id)
	})
	for _, edgeID := range removed {
		delete(m.edges, edgeID)
	}
	m.edgeOrder = lo.Without(m.edgeOrder, removed...)

	delete(m.nodes, id)
	m.nodeOrder = lo.Without(m.nodeOrder, id)
	return removed
}

// SetEdgeLabel replaces the label of an edge
func (m *Model) SetEdgeLabel(id, label string) error {
	edge, ok := m.edges[id]
	if !ok {
		return &domain.OpError{Op: "set edge label", ID: id, Err: domain.ErrUnknownEdge}
	}
	edge.Label = label
	return nil
}

// Node returns a copy of a node
func (m *Model) Node(id string) (domain.Node, bool) {
	node, ok := m.nodes[id]
	if !ok {
		return domain.Node{}, false
	}
	return node.Clone(), true
}

// Edge returns a copy of an edge
func (m *Model) Edge(id string) (domain.Edge, bool) {
	edge, ok := m.edges[id]
	if !ok {
		return domain.Edge{}, false
	}
	return *edge, true
}

// Nodes returns copies of all nodes in insertion order
func (m *Model) Nodes() []domain.Node {
	return lo.Map(m.nodeOrder, func(id string, _ int) domain.Node {
		return m.nodes[id].Clone()
	})
}

// Edges returns copies of all edges in insertion order
func (m *Model) Edges() []domain.Edge {
	return lo.Map(m.edgeOrder, func(id string, _ int) domain.Edge {
		return *m.edges[id]
	})
}

// StyledEdges returns all edges with their connection profile resolved
func (m *Model) StyledEdges() []domain.StyledEdge {
	out := make([]domain.StyledEdge, 0, len(m.edgeOrder))
	for _, id := range m.edgeOrder {
		edge := *m.edges[id]
		// Types are validated on insert and restore, so resolution cannot fail here.
		profile, _ := domain.ResolveConnectionType(edge.ConnectionType)
		out = append(out, domain.StyledEdge{Edge: edge, Style: profile})
	}
	return out
}

// Len returns the node and edge counts
func (m *Model) Len() (nodes, edges int) {
	return len(m.nodes), len(m.edges)
}

// Clear removes every node and edge
func (m *Model) Clear() {
	m.nodes = make(map[string]*domain.Node)
	m.edges = make(map[string]*domain.Edge)
	m.nodeOrder = nil
	m.edgeOrder = nil
}
