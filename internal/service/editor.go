package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"netcanvas/internal/domain"
	"netcanvas/internal/graph"
	"netcanvas/internal/layout"
	"netcanvas/internal/metrics"
	"netcanvas/internal/repository"
)

// State is the gesture state of an editing session
type State string

const (
	StateIdle         State = "idle"
	StateDragging     State = "dragging"
	StateConnecting   State = "connecting"
	StateEdgeSelected State = "edge_selected"
)

// Endpoint is one end of a connection gesture
type Endpoint struct {
	NodeID string        `json:"nodeId" validate:"required"`
	Handle domain.Handle `json:"handle" validate:"required,oneof=left right top bottom"`
}

// DeviceSync is the slice of the device syncer the editor depends on
type DeviceSync interface {
	Refresh(ctx context.Context) error
	RefreshAsync()
	Candidates() []domain.Candidate
	Candidate(deviceID string) (domain.Candidate, bool)
	LastError() error
}

// EditorConfig holds tunables for an editing session
type EditorConfig struct {
	MinDistance float64
	Grid        layout.GridConfig
}

// DefaultEditorConfig returns the standard settings
func DefaultEditorConfig() EditorConfig {
	return EditorConfig{
		MinDistance: layout.DefaultMinDistance,
		Grid:        layout.DefaultGrid(),
	}
}

// Editor translates user gestures into graph mutations for one session.
// Every method serializes on a single mutex, so the graph has one writer.
type Editor struct {
	mu sync.Mutex

	model   *graph.Model
	store   repository.SnapshotStore
	devices DeviceSync
	bus     *EventBus
	metrics *metrics.Registry
	logger  *slog.Logger
	cfg     EditorConfig

	state        State
	dragNodeID   string
	connectFrom  *Endpoint
	selectedEdge string
}

// EditorOption configures an Editor
type EditorOption func(*Editor)

// WithStore sets the snapshot store
func WithStore(store repository.SnapshotStore) EditorOption {
	return func(e *Editor) { e.store = store }
}

// WithDevices sets the device candidate source
func WithDevices(d DeviceSync) EditorOption {
	return func(e *Editor) { e.devices = d }
}

// WithEventBus sets the bus events are published on
func WithEventBus(bus *EventBus) EditorOption {
	return func(e *Editor) { e.bus = bus }
}

// WithMetrics sets the metrics registry
func WithMetrics(m *metrics.Registry) EditorOption {
	return func(e *Editor) { e.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) EditorOption {
	return func(e *Editor) { e.logger = l }
}

// WithConfig overrides the session tunables
func WithConfig(cfg EditorConfig) EditorOption {
	return func(e *Editor) { e.cfg = cfg }
}

// WithModel starts the session from an existing model
func WithModel(m *graph.Model) EditorOption {
	return func(e *Editor) { e.model = m }
}

// NewEditor opens an editing session
func NewEditor(opts ...EditorOption) *Editor {
	e := &Editor{
		model:  graph.New(),
		logger: slog.Default(),
		cfg:    DefaultEditorConfig(),
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cfg.MinDistance <= 0 {
		e.cfg.MinDistance = layout.DefaultMinDistance
	}
	e.logger = e.logger.With("component", "editor")
	return e
}

// ============================================================================
// Read surface
// ============================================================================

// Selection describes the in-progress gesture
type Selection struct {
	DraggingNodeID string    `json:"draggingNodeId,omitempty"`
	ConnectFrom    *Endpoint `json:"connectFrom,omitempty"`
	SelectedEdgeID string    `json:"selectedEdgeId,omitempty"`
}

// View is the render-agnostic state of the canvas
type View struct {
	Nodes     []domain.Node       `json:"nodes"`
	Edges     []domain.StyledEdge `json:"edges"`
	State     State               `json:"state"`
	Selection Selection           `json:"selection"`
}

// View returns a copy of the canvas contents and gesture state
func (e *Editor) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	return View{
		Nodes:     e.model.Nodes(),
		Edges:     e.model.StyledEdges(),
		State:     e.state,
		Selection: e.selection(),
	}
}

// State returns the current gesture state
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Editor) selection() Selection {
	sel := Selection{DraggingNodeID: e.dragNodeID, SelectedEdgeID: e.selectedEdge}
	if e.connectFrom != nil {
		from := *e.connectFrom
		sel.ConnectFrom = &from
	}
	return sel
}

// ============================================================================
// State machine
// ============================================================================

func (e *Editor) invalidState(op string) error {
	return &domain.OpError{Op: op, ID: string(e.state), Err: domain.ErrInvalidState}
}

// canCommand reports whether a non-gesture command may run.
// Commands are refused while a drag or connection is in flight.
func (e *Editor) canCommand() bool {
	return e.state == StateIdle || e.state == StateEdgeSelected
}

func (e *Editor) setState(s State) {
	if s != StateDragging {
		e.dragNodeID = ""
	}
	if s != StateConnecting {
		e.connectFrom = nil
	}
	if s != StateEdgeSelected {
		e.selectedEdge = ""
	}
	changed := e.state != s
	e.state = s
	if changed {
		e.publish(EventStateChanged, map[string]any{"state": s, "selection": e.selection()})
	}
}

// dropStaleSelection returns to Idle when the selected edge no longer exists
func (e *Editor) dropStaleSelection() {
	if e.state != StateEdgeSelected {
		return
	}
	if _, ok := e.model.Edge(e.selectedEdge); !ok {
		e.setState(StateIdle)
	}
}

func (e *Editor) publish(t EventType, payload any) {
	e.bus.Publish(Event{Type: t, Payload: payload})
}

func (e *Editor) record(gesture string, err error) {
	e.metrics.RecordGesture(gesture, err)
	if err == nil {
		nodes, edges := e.model.Len()
		e.metrics.SetGraphSize(nodes, edges)
		return
	}
	e.logger.Debug("gesture rejected", "gesture", gesture, "error", err)
}

// BeginDrag starts dragging a node
func (e *Editor) BeginDrag(nodeID string) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() { e.record("begin_drag", err) }()

	if !e.canCommand() {
		return e.invalidState("begin drag")
	}
	if _, ok := e.model.Node(nodeID); !ok {
		return &domain.OpError{Op: "begin drag", ID: nodeID, Err: domain.ErrUnknownNode}
	}

	e.dragNodeID = nodeID
	e.setState(StateDragging)
	return nil
}

// DragTo moves the dragged node without collision correction
func (e *Editor) DragTo(nodeID string, pos domain.Position) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateDragging || e.dragNodeID != nodeID {
		return e.invalidState("drag")
	}
	if err := e.model.UpdateNodePosition(nodeID, pos); err != nil {
		return err
	}
	e.publish(EventNodeDragged, map[string]any{"nodeId": nodeID, "position": pos})
	return nil
}

// DragResult reports the outcome of a drag release
type DragResult struct {
	NodeID   string                     `json:"nodeId"`
	Position domain.Position            `json:"position"`
	Settled  map[string]domain.Position `json:"settled"`
	Stats    layout.SettleStats         `json:"stats"`
}

// EndDrag commits the final position, runs one settle pass and returns to Idle.
// A non-finite position is rejected and the drag stays active.
func (e *Editor) EndDrag(nodeID string, pos domain.Position) (result DragResult, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() { e.record("end_drag", err) }()

	if e.state != StateDragging || e.dragNodeID != nodeID {
		return DragResult{}, e.invalidState("end drag")
	}
	if err := e.model.UpdateNodePosition(nodeID, pos); err != nil {
		return DragResult{}, err
	}
	e.setState(StateIdle)

	result = DragResult{NodeID: nodeID, Position: pos}
	e.publish(EventPositionCommitted, map[string]any{"nodeId": nodeID, "position": pos})
	settled := e.onPositionCommitted()
	result.Settled = settled.Positions
	result.Stats = settled.Stats
	if p, ok := settled.Positions[nodeID]; ok {
		result.Position = p
	}
	return result, nil
}

// onPositionCommitted runs the collision settle pass over the whole canvas
func (e *Editor) onPositionCommitted() layout.SettleResult {
	start := time.Now()
	settled := layout.Settle(e.model.Nodes(), e.cfg.MinDistance)
	e.metrics.RecordSettle(settled.Stats.PairsChecked, settled.Stats.PairsCorrected, time.Since(start))

	if !settled.Moved() {
		return settled
	}
	if err := e.model.ApplyPositions(settled.Positions); err != nil {
		// Settle only produces finite offsets from finite inputs
		e.logger.Error("failed to apply settle result", "error", err)
		return layout.SettleResult{Positions: map[string]domain.Position{}, Stats: settled.Stats}
	}

	e.logger.Debug("settled overlapping nodes", "moved", len(settled.Positions), "pairs", settled.Stats.PairsCorrected)
	e.publish(EventPositionsSettled, settled)
	return settled
}

// BeginConnect starts a connection gesture from a node handle
func (e *Editor) BeginConnect(from Endpoint) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() { e.record("begin_connect", err) }()

	if !e.canCommand() {
		return e.invalidState("begin connect")
	}
	if _, ok := e.model.Node(from.NodeID); !ok {
		return &domain.OpError{Op: "begin connect", ID: from.NodeID, Err: domain.ErrUnknownNode}
	}
	if !from.Handle.Valid() {
		return &domain.OpError{Op: "begin connect", ID: string(from.Handle), Err: domain.ErrInvalidHandle}
	}

	e.connectFrom = &from
	e.setState(StateConnecting)
	return nil
}

// CompleteConnect releases a connection gesture.
// A nil target means the release landed on empty canvas and no edge is created.
// The session returns to Idle whether or not the edge is accepted.
func (e *Editor) CompleteConnect(target *Endpoint, connType domain.ConnectionType) (edge *domain.Edge, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() { e.record("complete_connect", err) }()

	if e.state != StateConnecting {
		return nil, e.invalidState("complete connect")
	}
	from := *e.connectFrom
	e.setState(StateIdle)

	if target == nil {
		return nil, nil
	}

	created, err := e.model.AddEdge(from.NodeID, target.NodeID, from.Handle, target.Handle, connType)
	if err != nil {
		return nil, err
	}

	e.publish(EventEdgeCreated, created)
	return &created, nil
}

// CancelConnect abandons a connection gesture
func (e *Editor) CancelConnect() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateConnecting {
		return e.invalidState("cancel connect")
	}
	e.setState(StateIdle)
	return nil
}

// SelectEdge selects an edge, replacing any current selection
func (e *Editor) SelectEdge(edgeID string) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() { e.record("select_edge", err) }()

	if !e.canCommand() {
		return e.invalidState("select edge")
	}
	if _, ok := e.model.Edge(edgeID); !ok {
		return &domain.OpError{Op: "select edge", ID: edgeID, Err: domain.ErrUnknownEdge}
	}

	e.selectedEdge = edgeID
	if e.state == StateEdgeSelected {
		e.publish(EventStateChanged, map[string]any{"state": e.state, "selection": e.selection()})
		return nil
	}
	e.setState(StateEdgeSelected)
	return nil
}

// DeleteSelectedEdge removes the selected edge and returns to Idle
func (e *Editor) DeleteSelectedEdge() (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() { e.record("delete_edge", err) }()

	if e.state != StateEdgeSelected {
		return e.invalidState("delete edge")
	}
	id := e.selectedEdge
	e.model.RemoveEdge(id)
	e.setState(StateIdle)

	e.publish(EventEdgeDeleted, map[string]string{"edgeId": id})
	return nil
}

// SetSelectedEdgeLabel relabels the selected edge; the selection is kept
func (e *Editor) SetSelectedEdgeLabel(label string) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() { e.record("label_edge", err) }()

	if e.state != StateEdgeSelected {
		return e.invalidState("label edge")
	}
	if err := e.model.SetEdgeLabel(e.selectedEdge, label); err != nil {
		return err
	}

	edge, _ := e.model.Edge(e.selectedEdge)
	e.publish(EventEdgeUpdated, edge)
	return nil
}

// Deselect clears the edge selection
func (e *Editor) Deselect() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateEdgeSelected {
		return e.invalidState("deselect")
	}
	e.setState(StateIdle)
	return nil
}

// ============================================================================
// Commands
// ============================================================================

// AddNode places a palette node on the canvas
func (e *Editor) AddNode(kind domain.NodeKind, label string, pos domain.Position) (node domain.Node, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() { e.record("add_node", err) }()

	if !e.canCommand() {
		return domain.Node{}, e.invalidState("add node")
	}
	node, err = e.model.AddNode(kind, label, pos, nil)
	if err != nil {
		return domain.Node{}, err
	}

	e.publish(EventNodeCreated, node)
	return node, nil
}

// PlaceCandidate turns a device candidate into a node at pos
func (e *Editor) PlaceCandidate(deviceID string, pos domain.Position) (node domain.Node, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() { e.record("place_candidate", err) }()

	if !e.canCommand() {
		return domain.Node{}, e.invalidState("place candidate")
	}
	if e.devices == nil {
		return domain.Node{}, &domain.OpError{Op: "place candidate", ID: deviceID, Err: domain.ErrUnknownNode}
	}
	candidate, ok := e.devices.Candidate(deviceID)
	if !ok {
		return domain.Node{}, &domain.OpError{Op: "place candidate", ID: deviceID, Err: domain.ErrUnknownNode}
	}

	node, err = e.model.AddDeviceNode(candidate, pos)
	if err != nil {
		return domain.Node{}, err
	}

	e.publish(EventNodeCreated, node)
	return node, nil
}

// RemoveNode deletes a node and its edges, returning the removed edge IDs
func (e *Editor) RemoveNode(nodeID string) (removed []string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() { e.record("remove_node", err) }()

	if !e.canCommand() {
		return nil, e.invalidState("remove node")
	}
	if _, ok := e.model.Node(nodeID); !ok {
		return nil, &domain.OpError{Op: "remove node", ID: nodeID, Err: domain.ErrUnknownNode}
	}

	removed = e.model.RemoveNode(nodeID)
	if removed == nil {
		removed = []string{}
	}
	e.dropStaleSelection()

	e.publish(EventNodeDeleted, map[string]any{"nodeId": nodeID, "removedEdges": removed})
	return removed, nil
}

// ApplyLayout runs a layout command over nodeIDs in the given order, or over
// every node when nodeIDs is empty. The result bypasses collision settling.
func (e *Editor) ApplyLayout(cmd layout.Command, nodeIDs []string) (positions map[string]domain.Position, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() { e.record("layout_"+string(cmd), err) }()

	if !cmd.Valid() {
		return nil, fmt.Errorf("unknown layout command %q", cmd)
	}
	if !e.canCommand() {
		return nil, e.invalidState(string(cmd))
	}

	nodes, err := e.subset(nodeIDs)
	if err != nil {
		return nil, err
	}

	positions = cmd.Apply(nodes, e.cfg.Grid)
	if err := e.model.ApplyPositions(positions); err != nil {
		return nil, err
	}

	e.publish(EventLayoutApplied, map[string]any{"command": cmd, "positions": positions})
	return positions, nil
}

// AutoArrange lays nodes out on the configured grid
func (e *Editor) AutoArrange(nodeIDs ...string) (map[string]domain.Position, error) {
	return e.ApplyLayout(layout.CommandAutoArrange, nodeIDs)
}

// AlignHorizontally puts nodes on their mean y
func (e *Editor) AlignHorizontally(nodeIDs ...string) (map[string]domain.Position, error) {
	return e.ApplyLayout(layout.CommandAlignHorizontally, nodeIDs)
}

// AlignVertically puts nodes on their mean x
func (e *Editor) AlignVertically(nodeIDs ...string) (map[string]domain.Position, error) {
	return e.ApplyLayout(layout.CommandAlignVertically, nodeIDs)
}

func (e *Editor) subset(nodeIDs []string) ([]domain.Node, error) {
	if len(nodeIDs) == 0 {
		return e.model.Nodes(), nil
	}
	nodes := make([]domain.Node, 0, len(nodeIDs))
	seen := make(map[string]bool, len(nodeIDs))
	for _, id := range nodeIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		n, ok := e.model.Node(id)
		if !ok {
			return nil, &domain.OpError{Op: "select nodes", ID: id, Err: domain.ErrUnknownNode}
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// ============================================================================
// Devices
// ============================================================================

// RefreshDevices fetches the device list and waits for the result.
// A failure leaves the candidate list empty and the canvas untouched.
func (e *Editor) RefreshDevices(ctx context.Context) error {
	if e.devices == nil {
		return fmt.Errorf("%w: no device inventory configured", domain.ErrSyncFailure)
	}
	return e.devices.Refresh(ctx)
}

// RefreshDevicesAsync starts a device fetch without waiting
func (e *Editor) RefreshDevicesAsync() {
	if e.devices != nil {
		e.devices.RefreshAsync()
	}
}

// Candidates returns the devices available for placement
func (e *Editor) Candidates() []domain.Candidate {
	if e.devices == nil {
		return []domain.Candidate{}
	}
	return e.devices.Candidates()
}

// DevicesError returns the last device sync error, if any
func (e *Editor) DevicesError() error {
	if e.devices == nil {
		return nil
	}
	return e.devices.LastError()
}
