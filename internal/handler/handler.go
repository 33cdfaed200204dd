package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"netcanvas/internal/codec"
	"netcanvas/internal/domain"
	"netcanvas/internal/layout"
	"netcanvas/internal/service"
)

// maxBodyBytes bounds JSON request bodies; imports get maxImportBytes
const (
	maxBodyBytes   = 1 << 20
	maxImportBytes = 32 << 20
)

// EditorHandler handles editor API requests
type EditorHandler struct {
	editor   *service.Editor
	logger   *slog.Logger
	validate *validator.Validate
}

// NewEditorHandler creates a new editor handler
func NewEditorHandler(editor *service.Editor, logger *slog.Logger) *EditorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EditorHandler{
		editor:   editor,
		logger:   logger.With("component", "http"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register mounts the API routes on mux
func (h *EditorHandler) Register(mux *http.ServeMux) {
	// Canvas
	mux.HandleFunc("GET /api/graph", h.GetGraph)
	mux.HandleFunc("GET /api/graph/export", h.ExportGraph)
	mux.HandleFunc("POST /api/graph/import", h.ImportGraph)
	mux.HandleFunc("GET /api/connection-types", h.ListConnectionTypes)

	// Nodes and drag gestures
	mux.HandleFunc("POST /api/nodes", h.CreateNode)
	mux.HandleFunc("DELETE /api/nodes/{id}", h.DeleteNode)
	mux.HandleFunc("POST /api/nodes/{id}/drag/start", h.BeginDrag)
	mux.HandleFunc("PUT /api/nodes/{id}/drag", h.DragTo)
	mux.HandleFunc("POST /api/nodes/{id}/drag/end", h.EndDrag)

	// Connection gestures
	mux.HandleFunc("POST /api/connect/start", h.BeginConnect)
	mux.HandleFunc("POST /api/connect/complete", h.CompleteConnect)
	mux.HandleFunc("POST /api/connect/cancel", h.CancelConnect)

	// Edge selection
	mux.HandleFunc("POST /api/edges/{id}/select", h.SelectEdge)
	mux.HandleFunc("DELETE /api/selection", h.Deselect)
	mux.HandleFunc("PUT /api/selection/label", h.SetSelectedEdgeLabel)
	mux.HandleFunc("POST /api/selection/delete", h.DeleteSelectedEdge)

	// Layout
	mux.HandleFunc("POST /api/layout/{command}", h.ApplyLayout)

	// Devices
	mux.HandleFunc("GET /api/devices", h.ListDevices)
	mux.HandleFunc("POST /api/devices/refresh", h.RefreshDevices)
	mux.HandleFunc("POST /api/devices/{deviceId}/place", h.PlaceDevice)

	// Snapshots
	mux.HandleFunc("GET /api/snapshots", h.ListSnapshots)
	mux.HandleFunc("POST /api/snapshots", h.SaveSnapshot)
	mux.HandleFunc("POST /api/snapshots/import", h.ImportGraph)
	mux.HandleFunc("POST /api/snapshots/{id}/load", h.LoadSnapshot)
	mux.HandleFunc("PUT /api/snapshots/{id}", h.ReplaceSnapshot)
	mux.HandleFunc("DELETE /api/snapshots/{id}", h.DeleteSnapshot)
	mux.HandleFunc("GET /api/snapshots/{id}/export", h.ExportSnapshot)

	mux.HandleFunc("GET /healthz", h.Health)
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// PositionRequest carries canvas coordinates
type PositionRequest struct {
	X *float64 `json:"x" validate:"required"`
	Y *float64 `json:"y" validate:"required"`
}

func (p PositionRequest) position() domain.Position {
	return domain.NewPosition(*p.X, *p.Y)
}

// CreateNodeRequest places a palette node
type CreateNodeRequest struct {
	Kind     domain.NodeKind `json:"kind" validate:"required"`
	Label    string          `json:"label" validate:"max=128"`
	Position PositionRequest `json:"position" validate:"required"`
}

// PositionBody wraps a position for drag and place requests
type PositionBody struct {
	Position PositionRequest `json:"position" validate:"required"`
}

// CompleteConnectRequest releases a connection gesture.
// A missing target means the pointer was released on empty canvas.
type CompleteConnectRequest struct {
	Target         *service.Endpoint     `json:"target"`
	ConnectionType domain.ConnectionType `json:"connectionType" validate:"required"`
}

// LabelRequest relabels the selected edge
type LabelRequest struct {
	Label string `json:"label" validate:"max=256"`
}

// LayoutRequest limits a layout command to a node selection
type LayoutRequest struct {
	NodeIDs []string `json:"nodeIds" validate:"omitempty,dive,required"`
}

// SaveSnapshotRequest names a new snapshot
type SaveSnapshotRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// GetGraph returns the render-agnostic canvas view
func (h *EditorHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.editor.View(), http.StatusOK)
}

// ListConnectionTypes returns the connection type registry
func (h *EditorHandler) ListConnectionTypes(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, domain.ConnectionTypes(), http.StatusOK)
}

// CreateNode adds a palette node
func (h *EditorHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req CreateNodeRequest
	if !h.decode(w, r, &req) {
		return
	}

	node, err := h.editor.AddNode(req.Kind, req.Label, req.Position.position())
	if err != nil {
		h.fail(w, "Failed to create node", err)
		return
	}
	h.writeJSON(w, node, http.StatusCreated)
}

// DeleteNode removes a node and its connections
func (h *EditorHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	removed, err := h.editor.RemoveNode(r.PathValue("id"))
	if err != nil {
		h.fail(w, "Failed to delete node", err)
		return
	}
	h.writeJSON(w, map[string]any{"removedEdges": removed}, http.StatusOK)
}

// BeginDrag starts a drag gesture
func (h *EditorHandler) BeginDrag(w http.ResponseWriter, r *http.Request) {
	if err := h.editor.BeginDrag(r.PathValue("id")); err != nil {
		h.fail(w, "Failed to start drag", err)
		return
	}
	h.writeState(w)
}

// DragTo moves the dragged node
func (h *EditorHandler) DragTo(w http.ResponseWriter, r *http.Request) {
	var req PositionBody
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.editor.DragTo(r.PathValue("id"), req.Position.position()); err != nil {
		h.fail(w, "Failed to drag node", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EndDrag commits the drag and returns the settled positions
func (h *EditorHandler) EndDrag(w http.ResponseWriter, r *http.Request) {
	var req PositionBody
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.editor.EndDrag(r.PathValue("id"), req.Position.position())
	if err != nil {
		h.fail(w, "Failed to end drag", err)
		return
	}
	h.writeJSON(w, result, http.StatusOK)
}

// BeginConnect starts a connection gesture
func (h *EditorHandler) BeginConnect(w http.ResponseWriter, r *http.Request) {
	var req service.Endpoint
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.editor.BeginConnect(req); err != nil {
		h.fail(w, "Failed to start connection", err)
		return
	}
	h.writeState(w)
}

// CompleteConnect releases a connection gesture
func (h *EditorHandler) CompleteConnect(w http.ResponseWriter, r *http.Request) {
	var req CompleteConnectRequest
	if !h.decode(w, r, &req) {
		return
	}
	edge, err := h.editor.CompleteConnect(req.Target, req.ConnectionType)
	if err != nil {
		h.fail(w, "Failed to connect nodes", err)
		return
	}
	if edge == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, edge, http.StatusCreated)
}

// CancelConnect abandons a connection gesture
func (h *EditorHandler) CancelConnect(w http.ResponseWriter, r *http.Request) {
	if err := h.editor.CancelConnect(); err != nil {
		h.fail(w, "Failed to cancel connection", err)
		return
	}
	h.writeState(w)
}

// SelectEdge selects an edge
func (h *EditorHandler) SelectEdge(w http.ResponseWriter, r *http.Request) {
	if err := h.editor.SelectEdge(r.PathValue("id")); err != nil {
		h.fail(w, "Failed to select edge", err)
		return
	}
	h.writeState(w)
}

// Deselect clears the edge selection
func (h *EditorHandler) Deselect(w http.ResponseWriter, r *http.Request) {
	if err := h.editor.Deselect(); err != nil {
		h.fail(w, "Failed to clear selection", err)
		return
	}
	h.writeState(w)
}

// SetSelectedEdgeLabel relabels the selected edge
func (h *EditorHandler) SetSelectedEdgeLabel(w http.ResponseWriter, r *http.Request) {
	var req LabelRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.editor.SetSelectedEdgeLabel(req.Label); err != nil {
		h.fail(w, "Failed to label edge", err)
		return
	}
	h.writeState(w)
}

// DeleteSelectedEdge deletes the selected edge
func (h *EditorHandler) DeleteSelectedEdge(w http.ResponseWriter, r *http.Request) {
	if err := h.editor.DeleteSelectedEdge(); err != nil {
		h.fail(w, "Failed to delete edge", err)
		return
	}
	h.writeState(w)
}

// ApplyLayout runs a layout command; an empty body means every node
func (h *EditorHandler) ApplyLayout(w http.ResponseWriter, r *http.Request) {
	cmd := layout.Command(r.PathValue("command"))
	if !cmd.Valid() {
		h.writeError(w, "Unknown layout command", string(cmd), http.StatusBadRequest)
		return
	}

	var req LayoutRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}

	positions, err := h.editor.ApplyLayout(cmd, req.NodeIDs)
	if err != nil {
		h.fail(w, "Failed to apply layout", err)
		return
	}
	h.writeJSON(w, map[string]any{"command": cmd, "positions": positions}, http.StatusOK)
}

// DevicesResponse lists the placeable devices
type DevicesResponse struct {
	Candidates []domain.Candidate `json:"candidates"`
	Error      string             `json:"error,omitempty"`
}

// ListDevices returns the current device candidates
func (h *EditorHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	resp := DevicesResponse{Candidates: h.editor.Candidates()}
	if err := h.editor.DevicesError(); err != nil {
		resp.Error = err.Error()
	}
	h.writeJSON(w, resp, http.StatusOK)
}

// RefreshDevices refetches the device inventory.
// With ?wait=true the request blocks until the fetch completes.
func (h *EditorHandler) RefreshDevices(w http.ResponseWriter, r *http.Request) {
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); !wait {
		h.editor.RefreshDevicesAsync()
		h.writeJSON(w, map[string]string{"status": "refresh_triggered"}, http.StatusAccepted)
		return
	}

	if err := h.editor.RefreshDevices(r.Context()); err != nil {
		h.fail(w, "Failed to refresh devices", err)
		return
	}
	h.writeJSON(w, DevicesResponse{Candidates: h.editor.Candidates()}, http.StatusOK)
}

// PlaceDevice drops a device candidate onto the canvas
func (h *EditorHandler) PlaceDevice(w http.ResponseWriter, r *http.Request) {
	var req PositionBody
	if !h.decode(w, r, &req) {
		return
	}
	node, err := h.editor.PlaceCandidate(r.PathValue("deviceId"), req.Position.position())
	if err != nil {
		h.fail(w, "Failed to place device", err)
		return
	}
	h.writeJSON(w, node, http.StatusCreated)
}

// ListSnapshots returns snapshot summaries in save order
func (h *EditorHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	list, err := h.editor.ListSnapshots(r.Context())
	if err != nil {
		h.fail(w, "Failed to list snapshots", err)
		return
	}
	h.writeJSON(w, list, http.StatusOK)
}

// SaveSnapshot stores the canvas as a new snapshot
func (h *EditorHandler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	var req SaveSnapshotRequest
	if !h.decode(w, r, &req) {
		return
	}
	snap, err := h.editor.SaveSnapshot(r.Context(), req.Name)
	if err != nil {
		h.fail(w, "Failed to save snapshot", err)
		return
	}
	h.writeJSON(w, snap.Summary(), http.StatusCreated)
}

// ReplaceSnapshot overwrites a snapshot with the canvas
func (h *EditorHandler) ReplaceSnapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := h.snapshotID(w, r)
	if !ok {
		return
	}
	snap, err := h.editor.ReplaceSnapshot(r.Context(), id)
	if err != nil {
		h.fail(w, "Failed to replace snapshot", err)
		return
	}
	h.writeJSON(w, snap.Summary(), http.StatusOK)
}

// LoadSnapshot restores a snapshot onto the canvas
func (h *EditorHandler) LoadSnapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := h.snapshotID(w, r)
	if !ok {
		return
	}
	result, err := h.editor.LoadSnapshot(r.Context(), id)
	if err != nil {
		h.fail(w, "Failed to load snapshot", err)
		return
	}
	h.writeJSON(w, result, http.StatusOK)
}

// DeleteSnapshot removes a snapshot
func (h *EditorHandler) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := h.snapshotID(w, r)
	if !ok {
		return
	}
	if err := h.editor.DeleteSnapshot(r.Context(), id); err != nil {
		h.fail(w, "Failed to delete snapshot", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportSnapshot downloads a stored snapshot
func (h *EditorHandler) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := h.snapshotID(w, r)
	if !ok {
		return
	}
	h.export(w, r, id, fmt.Sprintf("snapshot-%d", id))
}

// ExportGraph downloads the live canvas
func (h *EditorHandler) ExportGraph(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, 0, "canvas")
}

func (h *EditorHandler) export(w http.ResponseWriter, r *http.Request, id int64, basename string) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	exp, err := codec.ExporterFor(format)
	if err != nil {
		h.fail(w, "Failed to export", err)
		return
	}

	// buffer so a failure can still produce an error status
	var buf bytes.Buffer
	if err := h.editor.ExportSnapshot(r.Context(), id, exp.Format(), &buf); err != nil {
		h.fail(w, "Failed to export", err)
		return
	}

	ext := "yml"
	if exp.Format() == "json" {
		ext = "json"
	}
	w.Header().Set("Content-Type", exp.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.%s", basename, ext))
	w.Write(buf.Bytes())
}

// ImportGraph loads a JSON or YAML document onto the canvas
func (h *EditorHandler) ImportGraph(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = formatFromContentType(r.Header.Get("Content-Type"))
	}

	result, err := h.editor.ImportSnapshot(http.MaxBytesReader(w, r.Body, maxImportBytes), format)
	if err != nil {
		h.fail(w, "Failed to import", err)
		return
	}
	h.writeJSON(w, result, http.StatusOK)
}

// Health reports liveness
func (h *EditorHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// Helper methods

func formatFromContentType(ct string) string {
	if strings.Contains(ct, "yaml") || strings.Contains(ct, "yml") {
		return "yaml"
	}
	return "json"
}

func (h *EditorHandler) snapshotID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, "Invalid snapshot ID", raw, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// decode reads and validates a JSON body, writing a 400 on failure
func (h *EditorHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			h.writeError(w, "Invalid request body", "request body is empty", http.StatusBadRequest)
			return false
		}
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.writeError(w, "Validation failed", formatValidationError(err), http.StatusBadRequest)
		return false
	}
	return true
}

func formatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func (h *EditorHandler) writeState(w http.ResponseWriter) {
	v := h.editor.View()
	h.writeJSON(w, map[string]any{"state": v.State, "selection": v.Selection}, http.StatusOK)
}

// fail maps err to a status code and logs server-side failures
func (h *EditorHandler) fail(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, "error", err)
	}
	h.writeError(w, msg, err.Error(), status)
}

func (h *EditorHandler) writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *EditorHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		h.logger.Error("failed to encode error response", "error", err)
	}
}
