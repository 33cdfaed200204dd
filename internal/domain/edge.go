package domain

import (
	"fmt"
	"time"
)

// Handle is one of the four attachment points on a node
type Handle string

const (
	HandleLeft   Handle = "left"
	HandleRight  Handle = "right"
	HandleTop    Handle = "top"
	HandleBottom Handle = "bottom"
)

// Valid reports whether h is a known handle
func (h Handle) Valid() bool {
	switch h {
	case HandleLeft, HandleRight, HandleTop, HandleBottom:
		return true
	}
	return false
}

// Edge represents a typed connection between two node handles
type Edge struct {
	ID             string         `json:"id" yaml:"id"`
	SourceNodeID   string         `json:"sourceNodeId" yaml:"sourceNodeId"`
	TargetNodeID   string         `json:"targetNodeId" yaml:"targetNodeId"`
	SourceHandle   Handle         `json:"sourceHandle" yaml:"sourceHandle"`
	TargetHandle   Handle         `json:"targetHandle" yaml:"targetHandle"`
	ConnectionType ConnectionType `json:"connectionType" yaml:"connectionType"`
	Label          string         `json:"label,omitempty" yaml:"label,omitempty"`
}

// EdgeID derives an edge ID from its endpoints and creation time.
// The timestamp component keeps parallel edges between one pair distinct.
func EdgeID(sourceNodeID, targetNodeID string, createdAt time.Time) string {
	return fmt.Sprintf("edge-%s-%s-%d", sourceNodeID, targetNodeID, createdAt.UnixNano())
}

// Involves checks if this edge touches the given node
func (e Edge) Involves(nodeID string) bool {
	return e.SourceNodeID == nodeID || e.TargetNodeID == nodeID
}

// OtherEnd returns the node ID on the other end of this edge
func (e Edge) OtherEnd(nodeID string) string {
	if e.SourceNodeID == nodeID {
		return e.TargetNodeID
	}
	return e.SourceNodeID
}

// StyledEdge pairs an edge with its resolved connection profile for rendering
type StyledEdge struct {
	Edge
	Style ConnectionProfile `json:"style"`
}
