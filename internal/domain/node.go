package domain

// NodeKind represents the kind of device a node stands for
type NodeKind string

const (
	NodeKindPC              NodeKind = "PC"
	NodeKindLaptop          NodeKind = "Laptop"
	NodeKindPrinter         NodeKind = "Printer"
	NodeKindScanner         NodeKind = "Scanner"
	NodeKindLanSwitch       NodeKind = "LanSwitch"
	NodeKindWanRouter       NodeKind = "WanRouter"
	NodeKindFirewall        NodeKind = "Firewall"
	NodeKindServer          NodeKind = "Server"
	NodeKindMonitoredDevice NodeKind = "MonitoredDevice"
)

// NodeKinds lists every node kind in palette order
var NodeKinds = []NodeKind{
	NodeKindPC,
	NodeKindLaptop,
	NodeKindPrinter,
	NodeKindScanner,
	NodeKindLanSwitch,
	NodeKindWanRouter,
	NodeKindFirewall,
	NodeKindServer,
	NodeKindMonitoredDevice,
}

// Valid reports whether k is a known node kind
func (k NodeKind) Valid() bool {
	for _, known := range NodeKinds {
		if k == known {
			return true
		}
	}
	return false
}

// NodeStatus represents the liveness of the device behind a node
type NodeStatus string

const (
	NodeStatusOnline  NodeStatus = "online"
	NodeStatusIdle    NodeStatus = "idle"
	NodeStatusOffline NodeStatus = "offline"
)

// Valid reports whether s is a known status
func (s NodeStatus) Valid() bool {
	switch s {
	case NodeStatusOnline, NodeStatusIdle, NodeStatusOffline:
		return true
	}
	return false
}

// DeviceInfo is the inventory payload carried by device-sourced nodes
type DeviceInfo struct {
	OS         string `json:"os" yaml:"os"`
	AlertCount int    `json:"alertCount" yaml:"alertCount"`
	AppCount   int    `json:"appCount" yaml:"appCount"`
}

// Node represents a device box on the canvas
type Node struct {
	ID         string      `json:"id" yaml:"id"`
	Kind       NodeKind    `json:"kind" yaml:"kind"`
	Label      string      `json:"label" yaml:"label"`
	Position   Position    `json:"position" yaml:"position"`
	Status     NodeStatus  `json:"status" yaml:"status"`
	DeviceInfo *DeviceInfo `json:"deviceInfo" yaml:"deviceInfo,omitempty"`
}

// NewNode creates a palette node with the default online status
func NewNode(id string, kind NodeKind, label string, pos Position) Node {
	return Node{
		ID:       id,
		Kind:     kind,
		Label:    label,
		Position: pos,
		Status:   NodeStatusOnline,
	}
}

// IsDevice reports whether the node was sourced from the device inventory
func (n Node) IsDevice() bool {
	return n.DeviceInfo != nil
}

// Clone returns a deep copy of the node
func (n Node) Clone() Node {
	if n.DeviceInfo != nil {
		info := *n.DeviceInfo
		n.DeviceInfo = &info
	}
	return n
}
