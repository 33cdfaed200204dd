package domain

import (
	"testing"
)

func TestNewNode(t *testing.T) {
	node := NewNode("node-1", NodeKindLanSwitch, "Core Switch", NewPosition(10, 20))

	if node.ID != "node-1" {
		t.Errorf("expected ID 'node-1', got %s", node.ID)
	}
	if node.Kind != NodeKindLanSwitch {
		t.Errorf("expected kind LanSwitch, got %s", node.Kind)
	}
	if node.Status != NodeStatusOnline {
		t.Errorf("expected default status online, got %s", node.Status)
	}
	if node.DeviceInfo != nil {
		t.Error("expected palette node to have no device info")
	}
	if node.IsDevice() {
		t.Error("expected palette node not to be a device")
	}
}

func TestNodeKindValid(t *testing.T) {
	for _, kind := range NodeKinds {
		if !kind.Valid() {
			t.Errorf("expected %s to be valid", kind)
		}
	}

	if NodeKind("Toaster").Valid() {
		t.Error("expected unknown kind to be invalid")
	}
	if len(NodeKinds) != 9 {
		t.Errorf("expected 9 node kinds, got %d", len(NodeKinds))
	}
}

func TestNodeStatusValid(t *testing.T) {
	tests := []struct {
		status NodeStatus
		want   bool
	}{
		{NodeStatusOnline, true},
		{NodeStatusIdle, true},
		{NodeStatusOffline, true},
		{NodeStatus("degraded"), false},
		{NodeStatus(""), false},
	}

	for _, tt := range tests {
		if got := tt.status.Valid(); got != tt.want {
			t.Errorf("NodeStatus(%q).Valid() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestNodeClone(t *testing.T) {
	t.Run("copies device info", func(t *testing.T) {
		node := NewNode("device-1", NodeKindMonitoredDevice, "host", NewPosition(0, 0))
		node.DeviceInfo = &DeviceInfo{OS: "Linux", AppCount: 3}

		clone := node.Clone()
		clone.DeviceInfo.AppCount = 99

		if node.DeviceInfo.AppCount != 3 {
			t.Error("expected clone to be independent of original")
		}
	})

	t.Run("nil device info stays nil", func(t *testing.T) {
		node := NewNode("node-1", NodeKindPC, "PC", NewPosition(0, 0))
		if node.Clone().DeviceInfo != nil {
			t.Error("expected nil device info")
		}
	})
}
