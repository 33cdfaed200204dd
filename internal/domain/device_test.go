package domain

import (
	"testing"
	"time"
)

func TestDeviceRecordStatusAt(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		lastSeen time.Time
		want     NodeStatus
	}{
		{"just now", now, NodeStatusOnline},
		{"exactly five minutes", now.Add(-5 * time.Minute), NodeStatusOnline},
		{"six minutes", now.Add(-6 * time.Minute), NodeStatusIdle},
		{"exactly thirty minutes", now.Add(-30 * time.Minute), NodeStatusIdle},
		{"an hour", now.Add(-time.Hour), NodeStatusOffline},
		{"future timestamp", now.Add(time.Minute), NodeStatusOnline},
		{"never seen", time.Time{}, NodeStatusOffline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := DeviceRecord{DeviceID: "d1", LastSeen: tt.lastSeen}
			if got := record.StatusAt(now); got != tt.want {
				t.Errorf("StatusAt() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDeviceRecordToCandidate(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	record := DeviceRecord{
		DeviceID:   "abc",
		Hostname:   "ws-042",
		OSName:     "Windows 11",
		LastSeen:   now.Add(-10 * time.Minute),
		AppCount:   17,
		AlertCount: 2,
	}

	c := record.ToCandidate(now)

	if c.Kind != NodeKindMonitoredDevice {
		t.Errorf("expected MonitoredDevice, got %s", c.Kind)
	}
	if c.Label != "ws-042" {
		t.Errorf("expected label from hostname, got %s", c.Label)
	}
	if c.Status != NodeStatusIdle {
		t.Errorf("expected idle, got %s", c.Status)
	}
	if c.DeviceInfo.OS != "Windows 11" || c.DeviceInfo.AppCount != 17 || c.DeviceInfo.AlertCount != 2 {
		t.Errorf("unexpected device info: %+v", c.DeviceInfo)
	}

	t.Run("falls back to device ID for label", func(t *testing.T) {
		c := DeviceRecord{DeviceID: "abc"}.ToCandidate(now)
		if c.Label != "abc" {
			t.Errorf("expected label 'abc', got %s", c.Label)
		}
	})
}
