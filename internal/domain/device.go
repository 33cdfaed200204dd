package domain

import "time"

// Thresholds for deriving a device's status from how recently it was seen
const (
	OnlineWindow = 5 * time.Minute
	IdleWindow   = 30 * time.Minute
)

// DeviceRecord is a read-only entry from the device inventory API
type DeviceRecord struct {
	DeviceID   string    `json:"deviceId"`
	Hostname   string    `json:"hostname"`
	OSName     string    `json:"osName"`
	LastSeen   time.Time `json:"lastSeenTimestamp"`
	AppCount   int       `json:"appCount"`
	AlertCount int       `json:"alertCount,omitempty"`
}

// StatusAt derives the device status relative to now.
// A zero LastSeen means the device has never reported and is offline.
func (d DeviceRecord) StatusAt(now time.Time) NodeStatus {
	if d.LastSeen.IsZero() {
		return NodeStatusOffline
	}
	age := now.Sub(d.LastSeen)
	switch {
	case age <= OnlineWindow:
		return NodeStatusOnline
	case age <= IdleWindow:
		return NodeStatusIdle
	default:
		return NodeStatusOffline
	}
}

// Candidate is a device-derived node descriptor not yet placed on the canvas
type Candidate struct {
	DeviceID   string     `json:"deviceId"`
	Kind       NodeKind   `json:"kind"`
	Label      string     `json:"label"`
	Status     NodeStatus `json:"status"`
	DeviceInfo DeviceInfo `json:"deviceInfo"`
	LastSeen   time.Time  `json:"lastSeen"`
}

// ToCandidate maps an inventory record to a candidate node
func (d DeviceRecord) ToCandidate(now time.Time) Candidate {
	label := d.Hostname
	if label == "" {
		label = d.DeviceID
	}
	return Candidate{
		DeviceID: d.DeviceID,
		Kind:     NodeKindMonitoredDevice,
		Label:    label,
		Status:   d.StatusAt(now),
		DeviceInfo: DeviceInfo{
			OS:         d.OSName,
			AlertCount: d.AlertCount,
			AppCount:   d.AppCount,
		},
		LastSeen: d.LastSeen,
	}
}
