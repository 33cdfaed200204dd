package domain

// ConnectionType is the semantic category of an edge
type ConnectionType string

const (
	ConnTypeEthernet ConnectionType = "ethernet"
	ConnTypeFiber    ConnectionType = "fiber"
	ConnTypeWifi     ConnectionType = "wifi"
	ConnTypeVPN      ConnectionType = "vpn"
	ConnTypePower    ConnectionType = "power"
)

// ConnectionProfile is the rendering and semantic profile of a connection type
type ConnectionProfile struct {
	Type        ConnectionType `json:"type"`
	DisplayName string         `json:"displayName"`
	StrokeWidth int            `json:"strokeWidth"`
	Color       string         `json:"color"`
	Dashed      bool           `json:"dashed"`
	Animated    bool           `json:"animated"`
}

var connectionProfiles = []ConnectionProfile{
	{Type: ConnTypeEthernet, DisplayName: "Ethernet", StrokeWidth: 2, Color: "#2563eb"},
	{Type: ConnTypeFiber, DisplayName: "Fiber", StrokeWidth: 3, Color: "#f97316", Animated: true},
	{Type: ConnTypeWifi, DisplayName: "Wi-Fi", StrokeWidth: 2, Color: "#10b981", Dashed: true, Animated: true},
	{Type: ConnTypeVPN, DisplayName: "VPN Tunnel", StrokeWidth: 2, Color: "#8b5cf6", Dashed: true},
	{Type: ConnTypePower, DisplayName: "Power", StrokeWidth: 4, Color: "#ef4444"},
}

// ResolveConnectionType looks up the profile for a connection type
func ResolveConnectionType(t ConnectionType) (ConnectionProfile, error) {
	for _, p := range connectionProfiles {
		if p.Type == t {
			return p, nil
		}
	}
	return ConnectionProfile{}, &OpError{Op: "resolve connection type", ID: string(t), Err: ErrUnknownConnectionType}
}

// ConnectionTypes returns the full catalog in a stable order
func ConnectionTypes() []ConnectionProfile {
	out := make([]ConnectionProfile, len(connectionProfiles))
	copy(out, connectionProfiles)
	return out
}
