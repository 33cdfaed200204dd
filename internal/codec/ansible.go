package codec

import (
	"fmt"
	"io"
	"strings"

	"netcanvas/internal/domain"

	"gopkg.in/yaml.v3"
)

// AnsibleCodec exports a snapshot as an Ansible inventory.
// Nodes are grouped by kind; connections become host vars listing peers.
type AnsibleCodec struct{}

// NewAnsibleCodec creates a new Ansible codec
func NewAnsibleCodec() *AnsibleCodec {
	return &AnsibleCodec{}
}

// Format returns the codec format identifier
func (c *AnsibleCodec) Format() string {
	return "ansible-inventory"
}

// ContentType returns the MIME type of exported documents
func (c *AnsibleCodec) ContentType() string {
	return "application/yaml"
}

// ansibleInventory represents the Ansible inventory structure
type ansibleInventory struct {
	All ansibleGroup `yaml:"all"`
}

type ansibleGroup struct {
	Children map[string]ansibleGroupDef `yaml:"children,omitempty"`
	Vars     map[string]interface{}     `yaml:"vars,omitempty"`
}

type ansibleGroupDef struct {
	Hosts map[string]ansibleHost `yaml:"hosts,omitempty"`
}

type ansibleHost struct {
	Label    string        `yaml:"netcanvas_label"`
	Status   string        `yaml:"netcanvas_status"`
	OS       string        `yaml:"netcanvas_os,omitempty"`
	Links    []ansibleLink `yaml:"netcanvas_links,omitempty"`
	Position []float64     `yaml:"netcanvas_position,flow"`
}

type ansibleLink struct {
	Peer  string `yaml:"peer"`
	Type  string `yaml:"type"`
	Label string `yaml:"label,omitempty"`
}

// Export writes the inventory
func (c *AnsibleCodec) Export(snap *domain.Snapshot, w io.Writer) error {
	inv := ansibleInventory{All: ansibleGroup{
		Children: make(map[string]ansibleGroupDef),
		Vars:     map[string]interface{}{"netcanvas_snapshot": snap.Name},
	}}

	hostNames := make(map[string]string, len(snap.Nodes))
	taken := make(map[string]bool, len(snap.Nodes))
	for _, n := range snap.Nodes {
		name := hostName(n)
		if taken[name] {
			name = n.ID
		}
		taken[name] = true
		hostNames[n.ID] = name
	}

	for _, n := range snap.Nodes {
		group := groupName(n.Kind)
		def, ok := inv.All.Children[group]
		if !ok {
			def = ansibleGroupDef{Hosts: make(map[string]ansibleHost)}
		}

		host := ansibleHost{
			Label:    n.Label,
			Status:   string(n.Status),
			Position: []float64{n.Position.X, n.Position.Y},
		}
		if n.DeviceInfo != nil {
			host.OS = n.DeviceInfo.OS
		}
		for _, e := range snap.Edges {
			if !e.Involves(n.ID) {
				continue
			}
			host.Links = append(host.Links, ansibleLink{
				Peer:  hostNames[e.OtherEnd(n.ID)],
				Type:  string(e.ConnectionType),
				Label: e.Label,
			})
		}

		def.Hosts[hostNames[n.ID]] = host
		inv.All.Children[group] = def
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(inv); err != nil {
		return fmt.Errorf("failed to encode Ansible inventory: %w", err)
	}
	return nil
}

// groupName converts a node kind to an inventory group, e.g. LanSwitch -> lan_switch
func groupName(kind domain.NodeKind) string {
	var b strings.Builder
	prevLower := false
	for _, r := range string(kind) {
		if r >= 'A' && r <= 'Z' {
			if prevLower {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
			prevLower = false
		} else {
			prevLower = true
		}
		b.WriteRune(r)
	}
	return b.String()
}

// hostName prefers the node label when it is a usable inventory hostname
func hostName(n domain.Node) string {
	label := strings.TrimSpace(n.Label)
	if label == "" || strings.ContainsAny(label, " \t:") {
		return n.ID
	}
	return label
}
