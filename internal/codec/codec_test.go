package codec

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"netcanvas/internal/domain"
)

func sampleSnapshot() *domain.Snapshot {
	sw := domain.NewNode("node-sw", domain.NodeKindLanSwitch, "core-sw", domain.NewPosition(100, 100))
	pc := domain.NewNode("device-42", domain.NodeKindMonitoredDevice, "ws-42", domain.NewPosition(350, 100))
	pc.Status = domain.NodeStatusOffline
	pc.DeviceInfo = &domain.DeviceInfo{OS: "macOS", AppCount: 9}

	return &domain.Snapshot{
		ID:    7,
		Name:  "HQ Layout",
		Nodes: []domain.Node{sw, pc},
		Edges: []domain.Edge{{
			ID:             "edge-node-sw-device-42-1",
			SourceNodeID:   sw.ID,
			TargetNodeID:   pc.ID,
			SourceHandle:   domain.HandleRight,
			TargetHandle:   domain.HandleLeft,
			ConnectionType: domain.ConnTypeEthernet,
			Label:          "port 12",
		}},
		SavedAt: time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
	}
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			exp, err := ExporterFor(format)
			if err != nil {
				t.Fatalf("ExporterFor(%q): %v", format, err)
			}
			imp, err := ImporterFor(format)
			if err != nil {
				t.Fatalf("ImporterFor(%q): %v", format, err)
			}

			want := sampleSnapshot()
			var buf bytes.Buffer
			if err := exp.Export(want, &buf); err != nil {
				t.Fatalf("Export: %v", err)
			}

			got, err := imp.Parse(&buf)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}

			if got.ID != 0 {
				t.Errorf("imported ID = %d, want 0", got.ID)
			}
			if got.Name != want.Name {
				t.Errorf("Name = %q, want %q", got.Name, want.Name)
			}
			if !got.SavedAt.Equal(want.SavedAt) {
				t.Errorf("SavedAt = %v, want %v", got.SavedAt, want.SavedAt)
			}
			if len(got.Nodes) != 2 || len(got.Edges) != 1 {
				t.Fatalf("got %d nodes %d edges", len(got.Nodes), len(got.Edges))
			}
			if got.Nodes[1].DeviceInfo == nil || got.Nodes[1].DeviceInfo.OS != "macOS" {
				t.Errorf("device info lost: %+v", got.Nodes[1].DeviceInfo)
			}
			if got.Nodes[0].DeviceInfo != nil {
				t.Errorf("manual node gained device info: %+v", got.Nodes[0].DeviceInfo)
			}
			if got.Edges[0] != want.Edges[0] {
				t.Errorf("edge = %+v, want %+v", got.Edges[0], want.Edges[0])
			}
		})
	}
}

func TestJSONFieldNames(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONCodec().Export(sampleSnapshot(), &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	out := buf.String()
	for _, field := range []string{`"sourceNodeId"`, `"targetHandle"`, `"connectionType"`, `"deviceInfo"`, `"savedAt"`, `"alertCount"`} {
		if !strings.Contains(out, field) {
			t.Errorf("expected %s in JSON output", field)
		}
	}
}

func TestParseDefaults(t *testing.T) {
	snap, err := NewJSONCodec().Parse(strings.NewReader(`{"id": 99}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if snap.ID != 0 || snap.Name != "imported" || snap.Nodes == nil || snap.Edges == nil {
		t.Errorf("unexpected defaults: %+v", snap)
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := NewJSONCodec().Parse(strings.NewReader("{")); err == nil {
		t.Error("expected JSON parse error")
	}
	if _, err := NewYAMLCodec().Parse(strings.NewReader("nodes: [")); err == nil {
		t.Error("expected YAML parse error")
	}
}

func TestFormatLookup(t *testing.T) {
	tests := []struct {
		format   string
		importer bool
		exporter bool
	}{
		{"json", true, true},
		{"JSON", true, true},
		{"yml", true, true},
		{"ansible", false, true},
		{"ansible-inventory", false, true},
		{"csv", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			_, err := ImporterFor(tt.format)
			if (err == nil) != tt.importer {
				t.Errorf("ImporterFor(%q) err = %v", tt.format, err)
			}
			if err != nil && !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("expected ErrUnsupportedFormat, got %v", err)
			}
			_, err = ExporterFor(tt.format)
			if (err == nil) != tt.exporter {
				t.Errorf("ExporterFor(%q) err = %v", tt.format, err)
			}
		})
	}
}

func TestAnsibleExport(t *testing.T) {
	snap := sampleSnapshot()
	snap.Nodes = append(snap.Nodes, domain.NewNode("node-dup", domain.NodeKindPC, "ws-42", domain.NewPosition(0, 0)))

	var buf bytes.Buffer
	if err := NewAnsibleCodec().Export(snap, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	var inv ansibleInventory
	if err := yaml.Unmarshal(buf.Bytes(), &inv); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}

	sw, ok := inv.All.Children["lan_switch"].Hosts["core-sw"]
	if !ok {
		t.Fatalf("core-sw missing from lan_switch group: %+v", inv.All.Children)
	}
	if len(sw.Links) != 1 || sw.Links[0].Peer != "ws-42" || sw.Links[0].Type != "ethernet" {
		t.Errorf("unexpected links: %+v", sw.Links)
	}

	device, ok := inv.All.Children["monitored_device"].Hosts["ws-42"]
	if !ok || device.OS != "macOS" {
		t.Errorf("device host missing or wrong: %+v", device)
	}

	if _, ok := inv.All.Children["pc"].Hosts["node-dup"]; !ok {
		t.Errorf("duplicate label should fall back to node id: %+v", inv.All.Children)
	}
}

func TestGroupName(t *testing.T) {
	tests := map[domain.NodeKind]string{
		domain.NodeKindLanSwitch:       "lan_switch",
		domain.NodeKindWanRouter:       "wan_router",
		domain.NodeKindServer:          "server",
		domain.NodeKindPC:              "pc",
		domain.NodeKindMonitoredDevice: "monitored_device",
	}
	for kind, want := range tests {
		if got := groupName(kind); got != want {
			t.Errorf("groupName(%s) = %q, want %q", kind, got, want)
		}
	}
}

func TestParseErrorsAreMalformed(t *testing.T) {
	_, err := NewJSONCodec().Parse(strings.NewReader(`{"nodes": 3}`))
	if !errors.Is(err, ErrMalformedDocument) {
		t.Errorf("expected ErrMalformedDocument, got %v", err)
	}
}

func TestParseKeepsDecodableElements(t *testing.T) {
	docs := map[string]string{
		"json": `{"name": "lab", "nodes": [
			{"id": "a", "kind": "PC", "label": "a", "position": {"x": 0, "y": 0}},
			{"id": "b", "kind": "PC", "position": {"x": "oops", "y": 0}}
		], "edges": [
			{"id": "e1", "sourceNodeId": {}, "targetNodeId": "a"}
		]}`,
		"yaml": `name: lab
nodes:
  - id: a
    kind: PC
    label: a
    position: {x: 0, y: 0}
  - id: b
    kind: PC
    position: {x: oops, y: 0}
edges:
  - id: e1
    sourceNodeId: {nested: true}
    targetNodeId: a
`,
	}

	for format, doc := range docs {
		t.Run(format, func(t *testing.T) {
			imp, err := ImporterFor(format)
			if err != nil {
				t.Fatalf("ImporterFor(%q): %v", format, err)
			}
			snap, err := imp.Parse(strings.NewReader(doc))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}

			if snap.Name != "lab" {
				t.Errorf("Name = %q, want lab", snap.Name)
			}
			if len(snap.Nodes) != 1 || snap.Nodes[0].ID != "a" {
				t.Fatalf("nodes = %+v, want only a", snap.Nodes)
			}
			if snap.Edges == nil || len(snap.Edges) != 0 {
				t.Errorf("edges = %#v, want empty", snap.Edges)
			}
			if len(snap.Malformed) != 2 {
				t.Fatalf("malformed = %+v, want 2 entries", snap.Malformed)
			}

			node, edge := snap.Malformed[0], snap.Malformed[1]
			if node.Kind != "node" || node.ID != "b" || node.Index != 1 {
				t.Errorf("malformed node = %+v", node)
			}
			if edge.Kind != "edge" || edge.ID != "e1" || edge.Index != 0 {
				t.Errorf("malformed edge = %+v", edge)
			}
			if !errors.Is(node.Err, domain.ErrMalformedElement) {
				t.Errorf("expected ErrMalformedElement, got %v", node.Err)
			}
		})
	}
}
