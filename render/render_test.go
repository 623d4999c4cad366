package render

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/TFMV/rankgraph/editor"
	"github.com/TFMV/rankgraph/logging"
	"github.com/TFMV/rankgraph/models"
)

func testSnapshot(t *testing.T) (*editor.Machine, editor.Snapshot) {
	t.Helper()
	g := models.NewGraph("demo")
	g.AddNode(models.Position{X: 100, Y: 100})
	g.AddNode(models.Position{X: 300, Y: 200})
	g.AddNode(models.Position{X: 500, Y: 400})

	m := editor.NewMachine(context.Background(), g, nil, editor.Canvas{Width: 800, Height: 600}, logging.Discard())
	ctx := context.Background()
	for _, ev := range []editor.Event{
		editor.PrimaryClick{Node: 0}, editor.PrimaryClick{Node: 1},
		editor.PrimaryClick{Node: 0}, editor.PrimaryClick{Node: 1},
		editor.PrimaryClick{Node: 1}, editor.PrimaryClick{Node: 2},
		editor.PrimaryClick{Node: 2},
	} {
		m.Handle(ctx, ev)
	}
	return m, m.Snapshot(nil)
}

func TestBuildView(t *testing.T) {
	_, snap := testSnapshot(t)
	view := BuildView(snap, nil)

	if len(view.Nodes) != 3 || len(view.Edges) != 2 {
		t.Fatalf("Expected 3 nodes and 2 edges, got %d and %d", len(view.Nodes), len(view.Edges))
	}

	palette := DefaultPalette()
	for i, n := range view.Nodes {
		if n.Color != palette.Colors[i] {
			t.Errorf("Node %d: expected color %s, got %s", n.ID, palette.Colors[i], n.Color)
		}
		if len(n.Label) != 5 {
			t.Errorf("Node %d: expected a three-decimal label, got %q", n.ID, n.Label)
		}
	}
	if !view.Nodes[2].Selected || view.Nodes[0].Selected {
		t.Error("Expected only node 2 to be selected")
	}

	e := view.Edges[0]
	if e.From != 0 || e.To != 1 || e.Weight != 2 {
		t.Errorf("Unexpected first edge %+v", e)
	}
	if e.X1 != 100 || e.Y1 != 100 || e.X2 != 300 || e.Y2 != 200 {
		t.Errorf("Edge endpoints not resolved: %+v", e)
	}
	if view.State != "SELECTED" {
		t.Errorf("Expected SELECTED, got %s", view.State)
	}
}

func TestBuildViewUnrankedNodeShowsZero(t *testing.T) {
	snap := editor.Snapshot{
		Graph: models.Snapshot{Nodes: []models.Node{{ID: 4}}},
	}
	view := BuildView(snap, nil)
	if view.Nodes[0].Label != "0.000" {
		t.Errorf("Expected 0.000, got %s", view.Nodes[0].Label)
	}
}

func TestPaletteWraps(t *testing.T) {
	p := DefaultPalette()
	if p.Color(8) != p.Color(0) || p.Color(9) != "#BD5A14" {
		t.Error("Expected palette to wrap around after eight colors")
	}
}

func TestShadeFullRankKeepsBase(t *testing.T) {
	p := DefaultPalette()
	if got := p.Shade("#1E67DC", 0.5, 0.5); !strings.EqualFold(got, "#1e67dc") {
		t.Errorf("Expected base color at top rank, got %s", got)
	}
	if got := p.Shade("#1E67DC", 0.1, 0.5); strings.EqualFold(got, "#1e67dc") {
		t.Error("Expected lower rank to be lighter")
	}
	if got := p.Shade("not-a-color", 0.1, 0.5); got != "not-a-color" {
		t.Errorf("Expected invalid color to pass through, got %s", got)
	}
}

func TestFingerprint(t *testing.T) {
	m, snap := testSnapshot(t)
	a, err := Fingerprint(BuildView(snap, nil))
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}

	withNotices := m.Snapshot([]editor.Notice{{Kind: editor.NoticeLinked, From: 0, To: 1}})
	b, _ := Fingerprint(BuildView(withNotices, nil))
	if a != b {
		t.Error("Notices should not change the fingerprint")
	}

	m.Handle(context.Background(), editor.DragMove{Node: 0, Position: models.Position{X: 10, Y: 10}})
	c, _ := Fingerprint(BuildView(m.Snapshot(nil), nil))
	if a == c {
		t.Error("Moving a node should change the fingerprint")
	}
	if len(a) != 32 {
		t.Errorf("Expected 32 hex characters, got %d", len(a))
	}
}

func TestRenderers(t *testing.T) {
	_, snap := testSnapshot(t)
	view := BuildView(snap, nil)

	tests := []struct {
		format string
		want   []string
	}{
		{"svg", []string{"<svg", `data-id="2"`, "marker-end", "#FFD700", ">2</text>"}},
		{"ascii", []string{"rankgraph - demo", "@", "edge 0 -> 1 weight 2"}},
		{"dot", []string{"digraph G", "n0 -> n1 [weight=2", `label="2"`}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out, err := Generate(view, NewDefaultOptions(tt.format))
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(string(out), want) {
					t.Errorf("Output missing %q", want)
				}
			}
		})
	}
}

func TestJSONRenderer(t *testing.T) {
	_, snap := testSnapshot(t)
	out, err := Generate(BuildView(snap, nil), NewDefaultOptions("json"))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	var decoded struct {
		Nodes    []NodeView             `json:"nodes"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(decoded.Nodes) != 3 {
		t.Errorf("Expected 3 nodes, got %d", len(decoded.Nodes))
	}
	if decoded.Metadata["edgeCount"] != float64(2) {
		t.Errorf("Expected edgeCount 2, got %v", decoded.Metadata["edgeCount"])
	}
}

func TestGetRendererUnknownFormat(t *testing.T) {
	if _, err := GetRenderer("png"); err == nil {
		t.Error("Expected error for unsupported format")
	}
	r, err := GetRenderer("SVG")
	if err != nil || r.ContentType() != "image/svg+xml" {
		t.Errorf("Expected case-insensitive SVG renderer, got %v, %v", r, err)
	}
}

func TestRenderersUseViewPalette(t *testing.T) {
	_, snap := testSnapshot(t)
	palette := &Palette{Colors: DefaultPalette().Colors, Selected: "#ABCDEF", Edge: "#123456"}
	view := BuildView(snap, palette)

	if view.EdgeColor != "#123456" || view.SelectColor != "#ABCDEF" {
		t.Fatalf("Expected palette colours on the view, got %q and %q", view.EdgeColor, view.SelectColor)
	}

	svg, err := Generate(view, NewDefaultOptions("svg"))
	if err != nil {
		t.Fatalf("svg: %v", err)
	}
	for _, want := range []string{`stroke="#123456"`, `stroke="#ABCDEF"`} {
		if !strings.Contains(string(svg), want) {
			t.Errorf("svg missing %s", want)
		}
	}
	for _, unwanted := range []string{"#666666", "#FFD700"} {
		if strings.Contains(string(svg), unwanted) {
			t.Errorf("svg still uses default colour %s", unwanted)
		}
	}

	dot, err := Generate(view, NewDefaultOptions("dot"))
	if err != nil {
		t.Fatalf("dot: %v", err)
	}
	if !strings.Contains(string(dot), `color="#ABCDEF"`) {
		t.Errorf("dot missing selection colour:\n%s", dot)
	}
}
