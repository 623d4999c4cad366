package render

import (
	"encoding/hex"
	"encoding/json"

	"lukechampine.com/blake3"

	"github.com/TFMV/rankgraph/editor"
	"github.com/TFMV/rankgraph/models"
)

// NodeView is one drawable node
type NodeView struct {
	ID       models.NodeID `json:"id"`
	X        float64       `json:"x"`
	Y        float64       `json:"y"`
	Rank     float64       `json:"rank"`
	Label    string        `json:"label"` // rank with three decimals
	Color    string        `json:"color"`
	Fill     string        `json:"fill"`
	Selected bool          `json:"selected,omitempty"`
}

// EdgeView is one drawable edge with resolved endpoint coordinates
type EdgeView struct {
	From   models.NodeID `json:"from"`
	To     models.NodeID `json:"to"`
	X1     float64       `json:"x1"`
	Y1     float64       `json:"y1"`
	X2     float64       `json:"x2"`
	Y2     float64       `json:"y2"`
	Weight int           `json:"weight"`
}

// View is the presentation-ready projection of an editor snapshot
type View struct {
	GraphID      string           `json:"graph_id"`
	Name         string           `json:"name"`
	Revision     uint64           `json:"revision"`
	State        string           `json:"state"`
	Linking      bool             `json:"linking"`
	Converged    bool             `json:"converged"`
	Nodes        []NodeView       `json:"nodes"`
	Edges        []EdgeView       `json:"edges"`
	EdgeColor    string           `json:"edge_color"`
	SelectColor  string           `json:"select_color"`
	Selection    *models.NodeID   `json:"selection,omitempty"`
	PendingSpawn *models.Position `json:"pending_spawn,omitempty"`
	Notices      []string         `json:"notices,omitempty"`
}

// BuildView resolves a snapshot into nodes and edges ready for drawing
func BuildView(snap editor.Snapshot, palette *Palette) *View {
	if palette == nil {
		palette = DefaultPalette()
	}
	ranks := snap.Result()

	top := 0.0
	for _, score := range ranks.Scores {
		if score > top {
			top = score
		}
	}

	view := &View{
		GraphID:      snap.Graph.ID,
		Name:         snap.Graph.Name,
		Revision:     snap.Graph.Revision,
		State:        snap.State.String(),
		Linking:      snap.Linking,
		Converged:    ranks.Converged,
		Nodes:        make([]NodeView, 0, len(snap.Graph.Nodes)),
		Edges:        make([]EdgeView, 0, len(snap.Graph.Edges)),
		EdgeColor:    palette.Edge,
		SelectColor:  palette.Selected,
		Selection:    snap.Selection,
		PendingSpawn: snap.PendingSpawn,
	}

	positions := make(map[models.NodeID]models.Position, len(snap.Graph.Nodes))
	for i, n := range snap.Graph.Nodes {
		positions[n.ID] = n.Position
		color := palette.Color(i)
		score := ranks.Score(n.ID)
		view.Nodes = append(view.Nodes, NodeView{
			ID:       n.ID,
			X:        n.Position.X,
			Y:        n.Position.Y,
			Rank:     score,
			Label:    ranks.Format(n.ID),
			Color:    color,
			Fill:     palette.Shade(color, score, top),
			Selected: snap.Selection != nil && *snap.Selection == n.ID,
		})
	}

	for _, e := range snap.Graph.Edges {
		from, okFrom := positions[e.From]
		to, okTo := positions[e.To]
		if !okFrom || !okTo {
			continue
		}
		view.Edges = append(view.Edges, EdgeView{
			From:   e.From,
			To:     e.To,
			X1:     from.X,
			Y1:     from.Y,
			X2:     to.X,
			Y2:     to.Y,
			Weight: e.Weight,
		})
	}

	for _, n := range snap.Notices {
		view.Notices = append(view.Notices, n.Message())
	}

	return view
}

// Fingerprint returns a content hash of the view suitable for an ETag.
// Notices are transient and do not contribute.
func Fingerprint(view *View) (string, error) {
	stable := *view
	stable.Notices = nil
	data, err := json.Marshal(stable)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:16]), nil
}

// colors returns the edge and selection colours, defaulting when unset
func (v *View) colors() (edge, selected string) {
	edge, selected = v.EdgeColor, v.SelectColor
	if edge == "" || selected == "" {
		def := DefaultPalette()
		if edge == "" {
			edge = def.Edge
		}
		if selected == "" {
			selected = def.Selected
		}
	}
	return edge, selected
}
