package server

import (
	"fmt"

	"github.com/TFMV/rankgraph/editor"
	"github.com/TFMV/rankgraph/models"
)

// EventRequest is the wire form of an editor event. Type is the event name
// (primary_click, secondary_click, double_click, drag_move,
// background_click, add_node, toggle_linking, arrange).
type EventRequest struct {
	Type string   `json:"type"`
	Node *int     `json:"node,omitempty"`
	X    *float64 `json:"x,omitempty"`
	Y    *float64 `json:"y,omitempty"`
}

// Event converts the request into an editor event
func (r EventRequest) Event() (editor.Event, error) {
	switch r.Type {
	case "primary_click":
		id, err := r.node()
		if err != nil {
			return nil, err
		}
		return editor.PrimaryClick{Node: id}, nil
	case "double_click":
		id, err := r.node()
		if err != nil {
			return nil, err
		}
		return editor.DoubleClick{Node: id}, nil
	case "secondary_click":
		pos, err := r.position()
		if err != nil {
			return nil, err
		}
		return editor.SecondaryClick{Position: pos}, nil
	case "drag_move":
		id, err := r.node()
		if err != nil {
			return nil, err
		}
		pos, err := r.position()
		if err != nil {
			return nil, err
		}
		return editor.DragMove{Node: id, Position: pos}, nil
	case "background_click":
		return editor.BackgroundClick{}, nil
	case "add_node":
		return editor.AddNodeAction{}, nil
	case "toggle_linking":
		return editor.ToggleLinking{}, nil
	case "arrange":
		return editor.Arrange{}, nil
	case "":
		return nil, fmt.Errorf("missing event type")
	default:
		return nil, fmt.Errorf("unknown event type %q", r.Type)
	}
}

func (r EventRequest) node() (models.NodeID, error) {
	if r.Node == nil {
		return 0, fmt.Errorf("%s: missing node", r.Type)
	}
	return models.NodeID(*r.Node), nil
}

func (r EventRequest) position() (models.Position, error) {
	if r.X == nil || r.Y == nil {
		return models.Position{}, fmt.Errorf("%s: missing x or y", r.Type)
	}
	return models.Position{X: *r.X, Y: *r.Y}, nil
}
