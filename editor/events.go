package editor

import "github.com/TFMV/rankgraph/models"

// Event is one input from the presentation layer. The set is closed: only
// the types in this file implement it.
type Event interface {
	eventName() string
}

// PrimaryClick is a left click on a node
type PrimaryClick struct {
	Node models.NodeID
}

// SecondaryClick is a right click on the canvas background. Position is
// where a node would be spawned.
type SecondaryClick struct {
	Position models.Position
}

// DoubleClick on a node removes it
type DoubleClick struct {
	Node models.NodeID
}

// DragMove moves a node to a new position
type DragMove struct {
	Node     models.NodeID
	Position models.Position
}

// BackgroundClick is a click outside every tracked element
type BackgroundClick struct{}

// AddNodeAction confirms the "Add Node" menu entry for the pending spawn
type AddNodeAction struct{}

// ToggleLinking flips between linking and unlinking
type ToggleLinking struct{}

// Arrange re-lays out every node. Positions only; ranks are untouched.
type Arrange struct{}

func (PrimaryClick) eventName() string    { return "primary_click" }
func (SecondaryClick) eventName() string  { return "secondary_click" }
func (DoubleClick) eventName() string     { return "double_click" }
func (DragMove) eventName() string        { return "drag_move" }
func (BackgroundClick) eventName() string { return "background_click" }
func (AddNodeAction) eventName() string   { return "add_node" }
func (ToggleLinking) eventName() string   { return "toggle_linking" }
func (Arrange) eventName() string         { return "arrange" }

// EventName returns the wire name of an event
func EventName(ev Event) string {
	if ev == nil {
		return ""
	}
	return ev.eventName()
}
