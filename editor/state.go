package editor

// State represents where the interaction currently is
type State int

const (
	StateIdle         State = iota // No selection, no pending spawn
	StateNodeSelected              // A node is selected, waiting for the link target
	StateSpawnPending              // Context menu open at a spawn position
)

// String returns the state name for display
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateNodeSelected:
		return "SELECTED"
	case StateSpawnPending:
		return "SPAWN"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the state by name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
