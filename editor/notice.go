package editor

import (
	"fmt"

	"github.com/TFMV/rankgraph/models"
)

// NoticeKind classifies a user-facing message
type NoticeKind int

const (
	NoticeLinked NoticeKind = iota
	NoticeStrengthened
	NoticeUnlinked
	NoticeNoOp
	NoticeAdded
	NoticeRemoved
)

// String returns the notice kind name
func (k NoticeKind) String() string {
	switch k {
	case NoticeLinked:
		return "linked"
	case NoticeStrengthened:
		return "strengthened"
	case NoticeUnlinked:
		return "unlinked"
	case NoticeNoOp:
		return "no-op"
	case NoticeAdded:
		return "added"
	case NoticeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Mutation names the graph change behind the notice, or "" when nothing
// changed
func (k NoticeKind) Mutation() string {
	switch k {
	case NoticeLinked:
		return "link"
	case NoticeStrengthened:
		return "strengthen"
	case NoticeUnlinked:
		return "unlink"
	case NoticeAdded:
		return "add_node"
	case NoticeRemoved:
		return "remove_node"
	default:
		return ""
	}
}

// MarshalText encodes the kind by name
func (k NoticeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Notice is a transient message for the presentation layer
type Notice struct {
	Kind   NoticeKind    `json:"kind"`
	From   models.NodeID `json:"from"`
	To     models.NodeID `json:"to"`
	Node   models.NodeID `json:"node"`
	Weight int           `json:"weight,omitempty"`
}

// Message renders the notice as a short sentence
func (n Notice) Message() string {
	switch n.Kind {
	case NoticeLinked:
		return fmt.Sprintf("Linked %d → %d", n.From, n.To)
	case NoticeStrengthened:
		return fmt.Sprintf("Strengthened %d → %d (weight %d)", n.From, n.To, n.Weight)
	case NoticeUnlinked:
		return fmt.Sprintf("Unlinked %d → %d", n.From, n.To)
	case NoticeAdded:
		return fmt.Sprintf("Added node %d", n.Node)
	case NoticeRemoved:
		return fmt.Sprintf("Removed node %d", n.Node)
	default:
		return "Nothing to do"
	}
}
