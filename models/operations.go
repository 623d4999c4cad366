package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewGraph creates a new empty graph with a unique ID and timestamps
func NewGraph(name string) *Graph {
	now := time.Now()
	return &Graph{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		nodes:     []Node{},
		edges:     []Edge{},
	}
}

// touch records a topology change
func (g *Graph) touch(now time.Time) {
	g.revision++
	g.UpdatedAt = now
}

// AddNode inserts a node at pos and returns its id.
// The first node gets 0; later nodes get one more than the highest id ever
// allocated, so ids of removed nodes are not handed out again.
func (g *Graph) AddNode(pos Position) NodeID {
	now := time.Now()
	id := g.nextID
	g.nodes = append(g.nodes, Node{
		ID:        id,
		Position:  pos,
		CreatedAt: now,
		UpdatedAt: now,
	})
	g.nextID = id + 1
	g.touch(now)
	return id
}

// RestoreNode inserts a node with a caller-chosen id, used when seeding a
// graph from a file.
func (g *Graph) RestoreNode(id NodeID, pos Position) error {
	if id < 0 {
		return fmt.Errorf("invalid node id %d", id)
	}
	if g.indexOfNode(id) >= 0 {
		return fmt.Errorf("restoring node %d: %w", id, ErrDuplicateNode)
	}
	now := time.Now()
	g.nodes = append(g.nodes, Node{
		ID:        id,
		Position:  pos,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if id >= g.nextID {
		g.nextID = id + 1
	}
	g.touch(now)
	return nil
}

// RemoveNode removes a node and all edges touching it.
// It reports whether the node existed.
func (g *Graph) RemoveNode(id NodeID) bool {
	idx := g.indexOfNode(id)
	if idx < 0 {
		return false
	}
	g.nodes = append(g.nodes[:idx], g.nodes[idx+1:]...)

	// Remove all edges connected to the node
	kept := g.edges[:0]
	for _, edge := range g.edges {
		if edge.From != id && edge.To != id {
			kept = append(kept, edge)
		}
	}
	g.edges = kept

	g.touch(time.Now())
	return true
}

// MoveNode updates a node position. Unknown ids are ignored: drags can race
// against removal. Moves do not count as topology changes.
func (g *Graph) MoveNode(id NodeID, pos Position) bool {
	idx := g.indexOfNode(id)
	if idx < 0 {
		return false
	}
	g.nodes[idx].Position = pos
	g.nodes[idx].UpdatedAt = time.Now()
	return true
}

// UpsertEdge creates the edge from->to with weight 1, or strengthens it by
// one if it already exists.
func (g *Graph) UpsertEdge(from, to NodeID) (EdgeChange, error) {
	return g.StrengthenEdge(from, to, 1)
}

// StrengthenEdge adds by units of weight to from->to in one step, creating
// the edge if needed. It is equivalent to by calls of UpsertEdge.
func (g *Graph) StrengthenEdge(from, to NodeID, by int) (EdgeChange, error) {
	if by < 1 {
		return EdgeChange{}, fmt.Errorf("strengthen by %d: %w", by, ErrInvalidWeight)
	}
	if from == to {
		return EdgeChange{}, ErrSelfLink
	}
	if g.indexOfNode(from) < 0 {
		return EdgeChange{}, fmt.Errorf("source %d: %w", from, ErrUnknownNode)
	}
	if g.indexOfNode(to) < 0 {
		return EdgeChange{}, fmt.Errorf("target %d: %w", to, ErrUnknownNode)
	}

	now := time.Now()
	if idx := g.indexOfEdge(from, to); idx >= 0 {
		g.edges[idx].Weight += by
		g.edges[idx].UpdatedAt = now
		g.touch(now)
		return EdgeChange{Weight: g.edges[idx].Weight}, nil
	}

	g.edges = append(g.edges, Edge{
		From:      from,
		To:        to,
		Weight:    by,
		CreatedAt: now,
		UpdatedAt: now,
	})
	g.touch(now)
	return EdgeChange{Weight: by, Created: true}, nil
}

// RemoveEdge deletes the edge from->to and reports whether it existed
func (g *Graph) RemoveEdge(from, to NodeID) bool {
	idx := g.indexOfEdge(from, to)
	if idx < 0 {
		return false
	}
	g.edges = append(g.edges[:idx], g.edges[idx+1:]...)
	g.touch(time.Now())
	return true
}

// WeakenEdge decrements the weight of from->to. An edge whose weight reaches
// zero is removed. It returns the remaining weight and whether the edge existed.
func (g *Graph) WeakenEdge(from, to NodeID) (int, bool) {
	idx := g.indexOfEdge(from, to)
	if idx < 0 {
		return 0, false
	}
	if g.edges[idx].Weight <= 1 {
		g.edges = append(g.edges[:idx], g.edges[idx+1:]...)
		g.touch(time.Now())
		return 0, true
	}
	now := time.Now()
	g.edges[idx].Weight--
	g.edges[idx].UpdatedAt = now
	g.touch(now)
	return g.edges[idx].Weight, true
}

// Clone returns a deep copy sharing nothing with g
func (g *Graph) Clone() *Graph {
	c := *g
	c.nodes = append([]Node(nil), g.nodes...)
	c.edges = append([]Edge(nil), g.edges...)
	return &c
}

func (g *Graph) indexOfNode(id NodeID) int {
	for i := range g.nodes {
		if g.nodes[i].ID == id {
			return i
		}
	}
	return -1
}

func (g *Graph) indexOfEdge(from, to NodeID) int {
	for i := range g.edges {
		if g.edges[i].From == from && g.edges[i].To == to {
			return i
		}
	}
	return -1
}
