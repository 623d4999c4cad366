// Package models provides the graph store for rankgraph.
// It defines the nodes and weighted edges the rank engine and the editor work on.
package models

import (
	"encoding/json"
	"time"
)

// NodeID identifies a node within one graph. Ids are never reused.
type NodeID int

// Position is a canvas coordinate. The core never interprets it.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node represents a node in the graph
type Node struct {
	ID        NodeID    `json:"id"`
	Position  Position  `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Edge represents a directed, weighted edge between two nodes
type Edge struct {
	From      NodeID    `json:"from"`
	To        NodeID    `json:"to"`
	Weight    int       `json:"weight"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EdgeChange reports the outcome of an UpsertEdge call
type EdgeChange struct {
	Weight  int
	Created bool
}

// Graph holds the authoritative node and edge sets.
//
// A Graph has a single mutator: it is not safe for concurrent use. Callers
// that share one across goroutines must serialise access themselves (the
// editor does this by owning its input channel).
type Graph struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time

	nodes    []Node
	edges    []Edge
	nextID   NodeID
	revision uint64
}

// Snapshot is the serialisable view of a graph
type Snapshot struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Revision uint64 `json:"revision"`
	Nodes    []Node `json:"nodes"`
	Edges    []Edge `json:"edges"`
}

// Snapshot returns a copy of the current graph state
func (g *Graph) Snapshot() Snapshot {
	return Snapshot{
		ID:       g.ID,
		Name:     g.Name,
		Revision: g.revision,
		Nodes:    g.Nodes(),
		Edges:    g.Edges(),
	}
}

// MarshalJSON encodes the graph through its snapshot
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Snapshot())
}
