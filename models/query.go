package models

// Nodes returns the nodes in insertion order. The slice is a copy.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns the edges in insertion order. The slice is a copy.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Len returns the number of nodes
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Revision counts topology changes. Position moves do not bump it.
func (g *Graph) Revision() uint64 {
	return g.revision
}

// Node returns the node with the given id
func (g *Graph) Node(id NodeID) (Node, bool) {
	if idx := g.indexOfNode(id); idx >= 0 {
		return g.nodes[idx], true
	}
	return Node{}, false
}

// HasNode reports whether id is a current node
func (g *Graph) HasNode(id NodeID) bool {
	return g.indexOfNode(id) >= 0
}

// Edge returns the edge from->to
func (g *Graph) Edge(from, to NodeID) (Edge, bool) {
	if idx := g.indexOfEdge(from, to); idx >= 0 {
		return g.edges[idx], true
	}
	return Edge{}, false
}

// OutgoingEdges returns all edges originating from a node
func (g *Graph) OutgoingEdges(id NodeID) []Edge {
	var result []Edge
	for _, edge := range g.edges {
		if edge.From == id {
			result = append(result, edge)
		}
	}
	return result
}

// IncomingEdges returns all edges targeting a node
func (g *Graph) IncomingEdges(id NodeID) []Edge {
	var result []Edge
	for _, edge := range g.edges {
		if edge.To == id {
			result = append(result, edge)
		}
	}
	return result
}

// IsIsolated reports whether no edge touches the node in either direction
func (g *Graph) IsIsolated(id NodeID) bool {
	for _, edge := range g.edges {
		if edge.From == id || edge.To == id {
			return false
		}
	}
	return true
}

// NextID returns the id the next AddNode call will allocate
func (g *Graph) NextID() NodeID {
	return g.nextID
}
