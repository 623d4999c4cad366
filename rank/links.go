package rank

import "github.com/TFMV/rankgraph/models"

// Link is a weighted transition out of a node. A weight of w stands for w
// unit links to the same target.
type Link struct {
	To     models.NodeID
	Weight int
}

type link struct {
	to     int
	weight int
}

// LinkSet is the transition structure the power iteration runs on. Every
// edge of weight w counts as w unit links; isolated nodes carry one
// synthetic self-loop.
type LinkSet struct {
	ids       []models.NodeID
	index     map[models.NodeID]int
	out       [][]link // by source index
	outWeight []int    // unit links leaving each source
}

// Expand builds the link structure for the current graph. Memory is one
// entry per edge regardless of weight.
//
// Only nodes with no incident edge at all receive a self-loop. A node with
// incoming edges but no outgoing ones is left without links and is treated
// as dangling by the iteration.
func Expand(graph *models.Graph) *LinkSet {
	nodes := graph.Nodes()
	ls := &LinkSet{
		ids:       make([]models.NodeID, len(nodes)),
		index:     make(map[models.NodeID]int, len(nodes)),
		out:       make([][]link, len(nodes)),
		outWeight: make([]int, len(nodes)),
	}
	for i, n := range nodes {
		ls.ids[i] = n.ID
		ls.index[n.ID] = i
	}

	touched := make([]bool, len(nodes))
	for _, e := range graph.Edges() {
		from, okFrom := ls.index[e.From]
		to, okTo := ls.index[e.To]
		if !okFrom || !okTo || e.Weight < 1 {
			continue
		}
		ls.out[from] = append(ls.out[from], link{to: to, weight: e.Weight})
		ls.outWeight[from] += e.Weight
		touched[from] = true
		touched[to] = true
	}

	for i := range nodes {
		if !touched[i] {
			ls.out[i] = append(ls.out[i], link{to: i, weight: 1})
			ls.outWeight[i] = 1
		}
	}

	return ls
}

// Len returns the number of nodes in the set
func (ls *LinkSet) Len() int {
	return len(ls.ids)
}

// UnitLinks returns the number of unit links leaving id
func (ls *LinkSet) UnitLinks(id models.NodeID) int {
	i, ok := ls.index[id]
	if !ok {
		return 0
	}
	return ls.outWeight[i]
}

// Targets returns the weighted links leaving id
func (ls *LinkSet) Targets(id models.NodeID) []Link {
	i, ok := ls.index[id]
	if !ok {
		return nil
	}
	targets := make([]Link, len(ls.out[i]))
	for k, l := range ls.out[i] {
		targets[k] = Link{To: ls.ids[l.to], Weight: l.weight}
	}
	return targets
}
