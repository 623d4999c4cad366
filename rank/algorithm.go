package rank

import (
	"math"

	"github.com/TFMV/rankgraph/models"
)

// Algorithm defines an interface for iterative ranking algorithms
type Algorithm interface {
	Initialize(links *LinkSet)
	Step() bool // Returns true once converged
	Scores() map[models.NodeID]float64
	GetName() string
}

// PowerIteration computes a stationary importance vector over a LinkSet
type PowerIteration struct {
	damping    float64
	tolerance  float64
	links      *LinkSet
	current    []float64
	next       []float64
	iterations int
	delta      float64
	stable     bool
}

// NewPowerIteration creates a power iteration with the given damping and tolerance
func NewPowerIteration(damping, tolerance float64) *PowerIteration {
	return &PowerIteration{
		damping:   damping,
		tolerance: tolerance,
	}
}

// GetName returns the name of the algorithm
func (p *PowerIteration) GetName() string {
	return "Power Iteration"
}

// Initialize starts from the uniform distribution
func (p *PowerIteration) Initialize(links *LinkSet) {
	n := links.Len()
	p.links = links
	p.current = make([]float64, n)
	p.next = make([]float64, n)
	p.iterations = 0
	p.delta = 0
	p.stable = n == 0

	for i := range p.current {
		p.current[i] = 1.0 / float64(n)
	}
}

// Step performs one redistribution and reports convergence
func (p *PowerIteration) Step() bool {
	if p.stable {
		return true
	}
	n := len(p.current)
	d := p.damping

	// Mass on nodes without unit links is spread uniformly
	dangling := 0.0
	for i, total := range p.links.outWeight {
		if total == 0 {
			dangling += p.current[i]
		}
	}

	base := (1-d)/float64(n) + d*dangling/float64(n)
	for j := range p.next {
		p.next[j] = base
	}
	for i, targets := range p.links.out {
		total := p.links.outWeight[i]
		if total == 0 {
			continue
		}
		unit := d * p.current[i] / float64(total)
		for _, l := range targets {
			p.next[l.to] += unit * float64(l.weight)
		}
	}

	// Renormalise against floating point drift
	total := 0.0
	for _, v := range p.next {
		total += v
	}
	if total > 0 {
		for j := range p.next {
			p.next[j] /= total
		}
	}

	delta := 0.0
	for j := range p.next {
		delta = math.Max(delta, math.Abs(p.next[j]-p.current[j]))
	}

	p.current, p.next = p.next, p.current
	p.delta = delta
	p.iterations++
	p.stable = delta < p.tolerance
	return p.stable
}

// Scores returns the current vector keyed by node id
func (p *PowerIteration) Scores() map[models.NodeID]float64 {
	scores := make(map[models.NodeID]float64, len(p.current))
	for i, v := range p.current {
		scores[p.links.ids[i]] = v
	}
	return scores
}

// Iterations returns the number of steps taken
func (p *PowerIteration) Iterations() int {
	return p.iterations
}

// Delta returns the max per-node change of the last step
func (p *PowerIteration) Delta() float64 {
	return p.delta
}
