// Package layout positions nodes on the canvas. It only ever moves nodes:
// layouts never change topology, so they never trigger a rank recompute.
package layout

import (
	"math"

	"github.com/TFMV/rankgraph/models"
)

// Algorithm defines an interface for layout algorithms
type Algorithm interface {
	Initialize(graph *models.Graph)
	Step() bool // Returns true if stable, false if needs more steps
	Apply(graph *models.Graph)
	GetName() string
}

// Run initializes the algorithm, steps it until stable or maxSteps, and
// writes the positions back. It returns the number of steps taken.
func Run(alg Algorithm, graph *models.Graph, maxSteps int) int {
	alg.Initialize(graph)
	steps := 0
	for steps < maxSteps {
		steps++
		if alg.Step() {
			break
		}
	}
	alg.Apply(graph)
	return steps
}

// Arrange separates stacked nodes and then runs a force-directed layout
func Arrange(graph *models.Graph, width, height float64) int {
	NewScatter(1).Apply(graph)
	fd := NewForceDirected(width, height)
	return Run(fd, graph, fd.maxIterations)
}

// Circle returns n positions evenly spaced on a circle centred in the canvas
func Circle(n int, width, height float64) []models.Position {
	positions := make([]models.Position, n)
	if n == 0 {
		return positions
	}
	radius := math.Min(width, height) * 0.4
	cx, cy := width/2, height/2
	for i := range positions {
		angle := (2 * math.Pi * float64(i)) / float64(n)
		positions[i] = models.Position{
			X: cx + radius*math.Cos(angle),
			Y: cy + radius*math.Sin(angle),
		}
	}
	return positions
}
