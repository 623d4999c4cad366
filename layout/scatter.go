package layout

import (
	"math"

	"github.com/TFMV/rankgraph/models"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Scatter nudges nodes that share a coordinate apart with simplex noise, so
// repeated spawns at one spot do not hide each other
type Scatter struct {
	noise      opensimplex.Noise
	noiseScale float64
	amount     float64 // displacement radius in canvas units
}

// NewScatter creates a scatter with a fixed seed; the same seed always moves
// the same nodes the same way
func NewScatter(seed int64) *Scatter {
	return &Scatter{
		noise:      opensimplex.New(seed),
		noiseScale: 0.03,
		amount:     40.0,
	}
}

// Offset returns the displacement for the k-th duplicate at pos
func (s *Scatter) Offset(pos models.Position, k int) models.Position {
	phase := float64(k) * 0.7
	angle := math.Pi * (1 + s.noise.Eval3(pos.X*s.noiseScale, pos.Y*s.noiseScale, phase))
	radius := s.amount * (1 + 0.5*s.noise.Eval3(pos.Y*s.noiseScale+100, pos.X*s.noiseScale+100, phase))
	radius *= float64(k)
	return models.Position{
		X: pos.X + radius*math.Cos(angle),
		Y: pos.Y + radius*math.Sin(angle),
	}
}

// Apply moves every node after the first at each shared coordinate and
// returns how many nodes moved
func (s *Scatter) Apply(graph *models.Graph) int {
	seen := make(map[models.Position]int)
	moved := 0
	for _, n := range graph.Nodes() {
		k := seen[n.Position]
		seen[n.Position] = k + 1
		if k == 0 {
			continue
		}
		graph.MoveNode(n.ID, s.Offset(n.Position, k))
		moved++
	}
	return moved
}
