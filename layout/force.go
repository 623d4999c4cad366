package layout

import (
	"math"
	"sort"

	"github.com/TFMV/rankgraph/models"
)

// Force vector components
type force struct {
	fx, fy float64
}

// Velocity vector components
type velocity struct {
	vx, vy float64
}

// ForceDirected implements a Fruchterman-Reingold style layout where heavier
// edges pull their endpoints closer together
type ForceDirected struct {
	width           float64
	height          float64
	order           []models.NodeID
	positions       map[models.NodeID]models.Position
	velocities      map[models.NodeID]velocity
	forces          map[models.NodeID]force
	weights         map[[2]models.NodeID]int // undirected pair -> summed weight
	pairs           [][2]models.NodeID       // keys of weights, sorted
	temperature     float64
	k               float64 // optimal distance
	iterations      int
	maxIterations   int
	stable          bool
	energyThreshold float64
	gravity         float64
	repulsionForce  float64
	dampingFactor   float64
	springConstant  float64
}

// NewForceDirected creates a force-directed layout for a canvas
func NewForceDirected(width, height float64) *ForceDirected {
	return &ForceDirected{
		width:           width,
		height:          height,
		positions:       make(map[models.NodeID]models.Position),
		velocities:      make(map[models.NodeID]velocity),
		forces:          make(map[models.NodeID]force),
		weights:         make(map[[2]models.NodeID]int),
		temperature:     10.0,
		maxIterations:   300,
		energyThreshold: 0.01,
		gravity:         0.05,
		repulsionForce:  100.0,
		dampingFactor:   0.9,
		springConstant:  0.04,
	}
}

// GetName returns the name of the layout algorithm
func (fd *ForceDirected) GetName() string {
	return "Force-Directed Layout"
}

// Initialize captures positions and edge weights from the graph
func (fd *ForceDirected) Initialize(graph *models.Graph) {
	nodes := graph.Nodes()
	fd.order = fd.order[:0]
	fd.iterations = 0
	fd.stable = len(nodes) < 2

	if len(nodes) > 0 {
		fd.k = math.Sqrt(fd.width * fd.height / float64(len(nodes)))
	}

	for _, n := range nodes {
		fd.order = append(fd.order, n.ID)
		fd.positions[n.ID] = n.Position
		fd.velocities[n.ID] = velocity{}
		fd.forces[n.ID] = force{}
	}

	clear(fd.weights)
	fd.pairs = fd.pairs[:0]
	for _, e := range graph.Edges() {
		key := pairKey(e.From, e.To)
		if _, ok := fd.weights[key]; !ok {
			fd.pairs = append(fd.pairs, key)
		}
		fd.weights[key] += e.Weight
	}
	sort.Slice(fd.pairs, func(i, j int) bool {
		if fd.pairs[i][0] != fd.pairs[j][0] {
			return fd.pairs[i][0] < fd.pairs[j][0]
		}
		return fd.pairs[i][1] < fd.pairs[j][1]
	})
}

// Step performs one iteration of the layout algorithm
func (fd *ForceDirected) Step() bool {
	if fd.iterations >= fd.maxIterations || fd.stable {
		return true
	}

	for _, id := range fd.order {
		fd.forces[id] = force{}
	}

	centerX := fd.width / 2
	centerY := fd.height / 2

	// Repulsion between every pair plus gravity to the centre
	for i, id1 := range fd.order {
		pos1 := fd.positions[id1]

		dx := centerX - pos1.X
		dy := centerY - pos1.Y
		distance := math.Max(0.1, math.Hypot(dx, dy))
		gravityFactor := fd.gravity * (distance / math.Min(fd.width, fd.height))
		fd.addForce(id1, dx*gravityFactor, dy*gravityFactor)

		for _, id2 := range fd.order[i+1:] {
			pos2 := fd.positions[id2]
			dx := pos1.X - pos2.X
			dy := pos1.Y - pos2.Y
			distance := math.Max(0.1, math.Hypot(dx, dy))

			// F = k^2 / distance
			repulsive := (fd.k * fd.k / distance) * fd.repulsionForce / 100.0
			dx /= distance
			dy /= distance
			fd.addForce(id1, dx*repulsive, dy*repulsive)
			fd.addForce(id2, -dx*repulsive, -dy*repulsive)
		}
	}

	// Attraction along edges, stronger for heavier edges
	for _, key := range fd.pairs {
		weight := fd.weights[key]
		pos1 := fd.positions[key[0]]
		pos2 := fd.positions[key[1]]
		dx := pos2.X - pos1.X
		dy := pos2.Y - pos1.Y
		distance := math.Max(0.1, math.Hypot(dx, dy))

		// F = distance^2 / k
		attractive := distance * distance / fd.k * fd.springConstant * (1.0 + float64(weight))
		dx /= distance
		dy /= distance
		fd.addForce(key[0], dx*attractive, dy*attractive)
		fd.addForce(key[1], -dx*attractive, -dy*attractive)
	}

	// Apply forces with temperature limiting (simulated annealing)
	padding := math.Min(fd.k*0.5, math.Min(fd.width, fd.height)/4)
	totalEnergy := 0.0
	for _, id := range fd.order {
		f := fd.forces[id]
		magnitude := math.Hypot(f.fx, f.fy)
		if magnitude > 0 {
			scale := math.Min(magnitude, fd.temperature) / magnitude
			f.fx *= scale
			f.fy *= scale
		}

		v := fd.velocities[id]
		v.vx = (v.vx + f.fx) * fd.dampingFactor
		v.vy = (v.vy + f.fy) * fd.dampingFactor
		fd.velocities[id] = v

		pos := fd.positions[id]
		pos.X = math.Max(padding, math.Min(fd.width-padding, pos.X+v.vx))
		pos.Y = math.Max(padding, math.Min(fd.height-padding, pos.Y+v.vy))
		fd.positions[id] = pos

		totalEnergy += math.Hypot(v.vx, v.vy)
	}

	fd.temperature *= 0.95
	fd.stable = totalEnergy/float64(len(fd.order)) < fd.energyThreshold
	fd.iterations++
	return fd.stable
}

// Apply writes positions back through MoveNode
func (fd *ForceDirected) Apply(graph *models.Graph) {
	for _, id := range fd.order {
		graph.MoveNode(id, fd.positions[id])
	}
}

func (fd *ForceDirected) addForce(id models.NodeID, fx, fy float64) {
	f := fd.forces[id]
	f.fx += fx
	f.fy += fy
	fd.forces[id] = f
}

func pairKey(a, b models.NodeID) [2]models.NodeID {
	if a > b {
		a, b = b, a
	}
	return [2]models.NodeID{a, b}
}
