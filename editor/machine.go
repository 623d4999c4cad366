// Package editor turns user input into graph mutations. It owns the
// selection, the pending spawn position and the linking mode, and keeps the
// rank vector in step with the topology.
package editor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/TFMV/rankgraph/layout"
	"github.com/TFMV/rankgraph/metrics"
	"github.com/TFMV/rankgraph/models"
	"github.com/TFMV/rankgraph/rank"
)

// Canvas is the area Arrange lays nodes out in
type Canvas struct {
	Width  float64
	Height float64
}

// Snapshot is everything the presentation layer needs to draw one frame
type Snapshot struct {
	Graph        models.Snapshot           `json:"graph"`
	Ranks        map[models.NodeID]float64 `json:"ranks"`
	Converged    bool                      `json:"converged"`
	Iterations   int                       `json:"iterations"`
	State        State                     `json:"state"`
	Selection    *models.NodeID            `json:"selection,omitempty"`
	PendingSpawn *models.Position          `json:"pending_spawn,omitempty"`
	Linking      bool                      `json:"linking"`
	Notices      []Notice                  `json:"notices,omitempty"`

	result rank.Result
}

// Result returns the rank result the snapshot was taken with
func (s Snapshot) Result() rank.Result {
	return s.result
}

// Machine is the interaction state machine. It is the graph's only mutator
// and is not safe for concurrent use; see Run for a serialised driver.
type Machine struct {
	graph   *models.Graph
	engine  *rank.Engine
	logger  *slog.Logger
	canvas  Canvas
	linking bool

	selected *models.NodeID
	pending  *models.Position

	ranks    rank.Result
	revision uint64
}

// NewMachine wraps graph and computes its initial ranks
func NewMachine(ctx context.Context, graph *models.Graph, engine *rank.Engine, canvas Canvas, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = rank.NewEngine(logger)
	}
	m := &Machine{
		graph:   graph,
		engine:  engine,
		logger:  logger.With(slog.String("graph_id", graph.ID)),
		canvas:  canvas,
		linking: true,
	}
	m.recompute(ctx)
	return m
}

// Graph returns the underlying graph. Callers must not mutate it.
func (m *Machine) Graph() *models.Graph { return m.graph }

// Ranks returns the current rank result
func (m *Machine) Ranks() rank.Result { return m.ranks }

// Linking reports whether clicks create links (true) or remove them
func (m *Machine) Linking() bool { return m.linking }

// Selection returns the selected node, if any
func (m *Machine) Selection() (models.NodeID, bool) {
	if m.selected == nil {
		return 0, false
	}
	return *m.selected, true
}

// PendingSpawn returns the pending spawn position, if any
func (m *Machine) PendingSpawn() (models.Position, bool) {
	if m.pending == nil {
		return models.Position{}, false
	}
	return *m.pending, true
}

// State derives the interaction state from selection and pending spawn
func (m *Machine) State() State {
	switch {
	case m.selected != nil:
		return StateNodeSelected
	case m.pending != nil:
		return StateSpawnPending
	default:
		return StateIdle
	}
}

// Handle applies one event. If the topology changed, ranks are recomputed
// before Handle returns, so the next snapshot is always consistent.
func (m *Machine) Handle(ctx context.Context, ev Event) []Notice {
	var notices []Notice

	switch e := ev.(type) {
	case PrimaryClick:
		notices = m.primaryClick(e.Node)
	case SecondaryClick:
		pos := e.Position
		m.selected = nil
		m.pending = &pos
	case BackgroundClick:
		m.selected = nil
		m.pending = nil
	case AddNodeAction:
		notices = m.addNode()
	case DoubleClick:
		notices = m.removeNode(e.Node)
	case DragMove:
		if !m.graph.MoveNode(e.Node, e.Position) {
			m.logger.Debug("drag on unknown node", slog.Int("node", int(e.Node)))
		}
	case ToggleLinking:
		m.linking = !m.linking
	case Arrange:
		steps := layout.Arrange(m.graph, m.canvas.Width, m.canvas.Height)
		m.logger.Debug("arranged", slog.Int("steps", steps))
	default:
		m.logger.Warn("unhandled event", slog.Any("event", ev))
		return nil
	}

	for _, n := range notices {
		metrics.RecordNotice(n.Kind.String())
		if kind := n.Kind.Mutation(); kind != "" {
			metrics.RecordMutation(kind)
		}
	}

	if m.graph.Revision() != m.revision {
		m.recompute(ctx)
	}

	return notices
}

// Snapshot captures the current view state together with notices
func (m *Machine) Snapshot(notices []Notice) Snapshot {
	snap := Snapshot{
		Graph:      m.graph.Snapshot(),
		Ranks:      make(map[models.NodeID]float64, len(m.ranks.Scores)),
		Converged:  m.ranks.Converged,
		Iterations: m.ranks.Iterations,
		State:      m.State(),
		Linking:    m.linking,
		Notices:    notices,
		result:     m.ranks,
	}
	for id, score := range m.ranks.Scores {
		snap.Ranks[id] = score
	}
	if m.selected != nil {
		id := *m.selected
		snap.Selection = &id
	}
	if m.pending != nil {
		pos := *m.pending
		snap.PendingSpawn = &pos
	}
	return snap
}

func (m *Machine) primaryClick(id models.NodeID) []Notice {
	if !m.graph.HasNode(id) {
		m.logger.Debug("click on unknown node", slog.Int("node", int(id)))
		return nil
	}
	m.pending = nil

	if m.selected == nil {
		m.selected = &id
		return nil
	}

	from := *m.selected
	m.selected = nil
	if from == id {
		return nil
	}

	if !m.linking {
		if m.graph.RemoveEdge(from, id) {
			return []Notice{{Kind: NoticeUnlinked, From: from, To: id}}
		}
		return nil
	}

	change, err := m.graph.UpsertEdge(from, id)
	if err != nil {
		if !errors.Is(err, models.ErrUnknownNode) && !errors.Is(err, models.ErrSelfLink) {
			m.logger.Error("link failed", slog.Any("error", err))
		}
		return nil
	}
	if change.Created {
		return []Notice{{Kind: NoticeLinked, From: from, To: id, Weight: change.Weight}}
	}
	return []Notice{{Kind: NoticeStrengthened, From: from, To: id, Weight: change.Weight}}
}

func (m *Machine) addNode() []Notice {
	if m.pending == nil {
		return []Notice{{Kind: NoticeNoOp}}
	}
	id := m.graph.AddNode(*m.pending)
	m.pending = nil
	return []Notice{{Kind: NoticeAdded, Node: id}}
}

func (m *Machine) removeNode(id models.NodeID) []Notice {
	if m.selected != nil && *m.selected == id {
		m.selected = nil
	}
	if !m.graph.RemoveNode(id) {
		return nil
	}
	return []Notice{{Kind: NoticeRemoved, Node: id}}
}

func (m *Machine) recompute(ctx context.Context) {
	m.ranks = m.engine.Compute(ctx, m.graph)
	m.revision = m.graph.Revision()
}
