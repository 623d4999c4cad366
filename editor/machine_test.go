package editor

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/TFMV/rankgraph/logging"
	"github.com/TFMV/rankgraph/models"
	"github.com/TFMV/rankgraph/rank"
)

func newTestMachine(t *testing.T, nodes int) *Machine {
	t.Helper()
	g := models.NewGraph("test")
	for i := 0; i < nodes; i++ {
		g.AddNode(models.Position{X: float64(100 * (i + 1)), Y: 100})
	}
	logger := logging.Discard()
	return NewMachine(context.Background(), g, rank.NewEngine(logger), Canvas{Width: 800, Height: 600}, logger)
}

func handle(m *Machine, evs ...Event) []Notice {
	var last []Notice
	for _, ev := range evs {
		last = m.Handle(context.Background(), ev)
	}
	return last
}

func TestSelectThenLink(t *testing.T) {
	m := newTestMachine(t, 2)

	if notices := handle(m, PrimaryClick{Node: 0}); len(notices) != 0 {
		t.Fatalf("selecting should not notify, got %v", notices)
	}
	if m.State() != StateNodeSelected {
		t.Fatalf("Expected SELECTED, got %s", m.State())
	}

	notices := handle(m, PrimaryClick{Node: 1})
	if len(notices) != 1 || notices[0].Kind != NoticeLinked {
		t.Fatalf("Expected one linked notice, got %v", notices)
	}
	if m.State() != StateIdle {
		t.Errorf("Expected IDLE after linking, got %s", m.State())
	}
	e, ok := m.Graph().Edge(0, 1)
	if !ok || e.Weight != 1 {
		t.Fatalf("Expected edge 0->1 with weight 1, got %+v (present %v)", e, ok)
	}

	ranks := m.Ranks()
	if math.Abs(ranks.Score(0)-0.356) > 1e-3 || math.Abs(ranks.Score(1)-0.644) > 1e-3 {
		t.Errorf("Unexpected ranks after link: %s / %s", ranks.Format(0), ranks.Format(1))
	}
}

func TestRepeatedLinkStrengthens(t *testing.T) {
	m := newTestMachine(t, 2)

	var notices []Notice
	for i := 0; i < 3; i++ {
		notices = handle(m, PrimaryClick{Node: 0}, PrimaryClick{Node: 1})
	}

	if len(notices) != 1 || notices[0].Kind != NoticeStrengthened || notices[0].Weight != 3 {
		t.Fatalf("Expected strengthened notice with weight 3, got %v", notices)
	}
	if e, _ := m.Graph().Edge(0, 1); e.Weight != 3 {
		t.Errorf("Expected weight 3, got %d", e.Weight)
	}
	if len(m.Graph().Edges()) != 1 {
		t.Errorf("Expected a single edge, got %d", len(m.Graph().Edges()))
	}
}

func TestSameNodeDeselects(t *testing.T) {
	m := newTestMachine(t, 2)
	rev := m.Graph().Revision()

	notices := handle(m, PrimaryClick{Node: 1}, PrimaryClick{Node: 1})
	if len(notices) != 0 {
		t.Errorf("Expected no notices, got %v", notices)
	}
	if _, ok := m.Selection(); ok {
		t.Error("Expected selection to be cleared")
	}
	if m.Graph().Revision() != rev {
		t.Error("Deselecting should not mutate the graph")
	}
}

func TestUnlinkIsIdempotent(t *testing.T) {
	m := newTestMachine(t, 2)
	handle(m, PrimaryClick{Node: 0}, PrimaryClick{Node: 1}, ToggleLinking{})

	if m.Linking() {
		t.Fatal("Expected linking mode off")
	}

	notices := handle(m, PrimaryClick{Node: 0}, PrimaryClick{Node: 1})
	if len(notices) != 1 || notices[0].Kind != NoticeUnlinked {
		t.Fatalf("Expected unlinked notice, got %v", notices)
	}
	if _, ok := m.Graph().Edge(0, 1); ok {
		t.Fatal("Expected edge to be removed")
	}

	rev := m.Graph().Revision()
	notices = handle(m, PrimaryClick{Node: 0}, PrimaryClick{Node: 1})
	if len(notices) != 0 {
		t.Errorf("Unlinking an absent edge should be silent, got %v", notices)
	}
	if m.Graph().Revision() != rev {
		t.Error("Unlinking an absent edge should not mutate the graph")
	}
}

func TestUnlinkOnlyRemovesDirectedEdge(t *testing.T) {
	m := newTestMachine(t, 2)
	handle(m, PrimaryClick{Node: 0}, PrimaryClick{Node: 1})
	handle(m, PrimaryClick{Node: 1}, PrimaryClick{Node: 0})
	handle(m, ToggleLinking{}, PrimaryClick{Node: 0}, PrimaryClick{Node: 1})

	if _, ok := m.Graph().Edge(1, 0); !ok {
		t.Error("Reverse edge should survive")
	}
	if _, ok := m.Graph().Edge(0, 1); ok {
		t.Error("Forward edge should be removed")
	}
}

func TestSpawnThenAddNode(t *testing.T) {
	m := newTestMachine(t, 3)
	spawn := models.Position{X: 42, Y: 24}

	handle(m, SecondaryClick{Position: spawn})
	if m.State() != StateSpawnPending {
		t.Fatalf("Expected SPAWN, got %s", m.State())
	}

	notices := handle(m, AddNodeAction{})
	if len(notices) != 1 || notices[0].Kind != NoticeAdded {
		t.Fatalf("Expected added notice, got %v", notices)
	}
	id := notices[0].Node
	if id <= 2 {
		t.Errorf("Expected id greater than every existing id, got %d", id)
	}
	n, ok := m.Graph().Node(id)
	if !ok || n.Position != spawn {
		t.Errorf("Expected node at %+v, got %+v", spawn, n.Position)
	}
	if m.State() != StateIdle {
		t.Errorf("Expected IDLE, got %s", m.State())
	}
	if _, ranked := m.Ranks().Scores[id]; !ranked {
		t.Error("New node should be ranked")
	}
}

func TestAddNodeWithoutSpawnIsNoOp(t *testing.T) {
	m := newTestMachine(t, 1)

	notices := handle(m, AddNodeAction{})
	if len(notices) != 1 || notices[0].Kind != NoticeNoOp {
		t.Fatalf("Expected no-op notice, got %v", notices)
	}
	if m.Graph().Len() != 1 {
		t.Errorf("Expected 1 node, got %d", m.Graph().Len())
	}
}

func TestSecondaryClickClearsSelection(t *testing.T) {
	m := newTestMachine(t, 2)
	handle(m, PrimaryClick{Node: 0}, SecondaryClick{Position: models.Position{X: 1, Y: 1}})

	if _, ok := m.Selection(); ok {
		t.Error("Expected no selection")
	}
	if m.State() != StateSpawnPending {
		t.Errorf("Expected SPAWN, got %s", m.State())
	}
}

func TestBackgroundClickResets(t *testing.T) {
	m := newTestMachine(t, 2)

	handle(m, PrimaryClick{Node: 0}, BackgroundClick{})
	if m.State() != StateIdle {
		t.Errorf("Expected IDLE after background click, got %s", m.State())
	}

	handle(m, SecondaryClick{Position: models.Position{X: 5, Y: 5}}, BackgroundClick{})
	if _, ok := m.PendingSpawn(); ok {
		t.Error("Expected pending spawn to be cleared")
	}
}

func TestDoubleClickRemovesNode(t *testing.T) {
	m := newTestMachine(t, 3)
	handle(m, PrimaryClick{Node: 0}, PrimaryClick{Node: 1})
	handle(m, PrimaryClick{Node: 1}, PrimaryClick{Node: 2})
	handle(m, PrimaryClick{Node: 1})

	notices := handle(m, DoubleClick{Node: 1})
	if len(notices) != 1 || notices[0].Kind != NoticeRemoved || notices[0].Node != 1 {
		t.Fatalf("Expected removed notice for node 1, got %v", notices)
	}
	if _, ok := m.Selection(); ok {
		t.Error("Selection referencing the removed node should be cleared")
	}
	if len(m.Graph().Edges()) != 0 {
		t.Errorf("Expected incident edges to cascade, got %v", m.Graph().Edges())
	}
	if _, ranked := m.Ranks().Scores[1]; ranked {
		t.Error("Removed node should not be ranked")
	}
	if sum := m.Ranks().Sum(); math.Abs(sum-1) > 1e-9 {
		t.Errorf("Expected ranks to sum to 1, got %f", sum)
	}
}

func TestDoubleClickKeepsOtherSelection(t *testing.T) {
	m := newTestMachine(t, 3)
	handle(m, PrimaryClick{Node: 0}, DoubleClick{Node: 2})

	if id, ok := m.Selection(); !ok || id != 0 {
		t.Errorf("Expected node 0 to stay selected, got %d (%v)", id, ok)
	}
}

func TestDragDoesNotRecompute(t *testing.T) {
	m := newTestMachine(t, 2)
	handle(m, PrimaryClick{Node: 0}, PrimaryClick{Node: 1})

	before := reflect.ValueOf(m.Ranks().Scores).Pointer()
	rev := m.Graph().Revision()

	target := models.Position{X: 7, Y: 9}
	handle(m, DragMove{Node: 1, Position: target})

	if n, _ := m.Graph().Node(1); n.Position != target {
		t.Errorf("Expected node moved to %+v, got %+v", target, n.Position)
	}
	if m.Graph().Revision() != rev {
		t.Error("Drag should not change the revision")
	}
	if reflect.ValueOf(m.Ranks().Scores).Pointer() != before {
		t.Error("Drag should not trigger a recompute")
	}
}

func TestStaleNodeEventsAreIgnored(t *testing.T) {
	m := newTestMachine(t, 2)
	handle(m, DoubleClick{Node: 1})
	rev := m.Graph().Revision()

	for _, ev := range []Event{
		PrimaryClick{Node: 1},
		DragMove{Node: 1, Position: models.Position{X: 3, Y: 3}},
		DoubleClick{Node: 1},
	} {
		if notices := m.Handle(context.Background(), ev); len(notices) != 0 {
			t.Errorf("%s on stale node: expected no notices, got %v", EventName(ev), notices)
		}
	}
	if m.Graph().Revision() != rev {
		t.Error("Stale events should not mutate the graph")
	}
	if m.State() != StateIdle {
		t.Errorf("Expected IDLE, got %s", m.State())
	}
}

func TestArrangeKeepsRanks(t *testing.T) {
	m := newTestMachine(t, 4)
	handle(m, PrimaryClick{Node: 0}, PrimaryClick{Node: 1})
	before := m.Ranks()
	rev := m.Graph().Revision()

	handle(m, Arrange{})

	if m.Graph().Revision() != rev {
		t.Error("Arrange should not change the revision")
	}
	for id, score := range before.Scores {
		if m.Ranks().Score(id) != score {
			t.Errorf("Score for %d changed after arrange", id)
		}
	}
}

func TestSnapshotCopiesState(t *testing.T) {
	m := newTestMachine(t, 2)
	handle(m, PrimaryClick{Node: 0})

	snap := m.Snapshot(nil)
	if snap.State != StateNodeSelected || snap.Selection == nil || *snap.Selection != 0 {
		t.Fatalf("Unexpected snapshot selection: %+v", snap)
	}
	if !snap.Linking {
		t.Error("Linking should default to on")
	}

	handle(m, BackgroundClick{})
	if *snap.Selection != 0 {
		t.Error("Snapshot should not alias machine state")
	}
	if len(snap.Ranks) != 2 {
		t.Errorf("Expected 2 ranks, got %d", len(snap.Ranks))
	}
}

func TestRunSerialisesSubmissions(t *testing.T) {
	m := newTestMachine(t, 2)
	src := NewChanSource(4)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	observed := make(chan Snapshot, 8)
	done := make(chan error, 1)
	go func() {
		done <- m.Run(ctx, src, func(s Snapshot) { observed <- s })
	}()

	if _, err := src.Submit(ctx, PrimaryClick{Node: 0}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	snap, err := src.Submit(ctx, PrimaryClick{Node: 1})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if len(snap.Notices) != 1 || snap.Notices[0].Kind != NoticeLinked {
		t.Errorf("Expected linked notice in reply, got %v", snap.Notices)
	}
	if len(snap.Graph.Edges) != 1 {
		t.Errorf("Expected 1 edge in reply, got %d", len(snap.Graph.Edges))
	}

	src.Close()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}
	if len(observed) != 2 {
		t.Errorf("Expected 2 observed snapshots, got %d", len(observed))
	}

	if _, err := src.Submit(ctx, BackgroundClick{}); !errors.Is(err, ErrSourceClosed) {
		t.Errorf("Expected ErrSourceClosed, got %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	m := newTestMachine(t, 1)
	src := NewChanSource(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.Run(ctx, src, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// mutationCount reads rankgraph_mutations_total{kind} from the default registry
func mutationCount(t *testing.T, kind string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "rankgraph_mutations_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "kind" && label.GetValue() == kind {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestMutationsRecordedByKind(t *testing.T) {
	m := newTestMachine(t, 3)
	before := map[string]float64{}
	kinds := []string{"link", "strengthen", "unlink", "add_node", "remove_node", "primary_click", "drag_move"}
	for _, kind := range kinds {
		before[kind] = mutationCount(t, kind)
	}

	handle(m,
		PrimaryClick{Node: 0}, PrimaryClick{Node: 1}, // link
		PrimaryClick{Node: 0}, PrimaryClick{Node: 1}, // strengthen
		ToggleLinking{},
		PrimaryClick{Node: 0}, PrimaryClick{Node: 1}, // unlink
		SecondaryClick{Position: models.Position{X: 5, Y: 5}}, AddNodeAction{},
		DoubleClick{Node: 2},
		DragMove{Node: 0, Position: models.Position{X: 1, Y: 1}},
	)

	want := map[string]float64{"link": 1, "strengthen": 1, "unlink": 1, "add_node": 1, "remove_node": 1}
	for _, kind := range kinds {
		if got := mutationCount(t, kind) - before[kind]; got != want[kind] {
			t.Errorf("kind %s: expected %v new mutations, got %v", kind, want[kind], got)
		}
	}
}
