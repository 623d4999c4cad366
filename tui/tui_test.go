package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/TFMV/rankgraph/editor"
	"github.com/TFMV/rankgraph/ingest"
	"github.com/TFMV/rankgraph/logging"
	"github.com/TFMV/rankgraph/models"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// The default seed puts node 0 at (100,100) and node 1 at (50,200). On an
// 80x25 screen over an 800x600 canvas one cell is 10x25 units, so node 0 is
// drawn at cell (10,4) and node 1 at (5,8).
func newTestApp(t *testing.T) (*App, *fakeClock, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen init failed: %v", err)
	}
	screen.SetSize(80, 25)
	t.Cleanup(screen.Fini)

	canvas := editor.Canvas{Width: 800, Height: 600}
	g, err := ingest.DefaultSeed().Build("", canvas.Width, canvas.Height)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	m := editor.NewMachine(context.Background(), g, nil, canvas, logging.Discard())
	clock := &fakeClock{t: time.Unix(1000, 0)}
	return New(screen, m, canvas, logging.Discard(), WithClock(clock.Now)), clock, screen
}

func press(a *App, x, y int, button tcell.ButtonMask) {
	a.HandleEvent(context.Background(), tcell.NewEventMouse(x, y, button, tcell.ModNone))
}

func click(a *App, x, y int) {
	press(a, x, y, tcell.ButtonPrimary)
	press(a, x, y, tcell.ButtonNone)
}

func key(a *App, r rune) bool {
	return a.HandleEvent(context.Background(), tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
}

func TestClickSelectsAndLinks(t *testing.T) {
	app, clock, _ := newTestApp(t)

	click(app, 10, 4)
	if id, ok := app.machine.Selection(); !ok || id != 0 {
		t.Fatalf("Expected node 0 selected, got %d (%v)", id, ok)
	}

	clock.Advance(time.Second)
	click(app, 6, 8) // inside "[1]"
	if e, _ := app.machine.Graph().Edge(0, 1); e.Weight != 2 {
		t.Errorf("Expected weight 2, got %d", e.Weight)
	}
	if !strings.HasPrefix(app.Status(), "Strengthened 0") {
		t.Errorf("Unexpected status %q", app.Status())
	}
}

func TestBackgroundClickClearsSelection(t *testing.T) {
	app, _, _ := newTestApp(t)
	click(app, 10, 4)
	click(app, 40, 20)

	if app.machine.State() != editor.StateIdle {
		t.Errorf("Expected IDLE, got %s", app.machine.State())
	}
}

func TestRightClickThenAdd(t *testing.T) {
	app, _, _ := newTestApp(t)

	press(app, 60, 15, tcell.ButtonSecondary)
	press(app, 60, 15, tcell.ButtonNone)
	if app.machine.State() != editor.StateSpawnPending {
		t.Fatalf("Expected SPAWN, got %s", app.machine.State())
	}

	key(app, 'a')
	n, ok := app.machine.Graph().Node(2)
	if !ok {
		t.Fatal("Expected node 2 to be added")
	}
	if n.Position != (models.Position{X: 605, Y: 387.5}) {
		t.Errorf("Unexpected position %+v", n.Position)
	}
	if app.Status() != "Added node 2" {
		t.Errorf("Unexpected status %q", app.Status())
	}
}

func TestRightClickOnNodeIsIgnored(t *testing.T) {
	app, _, _ := newTestApp(t)
	press(app, 10, 4, tcell.ButtonSecondary)
	press(app, 10, 4, tcell.ButtonNone)

	if app.machine.State() != editor.StateIdle {
		t.Errorf("Expected IDLE, got %s", app.machine.State())
	}
}

func TestDoubleClickRemoves(t *testing.T) {
	app, clock, _ := newTestApp(t)

	click(app, 5, 8)
	clock.Advance(150 * time.Millisecond)
	click(app, 5, 8)

	if app.machine.Graph().HasNode(1) {
		t.Fatal("Expected node 1 removed")
	}
	if _, ok := app.machine.Selection(); ok {
		t.Error("Expected selection cleared")
	}
	if len(app.machine.Graph().Edges()) != 0 {
		t.Error("Expected incident edge removed")
	}
}

func TestSlowSecondClickDeselects(t *testing.T) {
	app, clock, _ := newTestApp(t)

	click(app, 5, 8)
	clock.Advance(DoubleClickWindow + time.Millisecond)
	click(app, 5, 8)

	if !app.machine.Graph().HasNode(1) {
		t.Fatal("Slow clicks should not remove the node")
	}
	if _, ok := app.machine.Selection(); ok {
		t.Error("Second click on the same node should deselect")
	}
}

func TestDragMovesWithoutClicking(t *testing.T) {
	app, _, _ := newTestApp(t)
	rev := app.machine.Graph().Revision()

	press(app, 10, 4, tcell.ButtonPrimary)
	press(app, 20, 6, tcell.ButtonPrimary)
	press(app, 30, 10, tcell.ButtonPrimary)
	press(app, 30, 10, tcell.ButtonNone)

	n, _ := app.machine.Graph().Node(0)
	if n.Position != (models.Position{X: 305, Y: 262.5}) {
		t.Errorf("Unexpected position after drag %+v", n.Position)
	}
	if _, ok := app.machine.Selection(); ok {
		t.Error("A drag should not select")
	}
	if app.machine.Graph().Revision() != rev {
		t.Error("A drag should not change the revision")
	}
}

func TestKeys(t *testing.T) {
	app, _, _ := newTestApp(t)

	key(app, 'l')
	if app.machine.Linking() {
		t.Error("Expected linking off after l")
	}
	if key(app, 'r') {
		t.Error("r should not quit")
	}
	if !key(app, 'q') {
		t.Error("q should quit")
	}
	if !app.HandleEvent(context.Background(), tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Error("Esc should quit")
	}
}

func TestDraw(t *testing.T) {
	app, _, screen := newTestApp(t)
	click(app, 10, 4)
	app.Draw()

	label := ""
	for x := 10; x < 13; x++ {
		r, _, _, _ := screen.GetContent(x, 4)
		label += string(r)
	}
	if label != "[0]" {
		t.Errorf("Expected node label at (10,4), got %q", label)
	}

	status := ""
	for x := 0; x < 20; x++ {
		r, _, _, _ := screen.GetContent(x, 24)
		status += string(r)
	}
	if !strings.Contains(status, "SELECTED") {
		t.Errorf("Expected state in status line, got %q", status)
	}
}
