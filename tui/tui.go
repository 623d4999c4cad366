// Package tui is a terminal front end for the editor built on tcell.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/TFMV/rankgraph/editor"
	"github.com/TFMV/rankgraph/models"
	"github.com/TFMV/rankgraph/render"
)

// DoubleClickWindow is the longest gap between two clicks on the same node
// that still counts as a double click
const DoubleClickWindow = 400 * time.Millisecond

// App drives an editor machine from terminal input
type App struct {
	screen  tcell.Screen
	machine *editor.Machine
	canvas  editor.Canvas
	palette *render.Palette
	logger  *slog.Logger
	now     func() time.Time

	buttons   tcell.ButtonMask
	pressed   *models.NodeID // node under the primary button, if any
	dragging  bool
	lastClick models.NodeID
	lastAt    time.Time
	status    string
}

// Option configures an App
type Option func(*App)

// WithClock replaces the clock used for double-click detection
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// New creates an app. The screen must already be initialised.
func New(screen tcell.Screen, machine *editor.Machine, canvas editor.Canvas, logger *slog.Logger, opts ...Option) *App {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		screen:  screen,
		machine: machine,
		canvas:  canvas,
		palette: render.DefaultPalette(),
		logger:  logger,
		now:     time.Now,
		status:  "left click: select/link  right click: spawn  a: add  l: toggle  r: arrange  q: quit",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run draws and handles events until the user quits or ctx is cancelled
func (a *App) Run(ctx context.Context) error {
	a.screen.EnableMouse()
	go func() {
		<-ctx.Done()
		a.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()

	for {
		a.Draw()
		ev := a.screen.PollEvent()
		if ev == nil || ctx.Err() != nil {
			return ctx.Err()
		}
		if a.HandleEvent(ctx, ev) {
			return nil
		}
	}
}

// HandleEvent processes one terminal event and reports whether to quit
func (a *App) HandleEvent(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.screen.Sync()
	case *tcell.EventKey:
		return a.handleKey(ctx, ev)
	case *tcell.EventMouse:
		a.handleMouse(ctx, ev)
	}
	return false
}

func (a *App) handleKey(ctx context.Context, ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case 'a':
			a.dispatch(ctx, editor.AddNodeAction{})
		case 'l':
			a.dispatch(ctx, editor.ToggleLinking{})
		case 'r':
			a.dispatch(ctx, editor.Arrange{})
		}
	}
	return false
}

func (a *App) handleMouse(ctx context.Context, ev *tcell.EventMouse) {
	x, y := ev.Position()
	buttons := ev.Buttons()
	prev := a.buttons
	a.buttons = buttons

	pressed := buttons &^ prev
	primaryHeld := buttons&tcell.ButtonPrimary != 0

	switch {
	case pressed&tcell.ButtonPrimary != 0:
		if id, ok := a.nodeAt(x, y); ok {
			a.pressed = &id
		} else {
			a.pressed = nil
		}
		a.dragging = false

	case pressed&tcell.ButtonSecondary != 0:
		if _, ok := a.nodeAt(x, y); !ok {
			a.dispatch(ctx, editor.SecondaryClick{Position: a.toCanvas(x, y)})
		}

	case primaryHeld && a.pressed != nil:
		// Motion with the button down
		a.dragging = true
		a.dispatch(ctx, editor.DragMove{Node: *a.pressed, Position: a.toCanvas(x, y)})

	case prev&tcell.ButtonPrimary != 0 && !primaryHeld:
		a.release(ctx)
	}
}

// release turns a press/release pair into a click
func (a *App) release(ctx context.Context) {
	node, dragged := a.pressed, a.dragging
	a.pressed, a.dragging = nil, false
	if dragged {
		return
	}

	if node == nil {
		a.dispatch(ctx, editor.BackgroundClick{})
		return
	}

	now := a.now()
	if !a.lastAt.IsZero() && a.lastClick == *node && now.Sub(a.lastAt) <= DoubleClickWindow {
		a.lastAt = time.Time{}
		a.dispatch(ctx, editor.DoubleClick{Node: *node})
		return
	}
	a.lastClick, a.lastAt = *node, now
	a.dispatch(ctx, editor.PrimaryClick{Node: *node})
}

func (a *App) dispatch(ctx context.Context, ev editor.Event) {
	notices := a.machine.Handle(ctx, ev)
	if len(notices) > 0 {
		a.status = notices[len(notices)-1].Message()
	}
	a.logger.Debug("event", slog.String("event", editor.EventName(ev)), slog.Int("notices", len(notices)))
}

// Status returns the current status line message
func (a *App) Status() string {
	return a.status
}

// scale returns canvas units per terminal cell. The last row is the status line.
func (a *App) scale() (float64, float64) {
	w, h := a.screen.Size()
	if w < 1 {
		w = 1
	}
	if h < 2 {
		h = 2
	}
	return a.canvas.Width / float64(w), a.canvas.Height / float64(h-1)
}

func (a *App) toCanvas(x, y int) models.Position {
	sx, sy := a.scale()
	return models.Position{X: (float64(x) + 0.5) * sx, Y: (float64(y) + 0.5) * sy}
}

// CellOf returns the terminal cell a canvas position is drawn at
func (a *App) CellOf(pos models.Position) (int, int) {
	sx, sy := a.scale()
	return int(pos.X / sx), int(pos.Y / sy)
}

func nodeLabel(id models.NodeID) string {
	return fmt.Sprintf("[%d]", id)
}

// nodeAt finds the node whose label covers the cell; later nodes win
func (a *App) nodeAt(x, y int) (models.NodeID, bool) {
	nodes := a.machine.Graph().Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		cx, cy := a.CellOf(nodes[i].Position)
		if y == cy && x >= cx && x < cx+len(nodeLabel(nodes[i].ID)) {
			return nodes[i].ID, true
		}
	}
	return 0, false
}
