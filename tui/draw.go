package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/TFMV/rankgraph/render"
)

var (
	styleDefault = tcell.StyleDefault
	styleEdge    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleStatus  = tcell.StyleDefault.Reverse(true)
	styleSpawn   = tcell.StyleDefault.Foreground(tcell.ColorSilver).Bold(true)
)

// Draw renders the current machine state to the screen
func (a *App) Draw() {
	a.screen.Clear()
	view := render.BuildView(a.machine.Snapshot(nil), a.palette)

	for _, e := range view.Edges {
		x1, y1 := a.cell(e.X1, e.Y1)
		x2, y2 := a.cell(e.X2, e.Y2)
		a.drawLine(x1, y1, x2, y2)
		ax, ay, arrow := arrowHead(x1, y1, x2, y2, len(nodeLabel(e.To)))
		a.screen.SetContent(ax, ay, arrow, nil, styleEdge)
		if e.Weight > 1 {
			a.drawText((x1+x2)/2, (y1+y2)/2, fmt.Sprintf("%d", e.Weight), styleEdge)
		}
	}

	for _, n := range view.Nodes {
		x, y := a.cell(n.X, n.Y)
		style := styleDefault.Foreground(tcell.GetColor(n.Color)).Bold(true)
		if n.Selected {
			style = styleDefault.Background(tcell.GetColor(a.palette.Selected)).Foreground(tcell.ColorBlack)
		}
		a.drawText(x, y, nodeLabel(n.ID), style)
		a.drawText(x, y+1, n.Label, styleDefault.Foreground(tcell.GetColor(n.Fill)))
	}

	if spawn := view.PendingSpawn; spawn != nil {
		x, y := a.cell(spawn.X, spawn.Y)
		a.drawText(x, y, "+ Add Node (a)", styleSpawn)
	}

	mode := "link"
	if !view.Linking {
		mode = "unlink"
	}
	w, h := a.screen.Size()
	line := fmt.Sprintf(" %s | %s | %s", view.State, mode, a.status)
	for x := 0; x < w; x++ {
		a.screen.SetContent(x, h-1, ' ', nil, styleStatus)
	}
	a.drawText(0, h-1, line, styleStatus)

	a.screen.Show()
}

func (a *App) cell(x, y float64) (int, int) {
	sx, sy := a.scale()
	return int(x / sx), int(y / sy)
}

func (a *App) drawText(x, y int, text string, style tcell.Style) {
	i := 0
	for _, r := range text {
		a.screen.SetContent(x+i, y, r, nil, style)
		i++
	}
}

// drawLine plots a Bresenham line, leaving the endpoints to the node labels
func (a *App) drawLine(x1, y1, x2, y2 int) {
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx, sy := 1, 1
	if x1 >= x2 {
		sx = -1
	}
	if y1 >= y2 {
		sy = -1
	}
	err := dx + dy
	for {
		a.screen.SetContent(x1, y1, '·', nil, styleEdge)
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			err += dx
			y1 += sy
		}
	}
}

// arrowHead returns the cell just outside the target label on the source
// side and the glyph pointing at the target
func arrowHead(x1, y1, x2, y2, labelWidth int) (int, int, rune) {
	dx, dy := x2-x1, y2-y1
	if abs(dx) >= abs(dy) {
		if dx >= 0 {
			return x2 - 1, y2, '>'
		}
		return x2 + labelWidth, y2, '<'
	}
	if dy > 0 {
		return x2, y2 - 1, 'v'
	}
	return x2, y2 + 1, '^'
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
