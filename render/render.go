// Package render draws editor views in several output formats.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"math"
	"strings"
	"time"
)

// OutputOptions defines rendering configuration options
type OutputOptions struct {
	Format      string  // Output format (svg, ascii, json, dot)
	Width       float64 // Width of the canvas
	Height      float64 // Height of the canvas
	Background  string  // Background color
	Timestamp   bool    // Include timestamp in visualization
	NodeSize    float64 // Node radius
	EdgeWidth   float64 // Stroke width of a weight-1 edge
	FontSize    float64 // Font size for labels
	ShowLabels  bool    // Show rank labels
	ShowWeights bool    // Show weights on edges heavier than 1
	Quality     string  // Rendering quality (low, medium, high)
}

// Renderer interface defines methods that all rendering backends must implement
type Renderer interface {
	// Render creates a visualization of the view using the provided options
	Render(view *View, options *OutputOptions) ([]byte, error)

	// Name returns the name of the renderer
	Name() string

	// ContentType returns the MIME type of the rendered output
	ContentType() string
}

// NewDefaultOptions creates a default set of output options
func NewDefaultOptions(format string) *OutputOptions {
	return &OutputOptions{
		Format:      format,
		Width:       800,
		Height:      600,
		Background:  "#f8f8f8",
		NodeSize:    22.0,
		EdgeWidth:   1.5,
		FontSize:    11.0,
		ShowLabels:  true,
		ShowWeights: true,
		Quality:     "medium",
	}
}

// Formats lists the supported output formats
var Formats = []string{"svg", "ascii", "json", "dot"}

// GetRenderer returns the appropriate renderer based on format
func GetRenderer(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "svg":
		return &SVGRenderer{}, nil
	case "ascii", "text":
		return &ASCIIRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "dot":
		return &DOTRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Generate renders view with options.Format
func Generate(view *View, options *OutputOptions) ([]byte, error) {
	renderer, err := GetRenderer(options.Format)
	if err != nil {
		return nil, err
	}
	return renderer.Render(view, options)
}

// SVGRenderer outputs SVG format
type SVGRenderer struct{}

// Name returns the name of the renderer
func (r *SVGRenderer) Name() string {
	return "SVG Renderer"
}

// ContentType returns the SVG MIME type
func (r *SVGRenderer) ContentType() string {
	return "image/svg+xml"
}

// Render creates an SVG representation of the view
func (r *SVGRenderer) Render(view *View, options *OutputOptions) ([]byte, error) {
	var buf bytes.Buffer
	edgeColor, selectColor := view.colors()

	fmt.Fprintf(&buf, `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<svg width="%g" height="%g" viewBox="0 0 %g %g" xmlns="http://www.w3.org/2000/svg">
<title>%s</title>
<rect width="100%%" height="100%%" fill="%s"/>
`, options.Width, options.Height, options.Width, options.Height, html.EscapeString(view.Name), options.Background)

	fmt.Fprintf(&buf, `<defs>
  <marker id="arrow" viewBox="0 0 10 10" refX="10" refY="5"
      markerWidth="6" markerHeight="6" orient="auto">
    <path d="M0,0 L10,5 L0,10 z" fill="%s"/>
  </marker>
</defs>
`, edgeColor)

	if options.Quality == "high" {
		fmt.Fprintf(&buf, `<rect x="0" y="0" width="%g" height="%g" fill="none" stroke="#e0e0e0" stroke-width="1"/>
`, options.Width, options.Height)
	}

	for _, edge := range view.Edges {
		// Stop the line at the target's rim so the arrow head stays visible
		x2, y2 := shorten(edge.X1, edge.Y1, edge.X2, edge.Y2, options.NodeSize)
		strokeWidth := math.Max(0.5, float64(edge.Weight)*options.EdgeWidth*0.5)
		fmt.Fprintf(&buf, `<line class="edge" data-from="%d" data-to="%d" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%.2f" marker-end="url(#arrow)"/>
`, edge.From, edge.To, edge.X1, edge.Y1, x2, y2, edgeColor, strokeWidth)

		if options.ShowWeights && edge.Weight > 1 {
			midX := (edge.X1 + edge.X2) / 2
			midY := (edge.Y1 + edge.Y2) / 2
			fmt.Fprintf(&buf, `<text x="%.2f" y="%.2f" font-family="sans-serif" font-size="%g" fill="%s" text-anchor="middle">%d</text>
`, midX, midY, options.FontSize, edgeColor, edge.Weight)
		}
	}

	for _, node := range view.Nodes {
		stroke, strokeWidth := node.Color, 2.0
		if node.Selected {
			stroke, strokeWidth = selectColor, 4.0
		}

		if options.Quality == "high" {
			fmt.Fprintf(&buf, `<circle cx="%.2f" cy="%.2f" r="%g" fill="rgba(0,0,0,0.1)" transform="translate(2,2)"/>
`, node.X, node.Y, options.NodeSize)
		}

		fmt.Fprintf(&buf, `<circle class="node" data-id="%d" cx="%.2f" cy="%.2f" r="%g" fill="%s" stroke="%s" stroke-width="%g"/>
`, node.ID, node.X, node.Y, options.NodeSize, node.Fill, stroke, strokeWidth)

		if options.ShowLabels {
			fmt.Fprintf(&buf, `<text x="%.2f" y="%.2f" font-family="sans-serif" font-size="%g" fill="#333333" text-anchor="middle">%s</text>
`, node.X, node.Y+options.FontSize/3, options.FontSize, node.Label)
		}
	}

	if spawn := view.PendingSpawn; spawn != nil {
		fmt.Fprintf(&buf, `<circle class="spawn" cx="%.2f" cy="%.2f" r="%g" fill="none" stroke="#808080" stroke-dasharray="4,3"/>
`, spawn.X, spawn.Y, options.NodeSize)
	}

	if options.Timestamp {
		fmt.Fprintf(&buf, `<text x="5" y="%g" font-family="sans-serif" font-size="8" fill="#808080">%s</text>
`, options.Height-5, time.Now().Format("2006-01-02 15:04:05"))
	}

	if options.Quality == "high" {
		fmt.Fprintf(&buf, `<text x="5" y="15" font-family="sans-serif" font-size="10" fill="#808080">Nodes: %d | Edges: %d | %s</text>
`, len(view.Nodes), len(view.Edges), view.State)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

// ASCIIRenderer outputs ASCII art format
type ASCIIRenderer struct{}

// Name returns the name of the renderer
func (r *ASCIIRenderer) Name() string {
	return "ASCII Renderer"
}

// ContentType returns the plain text MIME type
func (r *ASCIIRenderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

const (
	nodeRune     = 'O'
	selectedRune = '@'
	spawnRune    = '+'
	edgeRune     = '·'
)

// Render creates an ASCII representation of the view followed by a rank table
func (r *ASCIIRenderer) Render(view *View, options *OutputOptions) ([]byte, error) {
	width := max(int(options.Width/10), 40)
	height := max(int(options.Height/20), 20)

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = make([]rune, width)
		for j := range grid[i] {
			grid[i][j] = ' '
		}
	}

	for i := 0; i < width; i++ {
		grid[0][i] = '-'
		grid[height-1][i] = '-'
	}
	for i := 0; i < height; i++ {
		grid[i][0] = '|'
		grid[i][width-1] = '|'
	}
	grid[0][0] = '+'
	grid[0][width-1] = '+'
	grid[height-1][0] = '+'
	grid[height-1][width-1] = '+'

	cell := func(x, y float64) (int, int) {
		cx := clamp(int(x*float64(width-2)/options.Width)+1, 1, width-2)
		cy := clamp(int(y*float64(height-2)/options.Height)+1, 1, height-2)
		return cx, cy
	}

	for _, edge := range view.Edges {
		x1, y1 := cell(edge.X1, edge.Y1)
		x2, y2 := cell(edge.X2, edge.Y2)
		drawLine(grid, x1, y1, x2, y2)
	}

	for _, node := range view.Nodes {
		x, y := cell(node.X, node.Y)
		symbol := nodeRune
		if node.Selected {
			symbol = selectedRune
		}
		grid[y][x] = symbol

		if options.ShowLabels {
			label := fmt.Sprintf("%d", node.ID)
			for i, c := range label {
				if x+1+i >= width-1 {
					break
				}
				grid[y][x+1+i] = c
			}
		}
	}

	if spawn := view.PendingSpawn; spawn != nil {
		x, y := cell(spawn.X, spawn.Y)
		if grid[y][x] == ' ' || grid[y][x] == edgeRune {
			grid[y][x] = spawnRune
		}
	}

	title := "rankgraph"
	if view.Name != "" {
		title += " - " + view.Name
	}
	if len(title) < width-4 && height > 3 {
		for i, c := range title {
			grid[1][i+2] = c
		}
	}

	if options.Timestamp && height > 4 {
		timeStr := time.Now().Format("2006-01-02 15:04")
		if len(timeStr) < width-4 {
			for i, c := range timeStr {
				grid[height-2][i+2] = c
			}
		}
	}

	var result strings.Builder
	for _, row := range grid {
		result.WriteString(string(row))
		result.WriteRune('\n')
	}

	mode := "link"
	if !view.Linking {
		mode = "unlink"
	}
	fmt.Fprintf(&result, "state %s, mode %s\n", view.State, mode)
	for _, node := range view.Nodes {
		marker := ' '
		if node.Selected {
			marker = '*'
		}
		fmt.Fprintf(&result, "%c node %-4d rank %s\n", marker, node.ID, node.Label)
	}
	for _, edge := range view.Edges {
		fmt.Fprintf(&result, "  edge %d -> %d weight %d\n", edge.From, edge.To, edge.Weight)
	}

	return []byte(result.String()), nil
}

// JSONRenderer outputs the view as JSON
type JSONRenderer struct{}

// Name returns the name of the renderer
func (r *JSONRenderer) Name() string {
	return "JSON Renderer"
}

// ContentType returns the JSON MIME type
func (r *JSONRenderer) ContentType() string {
	return "application/json"
}

// Render creates a JSON representation of the view
func (r *JSONRenderer) Render(view *View, options *OutputOptions) ([]byte, error) {
	type jsonDocument struct {
		*View
		Metadata map[string]interface{} `json:"metadata"`
	}

	doc := jsonDocument{
		View: view,
		Metadata: map[string]interface{}{
			"width":     options.Width,
			"height":    options.Height,
			"nodeCount": len(view.Nodes),
			"edgeCount": len(view.Edges),
		},
	}
	if options.Timestamp {
		doc.Metadata["timestamp"] = time.Now().Format(time.RFC3339)
	}

	return json.MarshalIndent(doc, "", "  ")
}

// DOTRenderer outputs Graphviz DOT format
type DOTRenderer struct{}

// Name returns the name of the renderer
func (r *DOTRenderer) Name() string {
	return "DOT Renderer"
}

// ContentType returns the Graphviz MIME type
func (r *DOTRenderer) ContentType() string {
	return "text/vnd.graphviz"
}

// Render creates a DOT representation of the view
func (r *DOTRenderer) Render(view *View, options *OutputOptions) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  graph [bgcolor=\"%s\", size=\"%g,%g\"];\n",
		options.Background, options.Width/72.0, options.Height/72.0)
	fmt.Fprintf(&buf, "  node [shape=circle, style=filled, fontname=\"Arial\", fontsize=%g];\n",
		options.FontSize)
	buf.WriteString("  edge [fontname=\"Arial\"];\n")

	_, selectColor := view.colors()
	for _, node := range view.Nodes {
		color := node.Color
		if node.Selected {
			color = selectColor
		}
		fmt.Fprintf(&buf, "  n%d [label=\"%d\\n%s\", color=\"%s\", fillcolor=\"%s\", pos=\"%g,%g!\"];\n",
			node.ID, node.ID, node.Label, color, node.Fill, node.X/72.0, (options.Height-node.Y)/72.0)
	}

	for _, edge := range view.Edges {
		label := ""
		if options.ShowWeights && edge.Weight > 1 {
			label = fmt.Sprintf(", label=\"%d\"", edge.Weight)
		}
		fmt.Fprintf(&buf, "  n%d -> n%d [weight=%d, penwidth=%g%s];\n",
			edge.From, edge.To, edge.Weight, math.Max(0.5, float64(edge.Weight)*options.EdgeWidth*0.5), label)
	}

	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// Helper functions

// shorten pulls (x2, y2) back toward (x1, y1) by r
func shorten(x1, y1, x2, y2, r float64) (float64, float64) {
	dx, dy := x2-x1, y2-y1
	length := math.Hypot(dx, dy)
	if length <= r {
		return x2, y2
	}
	scale := (length - r) / length
	return x1 + dx*scale, y1 + dy*scale
}

// Clamp a value between lo and hi
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// Draw a line on the ASCII grid using Bresenham's algorithm
func drawLine(grid [][]rune, x1, y1, x2, y2 int) {
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx := 1
	if x1 >= x2 {
		sx = -1
	}
	sy := 1
	if y1 >= y2 {
		sy = -1
	}
	err := dx + dy

	for {
		if x1 >= 0 && x1 < len(grid[0]) && y1 >= 0 && y1 < len(grid) {
			if grid[y1][x1] == ' ' {
				grid[y1][x1] = edgeRune
			}
		}

		if x1 == x2 && y1 == y2 {
			break
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

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
