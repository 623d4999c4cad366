package render

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Palette assigns colors to nodes by their position in the node list
type Palette struct {
	Colors   []string
	Selected string
	Edge     string
}

// DefaultPalette returns the eight node colors of the classic editor
func DefaultPalette() *Palette {
	return &Palette{
		Colors: []string{
			"#DB3737", "#BD5A14", "#F6CA2E", "#27863C",
			"#2A8093", "#1E67DC", "#C726C9", "#944EE9",
		},
		Selected: "#FFD700",
		Edge:     "#666666",
	}
}

// Color returns the palette color for the node at index
func (p *Palette) Color(index int) string {
	if len(p.Colors) == 0 {
		return "#4285F4"
	}
	if index < 0 {
		index = -index
	}
	return p.Colors[index%len(p.Colors)]
}

// Shade blends base toward white by the node's share of the top rank, so
// higher ranked nodes render more saturated
func (p *Palette) Shade(base string, score, top float64) string {
	c, err := colorful.Hex(base)
	if err != nil {
		return base
	}
	t := 1.0
	if top > 0 {
		t = 0.35 + 0.65*(score/top)
	}
	if t > 1 {
		t = 1
	}
	white := colorful.Color{R: 1, G: 1, B: 1}
	return white.BlendLab(c, t).Clamped().Hex()
}
