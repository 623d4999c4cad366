// Package ingest loads seed graphs from files in several formats.
package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/TFMV/rankgraph/layout"
	"github.com/TFMV/rankgraph/models"
)

// MaxEdgeWeight bounds the weight a seed edge may carry
const MaxEdgeWeight = 1000

// ErrInvalidWeight is returned for edges with a negative weight or one above
// MaxEdgeWeight
var ErrInvalidWeight = models.ErrInvalidWeight

// SeedNode is a node entry in a seed file. Missing coordinates are filled
// in on a circle.
type SeedNode struct {
	ID int      `json:"id" yaml:"id" toml:"id"`
	X  *float64 `json:"x,omitempty" yaml:"x,omitempty" toml:"x,omitempty"`
	Y  *float64 `json:"y,omitempty" yaml:"y,omitempty" toml:"y,omitempty"`
}

// SeedEdge is an edge entry in a seed file. A zero weight means 1.
type SeedEdge struct {
	From   int `json:"from" yaml:"from" toml:"from"`
	To     int `json:"to" yaml:"to" toml:"to"`
	Weight int `json:"weight,omitempty" yaml:"weight,omitempty" toml:"weight,omitempty"`
}

// Seed is a format-neutral graph description
type Seed struct {
	Name  string     `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Nodes []SeedNode `json:"nodes" yaml:"nodes" toml:"nodes"`
	Edges []SeedEdge `json:"edges" yaml:"edges" toml:"edges"`
}

// DataProcessor defines the interface that all seed processors must implement
type DataProcessor interface {
	// ProcessData takes raw data bytes and returns a seed
	ProcessData(data []byte) (*Seed, error)

	// GetName returns the name of the processor
	GetName() string
}

// Build creates a graph from the seed. A seed without a node list gets its
// nodes from the edge endpoints. Every mutation goes through the graph
// store, so duplicate ids, dangling endpoints and self links are rejected.
func (s *Seed) Build(name string, width, height float64) (*models.Graph, error) {
	if s.Name != "" {
		name = s.Name
	}
	g := models.NewGraph(name)

	nodes := append([]SeedNode(nil), s.Nodes...)
	declared := make(map[int]bool, len(nodes))
	for _, n := range nodes {
		declared[n.ID] = true
	}
	for _, e := range s.Edges {
		for _, id := range []int{e.From, e.To} {
			if len(s.Nodes) == 0 && !declared[id] {
				declared[id] = true
				nodes = append(nodes, SeedNode{ID: id})
			}
		}
	}

	circle := layout.Circle(len(nodes), width, height)
	for i, n := range nodes {
		pos := circle[i]
		if n.X != nil {
			pos.X = *n.X
		}
		if n.Y != nil {
			pos.Y = *n.Y
		}
		if err := g.RestoreNode(models.NodeID(n.ID), pos); err != nil {
			return nil, fmt.Errorf("node %d: %w", n.ID, err)
		}
	}

	for _, e := range s.Edges {
		weight := e.Weight
		if weight == 0 {
			weight = 1
		}
		if weight < 0 || weight > MaxEdgeWeight {
			return nil, fmt.Errorf("edge %d->%d weight %d: %w", e.From, e.To, weight, ErrInvalidWeight)
		}
		if _, err := g.StrengthenEdge(models.NodeID(e.From), models.NodeID(e.To), weight); err != nil {
			return nil, fmt.Errorf("edge %d->%d: %w", e.From, e.To, err)
		}
	}

	return g, nil
}

// JSONProcessor handles JSON seeds
type JSONProcessor struct{}

// GetName returns the name of the processor
func (p *JSONProcessor) GetName() string {
	return "JSON Processor"
}

// ProcessData processes JSON data
func (p *JSONProcessor) ProcessData(data []byte) (*Seed, error) {
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("error parsing JSON: %w", err)
	}
	return &seed, nil
}

// YAMLProcessor handles YAML seeds
type YAMLProcessor struct{}

// GetName returns the name of the processor
func (p *YAMLProcessor) GetName() string {
	return "YAML Processor"
}

// ProcessData processes YAML data
func (p *YAMLProcessor) ProcessData(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}
	return &seed, nil
}

// TOMLProcessor handles TOML seeds with [[nodes]] and [[edges]] tables
type TOMLProcessor struct{}

// GetName returns the name of the processor
func (p *TOMLProcessor) GetName() string {
	return "TOML Processor"
}

// ProcessData processes TOML data
func (p *TOMLProcessor) ProcessData(data []byte) (*Seed, error) {
	var seed Seed
	if _, err := toml.Decode(string(data), &seed); err != nil {
		return nil, fmt.Errorf("error parsing TOML: %w", err)
	}
	return &seed, nil
}

// CSVProcessor handles edge lists with from,to[,weight] rows. A header row
// is skipped when its first field is not a number.
type CSVProcessor struct{}

// GetName returns the name of the processor
func (p *CSVProcessor) GetName() string {
	return "CSV Processor"
}

// ProcessData processes CSV data
func (p *CSVProcessor) ProcessData(data []byte) (*Seed, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	seed := &Seed{}
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error parsing CSV: %w", err)
		}
		line++

		if len(record) < 2 {
			return nil, fmt.Errorf("line %d: expected from,to[,weight], got %d fields", line, len(record))
		}

		from, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			if line == 1 {
				continue // header
			}
			return nil, fmt.Errorf("line %d: invalid source %q", line, record[0])
		}
		to, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid target %q", line, record[1])
		}

		weight := 1
		if len(record) > 2 && strings.TrimSpace(record[2]) != "" {
			weight, err = strconv.Atoi(strings.TrimSpace(record[2]))
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid weight %q", line, record[2])
			}
			if weight <= 0 || weight > MaxEdgeWeight {
				return nil, fmt.Errorf("line %d: %w", line, ErrInvalidWeight)
			}
		}

		seed.Edges = append(seed.Edges, SeedEdge{From: from, To: to, Weight: weight})
	}

	return seed, nil
}

// GetProcessor returns the appropriate processor based on format
func GetProcessor(format string) (DataProcessor, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "json":
		return &JSONProcessor{}, nil
	case "yaml", "yml":
		return &YAMLProcessor{}, nil
	case "toml":
		return &TOMLProcessor{}, nil
	case "csv":
		return &CSVProcessor{}, nil
	default:
		return nil, fmt.Errorf("unsupported data format: %s", format)
	}
}

// LoadFile reads a seed file, picking the processor by extension
func LoadFile(path string, width, height float64) (*models.Graph, error) {
	ext := filepath.Ext(path)
	processor, err := GetProcessor(ext)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading seed: %w", err)
	}

	seed, err := processor.ProcessData(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	return seed.Build(strings.TrimSuffix(filepath.Base(path), ext), width, height)
}

func coord(v float64) *float64 { return &v }

// DefaultSeed is the starting graph of a fresh session: two nodes and one link
func DefaultSeed() *Seed {
	return &Seed{
		Name: "untitled",
		Nodes: []SeedNode{
			{ID: 0, X: coord(100), Y: coord(100)},
			{ID: 1, X: coord(50), Y: coord(200)},
		},
		Edges: []SeedEdge{{From: 0, To: 1}},
	}
}

// ExampleSeed is a six-node graph with one double-weight edge, used for
// demos and as a reference ranking
func ExampleSeed() *Seed {
	return &Seed{
		Name: "example",
		Nodes: []SeedNode{
			{ID: 0}, {ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 5},
		},
		Edges: []SeedEdge{
			{From: 0, To: 1}, {From: 1, To: 2}, {From: 1, To: 3, Weight: 2},
			{From: 1, To: 4}, {From: 1, To: 5}, {From: 2, To: 0},
			{From: 2, To: 4}, {From: 3, To: 0}, {From: 3, To: 5},
			{From: 5, To: 2},
		},
	}
}
