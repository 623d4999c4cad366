// Package rank computes PageRank-style importance scores for a weighted graph.
package rank

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/TFMV/rankgraph/metrics"
	"github.com/TFMV/rankgraph/models"
)

const (
	// Damping is the probability of following an outgoing link instead of teleporting
	Damping = 0.81

	// DefaultTolerance stops the iteration once no score moves by this much
	DefaultTolerance = 1e-6

	// DefaultMaxIterations bounds the iteration on pathological inputs
	DefaultMaxIterations = 1000
)

// Result is the outcome of one recompute
type Result struct {
	Scores     map[models.NodeID]float64
	Iterations int
	Converged  bool    // false means the iteration cap was hit; scores are best effort
	Delta      float64 // max per-node change of the final step
}

// Score returns the score for id, 0 if it is not ranked
func (r Result) Score(id models.NodeID) float64 {
	return r.Scores[id]
}

// Format renders the score for display with three decimals
func (r Result) Format(id models.NodeID) string {
	score, ok := r.Scores[id]
	if !ok {
		return "0.000"
	}
	return fmt.Sprintf("%.3f", score)
}

// Sum adds all scores
func (r Result) Sum() float64 {
	total := 0.0
	for _, v := range r.Scores {
		total += v
	}
	return total
}

// RankedNode pairs a node with its score
type RankedNode struct {
	ID    models.NodeID
	Score float64
}

// Ranked returns the nodes ordered by score, highest first, ties by id
func (r Result) Ranked() []RankedNode {
	ranked := make([]RankedNode, 0, len(r.Scores))
	for id, score := range r.Scores {
		ranked = append(ranked, RankedNode{ID: id, Score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked
}

// Engine recomputes ranks from scratch for a graph
type Engine struct {
	Tolerance     float64
	MaxIterations int
	logger        *slog.Logger
}

// NewEngine creates an engine with default tolerance and iteration cap
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
		logger:        logger,
	}
}

// Compute expands the graph into unit links and runs power iteration until
// convergence, the iteration cap or context cancellation. It never fails:
// an unconverged vector is returned with Converged set to false.
func (e *Engine) Compute(ctx context.Context, graph *models.Graph) Result {
	start := time.Now()
	ctx, span := metrics.StartSpan(ctx, "rank.compute",
		attribute.Int("nodes", graph.Len()),
		attribute.Int64("revision", int64(graph.Revision())),
	)
	defer span.End()

	links := Expand(graph)
	alg := NewPowerIteration(Damping, e.Tolerance)
	alg.Initialize(links)

	converged := links.Len() == 0
	for i := 0; i < e.MaxIterations && !converged; i++ {
		if ctx.Err() != nil {
			break
		}
		converged = alg.Step()
	}

	result := Result{
		Scores:     alg.Scores(),
		Iterations: alg.Iterations(),
		Converged:  converged,
		Delta:      alg.Delta(),
	}

	elapsed := time.Since(start)
	metrics.RecordRecompute(elapsed.Seconds(), result.Iterations, converged)
	metrics.AddSpanAttributes(ctx,
		attribute.Int("iterations", result.Iterations),
		attribute.Bool("converged", converged),
	)

	if !converged {
		e.logger.Warn("rank did not converge",
			slog.Int("iterations", result.Iterations),
			slog.Float64("delta", result.Delta),
			slog.Int("nodes", links.Len()),
		)
	} else {
		e.logger.Debug("rank recomputed",
			slog.Int("iterations", result.Iterations),
			slog.Duration("elapsed", elapsed),
			slog.Int("nodes", links.Len()),
		)
	}

	return result
}
