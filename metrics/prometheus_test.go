package metrics

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMutationAndNoticeCounters(t *testing.T) {
	RecordMutation("link")
	if got := testutil.ToFloat64(mutations.WithLabelValues("link")); got < 1 {
		t.Fatalf("expected link mutation counter >= 1, got %v", got)
	}

	RecordNotice("strengthened")
	if got := testutil.ToFloat64(notices.WithLabelValues("strengthened")); got < 1 {
		t.Fatalf("expected strengthened notice counter >= 1, got %v", got)
	}
}

func TestActiveSessionsGauge(t *testing.T) {
	before := testutil.ToFloat64(activeSessions)
	IncrementActiveSessions()
	if got := testutil.ToFloat64(activeSessions); got != before+1 {
		t.Fatalf("expected active sessions %v, got %v", before+1, got)
	}
	DecrementActiveSessions()
	if got := testutil.ToFloat64(activeSessions); got != before {
		t.Fatalf("expected active sessions %v, got %v", before, got)
	}
}

func TestRecordRecompute_CountsUnconverged(t *testing.T) {
	before := testutil.ToFloat64(lowConfidence)
	RecordRecompute(0.0002, 12, true)
	if got := testutil.ToFloat64(lowConfidence); got != before {
		t.Fatalf("converged recompute must not count as unconverged, got %v", got)
	}
	RecordRecompute(0.0002, 1000, false)
	if got := testutil.ToFloat64(lowConfidence); got != before+1 {
		t.Fatalf("expected unconverged counter %v, got %v", before+1, got)
	}
}

func TestIterationHistogramRegistered(t *testing.T) {
	RecordRecompute(0.001, 30, true)

	count := testutil.CollectAndCount(recomputeIterations, "rankgraph_recompute_iterations")
	if count != 1 {
		t.Fatalf("expected one iterations histogram, got %d", count)
	}
}

func TestActiveSessionsExposition(t *testing.T) {
	expected := `
# HELP rankgraph_active_sessions Current number of live editing sessions
# TYPE rankgraph_active_sessions gauge
rankgraph_active_sessions 0
`
	if err := testutil.CollectAndCompare(activeSessions, strings.NewReader(expected)); err != nil {
		t.Fatalf("unexpected gauge output: %v", err)
	}
}

func TestStartSpan_NoopWithoutTracing(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "rank.compute")
	defer span.End()
	if span.IsRecording() {
		t.Error("expected a non-recording span when tracing is disabled")
	}
	if ctx == nil {
		t.Error("expected a context")
	}
	if err := ShutdownTracing(); err != nil {
		t.Errorf("shutdown without provider: %v", err)
	}
}
