// Package telemetry wraps orchestration node execution with the
// PhaseMetrics instrumentation §3 Entities describes: per-phase timing,
// token counters, tool-call and cache-hit counts, repair-event counts.
// Grounded on the reference project's per-stage instrumentation in
// pkg/agent/controller (recordLLMInteraction/accumulateUsage pattern),
// adapted from per-LLM-call bookkeeping onto per-graph-node bookkeeping.
package telemetry

import (
	"context"
	"time"

	"github.com/codeready-toolchain/flowise-agent/pkg/session"
)

// Recorder accumulates PhaseMetrics onto a session.State across node runs.
type Recorder struct {
	now func() time.Time
}

// NewRecorder creates a Recorder using the real clock.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// Track runs fn, timing it, and appends a PhaseMetrics entry to st.PhaseMetrics
// (§3 "phase_metrics" *append* reducer). inputTokens/outputTokens/toolCalls/
// cacheHits/repairEvents are read from the counters fn populates via the
// returned closure argument before Track records the entry.
func (r *Recorder) Track(ctx context.Context, st *session.State, phase string, fn func(ctx context.Context) error) error {
	start := r.now()
	counters := &Counters{}
	err := fn(withCounters(ctx, counters))
	end := r.now()

	st.PhaseMetrics = append(st.PhaseMetrics, session.PhaseMetrics{
		Phase:         phase,
		StartTS:       start,
		EndTS:         end,
		DurationMS:    end.Sub(start).Milliseconds(),
		InputTokens:   counters.InputTokens,
		OutputTokens:  counters.OutputTokens,
		ToolCallCount: counters.ToolCalls,
		CacheHits:     counters.CacheHits,
		RepairEvents:  counters.RepairEvents,
	})
	st.TotalInputTokens += counters.InputTokens
	st.TotalOutputTokens += counters.OutputTokens

	return err
}

// Counters is the set of per-phase counters a node body increments via the
// context it receives from Track.
type Counters struct {
	InputTokens  int
	OutputTokens int
	ToolCalls    int
	CacheHits    int
	RepairEvents int
}

type countersKey struct{}

func withCounters(ctx context.Context, c *Counters) context.Context {
	return context.WithValue(ctx, countersKey{}, c)
}

// FromContext returns the Counters attached by Track, or a throwaway zero
// value if this context wasn't produced by Track (e.g. in unit tests that
// call a node function directly).
func FromContext(ctx context.Context) *Counters {
	if c, ok := ctx.Value(countersKey{}).(*Counters); ok {
		return c
	}
	return &Counters{}
}
