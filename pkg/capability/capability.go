// Package capability implements the §4.8 domain capability interface: a
// polymorphic abstraction ({FlowiseCapability, …}) the orchestration graph
// holds a set of, each contributing discover/compile_ops results that the
// compiler merges into a single op batch.
package capability

import (
	"context"

	"github.com/codeready-toolchain/flowise-agent/pkg/session"
)

// DiscoverInput is the context passed to Discover (§4.8 "discover(context)").
type DiscoverInput struct {
	ThreadID      string
	Requirement   string
	Clarification *string
	Intent        session.Intent
	TargetGraphID *string
}

// DiscoverResult is §4.8's `{summary, facts, artifacts, debug}`.
type DiscoverResult struct {
	Summary   string
	Facts     map[string]any
	Artifacts map[string]any
	Debug     map[string]any
}

// CompileOpsResult is §4.8's `{ops, warnings}`.
type CompileOpsResult struct {
	Ops      []session.Op
	Warnings []string
}

// Capability is the polymorphic domain abstraction (§4.8). The
// orchestration graph holds a set of these; the compiler merges every
// capability's Ops into one batch before compile_flow.
type Capability interface {
	Discover(ctx context.Context, in DiscoverInput) (DiscoverResult, error)
	CompileOps(ctx context.Context, plan session.PlanContract, baseGraph session.GraphPayload) (CompileOpsResult, error)
}

// MergeOps concatenates every capability's ops into the single batch
// compile_flow consumes (§4.8: "The compiler merges ops from all
// capabilities into a single batch before compile_flow").
func MergeOps(results []CompileOpsResult) ([]session.Op, []string) {
	var ops []session.Op
	var warnings []string
	for _, r := range results {
		ops = append(ops, r.Ops...)
		warnings = append(warnings, r.Warnings...)
	}
	return ops, warnings
}
