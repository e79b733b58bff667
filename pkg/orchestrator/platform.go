// Package orchestrator implements the 18-node orchestration state machine
// (spec §4.1): classify intent, resolve/load a target graph, clarify,
// discover, plan, compile, validate, apply, test, and evaluate — looping
// until a terminal DONE/EXHAUSTED/ERROR state or a human-in-the-loop
// interrupt suspends the session.
package orchestrator

import (
	"context"

	"github.com/codeready-toolchain/flowise-agent/pkg/knowledge"
	"github.com/codeready-toolchain/flowise-agent/pkg/session"
)

// GraphSummary is one candidate returned by Platform.SearchGraphs, enough
// to render a target_select interrupt's candidate list (§6).
type GraphSummary struct {
	ID   string
	Name string
}

// Platform is the external Flowise collaborator: graph search/fetch/write
// and prediction execution. The core never talks to Flowise directly —
// this is the same "external collaborator behind an interface" discipline
// already used for pkg/checkpoint.Store and pkg/knowledge.PatternStore.
type Platform interface {
	// SearchGraphs finds existing graphs matching requirement, for
	// resolve_target (§4.1).
	SearchGraphs(ctx context.Context, requirement string) ([]GraphSummary, error)

	// GetGraph fetches a graph's current payload, for load_current_flow.
	GetGraph(ctx context.Context, graphID string) (session.GraphPayload, error)

	// CreateGraph creates a brand-new graph (CREATE intent) and returns its id.
	CreateGraph(ctx context.Context, payload session.GraphPayload) (string, error)

	// WriteGraph overwrites an existing graph's payload (UPDATE intent, or
	// CREATE after the id is known), guarded by WriteGuard (§4.3) at the
	// call site — this method performs the write unconditionally once called.
	WriteGraph(ctx context.Context, graphID string, payload session.GraphPayload) error

	// FetchNodeSchema re-indexes a single node type from the platform for
	// repair_schema (§4.6 "repair path fetches a single schema by name").
	FetchNodeSchema(ctx context.Context, nodeType string) (knowledge.NodeTemplate, error)

	// Predict executes one test case's prompt against the deployed graph's
	// prediction endpoint, for the test node (§4.1, §5 trials_k).
	Predict(ctx context.Context, graphID, sessionID, prompt string) (string, error)
}
