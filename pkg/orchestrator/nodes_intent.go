package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/codeready-toolchain/flowise-agent/pkg/apperrors"
	"github.com/codeready-toolchain/flowise-agent/pkg/session"
)

const classifyIntentSystemPrompt = `Classify whether the requirement describes creating a brand-new Flowise
dataflow or updating an existing one. Respond with exactly one word: CREATE or UPDATE.`

// classifyIntent resolves session.Intent (§4.1 node A). hydrate_context's
// bookkeeping — assembling the common requirement/runtime-mode context
// every downstream node reads — is folded in here rather than kept as a
// separate node, since the abridged routing table (§4.1) never names
// hydrate_context as a distinct hop.
func classifyIntent(ctx context.Context, e *Engine, st *session.State) (string, error) {
	if st.Intent == "" {
		text, err := generateText(ctx, e, st, classifyIntentSystemPrompt, st.Requirement)
		if err != nil {
			return "", err
		}
		if strings.Contains(strings.ToUpper(text), "UPDATE") {
			st.Intent = session.IntentUpdate
		} else {
			st.Intent = session.IntentCreate
		}
	}

	if st.Intent == session.IntentUpdate {
		return NodeResolveTarget, nil
	}
	return NodeClarify, nil
}

// resolveTarget finds the UPDATE target graph (§4.1 node B). Zero matches
// is fatal (UNRESOLVED_TARGET); exactly one resolves immediately; two or
// more suspends with a target_select interrupt (§6).
func resolveTarget(ctx context.Context, e *Engine, st *session.State) (string, error) {
	matches, err := e.Platform.SearchGraphs(ctx, st.Requirement)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindRetriable, err, nil)
	}

	switch len(matches) {
	case 0:
		return "", apperrors.Wrap(apperrors.KindUnresolvedTarget, apperrors.ErrUnresolvedTarget, map[string]any{"requirement": st.Requirement})
	case 1:
		id := matches[0].ID
		st.TargetGraphID = &id
		return NodeLoadCurrentFlow, nil
	default:
		candidates := make([]map[string]string, 0, len(matches))
		for _, m := range matches {
			candidates = append(candidates, map[string]string{"id": m.ID, "name": m.Name})
		}
		st.PendingInterrupt = &session.Interrupt{
			Type:    session.InterruptTargetSelect,
			Payload: map[string]any{"candidates": candidates},
		}
		st.CurrentNode = NodeLoadCurrentFlow
		return "", nil
	}
}

// loadCurrentFlow fetches the UPDATE target's current graph payload (§4.1 node C).
func loadCurrentFlow(ctx context.Context, e *Engine, st *session.State) (string, error) {
	if st.TargetGraphID == nil {
		return "", apperrors.New(apperrors.KindInternal, "load_current_flow: target_graph_id not set", nil)
	}
	graph, err := e.Platform.GetGraph(ctx, *st.TargetGraphID)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindRetriable, err, map[string]any{"target_graph_id": *st.TargetGraphID})
	}
	st.BaseGraph = &graph
	return NodeSummarizeCurrentFlow, nil
}

// summarizeCurrentFlow folds the base graph's shape into discovery_summary
// so downstream prompts see a compact description, never the raw payload
// (§3 I5 generalizes the same "summary only" discipline to this node too).
func summarizeCurrentFlow(_ context.Context, _ *Engine, st *session.State) (string, error) {
	if st.BaseGraph == nil {
		return NodeClarify, nil
	}
	types := make(map[string]int)
	for _, n := range st.BaseGraph.Nodes {
		types[n.Type]++
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Current flow has %d node(s) and %d edge(s).", len(st.BaseGraph.Nodes), len(st.BaseGraph.Edges))
	for t, c := range types {
		fmt.Fprintf(&b, " %s x%d.", t, c)
	}
	st.DiscoverySummary = b.String()
	return NodeClarify, nil
}
