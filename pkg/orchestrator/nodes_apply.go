package orchestrator

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/flowise-agent/pkg/apperrors"
	"github.com/codeready-toolchain/flowise-agent/pkg/session"
	"github.com/expr-lang/expr"
	"golang.org/x/sync/errgroup"
)

// preflight enforces the minimum {nodes:[], edges:[]} shape and required
// data keys before any write reaches the platform (§4.4 STRUCTURE playbook
// entry: "enforce minimum shape before any write").
func preflight(_ context.Context, _ *Engine, st *session.State) (string, error) {
	if st.CompiledGraph.Nodes == nil {
		st.CompiledGraph.Nodes = []session.GraphNode{}
	}
	if st.CompiledGraph.Edges == nil {
		st.CompiledGraph.Edges = []session.GraphEdge{}
	}
	for _, n := range st.CompiledGraph.Nodes {
		if n.ID == "" || n.Type == "" {
			st.Verdict = session.ConvergeVerdict{
				Status:   session.VerdictIterate,
				Category: session.CategoryStructure,
				Reason:   fmt.Sprintf("node %+v is missing id or type", n),
				Fix:      "compile_ir must supply node_id and node_type on every AddNode op",
			}
			return NodeEvaluate, nil
		}
	}
	return NodeApplyPatch, nil
}

// applyPatch is the WriteGuard (§4.3): the hash recomputed over the
// compiled graph must equal both payload_hash (recorded at compile time)
// and validated_hash (recorded at validate time) before any write reaches
// the platform. A mismatch aborts the write and surfaces a STRUCTURE
// verdict for the current iteration (I2, §4.1 state table
// "apply_patch | hash mismatch -> evaluate (STRUCTURE)") rather than
// failing the session outright.
func applyPatch(ctx context.Context, e *Engine, st *session.State) (string, error) {
	if st.ValidatedHash == nil || *st.ValidatedHash != st.PayloadHash {
		st.Verdict = session.ConvergeVerdict{
			Status:   session.VerdictIterate,
			Category: session.CategoryStructure,
			Reason:   "write guard mismatch: compiled graph changed between validate and apply",
			Fix:      "recompile the patch before retrying apply_patch",
		}
		return NodeEvaluate, nil
	}

	if st.Intent == session.IntentCreate && st.TargetGraphID == nil {
		id, err := e.Platform.CreateGraph(ctx, st.CompiledGraph)
		if err != nil {
			return "", apperrors.Wrap(apperrors.KindRetriable, err, nil)
		}
		st.TargetGraphID = &id
		return NodeTest, nil
	}

	if st.TargetGraphID == nil {
		return "", apperrors.New(apperrors.KindInternal, "apply_patch: no target_graph_id for an UPDATE session", nil)
	}
	if err := e.Platform.WriteGraph(ctx, *st.TargetGraphID, st.CompiledGraph); err != nil {
		return "", apperrors.Wrap(apperrors.KindRetriable, err, map[string]any{"target_graph_id": *st.TargetGraphID})
	}
	return NodeTest, nil
}

const maxConcurrentTrials = 8

// runTests executes every TestCase x TrialsK combination concurrently
// against the platform's prediction endpoint, bounded to min(k,8) in
// flight at once (§5 "all k trials of a case run concurrently, bounded").
func runTests(ctx context.Context, e *Engine, st *session.State) (string, error) {
	if st.TargetGraphID == nil {
		return "", apperrors.New(apperrors.KindInternal, "test: no target_graph_id to predict against", nil)
	}
	graphID := *st.TargetGraphID

	type job struct {
		caseIdx int
		trial   int
		tc      session.TestCase
	}
	var jobs []job
	for ci, tc := range st.TestSuite.Cases {
		k := st.TestSuite.TrialsK
		if k <= 0 {
			k = 1
		}
		for trial := 0; trial < k; trial++ {
			jobs = append(jobs, job{caseIdx: ci, trial: trial, tc: tc})
		}
	}

	results := make([]session.TestResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentTrials)

	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			sessionID := fmt.Sprintf("%s-case%d-trial%d", st.ThreadID, j.caseIdx, j.trial)
			if j.tc.SessionIDStrategy == session.SessionIDStrategyFixed {
				sessionID = fmt.Sprintf("%s-case%d", st.ThreadID, j.caseIdx)
			}
			resp, err := e.Platform.Predict(gctx, graphID, sessionID, j.tc.Prompt)
			r := session.TestResult{CaseIndex: j.caseIdx, Trial: j.trial, Response: resp}
			if err != nil {
				r.Error = err.Error()
				results[i] = r
				return nil
			}
			r.Passed = evaluatePredicate(j.tc.ExpectedPredicate, resp)
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()

	st.TestResults = results
	return NodeEvaluate, nil
}

// evaluatePredicate runs a test case's expected_predicate expression
// against the observed response (§4.8's expr-based condition evaluation,
// generalized from anchor fuzzy-matching to test assertions).
func evaluatePredicate(predicate, response string) bool {
	if predicate == "" {
		return true
	}
	program, err := expr.Compile(predicate, expr.Env(map[string]any{"response": ""}))
	if err != nil {
		return false
	}
	out, err := expr.Run(program, map[string]any{"response": response})
	if err != nil {
		return false
	}
	passed, _ := out.(bool)
	return passed
}

// evaluateNode builds the converge verdict (§4.4). A verdict set earlier in
// this turn by preflight/validate (a STRUCTURE short-circuit) is left as-is;
// otherwise the verdict is derived from test results.
func evaluateNode(_ context.Context, _ *Engine, st *session.State) (string, error) {
	if st.Verdict.Status == session.VerdictIterate && st.Verdict.Category == session.CategoryStructure && len(st.TestResults) == 0 {
		// A pre-test STRUCTURE verdict was already recorded by preflight or
		// validateNode; use it as-is.
	} else {
		st.Verdict = deriveVerdictFromTests(st)
	}

	if st.Verdict.Status == session.VerdictDone {
		st.PendingInterrupt = &session.Interrupt{
			Type:    session.InterruptResultReview,
			Payload: map[string]any{"verdict": st.Verdict, "test_results": st.TestResults},
		}
		st.CurrentNode = nodeEnd
		return "", nil
	}

	st.Iteration++
	st.Messages = append(st.Messages, session.Message{Role: session.RoleAssistant, Content: evaluatorPlaybookMessage(st.Verdict)})
	return NodePlanV2, nil
}

// deriveVerdictFromTests satisfies I6: every PlanContract.success_criterion
// appears as a key in criteria_pass_map.
func deriveVerdictFromTests(st *session.State) session.ConvergeVerdict {
	passMap := make(map[string]bool, len(st.PlanContract.SuccessCriteria))
	allPassed := true
	var firstFailure string

	for ci, criterion := range st.PlanContract.SuccessCriteria {
		casePassed := true
		for _, r := range st.TestResults {
			if r.CaseIndex == ci && !r.Passed {
				casePassed = false
				if firstFailure == "" {
					if r.Error != "" {
						firstFailure = r.Error
					} else {
						firstFailure = fmt.Sprintf("case %d: response %q did not satisfy %q", ci, r.Response, st.PlanContract.SuccessCriteria[ci])
					}
				}
			}
		}
		passMap[criterion] = casePassed
		if !casePassed {
			allPassed = false
		}
	}

	if len(passMap) == 0 {
		// No declared success criteria — fall back to "every trial passed".
		for _, r := range st.TestResults {
			if !r.Passed {
				allPassed = false
				if firstFailure == "" {
					firstFailure = fmt.Sprintf("case %d trial %d failed", r.CaseIndex, r.Trial)
				}
			}
		}
	}

	if allPassed {
		return session.ConvergeVerdict{Status: session.VerdictDone, CriteriaPassMap: passMap}
	}
	return session.ConvergeVerdict{
		Status:          session.VerdictIterate,
		Category:        session.CategoryLogic,
		Reason:          firstFailure,
		Fix:             "adjust the failing node/parameter named in the test output",
		CriteriaPassMap: passMap,
	}
}
