package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/codeready-toolchain/flowise-agent/pkg/apperrors"
	"github.com/codeready-toolchain/flowise-agent/pkg/capability"
	"github.com/codeready-toolchain/flowise-agent/pkg/ir"
	"github.com/codeready-toolchain/flowise-agent/pkg/session"
)

const clarifySystemPrompt = `Assess how ambiguous this requirement is for building a Flowise dataflow.
Respond with ONLY a JSON object: {"score": <0-10 integer>, "questions": ["...", "..."]}
score >= 5 means you need 2-3 clarifying questions before proceeding.`

type clarifyResponse struct {
	Score     int      `json:"score"`
	Questions []string `json:"questions"`
}

// clarify runs the ambiguity self-assessment (§4.1 "clarify: ambiguity
// score... If score >= 5 emit a clarification interrupt").
func clarify(ctx context.Context, e *Engine, st *session.State) (string, error) {
	if st.Clarification != nil {
		// Resumed with an answer already in hand — don't re-ask.
		return NodeDiscover, nil
	}
	if e.Config.SkipClarification {
		return NodeDiscover, nil
	}

	text, err := generateText(ctx, e, st, clarifySystemPrompt, st.Requirement)
	if err != nil {
		return "", err
	}

	var resp clarifyResponse
	if err := json.Unmarshal([]byte(extractJSON(text)), &resp); err != nil {
		// An unparsable assessment is treated as "unambiguous" rather than
		// failing the session — the self-assessment is advisory, not a hard
		// dependency of the pipeline.
		return NodeDiscover, nil
	}

	if resp.Score >= 5 {
		st.PendingInterrupt = &session.Interrupt{
			Type: session.InterruptClarification,
			Payload: map[string]any{
				"questions": resp.Questions,
				"score":     resp.Score,
			},
		}
		st.CurrentNode = NodeDiscover
		return "", nil
	}

	return NodeDiscover, nil
}

// discover runs every registered capability's Discover (§4.1 node,
// §4.8). Per I5, only .summary ever reaches discovery_summary; raw
// payloads stay in .debug.
func discover(ctx context.Context, e *Engine, st *session.State) (string, error) {
	var clarification string
	if st.Clarification != nil {
		clarification = *st.Clarification
	}

	var summaries []string
	deltaFacts := map[string]any{}
	deltaDebug := map[string]any{}
	for _, c := range e.Capabilities {
		result, err := c.Discover(ctx, capability.DiscoverInput{
			ThreadID:      st.ThreadID,
			Requirement:   st.Requirement,
			Clarification: st.Clarification,
			Intent:        st.Intent,
			TargetGraphID: st.TargetGraphID,
		})
		if err != nil {
			return "", apperrors.Wrap(apperrors.KindRetriable, err, nil)
		}
		summaries = append(summaries, result.Summary)
		for k, v := range result.Facts {
			deltaFacts[k] = v
		}
		for k, v := range result.Debug {
			deltaDebug[k] = v
		}
	}

	summary := strings.Join(summaries, "\n")
	if clarification != "" {
		summary = "Clarification: " + clarification + "\n" + summary
	}
	if st.DiscoverySummary != "" {
		summary = st.DiscoverySummary + "\n" + summary
	}
	st.ApplyDiscoverResult(summary, deltaFacts, deltaDebug, 0, 0)

	return NodeCheckCredentials, nil
}

var credentialsStatusRe = regexp.MustCompile(`(?m)^CREDENTIALS_STATUS:\s*MISSING\s*\nMISSING_TYPES:\s*(.+)$`)

// checkCredentials parses the structured CREDENTIALS_STATUS block a
// capability's discovery summary may contain (§4.1).
func checkCredentials(_ context.Context, _ *Engine, st *session.State) (string, error) {
	m := credentialsStatusRe.FindStringSubmatch(st.DiscoverySummary)
	if m == nil {
		return NodePlanV2, nil
	}

	types := strings.Split(m[1], ",")
	for i := range types {
		types[i] = strings.TrimSpace(types[i])
	}
	st.PendingInterrupt = &session.Interrupt{
		Type:    session.InterruptCredentialCheck,
		Payload: map[string]any{"missing_types": types},
	}
	st.CurrentNode = NodePlanV2
	return "", nil
}

const planV2SystemPrompt = `Produce a plan for this Flowise dataflow change. Respond with ONLY a JSON
object shaped like:
{"plan_text": "markdown plan", "goal": "...", "domain_targets": ["..."],
 "credential_requirements": ["..."], "data_fields": ["..."], "pii_fields": ["..."],
 "success_criteria": ["..."], "action": "..."}
No prose, no markdown fences.`

type planV2Response struct {
	PlanText               string   `json:"plan_text"`
	Goal                   string   `json:"goal"`
	DomainTargets          []string `json:"domain_targets"`
	CredentialRequirements []string `json:"credential_requirements"`
	DataFields             []string `json:"data_fields"`
	PIIFields              []string `json:"pii_fields"`
	SuccessCriteria        []string `json:"success_criteria"`
	Action                 string   `json:"action"`
}

// planV2 produces plan_text/plan_contract and always suspends for approval
// (§4.1 "plan_v2 → hitl_plan_v2 [interrupt]").
func planV2(ctx context.Context, e *Engine, st *session.State) (string, error) {
	userPrompt := fmt.Sprintf("Requirement: %s\n\nDiscovery:\n%s", st.Requirement, st.DiscoverySummary)
	if st.Iteration > 0 {
		userPrompt += "\n\nPrevious iteration feedback:\n" + evaluatorPlaybookMessage(st.Verdict)
	}
	for _, msg := range lastMessages(st.Messages, 3) {
		userPrompt += fmt.Sprintf("\n\n%s: %s", msg.Role, msg.Content)
	}

	text, err := generateText(ctx, e, st, planV2SystemPrompt, userPrompt)
	if err != nil {
		return "", err
	}

	var resp planV2Response
	if err := json.Unmarshal([]byte(extractJSON(text)), &resp); err != nil {
		return "", apperrors.Wrap(apperrors.KindLogic, err, map[string]any{"stage": "plan_v2_parse"})
	}

	st.PlanText = resp.PlanText
	st.PlanContract = session.PlanContract{
		Goal:                   resp.Goal,
		DomainTargets:          resp.DomainTargets,
		CredentialRequirements: resp.CredentialRequirements,
		DataFields:             resp.DataFields,
		PIIFields:              resp.PIIFields,
		SuccessCriteria:        resp.SuccessCriteria,
		Action:                 resp.Action,
		RawPlan:                resp.PlanText,
	}

	// Seed a base-graph artifact from the pattern library to cut down on
	// AddNode ops for CREATE sessions (§4.6 PatternStore / plan_v2 seeding).
	if st.Intent == session.IntentCreate && e.Patterns != nil {
		matches := e.Patterns.SearchFiltered(st.PlanContract.DomainTargets, "", "", nil, 1)
		if len(matches) > 0 {
			if base, ok := e.Patterns.ApplyAsBaseGraph(matches[0].ID); ok {
				if st.Artifacts == nil {
					st.Artifacts = map[string]any{}
				}
				st.Artifacts["base_graph_ir"] = base
			}
		}
	}

	st.PendingInterrupt = &session.Interrupt{
		Type: session.InterruptPlanApproval,
		Payload: map[string]any{
			"plan":     st.PlanText,
			"contract": st.PlanContract,
		},
	}
	st.CurrentNode = NodeDefineScope
	return "", nil
}

// defineScope narrows the test suite to the plan's declared scope and sets
// the trials-k concurrency bound (§4.1, §5 "all k trials of a case run
// concurrently").
func defineScope(_ context.Context, e *Engine, st *session.State) (string, error) {
	k := e.Config.TrialsK
	if k <= 0 {
		k = 1
	}
	st.TestSuite.DomainScopes = st.PlanContract.DomainTargets
	st.TestSuite.TrialsK = k
	if len(st.TestSuite.Cases) == 0 {
		st.TestSuite.Cases = defaultTestCases(st.PlanContract)
	}
	return NodeCompileIR, nil
}

// defaultTestCases builds one smoke-test case per success criterion when
// the capability layer didn't supply an explicit test_suite.
func defaultTestCases(plan session.PlanContract) []session.TestCase {
	n := len(plan.SuccessCriteria)
	if n == 0 {
		n = 1
	}
	cases := make([]session.TestCase, n)
	for i := range cases {
		cases[i] = session.TestCase{
			Prompt:            plan.Goal,
			ExpectedPredicate: "len(response) > 0",
			SessionIDStrategy: session.SessionIDStrategyFresh,
		}
	}
	return cases
}

// compileIR asks every capability to turn the plan into patch ops against
// the current base graph, then merges the batches (§4.8).
func compileIR(ctx context.Context, e *Engine, st *session.State) (string, error) {
	base := baseGraphForCompile(st)

	var results []capability.CompileOpsResult
	for _, c := range e.Capabilities {
		r, err := c.CompileOps(ctx, st.PlanContract, base)
		if err != nil {
			return "", apperrors.Wrap(apperrors.KindLogic, err, nil)
		}
		results = append(results, r)
	}

	ops, warnings := capability.MergeOps(results)
	st.PatchOps = ops
	if len(warnings) > 0 {
		if st.Debug == nil {
			st.Debug = map[string]any{}
		}
		st.Debug["compile_ops_warnings"] = warnings
	}
	return NodeCompileFlow, nil
}

// baseGraphForCompile prefers a pattern-seeded base graph artifact over the
// platform's current graph, falling back to an empty graph for CREATE.
func baseGraphForCompile(st *session.State) session.GraphPayload {
	if seed, ok := st.Artifacts["base_graph_ir"].(session.GraphPayload); ok {
		return seed
	}
	if st.BaseGraph != nil {
		return *st.BaseGraph
	}
	return session.GraphPayload{}
}

// compileFlow runs the deterministic patch IR compiler (§4.2). An unknown
// node_type reroutes to repair_schema (bounded to one retry) instead of
// failing the session outright.
func compileFlow(_ context.Context, e *Engine, st *session.State) (string, error) {
	base := baseGraphForCompile(st)

	result, err := ir.Compile(st.PatchOps, base, e.Schemas, e.Anchors, e.Creds, e.Config.AnchorMatch)
	if err != nil {
		if nodeType, ok := unknownNodeType(err); ok {
			attempts, _ := st.Debug["repair_attempts"].(int)
			if attempts >= 1 {
				return "", apperrors.New(apperrors.KindStructure, "repair_schema already attempted once for "+nodeType, map[string]any{"node_type": nodeType})
			}
			if st.Debug == nil {
				st.Debug = map[string]any{}
			}
			st.Debug["unknown_node_type"] = nodeType
			st.Debug["repair_attempts"] = attempts + 1
			return NodeRepairSchema, nil
		}
		return "", err
	}

	st.CompiledGraph = result.FlowData
	st.PayloadHash = result.PayloadHash
	if st.Debug == nil {
		st.Debug = map[string]any{}
	}
	st.Debug["diff_summary"] = result.DiffSummary
	st.Debug["anchor_resolution_metrics"] = result.Metrics

	if st.SchemaFingerprint != nil {
		st.Debug["schema_fingerprint_before"] = *st.SchemaFingerprint
	}
	fp := e.Schemas.Fingerprint()
	st.SchemaFingerprint = &fp

	return NodeValidate, nil
}

func unknownNodeType(err error) (string, bool) {
	ae, ok := err.(*apperrors.AgentError)
	if !ok || ae.Kind != apperrors.KindStructure {
		return "", false
	}
	nt, ok := ae.Details["node_type"].(string)
	return nt, ok
}

// repairSchema re-indexes one node type from the platform (§4.6 "repair
// path fetches a single schema by name... and re-indexes").
func repairSchema(ctx context.Context, e *Engine, st *session.State) (string, error) {
	nodeType, _ := st.Debug["unknown_node_type"].(string)
	tmpl, err := e.Platform.FetchNodeSchema(ctx, nodeType)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindStructure, err, map[string]any{"node_type": nodeType})
	}
	e.Schemas.RefreshOne(tmpl)
	return NodeCompileFlow, nil
}

// extractJSON trims leading/trailing prose and fences an LLM sometimes adds
// around an otherwise well-formed JSON object despite instructions not to.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}

func lastMessages(msgs []session.Message, n int) []session.Message {
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
