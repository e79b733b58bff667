package orchestrator

import (
	"context"
	"time"

	"github.com/codeready-toolchain/flowise-agent/pkg/apperrors"
	"github.com/codeready-toolchain/flowise-agent/pkg/capability"
	"github.com/codeready-toolchain/flowise-agent/pkg/checkpoint"
	"github.com/codeready-toolchain/flowise-agent/pkg/events"
	"github.com/codeready-toolchain/flowise-agent/pkg/evaluator"
	"github.com/codeready-toolchain/flowise-agent/pkg/ir"
	"github.com/codeready-toolchain/flowise-agent/pkg/knowledge"
	"github.com/codeready-toolchain/flowise-agent/pkg/llm"
	"github.com/codeready-toolchain/flowise-agent/pkg/session"
	"github.com/codeready-toolchain/flowise-agent/pkg/telemetry"
	"github.com/codeready-toolchain/flowise-agent/pkg/tooling"
	"github.com/codeready-toolchain/flowise-agent/pkg/webhook"
)

// Node names — the vertices of the §4.1 state machine. Declared as a
// closed set so routing decisions (node funcs returning one of these) are
// typo-checked at compile time via the registry's lookup, not stringly at
// runtime.
const (
	NodeClassifyIntent       = "classify_intent"
	NodeResolveTarget        = "resolve_target"
	NodeLoadCurrentFlow      = "load_current_flow"
	NodeSummarizeCurrentFlow = "summarize_current_flow"
	NodeClarify              = "clarify"
	NodeDiscover             = "discover"
	NodeCheckCredentials     = "check_credentials"
	NodePlanV2               = "plan_v2"
	NodeDefineScope          = "define_scope"
	NodeCompileIR            = "compile_ir"
	NodeCompileFlow          = "compile_flow"
	NodeValidate             = "validate"
	NodeRepairSchema         = "repair_schema"
	NodePreflight            = "preflight"
	NodeApplyPatch           = "apply_patch"
	NodeTest                 = "test"
	NodeEvaluate             = "evaluate"
	nodeEnd                  = "" // terminal marker, never registered
)

// Config bounds the state machine's resource usage (§5).
type Config struct {
	MaxIterations  int
	MaxTotalTokens int // 0 disables the token ceiling
	TrialsK        int
	AnchorMatch    ir.AnchorMatchConfig
	DriftPolicy    session.DriftPolicy

	// SkipClarification bypasses the clarify node's interrupt regardless of
	// ambiguity score (§6 SKIP_CLARIFICATION, clarify routing rule "score >= 5
	// AND a skip flag is not set").
	SkipClarification bool
}

// DefaultConfig mirrors the spec defaults: hard iteration cap 10, k-trials
// concurrency bound min(k,8) applied at test time, warn drift policy.
func DefaultConfig() Config {
	return Config{
		MaxIterations: 10,
		TrialsK:       3,
		AnchorMatch:   ir.DefaultAnchorMatchConfig(),
		DriftPolicy:   session.DriftPolicyWarn,
	}
}

// Engine holds every collaborator the node functions need and drives the
// state machine loop. One Engine serves every session concurrently — it
// holds no per-session mutable state itself (§5 "no shared mutable
// in-process state between sessions beyond the checkpointer handle").
type Engine struct {
	Checkpoint   checkpoint.Store
	Schemas      *knowledge.NodeSchemaStore
	Anchors      *knowledge.AnchorDictionaryStore
	Creds        *knowledge.CredentialStore
	Patterns     *knowledge.PatternStore
	Capabilities []capability.Capability
	LLM          llm.Client
	Platform     Platform
	Tools        *tooling.Registry
	Cache        *tooling.TTLCache
	Telemetry    *telemetry.Recorder
	Hub          *events.Hub
	Webhook      *webhook.Notifier
	Config       Config

	// sleep is the backoff delay function, overridable in tests.
	sleep func(time.Duration)
}

// New creates an Engine. sleep defaults to time.Sleep.
func New(deps Engine) *Engine {
	e := deps
	if e.sleep == nil {
		e.sleep = time.Sleep
	}
	if e.Telemetry == nil {
		e.Telemetry = telemetry.NewRecorder()
	}
	return &e
}

type nodeFunc func(ctx context.Context, e *Engine, st *session.State) (next string, err error)

var registry = map[string]nodeFunc{
	NodeClassifyIntent:       classifyIntent,
	NodeResolveTarget:        resolveTarget,
	NodeLoadCurrentFlow:      loadCurrentFlow,
	NodeSummarizeCurrentFlow: summarizeCurrentFlow,
	NodeClarify:              clarify,
	NodeDiscover:             discover,
	NodeCheckCredentials:     checkCredentials,
	NodePlanV2:               planV2,
	NodeDefineScope:          defineScope,
	NodeCompileIR:            compileIR,
	NodeCompileFlow:          compileFlow,
	NodeValidate:             validateNode,
	NodeRepairSchema:         repairSchema,
	NodePreflight:            preflight,
	NodeApplyPatch:           applyPatch,
	NodeTest:                 runTests,
	NodeEvaluate:             evaluateNode,
}

// retriableBackoff is the §4.1 "up to 3 retries with exponential backoff
// (1s, 2s, 4s)" schedule for RETRIABLE node failures.
var retriableBackoff = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// Run drives st from its CurrentNode until a terminal state, an error, or a
// HITL interrupt suspends it. It always returns the final state (even on
// error, so the caller can persist and surface it) alongside a Go error
// only for conditions the caller cannot recover from by inspecting state
// (e.g. an unregistered node name — a programming error, not a domain one).
func (e *Engine) Run(ctx context.Context, st *session.State) (*session.State, error) {
	for {
		if st.CurrentNode == nodeEnd {
			st.Status = session.StatusCompleted
			e.checkpointAndNotify(ctx, st)
			return st, nil
		}

		if exhausted := e.checkBudget(st); exhausted {
			st.Status = session.StatusError
			st.ErrorKind = string(apperrors.KindExhausted)
			st.ErrorDetail = apperrors.ErrExhausted.Error()
			e.checkpointAndNotify(ctx, st)
			return st, nil
		}

		fn, ok := registry[st.CurrentNode]
		if !ok {
			return st, apperrors.New(apperrors.KindInternal, "unregistered node", map[string]any{"node": st.CurrentNode})
		}

		phase := st.CurrentNode
		var next string
		err := e.Telemetry.Track(ctx, st, phase, func(ctx context.Context) error {
			var trackErr error
			next, trackErr = e.runWithRetry(ctx, fn, st)
			return trackErr
		})
		if err != nil {
			st.Status = session.StatusError
			if ae, ok := err.(*apperrors.AgentError); ok {
				st.ErrorKind = string(ae.Kind)
				st.ErrorDetail = ae.Message
			} else {
				st.ErrorKind = string(apperrors.KindInternal)
				st.ErrorDetail = err.Error()
			}
			e.checkpointAndNotify(ctx, st)
			return st, nil
		}

		st.UpdatedAt = time.Now()

		if st.PendingInterrupt != nil {
			st.Status = session.StatusPendingInterrupt
			// The interrupting node sets CurrentNode to the node resume()
			// should run once the HITL response is merged in.
			e.checkpointAndNotify(ctx, st)
			return st, nil
		}

		st.CurrentNode = next
	}
}

// runWithRetry executes fn, retrying RETRIABLE failures per the §4.1
// backoff schedule before surfacing the error to Run.
func (e *Engine) runWithRetry(ctx context.Context, fn nodeFunc, st *session.State) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= len(retriableBackoff); attempt++ {
		next, err := fn(ctx, e, st)
		if err == nil {
			return next, nil
		}
		lastErr = err
		if !apperrors.IsKind(err, apperrors.KindRetriable) {
			return "", err
		}
		if attempt < len(retriableBackoff) {
			e.sleep(retriableBackoff[attempt])
		}
	}
	return "", lastErr
}

// checkBudget reports whether st has exhausted its iteration or token
// budget (§5 "Iteration budget: hard cap per session (default 10)").
func (e *Engine) checkBudget(st *session.State) bool {
	if e.Config.MaxIterations > 0 && st.Iteration >= e.Config.MaxIterations {
		return true
	}
	if e.Config.MaxTotalTokens > 0 && st.TotalInputTokens+st.TotalOutputTokens >= e.Config.MaxTotalTokens {
		return true
	}
	return false
}

func (e *Engine) checkpointAndNotify(ctx context.Context, st *session.State) {
	if e.Checkpoint != nil {
		_ = e.Checkpoint.Save(ctx, st.ThreadID, st)
	}
	if e.Hub != nil {
		kind := events.KindDone
		switch st.Status {
		case session.StatusPendingInterrupt:
			kind = events.KindInterrupt
		case session.StatusError:
			kind = events.KindError
		}
		e.Hub.Publish(events.Event{Kind: kind, ThreadID: st.ThreadID, Interrupt: st.PendingInterrupt, Data: map[string]any{"status": st.Status}})
	}
	if e.Webhook != nil && st.WebhookURL != nil && (st.Status == session.StatusPendingInterrupt || st.Status == session.StatusCompleted || st.Status == session.StatusError) {
		go e.Webhook.Notify(context.WithoutCancel(ctx), *st.WebhookURL, map[string]any{
			"thread_id": st.ThreadID,
			"status":    st.Status,
			"interrupt": st.PendingInterrupt,
		})
	}
}

// evaluatorPlaybookMessage exposes evaluator.NextPlanMessage to node files
// without every node file needing its own import alias juggling.
func evaluatorPlaybookMessage(v session.ConvergeVerdict) string {
	return evaluator.NextPlanMessage(v)
}
