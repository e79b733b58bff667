package orchestrator

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/flowise-agent/pkg/session"
)

// Resume injects a HITL response into the suspended interrupt at
// st.PendingInterrupt and continues the state machine from st.CurrentNode,
// which the interrupting node set to the node that should run next
// (§4.1 "resume(thread_id, response) injects the response into the next
// node's input").
func (e *Engine) Resume(ctx context.Context, st *session.State, response map[string]any) (*session.State, error) {
	if st.PendingInterrupt == nil {
		return st, fmt.Errorf("orchestrator: session %q has no pending interrupt", st.ThreadID)
	}

	switch st.PendingInterrupt.Type {
	case session.InterruptClarification:
		if answer, ok := response["clarification"].(string); ok {
			st.Clarification = &answer
		}

	case session.InterruptCredentialCheck:
		// The caller is expected to have registered the missing credentials
		// with the credential store out of band; nothing to merge into
		// state beyond resuming the pipeline at check_credentials again so
		// it can re-evaluate discovery_summary against the now-complete
		// credential store.
		st.CurrentNode = NodeCheckCredentials

	case session.InterruptPlanApproval:
		approved, _ := response["approved"].(bool)
		if !approved {
			if feedback, ok := response["feedback"].(string); ok && feedback != "" {
				st.Messages = append(st.Messages, session.Message{Role: session.RoleUser, Content: feedback})
			}
			st.CurrentNode = NodePlanV2
		}
		// approved==true: CurrentNode was already left at define_scope by planV2.

	case session.InterruptResultReview:
		accept, _ := response["accept"].(bool)
		if accept {
			st.CurrentNode = nodeEnd
		} else {
			if fix, ok := response["fix"].(string); ok && fix != "" {
				st.Messages = append(st.Messages, session.Message{Role: session.RoleUser, Content: fix})
			}
			st.Iteration++
			st.CurrentNode = NodePlanV2
		}

	case session.InterruptTargetSelect:
		if id, ok := response["target_graph_id"].(string); ok {
			st.TargetGraphID = &id
		}
		// CurrentNode was already left at load_current_flow by resolveTarget.
	}

	st.PendingInterrupt = nil
	st.Status = session.StatusRunning
	return e.Run(ctx, st)
}
