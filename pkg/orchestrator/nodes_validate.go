package orchestrator

import (
	"context"

	"github.com/codeready-toolchain/flowise-agent/pkg/apperrors"
	"github.com/codeready-toolchain/flowise-agent/pkg/session"
	"github.com/codeready-toolchain/flowise-agent/pkg/validate"
)

// validateNode runs validate_flow_data and the §4.6 schema-drift check
// against the fingerprint that was current *before* this compile (stashed
// by compileFlow under st.Debug["schema_fingerprint_before"]).
func validateNode(_ context.Context, e *Engine, st *session.State) (string, error) {
	if err := validate.FlowData(st.CompiledGraph); err != nil {
		st.Verdict = session.ConvergeVerdict{
			Status:   session.VerdictIterate,
			Category: session.CategoryStructure,
			Reason:   err.Error(),
			Fix:      "repair the flow_data shape flagged above before re-attempting compile_flow",
		}
		return NodeEvaluate, nil
	}

	previous, _ := st.Debug["schema_fingerprint_before"].(string)
	if drifted, current := e.Schemas.DriftCheck(previous, e.Config.DriftPolicy); drifted {
		st.Debug["schema_drift_detected"] = true
		if e.Config.DriftPolicy == session.DriftPolicyFail {
			return "", apperrors.Wrap(apperrors.KindSchemaDrift, apperrors.ErrSchemaDrift, map[string]any{
				"previous_fingerprint": previous,
				"fingerprint":          current,
			})
		}
		// warn/refresh policies proceed; the fingerprint mismatch is only
		// surfaced via st.Debug for the caller to inspect.
	}

	hash := st.PayloadHash
	st.ValidatedHash = &hash
	return NodePreflight, nil
}
