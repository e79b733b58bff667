// Package evaluator implements the §4.4 evaluator-optimizer playbook: a
// stateless, category-keyed lookup consulted on every ITERATE verdict.
package evaluator

import "github.com/codeready-toolchain/flowise-agent/pkg/session"

// playbook is the static table from §4.4. Never mutated at runtime — every
// iteration consults the same entries.
var playbook = map[session.VerdictCategory]string{
	session.CategoryCredential: "Verify dual-binding at both data.credential and data.inputs.credential; re-resolve credential id by type.",
	session.CategoryStructure:  "Call the pre-flight graph validator before any write; enforce minimum {nodes:[], edges:[]} shape; check required data keys.",
	session.CategoryLogic:      "Scope the change to the specific failing node/parameter named in the test output.",
	session.CategoryIncomplete: "Verify deployed=true and that the correct target_graph_id is used.",
}

// Playbook returns the static instruction for category, ok=false if the
// category has no entry (e.g. a future category not yet in the table).
func Playbook(category session.VerdictCategory) (string, bool) {
	instruction, ok := playbook[category]
	return instruction, ok
}

// NextPlanMessage builds the extra message appended to the next plan_v2
// invocation on ITERATE (§4.4): the raw verdict block followed by the
// category-keyed playbook entry.
func NextPlanMessage(v session.ConvergeVerdict) string {
	msg := "Previous verdict: ITERATE\nCategory: " + string(v.Category) + "\nReason: " + v.Reason + "\nFix: " + v.Fix
	if instruction, ok := Playbook(v.Category); ok {
		msg += "\n\nPlaybook: " + instruction
	}
	return msg
}
