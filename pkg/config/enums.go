package config

import "github.com/codeready-toolchain/flowise-agent/pkg/session"

// ReasoningEngine selects which LLM backend the orchestrator's llm.Client
// adapter targets (REASONING_ENGINE env var).
type ReasoningEngine string

const (
	ReasoningEngineClaude ReasoningEngine = "claude"
	ReasoningEngineOpenAI ReasoningEngine = "openai"
)

// IsValid reports whether e is one of the supported reasoning engines.
func (e ReasoningEngine) IsValid() bool {
	return e == ReasoningEngineClaude || e == ReasoningEngineOpenAI
}

// driftPolicies are the valid values for DriftPolicyConfig.Policy, re-using
// session.DriftPolicy so validation and runtime behavior never drift apart.
func driftPolicyValid(p session.DriftPolicy) bool {
	switch p {
	case session.DriftPolicyWarn, session.DriftPolicyFail, session.DriftPolicyRefresh:
		return true
	default:
		return false
	}
}

// RuntimeModeValid reports whether m is one of the two modes a session can
// be created with (§3 "fixed at session creation and never changes").
func runtimeModeValid(m session.RuntimeMode) bool {
	return m == session.RuntimeModeCapabilityFirst || m == session.RuntimeModeCompatLegacy
}
