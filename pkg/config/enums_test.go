package config

import (
	"testing"

	"github.com/codeready-toolchain/flowise-agent/pkg/session"
	"github.com/stretchr/testify/assert"
)

func TestReasoningEngineIsValid(t *testing.T) {
	assert.True(t, ReasoningEngineClaude.IsValid())
	assert.True(t, ReasoningEngineOpenAI.IsValid())
	assert.False(t, ReasoningEngine("gemini").IsValid())
	assert.False(t, ReasoningEngine("").IsValid())
}

func TestDriftPolicyValid(t *testing.T) {
	assert.True(t, driftPolicyValid(session.DriftPolicyWarn))
	assert.True(t, driftPolicyValid(session.DriftPolicyFail))
	assert.True(t, driftPolicyValid(session.DriftPolicyRefresh))
	assert.False(t, driftPolicyValid(session.DriftPolicy("ignore")))
}

func TestRuntimeModeValid(t *testing.T) {
	assert.True(t, runtimeModeValid(session.RuntimeModeCapabilityFirst))
	assert.True(t, runtimeModeValid(session.RuntimeModeCompatLegacy))
	assert.False(t, runtimeModeValid(session.RuntimeMode("legacy")))
}
