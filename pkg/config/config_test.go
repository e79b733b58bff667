package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsReflectsLoadedConfig(t *testing.T) {
	cfg := &Config{
		configDir: "/etc/flowise-agent",
		Runtime:   DefaultRuntimeConfig(),
		Reasoning: DefaultReasoningConfig(),
	}
	stats := cfg.Stats()
	assert.Equal(t, cfg.Runtime.Mode, stats.RuntimeMode)
	assert.Equal(t, cfg.Reasoning.Engine, stats.ReasoningEngine)
	assert.Equal(t, cfg.Runtime.MaxIterations, stats.MaxIterations)
}

func TestConfigDirReturnsLoadDirectory(t *testing.T) {
	cfg := &Config{configDir: "/etc/flowise-agent"}
	assert.Equal(t, "/etc/flowise-agent", cfg.ConfigDir())
}

func TestOrchestratorConfigProjection(t *testing.T) {
	cfg := &Config{
		Runtime:     RuntimeConfig{MaxIterations: 5, MaxTotalTokens: 1000, TrialsK: 2},
		DriftPolicy: DriftPolicyConfig{Policy: "fail"},
	}
	oc := cfg.OrchestratorConfig()
	assert.Equal(t, 5, oc.MaxIterations)
	assert.Equal(t, 1000, oc.MaxTotalTokens)
	assert.Equal(t, 2, oc.TrialsK)
	assert.EqualValues(t, "fail", oc.DriftPolicy)
}
