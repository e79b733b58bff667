package config

import (
	"github.com/codeready-toolchain/flowise-agent/pkg/orchestrator"
	"github.com/codeready-toolchain/flowise-agent/pkg/session"
)

// Config is the umbrella configuration object returned by Initialize and
// threaded through every collaborator's constructor at wiring time.
type Config struct {
	configDir string

	Runtime       RuntimeConfig
	Reasoning     ReasoningConfig
	DriftPolicy   DriftPolicyConfig
	DiscoverCache DiscoverCacheConfig
	Platform      PlatformConfig
	Webhook       WebhookConfig
}

// ConfigDir returns the directory Initialize loaded the overlay YAML from.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// ConfigStats summarizes loaded configuration for the health endpoint and
// startup log line, mirroring the reference project's own Stats() shape.
type ConfigStats struct {
	RuntimeMode     session.RuntimeMode
	ReasoningEngine ReasoningEngine
	MaxIterations   int
	TrialsK         int
	DriftPolicy     session.DriftPolicy
}

// Stats returns configuration statistics for logging/monitoring.
func (c *Config) Stats() ConfigStats {
	return ConfigStats{
		RuntimeMode:     c.Runtime.Mode,
		ReasoningEngine: c.Reasoning.Engine,
		MaxIterations:   c.Runtime.MaxIterations,
		TrialsK:         c.Runtime.TrialsK,
		DriftPolicy:     c.DriftPolicy.Policy,
	}
}

// OrchestratorConfig projects the loaded configuration onto
// orchestrator.Config, the shape Engine actually consumes (§5 bounds).
func (c *Config) OrchestratorConfig() orchestrator.Config {
	cfg := orchestrator.DefaultConfig()
	cfg.MaxIterations = c.Runtime.MaxIterations
	cfg.MaxTotalTokens = c.Runtime.MaxTotalTokens
	cfg.TrialsK = c.Runtime.TrialsK
	cfg.DriftPolicy = c.DriftPolicy.Policy
	cfg.SkipClarification = c.Runtime.SkipClarification
	return cfg
}
