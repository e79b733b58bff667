package config

import "github.com/codeready-toolchain/flowise-agent/pkg/session"

// Built-in defaults, applied by load() for anything the YAML file and
// environment leave unset. One function per section rather than a single
// giant literal, so validate() and tests can reconstruct "the default" for
// any one section in isolation.

// DefaultRuntimeConfig mirrors orchestrator.DefaultConfig's bounds (§5
// "hard iteration cap 10").
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Mode:                    session.RuntimeModeCapabilityFirst,
		MaxIterations:           10,
		MaxTotalTokens:          0,
		TrialsK:                 3,
		RateLimitSessionsPerMin: 10,
	}
}

// DefaultReasoningConfig leaves Model empty — the reasoning engine's own
// adapter supplies a provider-appropriate default model when unset.
func DefaultReasoningConfig() ReasoningConfig {
	return ReasoningConfig{
		Engine:      ReasoningEngineClaude,
		Model:       "",
		Temperature: 0.2,
	}
}

func DefaultDriftPolicyConfig() DriftPolicyConfig {
	return DriftPolicyConfig{Policy: session.DriftPolicyWarn}
}

func DefaultDiscoverCacheConfig() DiscoverCacheConfig {
	return DiscoverCacheConfig{TTLSeconds: 300}
}

func DefaultPlatformConfig() PlatformConfig {
	return PlatformConfig{}
}

func DefaultWebhookConfig() WebhookConfig {
	return WebhookConfig{TimeoutSecs: 10, MaxRetries: 3}
}
