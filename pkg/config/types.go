package config

import "github.com/codeready-toolchain/flowise-agent/pkg/session"

// RuntimeConfig bounds a session's resource usage and the rate at which new
// sessions may be created (§5, §6 RATE_LIMIT_SESSIONS_PER_MIN).
type RuntimeConfig struct {
	Mode                    session.RuntimeMode `yaml:"runtime_mode"`
	MaxIterations           int                 `yaml:"max_iterations"`
	MaxTotalTokens          int                 `yaml:"max_total_tokens,omitempty"` // 0 disables the ceiling
	TrialsK                 int                 `yaml:"trials_k"`
	RateLimitSessionsPerMin int                 `yaml:"rate_limit_sessions_per_min"`

	// SkipClarification bypasses the clarify node's interrupt regardless of
	// ambiguity score (§6 SKIP_CLARIFICATION).
	SkipClarification bool `yaml:"skip_clarification,omitempty"`

	// AgentAPIKey authenticates callers of this service's own HTTP surface
	// (AGENT_API_KEY), distinct from PlatformConfig.APIKey which authenticates
	// this service's outbound calls to Flowise. Empty disables auth, which
	// pkg/httpapi treats as "local/dev only".
	AgentAPIKey string `yaml:"-"`
}

// ReasoningConfig selects and tunes the reasoning engine the orchestrator's
// llm.Client adapter talks to (§6 "REASONING_ENGINE ∈ {claude, openai}").
type ReasoningConfig struct {
	Engine      ReasoningEngine `yaml:"engine"`
	Model       string          `yaml:"model"`
	Temperature float64         `yaml:"temperature"`
}

// DriftPolicyConfig controls what compile_flow/validate do when the node
// schema fingerprint changes mid-session (§4.6).
type DriftPolicyConfig struct {
	Policy session.DriftPolicy `yaml:"policy"`
}

// DiscoverCacheConfig bounds how long discover's tool-execution cache keeps
// an entry (§4.7 TTLCache).
type DiscoverCacheConfig struct {
	TTLSeconds int `yaml:"ttl_secs"`
}

// PlatformConfig addresses the Flowise instance the orchestrator's Platform
// collaborator talks to. The concrete REST adapter is an out-of-scope
// collaborator (see DESIGN.md); this struct exists so wiring code has
// somewhere to read the endpoint and key from regardless of which adapter
// is plugged in.
type PlatformConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"-"` // never round-tripped through YAML, env-only
}

// WebhookConfig tunes HITL webhook delivery (§5 "fire-and-forget with
// 3-attempt exponential backoff and a 10s per-attempt timeout").
type WebhookConfig struct {
	DefaultURL  string `yaml:"default_url,omitempty"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
}
