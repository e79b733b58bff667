package config

import (
	"fmt"
	"net/url"
)

// Validator validates a loaded Config with clear, section-scoped error
// messages, mirroring the reference project's hand-rolled validator (no
// struct-tag reflection library — the checks are simple enough that a
// library would add indirection without buying anything).
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation, fail-fast at the first
// invalid section.
func (v *Validator) ValidateAll() error {
	if err := v.validateRuntime(); err != nil {
		return fmt.Errorf("runtime validation failed: %w", err)
	}
	if err := v.validateReasoning(); err != nil {
		return fmt.Errorf("reasoning validation failed: %w", err)
	}
	if err := v.validateDriftPolicy(); err != nil {
		return fmt.Errorf("drift policy validation failed: %w", err)
	}
	if err := v.validateDiscoverCache(); err != nil {
		return fmt.Errorf("discover cache validation failed: %w", err)
	}
	if err := v.validatePlatform(); err != nil {
		return fmt.Errorf("platform validation failed: %w", err)
	}
	if err := v.validateWebhook(); err != nil {
		return fmt.Errorf("webhook validation failed: %w", err)
	}
	return nil
}

func (v *Validator) validateRuntime() error {
	r := v.cfg.Runtime
	if !runtimeModeValid(r.Mode) {
		return NewValidationError("runtime", "runtime_mode", fmt.Errorf("%w: %q", ErrInvalidValue, r.Mode))
	}
	if r.MaxIterations <= 0 {
		return NewValidationError("runtime", "max_iterations", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if r.MaxTotalTokens < 0 {
		return NewValidationError("runtime", "max_total_tokens", fmt.Errorf("%w: must be >= 0", ErrInvalidValue))
	}
	if r.TrialsK <= 0 {
		return NewValidationError("runtime", "trials_k", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if r.RateLimitSessionsPerMin <= 0 {
		return NewValidationError("runtime", "rate_limit_sessions_per_min", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	return nil
}

func (v *Validator) validateReasoning() error {
	r := v.cfg.Reasoning
	if !r.Engine.IsValid() {
		return NewValidationError("reasoning", "engine", fmt.Errorf("%w: %q (want claude or openai)", ErrInvalidValue, r.Engine))
	}
	if r.Temperature < 0 || r.Temperature > 2 {
		return NewValidationError("reasoning", "temperature", fmt.Errorf("%w: must be in [0,2]", ErrInvalidValue))
	}
	return nil
}

func (v *Validator) validateDriftPolicy() error {
	p := v.cfg.DriftPolicy.Policy
	if !driftPolicyValid(p) {
		return NewValidationError("drift_policy", "policy", fmt.Errorf("%w: %q", ErrInvalidValue, p))
	}
	return nil
}

func (v *Validator) validateDiscoverCache() error {
	if v.cfg.DiscoverCache.TTLSeconds < 0 {
		return NewValidationError("discover_cache", "ttl_secs", fmt.Errorf("%w: must be >= 0", ErrInvalidValue))
	}
	return nil
}

func (v *Validator) validatePlatform() error {
	endpoint := v.cfg.Platform.Endpoint
	if endpoint == "" {
		// Allowed: a FakePlatform or other in-process collaborator may be
		// wired in place of a real Flowise instance (e.g. tests, local dev).
		return nil
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return NewValidationError("platform", "endpoint", fmt.Errorf("%w: %v", ErrInvalidValue, err))
	}
	return nil
}

func (v *Validator) validateWebhook() error {
	w := v.cfg.Webhook
	if w.DefaultURL != "" {
		if _, err := url.ParseRequestURI(w.DefaultURL); err != nil {
			return NewValidationError("webhook", "default_url", fmt.Errorf("%w: %v", ErrInvalidValue, err))
		}
	}
	if w.TimeoutSecs <= 0 {
		return NewValidationError("webhook", "timeout_secs", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if w.MaxRetries < 0 {
		return NewValidationError("webhook", "max_retries", fmt.Errorf("%w: must be >= 0", ErrInvalidValue))
	}
	return nil
}
