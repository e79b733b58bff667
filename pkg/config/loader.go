package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/codeready-toolchain/flowise-agent/pkg/session"
)

// overlayYAMLConfig mirrors the subset of Config a deployment may want to
// pin in a checked-in file rather than the environment (e.g. a fixed
// REASONING_MODEL for a given deployment). Every field is optional — env
// vars always win over this file, which always wins over the built-in
// defaults. See loadYAML / resolve* below for the precedence chain.
type overlayYAMLConfig struct {
	Runtime       *RuntimeConfig       `yaml:"runtime"`
	Reasoning     *ReasoningConfig     `yaml:"reasoning"`
	DriftPolicy   *DriftPolicyConfig   `yaml:"drift_policy"`
	DiscoverCache *DiscoverCacheConfig `yaml:"discover_cache"`
	Platform      *PlatformConfig      `yaml:"platform"`
	Webhook       *WebhookConfig       `yaml:"webhook"`
}

const overlayFileName = "flowise-agent.yaml"

// Initialize loads, validates, and returns ready-to-use configuration. This
// is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load the optional YAML overlay file from configDir (missing file is
//     not an error — env vars and built-in defaults are enough on their own)
//  2. Expand environment variables in the overlay's raw bytes
//  3. Parse YAML into the overlay struct
//  4. Merge built-in defaults, the overlay, and env var overrides, in that
//     precedence order, via dario.cat/mergo
//  5. Validate all configuration
//  6. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("configuration initialized",
		"runtime_mode", stats.RuntimeMode,
		"reasoning_engine", stats.ReasoningEngine,
		"max_iterations", stats.MaxIterations,
		"trials_k", stats.TrialsK,
		"drift_policy", stats.DriftPolicy,
	)

	return cfg, nil
}

// load is the internal loader (not exported).
func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	overlay, err := loader.loadOverlayYAML()
	if err != nil {
		return nil, NewLoadError(overlayFileName, err)
	}

	runtime := DefaultRuntimeConfig()
	if overlay.Runtime != nil {
		if err := mergo.Merge(&runtime, *overlay.Runtime, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge runtime config: %w", err)
		}
	}
	applyRuntimeEnv(&runtime)

	reasoning := DefaultReasoningConfig()
	if overlay.Reasoning != nil {
		if err := mergo.Merge(&reasoning, *overlay.Reasoning, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge reasoning config: %w", err)
		}
	}
	applyReasoningEnv(&reasoning)

	drift := DefaultDriftPolicyConfig()
	if overlay.DriftPolicy != nil {
		if err := mergo.Merge(&drift, *overlay.DriftPolicy, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge drift policy config: %w", err)
		}
	}
	applyDriftPolicyEnv(&drift)

	discoverCache := DefaultDiscoverCacheConfig()
	if overlay.DiscoverCache != nil {
		if err := mergo.Merge(&discoverCache, *overlay.DiscoverCache, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge discover cache config: %w", err)
		}
	}
	applyDiscoverCacheEnv(&discoverCache)

	platform := DefaultPlatformConfig()
	if overlay.Platform != nil {
		if err := mergo.Merge(&platform, *overlay.Platform, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge platform config: %w", err)
		}
	}
	applyPlatformEnv(&platform)

	webhook := DefaultWebhookConfig()
	if overlay.Webhook != nil {
		if err := mergo.Merge(&webhook, *overlay.Webhook, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge webhook config: %w", err)
		}
	}
	applyWebhookEnv(&webhook)

	return &Config{
		configDir:     configDir,
		Runtime:       runtime,
		Reasoning:     reasoning,
		DriftPolicy:   drift,
		DiscoverCache: discoverCache,
		Platform:      platform,
		Webhook:       webhook,
	}, nil
}

// validate performs comprehensive validation on loaded configuration.
func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}

type configLoader struct {
	configDir string
}

// loadOverlayYAML reads and parses the optional overlay file. A missing
// file is not an error — every section falls back to built-in defaults
// plus whatever the environment supplies.
func (l *configLoader) loadOverlayYAML() (*overlayYAMLConfig, error) {
	var overlay overlayYAMLConfig

	path := filepath.Join(l.configDir, overlayFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &overlay, nil
		}
		return nil, err
	}

	data = ExpandEnv(data)
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return &overlay, nil
}

// applyRuntimeEnv overrides runtime fields from the environment, per §10.3
// / §6's named env vars. Unset or unparsable values leave the existing
// (default or overlay) value in place.
func applyRuntimeEnv(r *RuntimeConfig) {
	if v, ok := envBool("FLOWISE_COMPAT_LEGACY"); ok && v {
		r.Mode = session.RuntimeModeCompatLegacy
	}
	if v, ok := envInt("MAX_ITERATIONS"); ok {
		r.MaxIterations = v
	}
	if v, ok := envInt("MAX_TOTAL_TOKENS"); ok {
		r.MaxTotalTokens = v
	}
	if v, ok := envInt("TRIALS_K"); ok {
		r.TrialsK = v
	}
	if v, ok := envInt("RATE_LIMIT_SESSIONS_PER_MIN"); ok {
		r.RateLimitSessionsPerMin = v
	}
	if v := os.Getenv("AGENT_API_KEY"); v != "" {
		r.AgentAPIKey = v
	}
	if v, ok := envBool("SKIP_CLARIFICATION"); ok {
		r.SkipClarification = v
	}
}

func applyReasoningEnv(r *ReasoningConfig) {
	if v := os.Getenv("REASONING_ENGINE"); v != "" {
		r.Engine = ReasoningEngine(v)
	}
	if v := os.Getenv("REASONING_MODEL"); v != "" {
		r.Model = v
	}
	if v, ok := envFloat("REASONING_TEMPERATURE"); ok {
		r.Temperature = v
	}
}

func applyDriftPolicyEnv(d *DriftPolicyConfig) {
	if v := os.Getenv("FLOWISE_SCHEMA_DRIFT_POLICY"); v != "" {
		d.Policy = session.DriftPolicy(v)
	}
}

func applyDiscoverCacheEnv(d *DiscoverCacheConfig) {
	if v, ok := envInt("DISCOVER_CACHE_TTL_SECS"); ok {
		d.TTLSeconds = v
	}
}

func applyPlatformEnv(p *PlatformConfig) {
	if v := os.Getenv("FLOWISE_API_ENDPOINT"); v != "" {
		p.Endpoint = v
	}
	if v := os.Getenv("FLOWISE_API_KEY"); v != "" {
		p.APIKey = v
	}
}

func applyWebhookEnv(w *WebhookConfig) {
	if v := os.Getenv("WEBHOOK_DEFAULT_URL"); v != "" {
		w.DefaultURL = v
	}
	if v, ok := envInt("WEBHOOK_TIMEOUT_SECS"); ok {
		w.TimeoutSecs = v
	}
	if v, ok := envInt("WEBHOOK_MAX_RETRIES"); ok {
		w.MaxRetries = v
	}
}

func envInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("ignoring unparsable env var", "key", key, "value", raw)
		return 0, false
	}
	return v, true
}

func envBool(key string) (bool, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("ignoring unparsable env var", "key", key, "value", raw)
		return false, false
	}
	return v, true
}

func envFloat(key string) (float64, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		slog.Warn("ignoring unparsable env var", "key", key, "value", raw)
		return 0, false
	}
	return v, true
}
