package config

import (
	"testing"

	"github.com/codeready-toolchain/flowise-agent/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Runtime:       DefaultRuntimeConfig(),
		Reasoning:     DefaultReasoningConfig(),
		DriftPolicy:   DefaultDriftPolicyConfig(),
		DiscoverCache: DefaultDiscoverCacheConfig(),
		Platform:      DefaultPlatformConfig(),
		Webhook:       DefaultWebhookConfig(),
	}
}

func TestValidateAllAcceptsDefaults(t *testing.T) {
	require.NoError(t, NewValidator(validConfig()).ValidateAll())
}

func TestValidateRuntimeRejectsZeroMaxIterations(t *testing.T) {
	cfg := validConfig()
	cfg.Runtime.MaxIterations = 0
	err := NewValidator(cfg).ValidateAll()
	assert.ErrorContains(t, err, "runtime validation failed")
}

func TestValidateRuntimeRejectsUnknownMode(t *testing.T) {
	cfg := validConfig()
	cfg.Runtime.Mode = session.RuntimeMode("unknown")
	err := NewValidator(cfg).ValidateAll()
	assert.ErrorContains(t, err, "runtime_mode")
}

func TestValidateReasoningRejectsUnknownEngine(t *testing.T) {
	cfg := validConfig()
	cfg.Reasoning.Engine = ReasoningEngine("gemini")
	err := NewValidator(cfg).ValidateAll()
	assert.ErrorContains(t, err, "reasoning validation failed")
}

func TestValidateReasoningRejectsOutOfRangeTemperature(t *testing.T) {
	cfg := validConfig()
	cfg.Reasoning.Temperature = 3
	err := NewValidator(cfg).ValidateAll()
	assert.ErrorContains(t, err, "temperature")
}

func TestValidateDriftPolicyRejectsUnknownPolicy(t *testing.T) {
	cfg := validConfig()
	cfg.DriftPolicy.Policy = session.DriftPolicy("ignore")
	err := NewValidator(cfg).ValidateAll()
	assert.ErrorContains(t, err, "drift policy validation failed")
}

func TestValidatePlatformAllowsEmptyEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.Platform.Endpoint = ""
	assert.NoError(t, NewValidator(cfg).ValidateAll())
}

func TestValidatePlatformRejectsMalformedEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.Platform.Endpoint = "not a url"
	err := NewValidator(cfg).ValidateAll()
	assert.ErrorContains(t, err, "platform validation failed")
}

func TestValidateWebhookRejectsZeroTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Webhook.TimeoutSecs = 0
	err := NewValidator(cfg).ValidateAll()
	assert.ErrorContains(t, err, "timeout_secs")
}
