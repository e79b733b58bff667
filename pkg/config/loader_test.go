package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/codeready-toolchain/flowise-agent/pkg/session"
	"github.com/stretchr/testify/require"
)

func TestInitializeWithNoOverlayFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, DefaultRuntimeConfig(), cfg.Runtime)
	require.Equal(t, DefaultReasoningConfig(), cfg.Reasoning)
}

func TestInitializeMergesOverlayYAMLOverDefaults(t *testing.T) {
	dir := t.TempDir()
	overlay := "reasoning:\n  model: claude-opus\n  temperature: 0.5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, overlayFileName), []byte(overlay), 0o644))

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, "claude-opus", cfg.Reasoning.Model)
	require.Equal(t, 0.5, cfg.Reasoning.Temperature)
	require.Equal(t, ReasoningEngineClaude, cfg.Reasoning.Engine) // untouched section falls back to default
}

func TestInitializeExpandsEnvInOverlayBeforeParsing(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TEST_FLOWISE_ENDPOINT", "http://flowise.internal:3000")
	overlay := "platform:\n  endpoint: ${TEST_FLOWISE_ENDPOINT}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, overlayFileName), []byte(overlay), 0o644))

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, "http://flowise.internal:3000", cfg.Platform.Endpoint)
}

func TestEnvVarsOverrideOverlayYAML(t *testing.T) {
	dir := t.TempDir()
	overlay := "runtime:\n  max_iterations: 5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, overlayFileName), []byte(overlay), 0o644))
	t.Setenv("MAX_ITERATIONS", "20")

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 20, cfg.Runtime.MaxIterations)
}

func TestEnvVarsOverrideDriftPolicyAndReasoningEngine(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FLOWISE_SCHEMA_DRIFT_POLICY", "fail")
	t.Setenv("REASONING_ENGINE", "openai")

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, session.DriftPolicyFail, cfg.DriftPolicy.Policy)
	require.Equal(t, ReasoningEngineOpenAI, cfg.Reasoning.Engine)
}

func TestEnvVarsSetCompatLegacyModeAndSkipClarification(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FLOWISE_COMPAT_LEGACY", "true")
	t.Setenv("SKIP_CLARIFICATION", "true")

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, session.RuntimeModeCompatLegacy, cfg.Runtime.Mode)
	require.True(t, cfg.Runtime.SkipClarification)
	require.True(t, cfg.OrchestratorConfig().SkipClarification)
}

func TestInitializeFailsOnInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, overlayFileName), []byte("runtime: [unterminated"), 0o644))

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
}

func TestInitializeFailsValidationOnBadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REASONING_ENGINE", "not-a-real-engine")

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
}

func TestConfigDirSetFromInitializeArgument(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, dir, cfg.ConfigDir())
}
