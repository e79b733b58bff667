package config

import (
	"testing"

	"github.com/codeready-toolchain/flowise-agent/pkg/session"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestRuntimeConfigYAMLRoundTrip(t *testing.T) {
	in := RuntimeConfig{
		Mode:                    session.RuntimeModeCapabilityFirst,
		MaxIterations:           10,
		TrialsK:                 3,
		RateLimitSessionsPerMin: 10,
	}
	data, err := yaml.Marshal(in)
	assert.NoError(t, err)

	var out RuntimeConfig
	assert.NoError(t, yaml.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestPlatformConfigAPIKeyNeverMarshaled(t *testing.T) {
	in := PlatformConfig{Endpoint: "http://localhost:3000", APIKey: "super-secret"}
	data, err := yaml.Marshal(in)
	assert.NoError(t, err)
	assert.NotContains(t, string(data), "super-secret")
}
