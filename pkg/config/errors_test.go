package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorFormatsWithField(t *testing.T) {
	err := NewValidationError("runtime", "max_iterations", ErrInvalidValue)
	assert.Equal(t, "runtime: field 'max_iterations': invalid field value", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidValue))
}

func TestValidationErrorFormatsWithoutField(t *testing.T) {
	err := NewValidationError("platform", "", ErrInvalidValue)
	assert.Equal(t, "platform: invalid field value", err.Error())
}

func TestLoadErrorWrapsUnderlying(t *testing.T) {
	underlying := errors.New("permission denied")
	err := NewLoadError("flowise-agent.yaml", underlying)
	assert.Equal(t, "failed to load flowise-agent.yaml: permission denied", err.Error())
	assert.True(t, errors.Is(err, underlying))
}
