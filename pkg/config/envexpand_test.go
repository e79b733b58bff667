package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnv(t *testing.T) {
	tests := []struct {
		name  string
		input string
		env   map[string]string
		want  string
	}{
		{
			name:  "braced substitution",
			input: "api_key: ${API_KEY}",
			env:   map[string]string{"API_KEY": "secret123"},
			want:  "api_key: secret123",
		},
		{
			name:  "bare $VAR substitution",
			input: "endpoint: $FLOWISE_API_ENDPOINT",
			env:   map[string]string{"FLOWISE_API_ENDPOINT": "http://localhost:3000"},
			want:  "endpoint: http://localhost:3000",
		},
		{
			name:  "multiple substitutions in one line",
			input: "url: ${PROTOCOL}://${HOST}:${PORT}",
			env:   map[string]string{"PROTOCOL": "https", "HOST": "example.com", "PORT": "443"},
			want:  "url: https://example.com:443",
		},
		{
			name:  "missing variable expands to empty",
			input: "endpoint: ${MISSING_VAR}",
			env:   map[string]string{},
			want:  "endpoint: ",
		},
		{
			name:  "no variables is a no-op",
			input: "plain: value",
			env:   map[string]string{},
			want:  "plain: value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			got := ExpandEnv([]byte(tt.input))
			assert.Equal(t, tt.want, string(got))
		})
	}
}
