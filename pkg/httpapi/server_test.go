package httpapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHealthReflectsConfigStats(t *testing.T) {
	s, _, _, _ := testServer(t)
	rec := doJSON(s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "ok", out.Status)
	require.Equal(t, "capability_first", out.Configuration.RuntimeMode)
	require.Equal(t, "claude", out.Configuration.ReasoningEngine)
	require.Equal(t, 10, out.Configuration.MaxIterations)
}

func TestHealthIsUnauthenticatedEvenWithAgentAPIKeySet(t *testing.T) {
	s, _, _, _ := testServer(t)
	s.Cfg.Runtime.AgentAPIKey = "secret"

	rec := doJSON(s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
