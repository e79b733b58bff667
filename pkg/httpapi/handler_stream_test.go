package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/flowise-agent/pkg/llm"
)

// TestCreateSessionStreamEmitsInterruptEvent exercises the SSE endpoint over
// a real listening socket (httptest.NewServer, not ResponseRecorder): gin's
// Stream relies on the response writer's CloseNotify, which
// httptest.ResponseRecorder does not implement.
func TestCreateSessionStreamEmitsInterruptEvent(t *testing.T) {
	s, _, fakeLLM, _ := testServer(t)
	fakeLLM.Responses = []llm.FakeResponse{
		{Text: "CREATE"},
		{Text: lowAmbiguityJSON},
		{Text: simplePlanJSON},
	}

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	body, _ := json.Marshal(CreateSessionRequest{Requirement: "Build a flow that greets the user"})
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(srv.URL+"/sessions/stream", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(data), "event: interrupt")
	require.Contains(t, string(data), "plan_approval")
}
