package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/flowise-agent/pkg/session"
)

func TestRollbackRestoresBaseGraph(t *testing.T) {
	s, platform, _, store := testServer(t)

	baseGraph := session.GraphPayload{Nodes: []session.GraphNode{{ID: "n1", Type: "chatOpenAI"}}}
	targetID := "g1"
	platform.Graphs[targetID] = session.GraphPayload{Nodes: []session.GraphNode{{ID: "n1-new", Type: "httpRequest"}}}

	st := session.New("thread-rollback", "update the flow", session.RuntimeModeCapabilityFirst, nil)
	st.Intent = session.IntentUpdate
	st.TargetGraphID = &targetID
	st.BaseGraph = &baseGraph
	require.NoError(t, store.Save(context.Background(), st.ThreadID, st))

	rec := doJSON(s, http.MethodPost, "/sessions/"+st.ThreadID+"/rollback", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out RollbackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, targetID, out.GraphID)
	require.Equal(t, baseGraph, platform.Graphs[targetID])
}

func TestRollbackRejectsCreateIntentSession(t *testing.T) {
	s, _, _, store := testServer(t)

	st := session.New("thread-create", "build a flow", session.RuntimeModeCapabilityFirst, nil)
	st.Intent = session.IntentCreate
	require.NoError(t, store.Save(context.Background(), st.ThreadID, st))

	rec := doJSON(s, http.MethodPost, "/sessions/"+st.ThreadID+"/rollback", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var out ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Error)
}

func TestRollbackNotFound(t *testing.T) {
	s, _, _, _ := testServer(t)
	rec := doJSON(s, http.MethodPost, "/sessions/nope/rollback", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
