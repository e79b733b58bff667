package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/flowise-agent/pkg/capability"
	"github.com/codeready-toolchain/flowise-agent/pkg/checkpoint"
	"github.com/codeready-toolchain/flowise-agent/pkg/config"
	"github.com/codeready-toolchain/flowise-agent/pkg/events"
	"github.com/codeready-toolchain/flowise-agent/pkg/knowledge"
	"github.com/codeready-toolchain/flowise-agent/pkg/llm"
	"github.com/codeready-toolchain/flowise-agent/pkg/orchestrator"
	"github.com/codeready-toolchain/flowise-agent/pkg/ratelimit"
	"github.com/codeready-toolchain/flowise-agent/pkg/session"
)

func init() { gin.SetMode(gin.TestMode) }

type stubCapability struct {
	discoverResult capability.DiscoverResult
	compileResult  capability.CompileOpsResult
}

func (s *stubCapability) Discover(context.Context, capability.DiscoverInput) (capability.DiscoverResult, error) {
	return s.discoverResult, nil
}

func (s *stubCapability) CompileOps(context.Context, session.PlanContract, session.GraphPayload) (capability.CompileOpsResult, error) {
	return s.compileResult, nil
}

// testServer builds a Server wired with the same fakes orchestrator's own
// scenario tests use, so handler tests exercise the real engine rather than
// a mocked one.
func testServer(t *testing.T) (*Server, *orchestrator.FakePlatform, *llm.FakeClient, checkpoint.Store) {
	t.Helper()

	schemas := knowledge.NewNodeSchemaStore()
	schemas.Seed("fp-1", []knowledge.NodeTemplate{
		{
			NodeType: "chatOpenAI",
			Label:    "Chat OpenAI",
			OutputAnchors: []session.AnchorInstance{
				{ID: "{nodeId}-output-chatOpenAI-BaseChatModel", Name: "chatOpenAI", Label: "ChatOpenAI", Type: "BaseChatModel"},
			},
		},
	})
	anchors := knowledge.NewAnchorDictionaryStore(schemas)
	creds := knowledge.NewCredentialStore()
	patterns := knowledge.NewPatternStore()
	store := checkpoint.NewMemoryStore()
	platform := orchestrator.NewFakePlatform()
	fakeLLM := &llm.FakeClient{}
	hub := events.NewHub()

	e := orchestrator.New(orchestrator.Engine{
		Checkpoint: store,
		Schemas:    schemas,
		Anchors:    anchors,
		Creds:      creds,
		Patterns:   patterns,
		LLM:        fakeLLM,
		Platform:   platform,
		Hub:        hub,
		Config:     orchestrator.DefaultConfig(),
	})
	e.Capabilities = []capability.Capability{&stubCapability{
		discoverResult: capability.DiscoverResult{Summary: "flowise has node types available."},
		compileResult: capability.CompileOpsResult{
			Ops: []session.Op{session.AddNodeOp("n1", "chatOpenAI", map[string]any{})},
		},
	}}

	cfg := &config.Config{
		Runtime:       config.DefaultRuntimeConfig(),
		Reasoning:     config.DefaultReasoningConfig(),
		DriftPolicy:   config.DefaultDriftPolicyConfig(),
		DiscoverCache: config.DefaultDiscoverCacheConfig(),
		Platform:      config.DefaultPlatformConfig(),
		Webhook:       config.DefaultWebhookConfig(),
	}

	s := NewServer(e, store, hub, patterns, ratelimit.New(1000), cfg)
	return s, platform, fakeLLM, store
}

func doJSON(s *Server, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

const lowAmbiguityJSON = `{"score": 1, "questions": []}`

const simplePlanJSON = `{
  "plan_text": "Add a chat model node.",
  "goal": "Say hello",
  "domain_targets": ["chatOpenAI"],
  "credential_requirements": [],
  "data_fields": [],
  "pii_fields": [],
  "success_criteria": ["responds with a greeting"],
  "action": "add_node"
}`

func createToPlanApproval(t *testing.T, s *Server, fakeLLM *llm.FakeClient) SessionResponse {
	t.Helper()
	fakeLLM.Responses = []llm.FakeResponse{
		{Text: "CREATE"},
		{Text: lowAmbiguityJSON},
		{Text: simplePlanJSON},
	}
	rec := doJSON(s, http.MethodPost, "/sessions", CreateSessionRequest{Requirement: "Build a flow that greets the user"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: status %d body %s", rec.Code, rec.Body.String())
	}
	var out SessionResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return out
}
