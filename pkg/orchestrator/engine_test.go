package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/codeready-toolchain/flowise-agent/pkg/capability"
	"github.com/codeready-toolchain/flowise-agent/pkg/checkpoint"
	"github.com/codeready-toolchain/flowise-agent/pkg/events"
	"github.com/codeready-toolchain/flowise-agent/pkg/knowledge"
	"github.com/codeready-toolchain/flowise-agent/pkg/llm"
	"github.com/codeready-toolchain/flowise-agent/pkg/session"
)

// stubCapability is a test double for capability.Capability that returns
// scripted discover/compile results without calling an LLM of its own.
type stubCapability struct {
	discoverResult capability.DiscoverResult
	discoverErr    error
	compileResult  capability.CompileOpsResult
	compileErr     error
}

func (s *stubCapability) Discover(context.Context, capability.DiscoverInput) (capability.DiscoverResult, error) {
	return s.discoverResult, s.discoverErr
}

func (s *stubCapability) CompileOps(context.Context, session.PlanContract, session.GraphPayload) (capability.CompileOpsResult, error) {
	return s.compileResult, s.compileErr
}

// testEngine builds an Engine wired with fakes, seeded with two node types
// so compile_flow has schemas to instantiate AddNode ops against. sleep is
// stubbed to a no-op so retry-backoff tests run instantly.
func testEngine() (*Engine, *FakePlatform, *llm.FakeClient) {
	schemas := knowledge.NewNodeSchemaStore()
	schemas.Seed("fp-1", []knowledge.NodeTemplate{
		{
			NodeType: "chatOpenAI",
			Label:    "Chat OpenAI",
			OutputAnchors: []session.AnchorInstance{
				{ID: "{nodeId}-output-chatOpenAI-BaseChatModel", Name: "chatOpenAI", Label: "ChatOpenAI", Type: "BaseChatModel"},
			},
		},
		{
			NodeType: "conversationChain",
			Label:    "Conversation Chain",
			InputAnchors: []session.AnchorInstance{
				{ID: "{nodeId}-input-model-BaseChatModel", Name: "model", Label: "Model", Type: "BaseChatModel"},
			},
		},
	})
	anchors := knowledge.NewAnchorDictionaryStore(schemas)
	creds := knowledge.NewCredentialStore()
	patterns := knowledge.NewPatternStore()

	platform := NewFakePlatform()
	fakeLLM := &llm.FakeClient{}

	e := New(Engine{
		Checkpoint: checkpoint.NewMemoryStore(),
		Schemas:    schemas,
		Anchors:    anchors,
		Creds:      creds,
		Patterns:   patterns,
		LLM:        fakeLLM,
		Platform:   platform,
		Hub:        events.NewHub(),
		Config:     DefaultConfig(),
	})
	e.sleep = func(time.Duration) {}

	return e, platform, fakeLLM
}

func newState(requirement string) *session.State {
	return session.New("thread-1", requirement, session.RuntimeModeCapabilityFirst, nil)
}
