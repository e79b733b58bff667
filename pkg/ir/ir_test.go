package ir

import (
	"testing"

	"github.com/codeready-toolchain/flowise-agent/pkg/knowledge"
	"github.com/codeready-toolchain/flowise-agent/pkg/session"
	"github.com/stretchr/testify/require"
)

func testSchemas() *knowledge.NodeSchemaStore {
	s := knowledge.NewNodeSchemaStore()
	s.Seed("fp-1", []knowledge.NodeTemplate{
		{
			NodeType: "chatOpenAI",
			Label:    "ChatOpenAI",
			OutputAnchors: []session.AnchorInstance{
				{ID: "{nodeId}-output-chatOpenAI-BaseChatModel", Name: "chatOpenAI", Type: "BaseChatModel"},
			},
			InputParams: []session.ParamInstance{
				{Name: "modelName", Default: "gpt-4o"},
			},
		},
		{
			NodeType: "conversationChain",
			Label:    "Conversation Chain",
			InputAnchors: []session.AnchorInstance{
				{ID: "{nodeId}-input-model-BaseChatModel", Name: "model", Type: "BaseChatModel"},
			},
		},
	})
	return s
}

func testAnchors(s *knowledge.NodeSchemaStore) *knowledge.AnchorDictionaryStore {
	return knowledge.NewAnchorDictionaryStore(s)
}

func TestCompileAddNodeAndConnect(t *testing.T) {
	schemas := testSchemas()
	anchors := testAnchors(schemas)
	creds := knowledge.NewCredentialStore()

	ops := []session.Op{
		session.AddNodeOp("llm-1", "chatOpenAI", nil),
		session.AddNodeOp("chain-1", "conversationChain", nil),
		session.ConnectOp("llm-1", "chatOpenAI", "chain-1", "model"),
	}

	result, err := Compile(ops, session.GraphPayload{}, schemas, anchors, creds, DefaultAnchorMatchConfig())
	require.NoError(t, err)
	require.Len(t, result.FlowData.Nodes, 2)
	require.Len(t, result.FlowData.Edges, 1)
	require.Equal(t, 2, result.DiffSummary.AddedNodes)
	require.Equal(t, 1, result.DiffSummary.AddedEdges)
	require.Equal(t, 1, result.Metrics.ExactMatches)
	require.Equal(t, 0, result.Metrics.FuzzyFallbacks)
	require.Equal(t, 1.0, result.Metrics.ExactMatchRate())
	require.NotEmpty(t, result.PayloadHash)

	edge := result.FlowData.Edges[0]
	require.Equal(t, "llm-1-output-chatOpenAI-BaseChatModel", edge.SourceHandle)
	require.Equal(t, "chain-1-input-model-BaseChatModel", edge.TargetHandle)
}

func TestCompileIsDeterministic(t *testing.T) {
	schemas := testSchemas()
	anchors := testAnchors(schemas)
	creds := knowledge.NewCredentialStore()
	ops := []session.Op{session.AddNodeOp("llm-1", "chatOpenAI", nil)}

	r1, err := Compile(ops, session.GraphPayload{}, schemas, anchors, creds, DefaultAnchorMatchConfig())
	require.NoError(t, err)
	r2, err := Compile(ops, session.GraphPayload{}, schemas, anchors, creds, DefaultAnchorMatchConfig())
	require.NoError(t, err)
	require.Equal(t, r1.PayloadHash, r2.PayloadHash)
}

func TestCompileFuzzyFallbackCaseInsensitive(t *testing.T) {
	schemas := testSchemas()
	anchors := testAnchors(schemas)
	creds := knowledge.NewCredentialStore()

	ops := []session.Op{
		session.AddNodeOp("llm-1", "chatOpenAI", nil),
		session.AddNodeOp("chain-1", "conversationChain", nil),
		session.ConnectOp("llm-1", "chatOpenAI", "chain-1", "MODEL"),
	}

	result, err := Compile(ops, session.GraphPayload{}, schemas, anchors, creds, DefaultAnchorMatchConfig())
	require.NoError(t, err)
	require.Equal(t, 1, result.Metrics.FuzzyFallbacks)
	require.Less(t, result.Metrics.ExactMatchRate(), 1.0)
}

func TestCompileDuplicateNodeIDRejected(t *testing.T) {
	schemas := testSchemas()
	anchors := testAnchors(schemas)
	creds := knowledge.NewCredentialStore()

	ops := []session.Op{
		session.AddNodeOp("llm-1", "chatOpenAI", nil),
		session.AddNodeOp("llm-1", "chatOpenAI", nil),
	}

	_, err := Compile(ops, session.GraphPayload{}, schemas, anchors, creds, DefaultAnchorMatchConfig())
	require.Error(t, err)
}

func TestCompileDanglingRefRejected(t *testing.T) {
	schemas := testSchemas()
	anchors := testAnchors(schemas)
	creds := knowledge.NewCredentialStore()

	ops := []session.Op{
		session.ConnectOp("missing-1", "x", "missing-2", "y"),
	}

	_, err := Compile(ops, session.GraphPayload{}, schemas, anchors, creds, DefaultAnchorMatchConfig())
	require.Error(t, err)
}

func TestCompileBindCredentialDualBinding(t *testing.T) {
	schemas := testSchemas()
	anchors := testAnchors(schemas)
	creds := knowledge.NewCredentialStore()
	creds.Seed([]knowledge.Credential{{ID: "cred-1", Type: "openAIApi"}})

	ops := []session.Op{
		session.AddNodeOp("llm-1", "chatOpenAI", nil),
		session.BindCredentialOp("llm-1", "openAIApi", ""),
	}

	result, err := Compile(ops, session.GraphPayload{}, schemas, anchors, creds, DefaultAnchorMatchConfig())
	require.NoError(t, err)
	node := result.FlowData.Nodes[0]
	require.Equal(t, "cred-1", node.Data.Credential)
	require.Equal(t, "cred-1", node.Data.Inputs["credential"])
}

func TestCompileNoOpIdentity(t *testing.T) {
	schemas := testSchemas()
	anchors := testAnchors(schemas)
	creds := knowledge.NewCredentialStore()

	base, err := Compile([]session.Op{session.AddNodeOp("llm-1", "chatOpenAI", nil)}, session.GraphPayload{}, schemas, anchors, creds, DefaultAnchorMatchConfig())
	require.NoError(t, err)

	again, err := Compile(nil, base.FlowData, schemas, anchors, creds, DefaultAnchorMatchConfig())
	require.NoError(t, err)
	require.Equal(t, base.PayloadHash, again.PayloadHash)
	require.Equal(t, 0, again.DiffSummary.AddedNodes)
}
