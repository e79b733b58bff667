package knowledge

import (
	"testing"

	"github.com/codeready-toolchain/flowise-agent/pkg/session"
	"github.com/stretchr/testify/require"
)

func seededSchemaStore() *NodeSchemaStore {
	s := NewNodeSchemaStore()
	s.Seed("fp-1", []NodeTemplate{
		{
			NodeType: "chatOpenAI",
			Label:    "ChatOpenAI",
			OutputAnchors: []session.AnchorInstance{
				{ID: "{nodeId}-output-chatOpenAI-BaseChatModel", Name: "chatOpenAI", Label: "ChatOpenAI", Type: "BaseChatModel"},
			},
		},
		{
			NodeType: "conversationChain",
			Label:    "Conversation Chain",
			InputAnchors: []session.AnchorInstance{
				{ID: "{nodeId}-input-model-BaseChatModel", Name: "model", Label: "Language Model", Type: "BaseChatModel"},
			},
		},
	})
	return s
}

func TestAnchorDictionaryExactMatch(t *testing.T) {
	s := seededSchemaStore()
	d := NewAnchorDictionaryStore(s)

	entry, ok := d.ExactMatch("conversationChain", "model")
	require.True(t, ok)
	require.Equal(t, "BaseChatModel", entry.Type)
	require.Equal(t, session.AnchorDirectionInput, entry.Direction)
}

func TestAnchorDictionaryByTokenForFuzzyFallback(t *testing.T) {
	s := seededSchemaStore()
	d := NewAnchorDictionaryStore(s)

	matches := d.ByToken("conversationChain", "model")
	require.Len(t, matches, 1)
	require.Equal(t, "model", matches[0].Name)
}

func TestAnchorDictionaryRebuildsOnFingerprintChange(t *testing.T) {
	s := seededSchemaStore()
	d := NewAnchorDictionaryStore(s)
	_, _ = d.ExactMatch("conversationChain", "model")

	s.Seed("fp-2", []NodeTemplate{
		{NodeType: "conversationChain", InputAnchors: []session.AnchorInstance{
			{ID: "{nodeId}-input-memory-BaseMemory", Name: "memory", Type: "BaseMemory"},
		}},
	})

	_, stillThere := d.ExactMatch("conversationChain", "model")
	require.False(t, stillThere)
	newEntry, ok := d.ExactMatch("conversationChain", "memory")
	require.True(t, ok)
	require.Equal(t, "BaseMemory", newEntry.Type)
}

func TestCredentialResolveByType(t *testing.T) {
	c := NewCredentialStore()
	c.Seed([]Credential{{ID: "cred-1", Name: "prod openai", Type: "openAIApi"}})

	got, err := c.ResolveByType("openAIApi")
	require.NoError(t, err)
	require.Equal(t, "cred-1", got.ID)

	_, err = c.ResolveByType("anthropicApi")
	require.Error(t, err)
}

func TestCredentialResolveByTypeAmbiguous(t *testing.T) {
	c := NewCredentialStore()
	c.Seed([]Credential{
		{ID: "cred-1", Type: "openAIApi"},
		{ID: "cred-2", Type: "openAIApi"},
	})

	_, err := c.ResolveByType("openAIApi")
	require.Error(t, err)
}

func TestPatternSearchFilteredRanksBySuccessCount(t *testing.T) {
	p := NewPatternStore()
	require.NoError(t, p.Save(session.Pattern{ID: "a", Domain: "support", Keywords: []string{"ticket"}, SuccessCount: 2}))
	require.NoError(t, p.Save(session.Pattern{ID: "b", Domain: "support", Keywords: []string{"ticket"}, SuccessCount: 9}))

	matches := p.SearchFiltered([]string{"ticket"}, "support", "", nil, 10)
	require.Len(t, matches, 2)
	require.Equal(t, "b", matches[0].ID)
}
