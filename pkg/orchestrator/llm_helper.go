package orchestrator

import (
	"context"

	"github.com/codeready-toolchain/flowise-agent/pkg/apperrors"
	"github.com/codeready-toolchain/flowise-agent/pkg/llm"
	"github.com/codeready-toolchain/flowise-agent/pkg/session"
)

// generateText makes a single non-streaming LLM call and folds token usage
// into st (§3 "total_input_tokens"/"total_output_tokens" *append-sum*).
func generateText(ctx context.Context, e *Engine, st *session.State, systemPrompt, userPrompt string) (string, error) {
	stream, err := e.LLM.Generate(ctx, llm.GenerateInput{
		ThreadID: st.ThreadID,
		Messages: []llm.ConversationMessage{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindRetriable, err, map[string]any{"stage": "llm_generate"})
	}

	text, _, in, out, err := llm.Collect(stream)
	st.TotalInputTokens += in
	st.TotalOutputTokens += out
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindRetriable, err, map[string]any{"stage": "llm_collect"})
	}
	return text, nil
}
