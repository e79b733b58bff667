// Package llm defines the interface the orchestrator uses to talk to a
// reasoning engine (§6 "REASONING_ENGINE ∈ {claude, openai}"). Grounded on
// the reference project's pkg/agent.LLMClient shape (a channel-based
// streaming API over a gRPC connection), with the gRPC transport itself
// dropped — see DESIGN.md — so this package is a plain Go interface with no
// concrete provider implementation shipped. Per-provider SDK adapters are
// an out-of-scope collaborator (spec §1).
package llm

import "context"

// Role identifies a conversation message's sender, mirroring
// session.MessageRole but kept local so this package has no dependency on
// pkg/session (only orchestrator code bridges the two).
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ConversationMessage is one turn sent to the reasoning engine.
type ConversationMessage struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	ToolName   string
}

// ToolDefinition describes a tool available to the LLM for this call.
type ToolDefinition struct {
	Name             string
	Description      string
	ParametersSchema string // JSON Schema
}

// ToolCall is the LLM's request to invoke a tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // JSON
}

// GenerateInput is one call to Client.Generate.
type GenerateInput struct {
	ThreadID    string
	Messages    []ConversationMessage
	Tools       []ToolDefinition // nil = no tools offered
	Model       string
	Temperature float64
}

// ChunkType identifies the kind of streaming chunk.
type ChunkType string

const (
	ChunkTypeText     ChunkType = "text"
	ChunkTypeToolCall ChunkType = "tool_call"
	ChunkTypeUsage    ChunkType = "usage"
	ChunkTypeError    ChunkType = "error"
)

// Chunk is one unit of a streamed response.
type Chunk struct {
	Type ChunkType

	Text string // ChunkTypeText

	ToolCallID   string // ChunkTypeToolCall
	ToolCallName string
	ToolCallArgs string

	InputTokens  int // ChunkTypeUsage
	OutputTokens int

	Err error // ChunkTypeError
}

// Client is the reasoning-engine abstraction the orchestrator depends on.
// Implementations stream a complete response as a channel of Chunk values,
// closing the channel when the stream ends; a Chunk with Type ==
// ChunkTypeError signals a provider-side failure rather than returning a Go
// error directly, so partial output already streamed is never discarded.
type Client interface {
	Generate(ctx context.Context, input GenerateInput) (<-chan Chunk, error)
	Close() error
}

// Collect drains stream into a single concatenated response, the common
// case for non-interactive orchestrator nodes (plan/evaluate) that don't
// need to forward token-by-token deltas to an SSE subscriber.
func Collect(stream <-chan Chunk) (text string, toolCalls []ToolCall, inputTokens, outputTokens int, err error) {
	pending := map[string]*ToolCall{}
	var order []string

	for chunk := range stream {
		switch chunk.Type {
		case ChunkTypeText:
			text += chunk.Text
		case ChunkTypeToolCall:
			tc, ok := pending[chunk.ToolCallID]
			if !ok {
				tc = &ToolCall{ID: chunk.ToolCallID}
				pending[chunk.ToolCallID] = tc
				order = append(order, chunk.ToolCallID)
			}
			if chunk.ToolCallName != "" {
				tc.Name = chunk.ToolCallName
			}
			tc.Arguments += chunk.ToolCallArgs
		case ChunkTypeUsage:
			inputTokens += chunk.InputTokens
			outputTokens += chunk.OutputTokens
		case ChunkTypeError:
			err = chunk.Err
		}
	}

	for _, id := range order {
		toolCalls = append(toolCalls, *pending[id])
	}
	return text, toolCalls, inputTokens, outputTokens, err
}
