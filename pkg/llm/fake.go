package llm

import "context"

// FakeClient is a hand-written test double for Client, grounded on the
// reference project's stub collaborators (pkg/queue's executor stub):
// callers script a queue of responses consumed in order by successive
// Generate calls.
type FakeClient struct {
	Responses []FakeResponse
	calls     int
}

// FakeResponse is one scripted Generate result.
type FakeResponse struct {
	Text         string
	ToolCalls    []ToolCall
	InputTokens  int
	OutputTokens int
	Err          error
}

// Generate implements Client by replaying the next scripted response.
func (f *FakeClient) Generate(_ context.Context, _ GenerateInput) (<-chan Chunk, error) {
	if f.calls >= len(f.Responses) {
		f.calls++
		ch := make(chan Chunk)
		close(ch)
		return ch, nil
	}
	resp := f.Responses[f.calls]
	f.calls++

	ch := make(chan Chunk, len(resp.ToolCalls)+2)
	if resp.Text != "" {
		ch <- Chunk{Type: ChunkTypeText, Text: resp.Text}
	}
	for _, tc := range resp.ToolCalls {
		ch <- Chunk{Type: ChunkTypeToolCall, ToolCallID: tc.ID, ToolCallName: tc.Name, ToolCallArgs: tc.Arguments}
	}
	ch <- Chunk{Type: ChunkTypeUsage, InputTokens: resp.InputTokens, OutputTokens: resp.OutputTokens}
	if resp.Err != nil {
		ch <- Chunk{Type: ChunkTypeError, Err: resp.Err}
	}
	close(ch)
	return ch, nil
}

// Close implements Client.
func (f *FakeClient) Close() error { return nil }
