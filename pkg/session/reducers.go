package session

// Reducers implement the append-only accumulator semantics called out in
// spec §9 ("Append-only accumulators"): each receives (old, delta) and
// returns new, independent of any particular language's default merge
// behavior. Orchestrator nodes call these explicitly rather than assigning
// over a field, so the merge policy is visible at every call site.

// MergeMessages appends delta to old (messages: append).
func MergeMessages(old, delta []Message) []Message {
	if len(delta) == 0 {
		return old
	}
	out := make([]Message, 0, len(old)+len(delta))
	out = append(out, old...)
	out = append(out, delta...)
	return out
}

// MergePhaseMetrics appends delta to old (phase_metrics: append).
func MergePhaseMetrics(old, delta []PhaseMetrics) []PhaseMetrics {
	if len(delta) == 0 {
		return old
	}
	out := make([]PhaseMetrics, 0, len(old)+len(delta))
	out = append(out, old...)
	out = append(out, delta...)
	return out
}

// MergeTokenCounts sums input/output token deltas (total_*_tokens: append-sum).
func MergeTokenCounts(oldIn, oldOut, deltaIn, deltaOut int) (int, int) {
	return oldIn + deltaIn, oldOut + deltaOut
}

// MergeFacts merges delta into old per-key (facts: mapping domain→object, merged per-key).
func MergeFacts(old, delta map[string]any) map[string]any {
	out := cloneMap(old)
	if out == nil {
		out = map[string]any{}
	}
	for k, v := range delta {
		out[k] = v
	}
	return out
}

// MergeArtifacts merges delta into old per-key, same policy as MergeFacts.
func MergeArtifacts(old, delta map[string]any) map[string]any {
	return MergeFacts(old, delta)
}

// MergeDebug merges delta into old per-key, same policy as MergeFacts.
func MergeDebug(old, delta map[string]any) map[string]any {
	return MergeFacts(old, delta)
}

// ApplyDiscoverResult applies the discover node's write to state (§4.1 state
// machine table: discover writes discovery_summary, facts, debug).
func (s *State) ApplyDiscoverResult(summary string, facts, debug map[string]any, inputTokens, outputTokens int) {
	s.DiscoverySummary = summary
	s.Facts = MergeFacts(s.Facts, facts)
	s.Debug = MergeDebug(s.Debug, debug)
	s.TotalInputTokens, s.TotalOutputTokens = MergeTokenCounts(s.TotalInputTokens, s.TotalOutputTokens, inputTokens, outputTokens)
}

// RecordPhase appends one PhaseMetrics entry and folds its token counts into
// the session-wide totals — the single call site every orchestrator node
// wrapper uses to close out its phase (see pkg/telemetry).
func (s *State) RecordPhase(m PhaseMetrics) {
	s.PhaseMetrics = MergePhaseMetrics(s.PhaseMetrics, []PhaseMetrics{m})
	s.TotalInputTokens, s.TotalOutputTokens = MergeTokenCounts(s.TotalInputTokens, s.TotalOutputTokens, m.InputTokens, m.OutputTokens)
}

// AppendMessage appends one message to the transcript.
func (s *State) AppendMessage(role MessageRole, content string) {
	s.Messages = MergeMessages(s.Messages, []Message{{Role: role, Content: content}})
}
