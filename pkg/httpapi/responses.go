package httpapi

import "github.com/codeready-toolchain/flowise-agent/pkg/session"

// SessionResponse is the §6 "Session response schema" returned by every
// endpoint that surfaces session state (create/resume/get/list entries).
type SessionResponse struct {
	ThreadID          string              `json:"thread_id"`
	Status            session.Status      `json:"status"`
	Iteration         int                 `json:"iteration"`
	Interrupt         *session.Interrupt  `json:"interrupt,omitempty"`
	TotalInputTokens  int                 `json:"total_input_tokens"`
	TotalOutputTokens int                 `json:"total_output_tokens"`
	RuntimeMode       session.RuntimeMode `json:"runtime_mode"`
	ErrorKind         string              `json:"error_kind,omitempty"`
	ErrorDetail       string              `json:"error_detail,omitempty"`
}

func newSessionResponse(st *session.State) SessionResponse {
	return SessionResponse{
		ThreadID:          st.ThreadID,
		Status:            st.Status,
		Iteration:         st.Iteration,
		Interrupt:         st.PendingInterrupt,
		TotalInputTokens:  st.TotalInputTokens,
		TotalOutputTokens: st.TotalOutputTokens,
		RuntimeMode:       st.RuntimeMode,
		ErrorKind:         st.ErrorKind,
		ErrorDetail:       st.ErrorDetail,
	}
}

// SessionSummaryResponse is returned by GET /sessions/:id/summary — the
// human-facing digest of what a session decided, without the full
// compiled_graph/test_results bulk of the raw state.
type SessionSummaryResponse struct {
	ThreadID         string                  `json:"thread_id"`
	DiscoverySummary string                  `json:"discovery_summary"`
	PlanText         string                  `json:"plan_text"`
	Verdict          session.ConvergeVerdict `json:"verdict"`
	TestResultCount  int                     `json:"test_result_count"`
}

func newSessionSummaryResponse(st *session.State) SessionSummaryResponse {
	return SessionSummaryResponse{
		ThreadID:         st.ThreadID,
		DiscoverySummary: st.DiscoverySummary,
		PlanText:         st.PlanText,
		Verdict:          st.Verdict,
		TestResultCount:  len(st.TestResults),
	}
}

// RollbackResponse is returned by POST /sessions/:id/rollback.
type RollbackResponse struct {
	ThreadID string `json:"thread_id"`
	GraphID  string `json:"graph_id"`
	Message  string `json:"message"`
}

// PatternResponse is one entry in GET /patterns.
type PatternResponse struct {
	ID           string   `json:"id"`
	Keywords     []string `json:"keywords"`
	Domain       string   `json:"domain"`
	NodeTypes    []string `json:"node_types"`
	Category     string   `json:"category"`
	SuccessCount int      `json:"success_count"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status        string        `json:"status"`
	Version       string        `json:"version"`
	Configuration ConfigSummary `json:"configuration"`
}

// ConfigSummary mirrors config.ConfigStats for the health endpoint, kept
// local so httpapi doesn't need to import pkg/config just to re-expose its
// Stats() shape under a different name.
type ConfigSummary struct {
	RuntimeMode     string `json:"runtime_mode"`
	ReasoningEngine string `json:"reasoning_engine"`
	MaxIterations   int    `json:"max_iterations"`
	TrialsK         int    `json:"trials_k"`
	DriftPolicy     string `json:"drift_policy"`
}

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
