package httpapi

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/codeready-toolchain/flowise-agent/pkg/session"
)

// handleCreateSession implements POST /sessions (§6): creates a fresh
// session, drives it to its first suspension point or terminal state, and
// returns the resulting SessionResponse.
func (s *Server) handleCreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	st := newState(req)

	out, err := s.Engine.Run(c.Request.Context(), st)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newSessionResponse(out))
}

// newState builds the initial session.State for a create request, applying
// the runtime mode default and the fixed-at-creation rule (§3).
func newState(req CreateSessionRequest) *session.State {
	mode := session.RuntimeModeCapabilityFirst
	if req.RuntimeMode != "" {
		mode = session.RuntimeMode(req.RuntimeMode)
	}
	return session.New(uuid.NewString(), req.Requirement, mode, req.WebhookURL)
}

// handleResume implements POST /sessions/:id/resume (§6): loads the
// suspended session, merges the human response via Engine.Resume, and
// returns the resulting state.
func (s *Server) handleResume(c *gin.Context) {
	threadID := c.Param("id")

	var req ResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	st, err := s.Checkpoint.Load(c.Request.Context(), threadID)
	if err != nil {
		writeError(c, err)
		return
	}
	if st.Status != session.StatusPendingInterrupt {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "session is not suspended on an interrupt"})
		return
	}

	out, err := s.Engine.Resume(c.Request.Context(), st, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(out))
}

// handleListSessions implements GET /sessions (§6): every known thread,
// newest-updated first.
func (s *Server) handleListSessions(c *gin.Context) {
	ctx := c.Request.Context()
	ids, err := s.Checkpoint.ListThreads(ctx)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]SessionResponse, 0, len(ids))
	for _, id := range ids {
		st, err := s.Checkpoint.Load(ctx, id)
		if err != nil {
			continue // deleted between ListThreads and Load; skip rather than fail the whole listing
		}
		out = append(out, newSessionResponse(st))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ThreadID < out[j].ThreadID })
	c.JSON(http.StatusOK, out)
}

// handleGetSession implements GET /sessions/:id.
func (s *Server) handleGetSession(c *gin.Context) {
	st, err := s.Checkpoint.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(st))
}

// handleDeleteSession implements DELETE /sessions/:id. Per §3 Lifecycle,
// deletion cascades to the event log.
func (s *Server) handleDeleteSession(c *gin.Context) {
	threadID := c.Param("id")
	if _, err := s.Checkpoint.Load(c.Request.Context(), threadID); err != nil {
		writeError(c, err)
		return
	}
	if err := s.Checkpoint.DeleteThread(c.Request.Context(), threadID); err != nil {
		writeError(c, err)
		return
	}
	s.Hub.Close(threadID)
	c.Status(http.StatusNoContent)
}

// handleGetSummary implements GET /sessions/:id/summary.
func (s *Server) handleGetSummary(c *gin.Context) {
	st, err := s.Checkpoint.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionSummaryResponse(st))
}
