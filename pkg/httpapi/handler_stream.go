package httpapi

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/flowise-agent/pkg/events"
)

// handleCreateSessionStream implements POST /sessions/stream (§6): same as
// handleCreateSession, but the caller watches progress over SSE instead of
// waiting for the single JSON response. Event types: token, tool_call,
// tool_result, interrupt, done, error (events.Kind).
func (s *Server) handleCreateSessionStream(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	st := newState(req)
	ctx := c.Request.Context()
	stream := s.Hub.Subscribe(ctx, st.ThreadID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Errors surface as a session.StatusError checkpoint, notified via
		// the hub like any other terminal state — nothing extra to do here.
		_, _ = s.Engine.Run(ctx, st)
	}()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-stream:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Kind), ev)
			return !isTerminal(ev.Kind)
		case <-ctx.Done():
			return false
		}
	})
	<-done
}

func isTerminal(k events.Kind) bool {
	return k == events.KindDone || k == events.KindError || k == events.KindInterrupt
}
