package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/flowise-agent/pkg/apperrors"
	"github.com/codeready-toolchain/flowise-agent/pkg/session"
)

// handleRollback implements POST /sessions/:id/rollback (§6). Not spelled
// out by name in the data model, so this rewrites the platform's graph back
// to the session's pre-session payload — the only graph state rollback has
// to work with for an UPDATE session (§3 base_graph). It is a no-op error
// for a CREATE session since there is no prior payload to restore.
func (s *Server) handleRollback(c *gin.Context) {
	ctx := c.Request.Context()
	threadID := c.Param("id")

	st, err := s.Checkpoint.Load(ctx, threadID)
	if err != nil {
		writeError(c, err)
		return
	}

	if st.Intent != session.IntentUpdate || st.BaseGraph == nil || st.TargetGraphID == nil {
		writeError(c, apperrors.New(apperrors.KindStructure, "session has no prior graph to roll back to", nil))
		return
	}

	if err := s.Engine.Platform.WriteGraph(ctx, *st.TargetGraphID, *st.BaseGraph); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, RollbackResponse{
		ThreadID: st.ThreadID,
		GraphID:  *st.TargetGraphID,
		Message:  "graph restored to its pre-session payload",
	})
}
