package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleListPatterns implements GET /patterns (§6): the full pattern
// library, ranked by success_count.
func (s *Server) handleListPatterns(c *gin.Context) {
	patterns := s.Patterns.All()
	out := make([]PatternResponse, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, PatternResponse{
			ID:           p.ID,
			Keywords:     p.Keywords,
			Domain:       p.Domain,
			NodeTypes:    p.NodeTypes,
			Category:     p.Category,
			SuccessCount: p.SuccessCount,
		})
	}
	c.JSON(http.StatusOK, out)
}
