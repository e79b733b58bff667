package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/flowise-agent/pkg/apperrors"
	"github.com/codeready-toolchain/flowise-agent/pkg/checkpoint"
)

// writeError maps a domain error to an HTTP status + ErrorResponse body,
// mirroring the reference project's mapServiceError (errors.As/Is chain
// against known sentinel/structured error types, falling back to 500).
func writeError(c *gin.Context, err error) {
	if errors.Is(err, checkpoint.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "session not found"})
		return
	}

	var ae *apperrors.AgentError
	if errors.As(err, &ae) {
		c.JSON(statusForKind(ae.Kind), ErrorResponse{Error: ae.Message})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
}

// statusForKind maps the §7 error taxonomy onto HTTP status codes.
func statusForKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindUnresolvedTarget, apperrors.KindCredential, apperrors.KindStructure:
		return http.StatusUnprocessableEntity
	case apperrors.KindRateLimit:
		return http.StatusTooManyRequests
	case apperrors.KindWriteGuardMismatch:
		return http.StatusConflict
	case apperrors.KindExhausted:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
