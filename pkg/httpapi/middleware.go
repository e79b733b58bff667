package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// securityHeaders sets standard security response headers, mirroring the
// reference project's echo securityHeaders middleware.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		c.Next()
	}
}

// bearerAuth rejects requests that don't present the configured API key as
// a bearer token. Reads the key via getKey on every request, rather than
// capturing it once, so config reloads (and tests) take effect immediately.
// An empty key disables auth entirely (local/dev mode — see
// config.RuntimeConfig.AgentAPIKey).
func bearerAuth(getKey func() string) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := getKey()
		if apiKey == "" {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header || token != apiKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "missing or invalid bearer token"})
			return
		}
		c.Next()
	}
}

// callerIdentity extracts the identity used to key the per-caller rate
// limiter (§5 "rate-limited per caller"). Priority: the bearer token itself
// (callers are already required to present one when auth is enabled), then
// remote address, matching the reference project's oauth2-proxy-header
// fallback chain in spirit (X-Forwarded-* -> best-effort default).
func callerIdentity(c *gin.Context) string {
	if token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "); token != "" && token != c.GetHeader("Authorization") {
		return token
	}
	return c.ClientIP()
}
