// Package httpapi exposes the orchestration engine over HTTP (spec §6):
// session creation (plain and SSE-streamed), resume, listing, inspection,
// summary, rollback, the pattern library, and a health check.
//
// Routing and server lifecycle are grounded on the reference project's
// cmd/tarsy/main.go gin.Default()/router.Run() usage — the reference
// project's own pkg/api is built on echo, but this codebase's go.mod and
// design commit to gin (gin-contrib/sse covers the streaming endpoints),
// so handler shapes, error mapping, and middleware are translated from
// pkg/api's echo conventions onto gin's Context API.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/flowise-agent/pkg/checkpoint"
	"github.com/codeready-toolchain/flowise-agent/pkg/config"
	"github.com/codeready-toolchain/flowise-agent/pkg/events"
	"github.com/codeready-toolchain/flowise-agent/pkg/knowledge"
	"github.com/codeready-toolchain/flowise-agent/pkg/orchestrator"
	"github.com/codeready-toolchain/flowise-agent/pkg/ratelimit"
	"github.com/codeready-toolchain/flowise-agent/pkg/version"
)

// Version is the build version surfaced by GET /health, derived from VCS
// build info embedded by the Go toolchain (pkg/version).
var Version = version.GitCommit

// Server wires the orchestration engine and its collaborators to HTTP.
type Server struct {
	Engine      *orchestrator.Engine
	Checkpoint  checkpoint.Store
	Hub         *events.Hub
	Patterns    *knowledge.PatternStore
	RateLimiter *ratelimit.PerCaller
	Cfg         *config.Config

	router *gin.Engine
}

// NewServer builds the gin router and registers every §6 route.
func NewServer(engine *orchestrator.Engine, store checkpoint.Store, hub *events.Hub, patterns *knowledge.PatternStore, limiter *ratelimit.PerCaller, cfg *config.Config) *Server {
	s := &Server{
		Engine:      engine,
		Checkpoint:  store,
		Hub:         hub,
		Patterns:    patterns,
		RateLimiter: limiter,
		Cfg:         cfg,
	}
	s.router = gin.New()
	s.router.Use(gin.Recovery(), securityHeaders())
	s.setupRoutes()
	return s
}

// Handler exposes the underlying http.Handler, e.g. for httptest.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	protected := s.router.Group("/")
	protected.Use(bearerAuth(func() string { return s.Cfg.Runtime.AgentAPIKey }))

	protected.POST("/sessions", s.rateLimited(s.handleCreateSession))
	protected.POST("/sessions/stream", s.rateLimited(s.handleCreateSessionStream))
	protected.GET("/sessions", s.handleListSessions)
	protected.GET("/sessions/:id", s.handleGetSession)
	protected.DELETE("/sessions/:id", s.handleDeleteSession)
	protected.GET("/sessions/:id/summary", s.handleGetSummary)
	protected.POST("/sessions/:id/resume", s.handleResume)
	protected.POST("/sessions/:id/rollback", s.handleRollback)
	protected.GET("/patterns", s.handleListPatterns)
}

// rateLimited wraps a handler with the session-creation rate limit (§6
// RATE_LIMIT_SESSIONS_PER_MIN).
func (s *Server) rateLimited(next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.RateLimiter != nil && !s.RateLimiter.Allow(callerIdentity(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
			return
		}
		next(c)
	}
}

// Start runs the HTTP server on addr, blocking until it returns an error
// (mirrors the reference project's router.Run(":"+port)).
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}

// Shutdown gracefully stops the server. gin's router.Run has no built-in
// graceful shutdown hook, so a real deployment wraps Handler() in its own
// http.Server and calls that server's Shutdown; this method exists so
// callers have a single place to add that wiring without touching routes.
func (s *Server) Shutdown(ctx context.Context) error {
	_, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	stats := s.Cfg.Stats()
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
		Configuration: ConfigSummary{
			RuntimeMode:     string(stats.RuntimeMode),
			ReasoningEngine: string(stats.ReasoningEngine),
			MaxIterations:   stats.MaxIterations,
			TrialsK:         stats.TrialsK,
			DriftPolicy:     string(stats.DriftPolicy),
		},
	})
}
