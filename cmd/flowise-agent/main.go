// Command flowise-agent runs the co-development agent orchestration
// engine: an HTTP/SSE API (pkg/httpapi) in front of the state machine
// in pkg/orchestrator (spec §1, §6).
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/codeready-toolchain/flowise-agent/pkg/capability"
	"github.com/codeready-toolchain/flowise-agent/pkg/checkpoint"
	"github.com/codeready-toolchain/flowise-agent/pkg/config"
	"github.com/codeready-toolchain/flowise-agent/pkg/events"
	"github.com/codeready-toolchain/flowise-agent/pkg/httpapi"
	"github.com/codeready-toolchain/flowise-agent/pkg/knowledge"
	"github.com/codeready-toolchain/flowise-agent/pkg/llm"
	"github.com/codeready-toolchain/flowise-agent/pkg/orchestrator"
	"github.com/codeready-toolchain/flowise-agent/pkg/ratelimit"
	"github.com/codeready-toolchain/flowise-agent/pkg/telemetry"
	"github.com/codeready-toolchain/flowise-agent/pkg/tooling"
	"github.com/codeready-toolchain/flowise-agent/pkg/webhook"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("warning: could not load %s: %v", envPath, err)
		log.Printf("continuing with existing environment variables")
	} else {
		log.Printf("loaded environment from %s", envPath)
	}

	httpPort := getEnv("HTTP_PORT", "8080")
	gin.SetMode(getEnv("GIN_MODE", "debug"))

	ctx := context.Background()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("failed to initialize configuration: %v", err)
	}

	engine := buildEngine(cfg)
	server := httpapi.NewServer(
		engine,
		engine.Checkpoint,
		engine.Hub,
		engine.Patterns,
		ratelimit.New(cfg.Runtime.RateLimitSessionsPerMin),
		cfg,
	)

	sweeper := checkpoint.NewSweeper(engine.Checkpoint, checkpoint.RetentionConfig{
		TerminalRetention: 24 * time.Hour,
		Interval:          time.Hour,
	})
	sweeper.Start(ctx)
	defer sweeper.Stop()

	slog.Info("starting flowise-agent", "http_port", httpPort, "config_dir", *configDir)
	if err := server.Start(":" + httpPort); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

// buildEngine wires every orchestrator collaborator. The checkpoint store,
// pattern/schema/anchor/credential stores are in-memory reference
// implementations (spec §1 scopes their durable backends out); Platform and
// llm.Client are likewise out-of-scope external collaborators behind plain
// interfaces — a real deployment swaps FakePlatform for a Flowise REST
// client and llm.FakeClient for a provider SDK adapter without touching the
// orchestrator or this wiring's shape.
func buildEngine(cfg *config.Config) *orchestrator.Engine {
	schemas := knowledge.NewNodeSchemaStore()
	anchors := knowledge.NewAnchorDictionaryStore(schemas)
	creds := knowledge.NewCredentialStore()
	patterns := knowledge.NewPatternStore()

	platform := orchestrator.NewFakePlatform()
	llmClient := &llm.FakeClient{}

	registry := tooling.NewRegistry("flowise")
	cache := tooling.NewTTLCache(time.Duration(cfg.DiscoverCache.TTLSeconds) * time.Second)

	flowiseCap := &capability.FlowiseCapability{
		Tools:      registry,
		Cache:      cache,
		LLM:        llmClient,
		Model:      cfg.Reasoning.Model,
		RegistryID: registry.ID,
	}

	engine := orchestrator.New(orchestrator.Engine{
		Checkpoint:   checkpoint.NewMemoryStore(),
		Schemas:      schemas,
		Anchors:      anchors,
		Creds:        creds,
		Patterns:     patterns,
		Capabilities: []capability.Capability{flowiseCap},
		LLM:          llmClient,
		Platform:     platform,
		Tools:        registry,
		Cache:        cache,
		Telemetry:    telemetry.NewRecorder(),
		Hub:          events.NewHub(),
		Webhook:      webhook.New(),
		Config:       cfg.OrchestratorConfig(),
	})
	return engine
}
