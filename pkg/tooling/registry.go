// Package tooling is the §4.7 tool registry: dotted-namespace tool
// handlers invoked through execute_tool, with a TTL cache for stable
// discover-phase reads. Grounded on the reference project's pkg/mcp
// executor/router split — ToolExecutor.Execute's normalize → route →
// invoke → wrap-result pipeline — adapted from MCP-server routing onto a
// flat in-process handler map, since this spec's tool registry has no
// external MCP transport of its own (§6 "the tool registry may be exposed
// over a named-tool-over-stream protocol... imposes no new semantics").
package tooling

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/codeready-toolchain/flowise-agent/pkg/canonjson"
	"github.com/codeready-toolchain/flowise-agent/pkg/redact"
)

// maxSummaryLen is the §4.7 ToolResult.summary cap: only this goes into
// downstream LLM context, the rest stays in state.debug.
const maxSummaryLen = 300

// Handler executes one tool call. summary must already be truncated to
// maxSummaryLen by the caller's convention — Execute enforces the cap
// regardless, so a handler that forgets is not a correctness bug.
type Handler func(ctx context.Context, args map[string]any) (data any, summary string, err error)

// ToolResult is execute_tool's return value (§4.7).
type ToolResult struct {
	OK      bool   `json:"ok"`
	Summary string `json:"summary"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type registration struct {
	handler   Handler
	cacheable bool
}

// Registry is the dotted-namespace tool map for one registry_id (e.g. one
// platform connection or test double).
type Registry struct {
	ID string

	mu    sync.RWMutex
	tools map[string]registration
}

// NewRegistry creates an empty registry identified by id (used as the
// registry_id component of the TTL cache key).
func NewRegistry(id string) *Registry {
	return &Registry{ID: id, tools: make(map[string]registration)}
}

// Register installs a handler under a dotted name (e.g. "flowise.list_graphs").
// cacheable marks tools eligible for the discover-phase TTL cache (stable
// reads like list_nodes, list_templates per §4.7).
func (r *Registry) Register(name string, cacheable bool, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[name] = registration{handler: h, cacheable: cacheable}
}

func (r *Registry) lookup(name string) (registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.tools[name]
	return reg, ok
}

// Execute implements execute_tool(name, args, registry) → ToolResult
// (§4.7), consulting cache for cacheable tools before invoking the handler.
func Execute(ctx context.Context, registry *Registry, cache *TTLCache, name string, args map[string]any) ToolResult {
	reg, ok := registry.lookup(name)
	if !ok {
		return ToolResult{OK: false, Error: fmt.Sprintf("unknown tool %q", name), Summary: truncate(fmt.Sprintf("unknown tool %q", name))}
	}

	if reg.cacheable && cache != nil {
		key := cacheKey(registry.ID, name, args)
		if cached, hit := cache.Get(key); hit {
			return cached
		}
		result := invoke(ctx, reg.handler, name, args)
		cache.Set(key, result)
		return result
	}

	return invoke(ctx, reg.handler, name, args)
}

func invoke(ctx context.Context, h Handler, name string, args map[string]any) ToolResult {
	data, summary, err := h(ctx, args)
	if err != nil {
		msg := redact.String(err.Error())
		return ToolResult{OK: false, Error: msg, Summary: truncate(fmt.Sprintf("%s failed: %s", name, msg))}
	}
	return ToolResult{OK: true, Summary: truncate(redact.String(summary)), Data: data}
}

func truncate(s string) string {
	if len(s) <= maxSummaryLen {
		return s
	}
	return s[:maxSummaryLen]
}

func cacheKey(registryID, name string, args map[string]any) string {
	argsJSON, err := canonjson.Marshal(args)
	if err != nil {
		argsJSON = []byte(fmt.Sprintf("%v", args))
	}
	return registryID + "\x00" + name + "\x00" + string(argsJSON)
}

// TTLCache is the §4.7 discover-phase cache: keyed by (name, args,
// registry_id), serving stable reads for a configurable TTL (default 5
// minutes per §6 DISCOVER_CACHE_TTL_SECS).
type TTLCache struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	result  ToolResult
	expires time.Time
}

// DefaultDiscoverCacheTTL is §6's DISCOVER_CACHE_TTL_SECS default.
const DefaultDiscoverCacheTTL = 5 * time.Minute

// NewTTLCache creates a cache with the given TTL. ttl <= 0 disables caching
// (every Get misses, matching DISCOVER_CACHE_TTL_SECS=0 "disables").
func NewTTLCache(ttl time.Duration) *TTLCache {
	return &TTLCache{ttl: ttl, entries: make(map[string]cacheEntry), now: time.Now}
}

// Get returns a cached result if present and unexpired.
func (c *TTLCache) Get(key string) (ToolResult, bool) {
	if c.ttl <= 0 {
		return ToolResult{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.now().After(e.expires) {
		return ToolResult{}, false
	}
	return e.result, true
}

// Set stores result under key with the cache's configured TTL.
func (c *TTLCache) Set(key string, result ToolResult) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{result: result, expires: c.now().Add(c.ttl)}
}
