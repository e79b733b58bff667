package tooling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExecuteUnknownTool(t *testing.T) {
	r := NewRegistry("reg-1")
	result := Execute(context.Background(), r, nil, "flowise.nope", nil)
	require.False(t, result.OK)
	require.Contains(t, result.Error, "unknown tool")
}

func TestExecuteTruncatesSummary(t *testing.T) {
	r := NewRegistry("reg-1")
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	r.Register("flowise.noisy", false, func(ctx context.Context, args map[string]any) (any, string, error) {
		return nil, string(long), nil
	})

	result := Execute(context.Background(), r, nil, "flowise.noisy", nil)
	require.True(t, result.OK)
	require.Len(t, result.Summary, maxSummaryLen)
}

func TestExecutePropagatesHandlerError(t *testing.T) {
	r := NewRegistry("reg-1")
	r.Register("flowise.broken", false, func(ctx context.Context, args map[string]any) (any, string, error) {
		return nil, "", errors.New("boom")
	})

	result := Execute(context.Background(), r, nil, "flowise.broken", nil)
	require.False(t, result.OK)
	require.Equal(t, "boom", result.Error)
}

func TestExecuteCachesCacheableTools(t *testing.T) {
	r := NewRegistry("reg-1")
	calls := 0
	r.Register("flowise.list_nodes", true, func(ctx context.Context, args map[string]any) (any, string, error) {
		calls++
		return []string{"chatOpenAI"}, "1 node", nil
	})
	cache := NewTTLCache(time.Minute)

	_ = Execute(context.Background(), r, cache, "flowise.list_nodes", map[string]any{"x": 1})
	_ = Execute(context.Background(), r, cache, "flowise.list_nodes", map[string]any{"x": 1})
	require.Equal(t, 1, calls)
}

func TestExecuteDoesNotCacheNonCacheableTools(t *testing.T) {
	r := NewRegistry("reg-1")
	calls := 0
	r.Register("flowise.deploy", false, func(ctx context.Context, args map[string]any) (any, string, error) {
		calls++
		return nil, "deployed", nil
	})
	cache := NewTTLCache(time.Minute)

	_ = Execute(context.Background(), r, cache, "flowise.deploy", nil)
	_ = Execute(context.Background(), r, cache, "flowise.deploy", nil)
	require.Equal(t, 2, calls)
}

func TestTTLCacheZeroDisablesCaching(t *testing.T) {
	cache := NewTTLCache(0)
	cache.Set("k", ToolResult{OK: true})
	_, hit := cache.Get("k")
	require.False(t, hit)
}
