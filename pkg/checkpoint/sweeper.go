package checkpoint

import (
	"context"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/flowise-agent/pkg/session"
)

// RetentionConfig bounds how long terminal sessions stay in a Store before
// the Sweeper reclaims them (§3 Lifecycle: sessions reach a terminal state
// and are retained for inspection via GET /sessions/{id}, not forever).
type RetentionConfig struct {
	// TerminalRetention is how long a completed or errored session's
	// checkpoint survives after its last update before the sweeper
	// deletes it. Zero disables the sweeper.
	TerminalRetention time.Duration
	// Interval is how often the sweeper scans the store.
	Interval time.Duration
}

// Sweeper periodically deletes checkpoints for sessions that reached a
// terminal status (completed or error) more than TerminalRetention ago.
// Grounded on the reference project's pkg/cleanup retention-service shape
// (ticker-driven background loop with idempotent, repeatable sweeps),
// adapted from session/event-row soft-deletes onto checkpoint.Store.
type Sweeper struct {
	store  Store
	cfg    RetentionConfig
	now    func() time.Time
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper creates a Sweeper over store. cfg.Interval and
// cfg.TerminalRetention of zero mean the sweeper never deletes anything
// once started, but Start/Stop remain safe to call.
func NewSweeper(store Store, cfg RetentionConfig) *Sweeper {
	return &Sweeper{store: store, cfg: cfg, now: time.Now}
}

// Start launches the background sweep loop. A no-op if already started.
func (s *Sweeper) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("checkpoint sweeper started",
		"terminal_retention", s.cfg.TerminalRetention, "interval", s.cfg.Interval)
}

// Stop signals the sweep loop to exit and waits for it to finish.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("checkpoint sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	if s.cfg.Interval <= 0 {
		return
	}

	s.sweepOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

// sweepOnce deletes every terminal checkpoint older than TerminalRetention.
// Safe to call from multiple processes sharing a Store: DeleteThread on an
// already-gone thread is a no-op in every Store implementation.
func (s *Sweeper) sweepOnce(ctx context.Context) {
	if s.cfg.TerminalRetention <= 0 {
		return
	}
	ids, err := s.store.ListThreads(ctx)
	if err != nil {
		slog.Error("checkpoint sweep: list threads failed", "error", err)
		return
	}

	cutoff := s.now().Add(-s.cfg.TerminalRetention)
	deleted := 0
	for _, id := range ids {
		st, err := s.store.Load(ctx, id)
		if err != nil {
			continue
		}
		if !isTerminal(st.Status) || st.UpdatedAt.After(cutoff) {
			continue
		}
		if err := s.store.DeleteThread(ctx, id); err != nil {
			slog.Error("checkpoint sweep: delete failed", "thread_id", id, "error", err)
			continue
		}
		deleted++
	}
	if deleted > 0 {
		slog.Info("checkpoint sweep complete", "deleted", deleted, "scanned", len(ids))
	}
}

func isTerminal(st session.Status) bool {
	return st == session.StatusCompleted || st == session.StatusError
}
