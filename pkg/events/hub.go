// Package events is the in-process pub/sub fan-out behind the §6 SSE
// surface. Each session thread has its own bounded channel of events;
// pkg/httpapi subscribes one gin SSE stream per HTTP client per thread.
//
// The reference project delivers session events over WebSocket backed by a
// Postgres LISTEN/NOTIFY bus (pkg/events.ConnectionManager). This design has
// no Postgres notify channel — the checkpoint store is in-memory — and the
// transport is SSE, not WebSocket (§6), so the bus itself is rebuilt as a
// plain in-process channel fan-out. The per-thread subscriber-set shape and
// the bounded catch-up buffer are kept from the reference project's
// ConnectionManager/Connection design.
package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/codeready-toolchain/flowise-agent/pkg/session"
)

// Kind identifies an SSE event type (§6: token, tool_call, tool_result,
// interrupt, done, error).
type Kind string

const (
	KindToken      Kind = "token"
	KindToolCall   Kind = "tool_call"
	KindToolResult Kind = "tool_result"
	KindInterrupt  Kind = "interrupt"
	KindDone       Kind = "done"
	KindError      Kind = "error"
)

// Event is one message on a thread's stream.
type Event struct {
	Kind     Kind             `json:"kind"`
	ThreadID string           `json:"thread_id"`
	Data     any              `json:"data,omitempty"`
	Interrupt *session.Interrupt `json:"interrupt,omitempty"`
}

// catchupLimit bounds how many events a late subscriber's channel can queue
// before the publisher drops the slowest subscriber rather than blocking the
// orchestrator node that is publishing (mirrors the reference project's
// bounded catch-up buffer).
const catchupLimit = 64

type subscriber struct {
	ch     chan Event
	cancel context.CancelFunc
}

// Hub fans out events per thread_id to zero or more subscribers.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
	log  *slog.Logger
}

// NewHub creates an empty event hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[*subscriber]struct{}),
		log:  slog.With("component", "events.Hub"),
	}
}

// Subscribe registers a new listener for threadID. The returned channel is
// closed, and the subscription removed, when ctx is cancelled or Close(threadID)
// is called. Callers (pkg/httpapi SSE handlers) range over the channel.
func (h *Hub) Subscribe(ctx context.Context, threadID string) <-chan Event {
	ctx, cancel := context.WithCancel(ctx)
	sub := &subscriber{ch: make(chan Event, catchupLimit), cancel: cancel}

	h.mu.Lock()
	set, ok := h.subs[threadID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[threadID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.remove(threadID, sub)
	}()

	return sub.ch
}

func (h *Hub) remove(threadID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[threadID]; ok {
		if _, present := set[sub]; present {
			delete(set, sub)
			close(sub.ch)
		}
		if len(set) == 0 {
			delete(h.subs, threadID)
		}
	}
}

// Publish delivers ev to every current subscriber of ev.ThreadID. A
// subscriber whose buffer is full is dropped rather than blocking the
// orchestrator node doing the publishing — a stalled HTTP client must never
// stall the state machine.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	set := h.subs[ev.ThreadID]
	subs := make([]*subscriber, 0, len(set))
	for s := range set {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		select {
		case s.ch <- ev:
		default:
			h.log.Warn("dropping slow subscriber", "thread_id", ev.ThreadID)
			h.remove(ev.ThreadID, s)
		}
	}
}

// Close tears down every subscriber of threadID — called when a session is
// deleted (§3 Lifecycle: "deleted on DELETE which cascades to the event log").
func (h *Hub) Close(threadID string) {
	h.mu.Lock()
	set := h.subs[threadID]
	delete(h.subs, threadID)
	h.mu.Unlock()

	for s := range set {
		s.cancel()
	}
}
