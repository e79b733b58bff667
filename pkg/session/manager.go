package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrThreadIDRequired is returned by Resume when called with an empty id.
var ErrThreadIDRequired = errors.New("session: thread_id is required")

// Store is the subset of pkg/checkpoint.Store the manager depends on. Kept
// as a local interface (rather than importing pkg/checkpoint directly) so
// pkg/session has no dependency on the storage package — only the other way
// around — mirroring how tarsy's services package depends on *ent.Client
// through a narrow lens rather than the whole generated surface.
type Store interface {
	Save(ctx context.Context, threadID string, state *State) error
	Load(ctx context.Context, threadID string) (*State, error)
	ListThreads(ctx context.Context) ([]string, error)
	DeleteThread(ctx context.Context, threadID string) error
}

// Manager owns session lifecycle: creation, lookup, listing, resume and
// deletion (§3 Lifecycle). Unlike the reference project's in-memory-map
// Manager, this one is backed by a Store so the same code path serves both
// tests (MemoryStore) and any future durable backend.
type Manager struct {
	store Store
}

// NewManager creates a session manager over the given checkpoint store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Create starts a new session per the POST /sessions defaults (§3
// Lifecycle: "State is created at POST /sessions with defaults"). Validates
// the required fields the same way tarsy's SessionService.CreateSession does
// before touching storage.
func (m *Manager) Create(ctx context.Context, requirement string, runtimeMode RuntimeMode, webhookURL *string) (*State, error) {
	if requirement == "" {
		return nil, fmt.Errorf("session: requirement is required")
	}
	if runtimeMode == "" {
		runtimeMode = RuntimeModeCapabilityFirst
	}

	threadID := uuid.New().String()
	st := New(threadID, requirement, runtimeMode, webhookURL)
	st.AppendMessage(RoleUser, requirement)

	if err := m.store.Save(ctx, threadID, st); err != nil {
		return nil, fmt.Errorf("session: create %s: %w", threadID, err)
	}
	return st, nil
}

// Get loads a session's current state by thread id.
func (m *Manager) Get(ctx context.Context, threadID string) (*State, error) {
	if threadID == "" {
		return nil, ErrThreadIDRequired
	}
	return m.store.Load(ctx, threadID)
}

// List returns every known session's current state. Errors loading an
// individual thread are skipped rather than failing the whole listing,
// since a single corrupt/racing checkpoint shouldn't hide every other
// session from GET /sessions.
func (m *Manager) List(ctx context.Context) ([]*State, error) {
	ids, err := m.store.ListThreads(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*State, 0, len(ids))
	for _, id := range ids {
		st, err := m.store.Load(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

// Resume loads a session and clears any pending interrupt so the
// orchestrator can continue past the suspension point (§3 Lifecycle:
// "resumed at each resume"). The caller is responsible for merging the
// resume payload (e.g. clarification answer) into the state before the
// orchestrator re-enters.
func (m *Manager) Resume(ctx context.Context, threadID string) (*State, error) {
	st, err := m.Get(ctx, threadID)
	if err != nil {
		return nil, err
	}
	st.PendingInterrupt = nil
	st.Status = StatusRunning
	return st, nil
}

// Save checkpoints state, called by the orchestrator after every node
// execution (§2 item 6, §5 "Suspension points").
func (m *Manager) Save(ctx context.Context, st *State) error {
	return m.store.Save(ctx, st.ThreadID, st)
}

// Delete removes a session (§3 Lifecycle: "deleted on DELETE which cascades
// to the event log"); cascading to the event log is the caller's
// responsibility (pkg/events.Hub.Close), kept out of this package so
// pkg/session has no dependency on pkg/events.
func (m *Manager) Delete(ctx context.Context, threadID string) error {
	return m.store.DeleteThread(ctx, threadID)
}
