package knowledge

import "sync"

// TemplateSummary is the list-view shape (§4.6 TemplateStore: "marketplace
// templates, stripped of heavy flow_data in list view").
type TemplateSummary struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// TemplateStore caches marketplace template metadata. Grounded on the
// reference project's runbook fetch/cache machinery (pkg/runbook): a
// coarse list view is kept hot in memory, full detail is fetched on demand
// from the out-of-scope platform collaborator.
type TemplateStore struct {
	mu   sync.RWMutex
	list []TemplateSummary
	full map[string]map[string]any
}

// NewTemplateStore creates an empty store.
func NewTemplateStore() *TemplateStore {
	return &TemplateStore{full: map[string]map[string]any{}}
}

// SeedList installs the list-view cache.
func (t *TemplateStore) SeedList(summaries []TemplateSummary) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.list = summaries
}

// List returns the cached list view.
func (t *TemplateStore) List() []TemplateSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.list
}

// CacheFull stores a fetched full template (including flow_data) by id.
func (t *TemplateStore) CacheFull(id string, full map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.full[id] = full
}

// Full returns a previously cached full template, ok=false on cache miss
// (callers fall back to fetching from the platform).
func (t *TemplateStore) Full(id string) (map[string]any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	full, ok := t.full[id]
	return full, ok
}
