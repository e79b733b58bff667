package knowledge

import (
	"sort"
	"sync"

	"github.com/codeready-toolchain/flowise-agent/pkg/session"
)

// PatternStore is the persistent, external collaborator (§4.6) holding
// previously-successful graph fragments. The core depends only on
// SearchFiltered/ApplyAsBaseGraph/Save; the concrete external store (a
// multi-writer single-reader SQL engine per §5) is out of scope here, so
// this ships an in-memory reference implementation good enough for tests
// and single-process deployments.
type PatternStore struct {
	mu       sync.RWMutex
	patterns map[string]session.Pattern
}

// NewPatternStore creates an empty in-memory pattern store.
func NewPatternStore() *PatternStore {
	return &PatternStore{patterns: map[string]session.Pattern{}}
}

// Save persists pat, upserting by ID. Per §5 "pattern save is best-effort",
// callers must not treat a Save failure as fatal to the session — this
// in-memory implementation never errors, but the signature keeps the
// best-effort contract visible to callers expecting a real backend.
func (p *PatternStore) Save(pat session.Pattern) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.patterns[pat.ID] = pat
	return nil
}

// SearchFiltered implements §4.6's
// `search_filtered(keywords, domain, category, node_types, limit) → [matches]`.
// Matching is keyword/domain/category/node_type overlap, ranked by
// success_count descending, consistent with "seed base_graph_ir to reduce
// AddNode ops" — the most-reused fragment should be tried first.
func (p *PatternStore) SearchFiltered(keywords []string, domain, category string, nodeTypes []string, limit int) []session.Pattern {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []session.Pattern
	for _, pat := range p.patterns {
		if domain != "" && pat.Domain != domain {
			continue
		}
		if category != "" && pat.Category != category {
			continue
		}
		if !overlaps(pat.Keywords, keywords) && !overlaps(pat.NodeTypes, nodeTypes) {
			continue
		}
		out = append(out, pat)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].SuccessCount > out[j].SuccessCount })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// All returns every stored pattern, ranked by success_count descending, for
// the GET /patterns listing endpoint (§6). Unlike SearchFiltered this
// applies no keyword/domain/category overlap filter — it is a plain dump of
// the store's contents.
func (p *PatternStore) All() []session.Pattern {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]session.Pattern, 0, len(p.patterns))
	for _, pat := range p.patterns {
		out = append(out, pat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SuccessCount > out[j].SuccessCount })
	return out
}

// ApplyAsBaseGraph returns the pattern's flow_data as a GraphIR seed for
// plan_v2 (§4.6). ok=false if patternID is unknown.
func (p *PatternStore) ApplyAsBaseGraph(patternID string) (session.GraphPayload, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pat, ok := p.patterns[patternID]
	if !ok {
		return session.GraphPayload{}, false
	}
	return pat.FlowData, true
}

func overlaps(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; ok {
			return true
		}
	}
	return false
}
