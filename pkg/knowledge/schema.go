// Package knowledge is the §4.6 knowledge layer: node-schema registry,
// anchor dictionary, credential and template stores, and the pattern
// library. Grounded on the reference project's config.AgentRegistry /
// config.MCPServerRegistry pattern — a local-first, snapshot-loaded,
// lazily-rebuilt lookup registry — adapted to this spec's schema/anchor/
// credential/pattern shapes instead of agent/MCP-server configuration.
package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/codeready-toolchain/flowise-agent/pkg/session"
)

// NodeTemplate is the schema-registry entry AddNode instantiates from
// (§4.2 step 4 "instantiate the node from its schema template"). It reuses
// session.AnchorInstance/ParamInstance for its anchor/param lists, but here
// AnchorInstance.ID holds the unsubstituted id_template ("…{nodeId}…")
// rather than a materialized id — substitution happens at AddNode time.
type NodeTemplate struct {
	NodeType      string                   `json:"node_type"`
	Label         string                   `json:"label"`
	Category      string                   `json:"category"`
	InputAnchors  []session.AnchorInstance `json:"input_anchors"`
	InputParams   []session.ParamInstance  `json:"input_params"`
	OutputAnchors []session.AnchorInstance `json:"output_anchors"`
}

// SchemaSnapshotMeta mirrors the sibling `.meta.json` file (§6 Persistence layout).
type SchemaSnapshotMeta struct {
	Fingerprint string `json:"fingerprint"`
	GeneratedAt string `json:"generated_at"`
	NodeCount   int    `json:"node_count"`
}

// NodeSchemaStore is a local-first, O(1)-by-node_type registry of node
// templates (§4.6). The repair path (RefreshOne) re-fetches a single schema
// from the platform; that platform client is an out-of-scope collaborator
// here, so RefreshOne takes the already-fetched template.
type NodeSchemaStore struct {
	mu          sync.RWMutex
	byType      map[string]NodeTemplate
	fingerprint string
}

// NewNodeSchemaStore builds an empty store; call LoadSnapshot or Seed to
// populate it before use.
func NewNodeSchemaStore() *NodeSchemaStore {
	return &NodeSchemaStore{byType: make(map[string]NodeTemplate)}
}

// Seed installs templates directly (used by tests and by LoadSnapshot).
func (s *NodeSchemaStore) Seed(fingerprint string, templates []NodeTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byType = make(map[string]NodeTemplate, len(templates))
	for _, t := range templates {
		s.byType[t.NodeType] = t
	}
	s.fingerprint = fingerprint
}

// LoadSnapshot reads `schemas/flowise_nodes.snapshot.json` plus its sibling
// `.meta.json` (§6 Persistence layout) from disk.
func (s *NodeSchemaStore) LoadSnapshot(path, metaPath string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("knowledge: load node schema snapshot: %w", err)
	}
	var templates []NodeTemplate
	if err := json.Unmarshal(raw, &templates); err != nil {
		return fmt.Errorf("knowledge: decode node schema snapshot: %w", err)
	}

	var meta SchemaSnapshotMeta
	if metaRaw, err := os.ReadFile(metaPath); err == nil {
		if err := json.Unmarshal(metaRaw, &meta); err != nil {
			return fmt.Errorf("knowledge: decode node schema meta: %w", err)
		}
	}

	s.Seed(meta.Fingerprint, templates)
	return nil
}

// Lookup returns the template for nodeType, ok=false if absent.
func (s *NodeSchemaStore) Lookup(nodeType string) (NodeTemplate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byType[nodeType]
	return t, ok
}

// RefreshOne installs or replaces a single schema, for the `repair_schema`
// path triggered by an unknown node_type (§4.2 Failure modes table).
func (s *NodeSchemaStore) RefreshOne(t NodeTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byType[t.NodeType] = t
}

// Fingerprint returns the current snapshot fingerprint, written to
// facts.schema_fingerprint after every compile (§4.6 drift detection).
func (s *NodeSchemaStore) Fingerprint() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fingerprint
}

// All returns every registered template, used to (re)build the
// AnchorDictionaryStore.
func (s *NodeSchemaStore) All() []NodeTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]NodeTemplate, 0, len(s.byType))
	for _, t := range s.byType {
		out = append(out, t)
	}
	return out
}

// AnchorDictionaryStore is a derived view over NodeSchemaStore (§4.6): three
// indices built lazily and invalidated whenever the backing schema store's
// fingerprint moves.
type AnchorDictionaryStore struct {
	schemas *NodeSchemaStore

	mu            sync.Mutex
	builtFor      string
	byNodeType    map[string][]session.AnchorEntry
	byAnchorName  map[string][]session.AnchorEntry
	byTypeToken   map[string][]session.AnchorEntry
}

// NewAnchorDictionaryStore creates a dictionary view over schemas.
func NewAnchorDictionaryStore(schemas *NodeSchemaStore) *AnchorDictionaryStore {
	return &AnchorDictionaryStore{schemas: schemas}
}

func (d *AnchorDictionaryStore) ensureBuilt() {
	d.mu.Lock()
	defer d.mu.Unlock()
	fp := d.schemas.Fingerprint()
	if d.builtFor == fp && d.byNodeType != nil {
		return
	}

	byNodeType := make(map[string][]session.AnchorEntry)
	byAnchorName := make(map[string][]session.AnchorEntry)
	byTypeToken := make(map[string][]session.AnchorEntry)

	for _, t := range d.schemas.All() {
		entries := make([]session.AnchorEntry, 0, len(t.InputAnchors)+len(t.OutputAnchors))
		for _, a := range t.InputAnchors {
			entries = append(entries, toAnchorEntry(t.NodeType, session.AnchorDirectionInput, a))
		}
		for _, a := range t.OutputAnchors {
			entries = append(entries, toAnchorEntry(t.NodeType, session.AnchorDirectionOutput, a))
		}
		byNodeType[t.NodeType] = entries
		for _, e := range entries {
			byAnchorName[indexKey(t.NodeType, e.Name)] = append(byAnchorName[indexKey(t.NodeType, e.Name)], e)
			for _, tok := range splitCamel(e.Name) {
				key := indexKey(t.NodeType, strings.ToLower(tok))
				byTypeToken[key] = append(byTypeToken[key], e)
			}
		}
	}

	d.byNodeType = byNodeType
	d.byAnchorName = byAnchorName
	d.byTypeToken = byTypeToken
	d.builtFor = fp
}

func indexKey(nodeType, name string) string { return nodeType + "\x00" + name }

func toAnchorEntry(nodeType string, dir session.AnchorDirection, a session.AnchorInstance) session.AnchorEntry {
	return session.AnchorEntry{
		NodeType:        nodeType,
		Direction:       dir,
		Name:            a.Name,
		Label:           a.Label,
		Type:            a.Type,
		IDTemplate:      a.ID,
		CompatibleTypes: a.CompatibleTypes,
		Optional:        a.Optional,
		IDSource:        session.AnchorIDSourceSchema,
	}
}

// ByNodeType returns every anchor (input+output) declared for nodeType.
func (d *AnchorDictionaryStore) ByNodeType(nodeType string) []session.AnchorEntry {
	d.ensureBuilt()
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.byNodeType[nodeType]
}

// ExactMatch looks up the canonical anchor by (nodeType, name). ok=false
// means no exact match — callers fall through to the fuzzy resolver.
func (d *AnchorDictionaryStore) ExactMatch(nodeType, name string) (session.AnchorEntry, bool) {
	d.ensureBuilt()
	d.mu.Lock()
	defer d.mu.Unlock()
	entries := d.byAnchorName[indexKey(nodeType, name)]
	if len(entries) == 0 {
		return session.AnchorEntry{}, false
	}
	return entries[0], true
}

// ByToken returns anchors for nodeType whose CamelCase-split name contains
// the given lowercase token — the index the fuzzy fallback's
// token-overlap pass scans (§4.2 Anchor Resolution).
func (d *AnchorDictionaryStore) ByToken(nodeType, token string) []session.AnchorEntry {
	d.ensureBuilt()
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.byTypeToken[indexKey(nodeType, strings.ToLower(token))]
}

// splitCamel splits a CamelCase or mixedCase identifier into lowercase word
// tokens (§4.2 "token-overlap on CamelCase-split names").
func splitCamel(s string) []string {
	var words []string
	var cur strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && r >= 'A' && r <= 'Z' && !(runes[i-1] >= 'A' && runes[i-1] <= 'Z') {
			words = append(words, cur.String())
			cur.Reset()
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	return words
}

// DriftCheck compares the store's current fingerprint to `previous` (the
// session's recorded facts.schema_fingerprint) and applies policy (§4.6).
// drifted is true whenever the fingerprints differ and previous is non-empty.
func (s *NodeSchemaStore) DriftCheck(previous string, policy session.DriftPolicy) (drifted bool, current string) {
	current = s.Fingerprint()
	if previous == "" || previous == current {
		return false, current
	}
	return true, current
}
