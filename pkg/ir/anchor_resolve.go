package ir

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/codeready-toolchain/flowise-agent/pkg/apperrors"
	"github.com/codeready-toolchain/flowise-agent/pkg/knowledge"
	"github.com/codeready-toolchain/flowise-agent/pkg/session"
)

// overlapProgram is compiled once: the deprecated fuzzy fallback's
// token-overlap predicate, expressed as an expr program over
// {overlap, threshold} rather than a hand-rolled comparison, mirroring the
// reference pack's use of expr for node condition evaluation.
var overlapProgram *vm.Program

func init() {
	p, err := expr.Compile("overlap >= threshold", expr.Env(map[string]float64{"overlap": 0, "threshold": 0}))
	if err != nil {
		panic(fmt.Sprintf("ir: compiling anchor overlap predicate: %v", err))
	}
	overlapProgram = p
}

func tokenOverlapPasses(overlap, threshold float64) bool {
	out, err := expr.Run(overlapProgram, map[string]float64{"overlap": overlap, "threshold": threshold})
	if err != nil {
		return false
	}
	ok, _ := out.(bool)
	return ok
}

// resolveAnchor implements §4.2 "Anchor Resolution": exact match first, then
// a deprecated fuzzy fallback chain (case-insensitive, type-name,
// token-overlap, parent-type superset). Returns the matched entry and
// whether it was an exact match.
func resolveAnchor(anchors *knowledge.AnchorDictionaryStore, nodeType, name string, dir session.AnchorDirection, cfg AnchorMatchConfig) (session.AnchorEntry, bool, error) {
	if entry, ok := anchors.ExactMatch(nodeType, name); ok && entry.Direction == dir {
		return entry, true, nil
	}

	candidates := filterByDirection(anchors.ByNodeType(nodeType), dir)
	if len(candidates) == 0 {
		return session.AnchorEntry{}, false, apperrors.New(apperrors.KindStructure,
			fmt.Sprintf("no %s anchors declared on node type %q", dir, nodeType),
			map[string]any{"node_type": nodeType, "requested_anchor": name})
	}

	// Fuzzy 1: case-insensitive name match.
	for _, c := range candidates {
		if strings.EqualFold(c.Name, name) {
			return c, false, nil
		}
	}

	// Fuzzy 2: type-name match (legacy sessions passed type names).
	for _, c := range candidates {
		if strings.EqualFold(c.Type, name) {
			return c, false, nil
		}
	}

	// Fuzzy 3: token-overlap on CamelCase-split names.
	requestedTokens := toLowerSet(splitCamelWords(name))
	var best session.AnchorEntry
	bestScore := -1.0
	for _, c := range candidates {
		candTokens := toLowerSet(splitCamelWords(c.Name))
		score := jaccard(requestedTokens, candTokens)
		if tokenOverlapPasses(score, cfg.TokenOverlapThreshold) && score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore >= 0 {
		return best, false, nil
	}

	// Fuzzy 4: parent-type superset — when exactly one candidate anchor
	// exists for this node type and direction, assume it's the intended
	// port even though neither its name nor type matched.
	if len(candidates) == 1 {
		return candidates[0], false, nil
	}

	validNames := make([]string, 0, len(candidates))
	for _, c := range candidates {
		validNames = append(validNames, c.Name)
	}
	return session.AnchorEntry{}, false, apperrors.New(apperrors.KindStructure,
		fmt.Sprintf("anchor %q not found on node type %q", name, nodeType),
		map[string]any{"node_type": nodeType, "requested_anchor": name, "valid_names": validNames})
}

func filterByDirection(entries []session.AnchorEntry, dir session.AnchorDirection) []session.AnchorEntry {
	out := make([]session.AnchorEntry, 0, len(entries))
	for _, e := range entries {
		if e.Direction == dir {
			out = append(out, e)
		}
	}
	return out
}

func splitCamelWords(s string) []string {
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

func toLowerSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
