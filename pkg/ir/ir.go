// Package ir is the patch IR compiler (§4.2): a pure function turning a
// batch of Op values plus a base graph into a flow_data payload, its hash,
// a diff summary and anchor-resolution metrics. No package under ir
// performs I/O; every collaborator (schema/anchor/credential registries)
// is passed in by the caller.
package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/codeready-toolchain/flowise-agent/pkg/apperrors"
	"github.com/codeready-toolchain/flowise-agent/pkg/canonjson"
	"github.com/codeready-toolchain/flowise-agent/pkg/knowledge"
	"github.com/codeready-toolchain/flowise-agent/pkg/session"
	"github.com/codeready-toolchain/flowise-agent/pkg/validate"
)

// DiffSummary is the compiler's step-7 output: counts of structural change
// relative to base_graph (§4.2).
type DiffSummary struct {
	AddedNodes    int `json:"added_nodes"`
	RemovedNodes  int `json:"removed_nodes"`
	ChangedParams int `json:"changed_params"`
	AddedEdges    int `json:"added_edges"`
	RemovedEdges  int `json:"removed_edges"`
}

// AnchorResolutionMetrics tracks the Anchor Resolution counters (§4.2).
type AnchorResolutionMetrics struct {
	ExactMatches    int `json:"exact_matches"`
	FuzzyFallbacks  int `json:"fuzzy_fallbacks"`
	TotalConnections int `json:"total_connections"`
}

// ExactMatchRate is exact_matches / total_connections (§4.2), 1.0 when
// there were no connections at all (vacuously true, avoids a 0/0 NaN
// surfacing in telemetry).
func (m AnchorResolutionMetrics) ExactMatchRate() float64 {
	if m.TotalConnections == 0 {
		return 1.0
	}
	return float64(m.ExactMatches) / float64(m.TotalConnections)
}

// Result is compile_patch_ops's return value.
type Result struct {
	FlowData    session.GraphPayload
	PayloadHash string
	DiffSummary DiffSummary
	Metrics     AnchorResolutionMetrics
}

// AnchorMatchConfig tunes the deprecated fuzzy fallback (§4.2, Open
// Question resolved in DESIGN.md).
type AnchorMatchConfig struct {
	TokenOverlapThreshold float64
}

// DefaultAnchorMatchConfig is the resolved default (DESIGN.md Open
// Questions).
func DefaultAnchorMatchConfig() AnchorMatchConfig {
	return AnchorMatchConfig{TokenOverlapThreshold: 0.5}
}

// graphIR is the mutable working representation the compiler builds from
// base_graph and applies ops onto, before freezing into a GraphPayload.
type graphIR struct {
	order    []string
	nodes    map[string]*session.GraphNode
	edges    []session.GraphEdge
	nodeType map[string]string // node id -> node type, step 2 node_type_map
	edgeSeq  int
}

func newGraphIR(base session.GraphPayload) *graphIR {
	g := &graphIR{
		nodes:    make(map[string]*session.GraphNode, len(base.Nodes)),
		nodeType: make(map[string]string, len(base.Nodes)),
	}
	for i := range base.Nodes {
		n := base.Nodes[i]
		g.nodes[n.ID] = &n
		g.nodeType[n.ID] = n.Type
		g.order = append(g.order, n.ID)
	}
	g.edges = append([]session.GraphEdge(nil), base.Edges...)
	g.edgeSeq = len(base.Edges)
	return g
}

func (g *graphIR) freeze() session.GraphPayload {
	nodes := make([]session.GraphNode, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, *g.nodes[id])
	}
	return session.GraphPayload{Nodes: nodes, Edges: append([]session.GraphEdge(nil), g.edges...)}
}

// Compile implements compile_patch_ops (§4.2): ops, base_graph,
// anchor_store, credential_store → {flow_data, payload_hash, diff_summary,
// anchor_resolution_metrics}.
func Compile(
	ops []session.Op,
	base session.GraphPayload,
	schemas *knowledge.NodeSchemaStore,
	anchors *knowledge.AnchorDictionaryStore,
	creds *knowledge.CredentialStore,
	cfg AnchorMatchConfig,
) (Result, error) {
	// Step 1: build GraphIR from base_graph.
	g := newGraphIR(base)

	// Step 3: validate ops (§4.5 validate_patch_ops) against the existing
	// node_type_map; this also rejects duplicate AddNode ids and dangling
	// refs before anything is applied.
	existingTypes := make(map[string]string, len(g.nodeType))
	for id, t := range g.nodeType {
		existingTypes[id] = t
	}
	if _, err := validate.PatchOps(ops, existingTypes, anchors); err != nil {
		return Result{}, err
	}

	// Step 2: node_type_map = existing ∪ AddNode ops.
	for _, op := range ops {
		if op.Kind == session.OpAddNode {
			g.nodeType[op.NodeID] = op.NodeType
		}
	}

	metrics := AnchorResolutionMetrics{}
	diff := DiffSummary{}

	// Step 4: apply ops in order.
	for _, op := range ops {
		switch op.Kind {
		case session.OpAddNode:
			if err := applyAddNode(g, op, schemas, &diff); err != nil {
				return Result{}, err
			}
		case session.OpSetParam:
			if err := applySetParam(g, op, &diff); err != nil {
				return Result{}, err
			}
		case session.OpConnect:
			if err := applyConnect(g, op, anchors, cfg, &metrics, &diff); err != nil {
				return Result{}, err
			}
		case session.OpBindCredential:
			if err := applyBindCredential(g, op, creds); err != nil {
				return Result{}, err
			}
		}
	}

	flowData := g.freeze()

	// Step 5-6: canonical serialize + hash.
	hash, err := payloadHash(flowData)
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.KindInternal, err, nil)
	}

	// Step 7: diff relative to base_graph. Node/edge add-remove counts are
	// recomputed from the final sets rather than trusted from the apply
	// loop, since AddNode/Connect are the only op kinds that mutate graph
	// shape and neither can remove anything (§3 ops are additive).
	diff = recomputeDiff(base, flowData, diff)

	return Result{FlowData: flowData, PayloadHash: hash, DiffSummary: diff, Metrics: metrics}, nil
}

func recomputeDiff(base, compiled session.GraphPayload, running DiffSummary) DiffSummary {
	baseNodeSet := make(map[string]struct{}, len(base.Nodes))
	for _, n := range base.Nodes {
		baseNodeSet[n.ID] = struct{}{}
	}
	compiledNodeSet := make(map[string]struct{}, len(compiled.Nodes))
	for _, n := range compiled.Nodes {
		compiledNodeSet[n.ID] = struct{}{}
	}

	added := 0
	for id := range compiledNodeSet {
		if _, ok := baseNodeSet[id]; !ok {
			added++
		}
	}
	removed := 0
	for id := range baseNodeSet {
		if _, ok := compiledNodeSet[id]; !ok {
			removed++
		}
	}

	baseEdgeSet := make(map[string]struct{}, len(base.Edges))
	for _, e := range base.Edges {
		baseEdgeSet[e.ID] = struct{}{}
	}
	compiledEdgeSet := make(map[string]struct{}, len(compiled.Edges))
	for _, e := range compiled.Edges {
		compiledEdgeSet[e.ID] = struct{}{}
	}
	addedEdges := 0
	for id := range compiledEdgeSet {
		if _, ok := baseEdgeSet[id]; !ok {
			addedEdges++
		}
	}
	removedEdges := 0
	for id := range baseEdgeSet {
		if _, ok := compiledEdgeSet[id]; !ok {
			removedEdges++
		}
	}

	return DiffSummary{
		AddedNodes:    added,
		RemovedNodes:  removed,
		ChangedParams: running.ChangedParams,
		AddedEdges:    addedEdges,
		RemovedEdges:  removedEdges,
	}
}

func applyAddNode(g *graphIR, op session.Op, schemas *knowledge.NodeSchemaStore, diff *DiffSummary) error {
	tmpl, ok := schemas.Lookup(op.NodeType)
	if !ok {
		return apperrors.New(apperrors.KindStructure, fmt.Sprintf("unknown node type %q; run repair_schema", op.NodeType), map[string]any{"node_type": op.NodeType})
	}

	data := session.GraphNodeData{
		ID:            op.NodeID,
		Name:          tmpl.NodeType,
		Label:         tmpl.Label,
		Category:      tmpl.Category,
		InputAnchors:  []session.AnchorInstance{},
		InputParams:   []session.ParamInstance{},
		OutputAnchors: []session.AnchorInstance{},
		Outputs:       map[string]any{},
		Inputs:        map[string]any{},
	}
	for _, a := range tmpl.InputAnchors {
		data.InputAnchors = append(data.InputAnchors, materializeAnchor(a, op.NodeID))
	}
	for _, a := range tmpl.OutputAnchors {
		data.OutputAnchors = append(data.OutputAnchors, materializeAnchor(a, op.NodeID))
	}
	for _, p := range tmpl.InputParams {
		data.InputParams = append(data.InputParams, p)
		if v, ok := op.Params[p.Name]; ok {
			data.Inputs[p.Name] = v
		} else if p.Default != nil {
			data.Inputs[p.Name] = p.Default
		}
	}
	// Params not declared on the template are still honored verbatim —
	// the schema snapshot can lag the platform's own param list.
	for k, v := range op.Params {
		if _, already := data.Inputs[k]; !already {
			data.Inputs[k] = v
		}
	}

	g.nodes[op.NodeID] = &session.GraphNode{ID: op.NodeID, Type: op.NodeType, Data: data}
	g.order = append(g.order, op.NodeID)
	diff.AddedNodes++
	return nil
}

func materializeAnchor(a session.AnchorInstance, nodeID string) session.AnchorInstance {
	a.ID = strings.ReplaceAll(a.ID, "{nodeId}", nodeID)
	return a
}

func applySetParam(g *graphIR, op session.Op, diff *DiffSummary) error {
	node, ok := g.nodes[op.NodeID]
	if !ok {
		return apperrors.Wrap(apperrors.KindStructure, apperrors.ErrDanglingRef, map[string]any{"node_id": op.NodeID})
	}

	if node.Data.Inputs == nil {
		node.Data.Inputs = map[string]any{}
	}
	key := setParamKey(op.Path)
	node.Data.Inputs[key] = op.Value
	diff.ChangedParams++

	// Rule D: SetParam writes targeting a credential slot keep both slots
	// in sync automatically.
	if key == "credential" {
		if s, ok := op.Value.(string); ok {
			node.Data.Credential = s
		}
	}
	return nil
}

// setParamKey extracts the leaf field name from a "data.inputs.<field>"
// style path (§4.2 step 4: "write value at JSON path path under data.inputs").
func setParamKey(path string) string {
	parts := strings.Split(path, ".")
	return parts[len(parts)-1]
}

func applyConnect(g *graphIR, op session.Op, anchors *knowledge.AnchorDictionaryStore, cfg AnchorMatchConfig, metrics *AnchorResolutionMetrics, diff *DiffSummary) error {
	sourceType, ok := g.nodeType[op.SourceNodeID]
	if !ok {
		return apperrors.Wrap(apperrors.KindStructure, apperrors.ErrDanglingRef, map[string]any{"node_id": op.SourceNodeID})
	}
	targetType, ok := g.nodeType[op.TargetNodeID]
	if !ok {
		return apperrors.Wrap(apperrors.KindStructure, apperrors.ErrDanglingRef, map[string]any{"node_id": op.TargetNodeID})
	}

	metrics.TotalConnections++

	sourceEntry, exact, err := resolveAnchor(anchors, sourceType, op.SourceAnchor, session.AnchorDirectionOutput, cfg)
	if err != nil {
		return err
	}
	targetEntry, exactT, err := resolveAnchor(anchors, targetType, op.TargetAnchor, session.AnchorDirectionInput, cfg)
	if err != nil {
		return err
	}
	if exact && exactT {
		metrics.ExactMatches++
	} else {
		metrics.FuzzyFallbacks++
	}

	sourceHandle := strings.ReplaceAll(sourceEntry.IDTemplate, "{nodeId}", op.SourceNodeID)
	targetHandle := strings.ReplaceAll(targetEntry.IDTemplate, "{nodeId}", op.TargetNodeID)

	g.edgeSeq++
	edge := session.GraphEdge{
		ID:           fmt.Sprintf("edge_%d", g.edgeSeq),
		Source:       op.SourceNodeID,
		SourceHandle: sourceHandle,
		Target:       op.TargetNodeID,
		TargetHandle: targetHandle,
	}
	g.edges = append(g.edges, edge)
	diff.AddedEdges++
	return nil
}

func applyBindCredential(g *graphIR, op session.Op, creds *knowledge.CredentialStore) error {
	node, ok := g.nodes[op.NodeID]
	if !ok {
		return apperrors.Wrap(apperrors.KindStructure, apperrors.ErrDanglingRef, map[string]any{"node_id": op.NodeID})
	}

	credID := op.CredentialID
	if credID == "" {
		resolved, err := creds.ResolveByType(op.CredentialType)
		if err != nil {
			return err
		}
		credID = resolved.ID
	}

	// Rule D: dual credential binding, enforced automatically.
	node.Data.Credential = credID
	if node.Data.Inputs == nil {
		node.Data.Inputs = map[string]any{}
	}
	node.Data.Inputs["credential"] = credID
	return nil
}

func payloadHash(flowData session.GraphPayload) (string, error) {
	b, err := canonjson.Marshal(flowData)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
