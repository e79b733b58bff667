// Package validate implements the two pre/post-compile checks named in
// §4.5: validate_patch_ops (pre-compile lint) and validate_flow_data
// (post-compile structural check). Neither depends on pkg/ir, so ir can
// depend on validate for its own step-3 lint without an import cycle.
package validate

import (
	"fmt"

	"github.com/codeready-toolchain/flowise-agent/pkg/apperrors"
	"github.com/codeready-toolchain/flowise-agent/pkg/session"
)

// AnchorLookup is the minimal anchor-store surface validate_patch_ops needs
// to warn on unknown anchor names (§4.5). Satisfied by
// *pkg/knowledge.AnchorDictionaryStore.
type AnchorLookup interface {
	ByNodeType(nodeType string) []session.AnchorEntry
}

// Warning is a non-fatal finding from validate_patch_ops.
type Warning struct {
	NodeID    string   `json:"node_id,omitempty"`
	Anchor    string   `json:"anchor,omitempty"`
	Message   string   `json:"message"`
	ValidOpts []string `json:"valid_options,omitempty"`
}

// PatchOpsResult is validate_patch_ops's return value: fatal errors (if
// any; non-nil means reject the batch before apply) plus accumulated
// warnings.
type PatchOpsResult struct {
	Warnings []Warning
}

// PatchOps implements validate_patch_ops(ops, anchor_store?, node_type_map?)
// (§4.5): rejects duplicate ids and dangling refs, warns on unknown anchor
// names when an anchor store is supplied.
func PatchOps(ops []session.Op, nodeTypeMap map[string]string, anchors AnchorLookup) (PatchOpsResult, error) {
	seen := make(map[string]struct{})
	allTypes := make(map[string]string, len(nodeTypeMap))
	for k, v := range nodeTypeMap {
		allTypes[k] = v
	}

	for _, op := range ops {
		if op.Kind == session.OpAddNode {
			if _, ok := allTypes[op.NodeID]; ok {
				return PatchOpsResult{}, apperrors.Wrap(apperrors.KindStructure, apperrors.ErrDuplicateNodeID, map[string]any{"node_id": op.NodeID})
			}
			if _, dup := seen[op.NodeID]; dup {
				return PatchOpsResult{}, apperrors.Wrap(apperrors.KindStructure, apperrors.ErrDuplicateNodeID, map[string]any{"node_id": op.NodeID})
			}
			seen[op.NodeID] = struct{}{}
			allTypes[op.NodeID] = op.NodeType
		}
	}

	var warnings []Warning
	for _, op := range ops {
		switch op.Kind {
		case session.OpConnect:
			if _, ok := allTypes[op.SourceNodeID]; !ok {
				return PatchOpsResult{}, apperrors.Wrap(apperrors.KindStructure, apperrors.ErrDanglingRef, map[string]any{"node_id": op.SourceNodeID})
			}
			if _, ok := allTypes[op.TargetNodeID]; !ok {
				return PatchOpsResult{}, apperrors.Wrap(apperrors.KindStructure, apperrors.ErrDanglingRef, map[string]any{"node_id": op.TargetNodeID})
			}
			if anchors != nil {
				warnings = append(warnings, warnIfUnknownAnchor(anchors, allTypes[op.SourceNodeID], op.SourceAnchor, session.AnchorDirectionOutput)...)
				warnings = append(warnings, warnIfUnknownAnchor(anchors, allTypes[op.TargetNodeID], op.TargetAnchor, session.AnchorDirectionInput)...)
			}
		case session.OpSetParam, session.OpBindCredential:
			if _, ok := allTypes[op.NodeID]; !ok {
				return PatchOpsResult{}, apperrors.Wrap(apperrors.KindStructure, apperrors.ErrDanglingRef, map[string]any{"node_id": op.NodeID})
			}
		}
	}

	return PatchOpsResult{Warnings: warnings}, nil
}

func warnIfUnknownAnchor(anchors AnchorLookup, nodeType, name string, dir session.AnchorDirection) []Warning {
	entries := anchors.ByNodeType(nodeType)
	validNames := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Direction != dir {
			continue
		}
		validNames = append(validNames, e.Name)
		if e.Name == name {
			return nil
		}
	}
	return []Warning{{
		Anchor:    name,
		Message:   fmt.Sprintf("anchor %q not declared on %s anchors of node type %q (fuzzy fallback will attempt a match)", name, dir, nodeType),
		ValidOpts: validNames,
	}}
}

// FlowData implements validate_flow_data(flow_data) (§4.5): every node has
// inputAnchors/inputParams/outputAnchors/outputs, every edge endpoint
// references an existing node id and anchor id present on that node, no
// duplicate node or edge ids.
func FlowData(flowData session.GraphPayload) error {
	nodeByID := make(map[string]session.GraphNode, len(flowData.Nodes))
	for _, n := range flowData.Nodes {
		if _, dup := nodeByID[n.ID]; dup {
			return apperrors.Wrap(apperrors.KindStructure, apperrors.ErrDuplicateNodeID, map[string]any{"node_id": n.ID})
		}
		nodeByID[n.ID] = n
		if n.Data.InputAnchors == nil || n.Data.InputParams == nil || n.Data.OutputAnchors == nil || n.Data.Outputs == nil {
			return apperrors.New(apperrors.KindStructure,
				fmt.Sprintf("node %q is missing one of inputAnchors/inputParams/outputAnchors/outputs", n.ID),
				map[string]any{"node_id": n.ID})
		}
	}

	edgeIDs := make(map[string]struct{}, len(flowData.Edges))
	for _, e := range flowData.Edges {
		if _, dup := edgeIDs[e.ID]; dup {
			return apperrors.New(apperrors.KindStructure, fmt.Sprintf("duplicate edge id %q", e.ID), map[string]any{"edge_id": e.ID})
		}
		edgeIDs[e.ID] = struct{}{}

		source, ok := nodeByID[e.Source]
		if !ok {
			return apperrors.Wrap(apperrors.KindStructure, apperrors.ErrDanglingRef, map[string]any{"node_id": e.Source})
		}
		if !hasAnchorID(source.Data.OutputAnchors, e.SourceHandle) {
			return apperrors.New(apperrors.KindStructure,
				fmt.Sprintf("edge %q source handle %q not present on node %q", e.ID, e.SourceHandle, e.Source),
				map[string]any{"edge_id": e.ID, "node_id": e.Source})
		}

		target, ok := nodeByID[e.Target]
		if !ok {
			return apperrors.Wrap(apperrors.KindStructure, apperrors.ErrDanglingRef, map[string]any{"node_id": e.Target})
		}
		if !hasAnchorID(target.Data.InputAnchors, e.TargetHandle) {
			return apperrors.New(apperrors.KindStructure,
				fmt.Sprintf("edge %q target handle %q not present on node %q", e.ID, e.TargetHandle, e.Target),
				map[string]any{"edge_id": e.ID, "node_id": e.Target})
		}
	}

	return nil
}

func hasAnchorID(anchors []session.AnchorInstance, id string) bool {
	for _, a := range anchors {
		if a.ID == id {
			return true
		}
	}
	return false
}
