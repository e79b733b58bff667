package capability

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/codeready-toolchain/flowise-agent/pkg/llm"
	"github.com/codeready-toolchain/flowise-agent/pkg/session"
	"github.com/codeready-toolchain/flowise-agent/pkg/tooling"
)

// FlowiseCapability is the concrete domain capability for the Flowise
// dataflow platform (§4.8 "{FlowiseCapability, …}"). It drives discovery
// through the tool registry (list_graphs/list_nodes/list_templates) and
// asks the reasoning engine to emit a structured op batch for compile_ops.
type FlowiseCapability struct {
	Tools    *tooling.Registry
	Cache    *tooling.TTLCache
	LLM      llm.Client
	Model    string
	RegistryID string
}

// discoverTools lists the stable, cacheable reads consulted during
// discovery (§4.7 "discover-phase TTL cache... serves stable reads (
// list_nodes, list_templates)").
var discoverTools = []string{"flowise.list_nodes", "flowise.list_templates", "flowise.list_graphs"}

// Discover implements Capability.Discover (§4.8). Only tool summaries are
// folded into the returned summary text; raw tool output is kept in debug
// (spec invariant I5: discovery_summary is the only prompt-visible channel).
func (c *FlowiseCapability) Discover(ctx context.Context, in DiscoverInput) (DiscoverResult, error) {
	facts := map[string]any{}
	debug := map[string]any{}
	summary := ""

	for _, name := range discoverTools {
		args := map[string]any{"requirement": in.Requirement}
		if in.TargetGraphID != nil {
			args["target_graph_id"] = *in.TargetGraphID
		}
		result := tooling.Execute(ctx, c.Tools, c.Cache, name, args)
		debug[name] = result.Data
		if result.OK {
			summary += result.Summary + "\n"
		} else {
			summary += fmt.Sprintf("%s: error: %s\n", name, result.Error)
		}
	}

	facts["intent"] = in.Intent
	return DiscoverResult{Summary: summary, Facts: facts, Artifacts: map[string]any{}, Debug: debug}, nil
}

// opBatchSystemPrompt instructs the reasoning engine to emit a JSON array
// of patch IR ops matching session.Op's wire shape directly — there is no
// intermediate DTO, so a well-formed response unmarshals straight into
// []session.Op.
const opBatchSystemPrompt = `You compile a plan into Flowise patch IR operations.
Respond with ONLY a JSON array of operations, each shaped like:
{"kind":"AddNode","node_id":"...","node_type":"...","params":{...}}
{"kind":"SetParam","node_id":"...","path":"data.inputs.x","value":...}
{"kind":"Connect","source_node_id":"...","source_anchor":"...","target_node_id":"...","target_anchor":"..."}
{"kind":"BindCredential","node_id":"...","credential_type":"..."}
No prose, no markdown fences.`

// CompileOps implements Capability.CompileOps (§4.8): asks the reasoning
// engine to translate plan into a patch IR op batch against baseGraph.
func (c *FlowiseCapability) CompileOps(ctx context.Context, plan session.PlanContract, baseGraph session.GraphPayload) (CompileOpsResult, error) {
	baseGraphJSON, err := json.Marshal(baseGraph)
	if err != nil {
		return CompileOpsResult{}, fmt.Errorf("capability: marshal base_graph: %w", err)
	}

	stream, err := c.LLM.Generate(ctx, llm.GenerateInput{
		Model: c.Model,
		Messages: []llm.ConversationMessage{
			{Role: llm.RoleSystem, Content: opBatchSystemPrompt},
			{Role: llm.RoleUser, Content: fmt.Sprintf("Plan:\n%s\n\nBase graph:\n%s", plan.RawPlan, string(baseGraphJSON))},
		},
	})
	if err != nil {
		return CompileOpsResult{}, fmt.Errorf("capability: generate op batch: %w", err)
	}

	text, _, _, _, err := llm.Collect(stream)
	if err != nil {
		return CompileOpsResult{}, fmt.Errorf("capability: collect op batch: %w", err)
	}

	var ops []session.Op
	if err := json.Unmarshal([]byte(text), &ops); err != nil {
		return CompileOpsResult{}, fmt.Errorf("capability: parse op batch: %w", err)
	}

	return CompileOpsResult{Ops: ops}, nil
}
