package netfault

import (
	"context"

	agent "github.com/Protocol-Lattice/splunk-agent"
)

// Tools returns the analysis agent tool surface in registration order.
func Tools(a *Agent) []agent.Tool {
	return []agent.Tool{
		&AnalyzeTool{agent: a},
		&DelayedNodesTool{agent: a},
		&TopologyTool{agent: a},
		&ReportTool{agent: a},
		&SlotStatusTool{agent: a},
	}
}

func timeRangeSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"time_range": map[string]any{
				"type":        "string",
				"description": `Time range for the search (default "24h").`,
			},
		},
	}
}

func timeRangeArg(args map[string]any) string {
	raw, _ := args["time_range"].(string)
	return raw
}

// AnalyzeTool runs the full slot-based analysis workflow.
type AnalyzeTool struct {
	agent *Agent
}

func (t *AnalyzeTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        "analyze_network_fault",
		Description: "Analyze network fault using the slot-based approach: fill both data slots and diagnose.",
		InputSchema: timeRangeSchema(),
	}
}

func (t *AnalyzeTool) Invoke(ctx context.Context, req agent.ToolRequest) (agent.ToolResponse, error) {
	return agent.ToolResponse{Content: t.agent.AnalyzeNetworkFault(ctx, timeRangeArg(req.Arguments))}, nil
}

// DelayedNodesTool fills the delayed_nodes slot.
type DelayedNodesTool struct {
	agent *Agent
}

func (t *DelayedNodesTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        "get_delayed_nodes",
		Description: "Retrieve delayed nodes data and fill the 'delayed_nodes' slot.",
		InputSchema: timeRangeSchema(),
	}
}

func (t *DelayedNodesTool) Invoke(ctx context.Context, req agent.ToolRequest) (agent.ToolResponse, error) {
	return agent.ToolResponse{Content: t.agent.GetDelayedNodes(ctx, timeRangeArg(req.Arguments))}, nil
}

// TopologyTool fills the network_topology slot.
type TopologyTool struct {
	agent *Agent
}

func (t *TopologyTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        "get_network_topology",
		Description: "Retrieve network topology data and fill the 'network_topology' slot.",
		InputSchema: timeRangeSchema(),
	}
}

func (t *TopologyTool) Invoke(ctx context.Context, req agent.ToolRequest) (agent.ToolResponse, error) {
	return agent.ToolResponse{Content: t.agent.GetNetworkTopology(ctx, timeRangeArg(req.Arguments))}, nil
}

// ReportTool generates the diagnosis report once both slots are filled.
type ReportTool struct {
	agent *Agent
}

func (t *ReportTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        "generate_diagnosis_report",
		Description: "Generate a diagnosis report with recommendations after all slots are filled.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}

func (t *ReportTool) Invoke(_ context.Context, _ agent.ToolRequest) (agent.ToolResponse, error) {
	return agent.ToolResponse{Content: t.agent.GenerateDiagnosisReport()}, nil
}

// SlotStatusTool reports which slots are filled and which still need data.
type SlotStatusTool struct {
	agent *Agent
}

func (t *SlotStatusTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        "get_slot_status",
		Description: "Get the current slot filling status.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}

func (t *SlotStatusTool) Invoke(_ context.Context, _ agent.ToolRequest) (agent.ToolResponse, error) {
	return agent.ToolResponse{Content: t.agent.SlotStatus()}, nil
}
