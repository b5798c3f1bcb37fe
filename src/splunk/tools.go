package splunk

import (
	"context"
	"fmt"
	"strings"

	agent "github.com/Protocol-Lattice/splunk-agent"
)

// Tools returns the directory service tool surface in registration order.
func Tools(service *Service) []agent.Tool {
	return []agent.Tool{
		&ListTool{service: service},
		&DetailsTool{service: service},
		&PatternTool{service: service},
	}
}

func stringArg(args map[string]any, key string) string {
	raw, ok := args[key]
	if !ok || raw == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(raw))
}

// ListTool lists all enabled saved searches in an app.
type ListTool struct {
	service *Service
}

func (t *ListTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        "get_saved_searches_list",
		Description: "Get the list of all enabled Saved Searches in the specified app.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"app": map[string]any{
					"type":        "string",
					"description": fmt.Sprintf("App name (optional, defaults to %q).", t.service.App()),
				},
			},
		},
	}
}

func (t *ListTool) Invoke(ctx context.Context, req agent.ToolRequest) (agent.ToolResponse, error) {
	app := stringArg(req.Arguments, "app")
	return agent.ToolResponse{Content: t.service.ListSavedSearches(ctx, app)}, nil
}

// DetailsTool fetches one saved search definition, including its SPL.
type DetailsTool struct {
	service *Service
}

func (t *DetailsTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        "get_saved_search_details",
		Description: "Get detailed information about a specific Saved Search, including name, description and SPL.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"search_name": map[string]any{
					"type":        "string",
					"description": "Name of the Saved Search.",
				},
				"app": map[string]any{
					"type":        "string",
					"description": "App name (optional, uses the default app if not specified).",
				},
			},
			"required": []string{"search_name"},
		},
	}
}

func (t *DetailsTool) Invoke(ctx context.Context, req agent.ToolRequest) (agent.ToolResponse, error) {
	name := stringArg(req.Arguments, "search_name")
	app := stringArg(req.Arguments, "app")
	return agent.ToolResponse{Content: t.service.GetSavedSearchDetails(ctx, name, app)}, nil
}

// PatternTool lists enabled saved searches whose name matches a substring.
type PatternTool struct {
	service *Service
}

func (t *PatternTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        "get_saved_searches_by_pattern",
		Description: "Get Saved Searches whose name contains the pattern (case-insensitive).",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"pattern": map[string]any{
					"type":        "string",
					"description": `Search name pattern to match (e.g. "network", "delay").`,
				},
				"app": map[string]any{
					"type":        "string",
					"description": "App name (optional, uses the default app if not specified).",
				},
			},
			"required": []string{"pattern"},
		},
	}
}

func (t *PatternTool) Invoke(ctx context.Context, req agent.ToolRequest) (agent.ToolResponse, error) {
	pattern := stringArg(req.Arguments, "pattern")
	app := stringArg(req.Arguments, "app")
	return agent.ToolResponse{Content: t.service.ListSavedSearchesByPattern(ctx, pattern, app)}, nil
}
