package agent

import (
	"context"
	"fmt"
	"strings"

	utcp "github.com/universal-tool-calling-protocol/go-utcp"
	"github.com/universal-tool-calling-protocol/go-utcp/src/providers/base"
	"github.com/universal-tool-calling-protocol/go-utcp/src/providers/cli"
	"github.com/universal-tool-calling-protocol/go-utcp/src/repository"
	"github.com/universal-tool-calling-protocol/go-utcp/src/tools"
	"github.com/universal-tool-calling-protocol/go-utcp/src/transports"
)

// catalogCLITransport routes UTCP CallTool invocations for in-process
// providers straight to the registered tool handlers, delegating everything
// else to the transport it wraps.
type catalogCLITransport struct {
	inner repository.ClientTransport
	tools map[string][]tools.Tool
}

func (t *catalogCLITransport) RegisterToolProvider(ctx context.Context, prov base.Provider) ([]tools.Tool, error) {
	p, ok := prov.(*cli.CliProvider)
	if !ok {
		if t.inner != nil {
			return t.inner.RegisterToolProvider(ctx, prov)
		}
		return nil, fmt.Errorf("unsupported provider type %T", prov)
	}
	if t.tools == nil {
		t.tools = make(map[string][]tools.Tool)
	}
	list, ok := t.tools[p.Name]
	if !ok {
		if t.inner != nil {
			return t.inner.RegisterToolProvider(ctx, prov)
		}
		return nil, fmt.Errorf("catalog tools not found for provider %s", p.Name)
	}
	return list, nil
}

func (t *catalogCLITransport) DeregisterToolProvider(ctx context.Context, prov base.Provider) error {
	if p, ok := prov.(*cli.CliProvider); ok {
		if _, ok := t.tools[p.Name]; ok {
			delete(t.tools, p.Name)
			return nil
		}
	}
	if t.inner != nil {
		return t.inner.DeregisterToolProvider(ctx, prov)
	}
	return nil
}

func (t *catalogCLITransport) CallTool(ctx context.Context, toolName string, args map[string]any, prov base.Provider, _ *string) (any, error) {
	if p, ok := prov.(*cli.CliProvider); ok {
		if list, ok := t.tools[p.Name]; ok {
			for _, tool := range list {
				if tool.Name == toolName || strings.HasSuffix(tool.Name, "."+toolName) {
					if tool.Handler == nil {
						return nil, fmt.Errorf("tool %s has no handler", toolName)
					}
					return tool.Handler(ctx, args)
				}
			}
		}
		if t.inner != nil {
			return t.inner.CallTool(ctx, toolName, args, prov, nil)
		}
		return nil, fmt.Errorf("tool %s not found for provider %s", toolName, p.Name)
	}
	if t.inner != nil {
		return t.inner.CallTool(ctx, toolName, args, prov, nil)
	}
	return nil, fmt.Errorf("unsupported provider type %T", prov)
}

func (t *catalogCLITransport) CallToolStream(ctx context.Context, toolName string, args map[string]any, prov base.Provider) (transports.StreamResult, error) {
	if p, ok := prov.(*cli.CliProvider); ok {
		if _, ok := t.tools[p.Name]; ok {
			return nil, fmt.Errorf("streaming not supported for tool %s (provider %s)", toolName, p.Name)
		}
	}
	if t.inner != nil {
		return t.inner.CallToolStream(ctx, toolName, args, prov)
	}
	return nil, fmt.Errorf("unsupported provider type %T", prov)
}

// AsUTCPTool exposes a Tool as a UTCP tool with an in-process handler.
// The UTCP name is namespaced as "<provider>.<tool>" so that lookups by the
// bare tool name still resolve through the transport's suffix match.
func AsUTCPTool(t Tool, providerName string) tools.Tool {
	spec := t.Spec()

	properties, _ := spec.InputSchema["properties"].(map[string]any)
	var required []string
	switch raw := spec.InputSchema["required"].(type) {
	case []string:
		required = raw
	case []any:
		for _, v := range raw {
			required = append(required, fmt.Sprint(v))
		}
	}

	sessionID := fmt.Sprintf("%s.session", providerName)
	return tools.Tool{
		Name:        fmt.Sprintf("%s.%s", providerName, spec.Name),
		Description: spec.Description,
		Provider: &base.BaseProvider{
			Name:         providerName,
			ProviderType: base.ProviderCLI, // in-process handler, no remote transport
		},
		Inputs: tools.ToolInputOutputSchema{
			Type:       "object",
			Properties: properties,
			Required:   required,
		},
		Outputs: tools.ToolInputOutputSchema{
			Type: "object",
			Properties: map[string]any{
				"content": map[string]any{"type": "string"},
			},
		},
		Handler: tools.ToolHandler(func(ctx context.Context, inputs map[string]interface{}) (any, error) {
			execCtx := ctx
			if execCtx == nil {
				execCtx = context.Background()
			}
			if inputs == nil {
				inputs = map[string]any{}
			}

			resp, err := t.Invoke(execCtx, ToolRequest{SessionID: sessionID, Arguments: inputs})
			if err != nil {
				return nil, err
			}
			return resp.Content, nil
		}),
	}
}

// RegisterCatalogAsUTCPProvider registers every tool in the catalog on the
// UTCP client under a single in-process CLI provider. It installs a
// lightweight transport shim to route CallTool invocations directly to the
// tool handlers.
func RegisterCatalogAsUTCPProvider(ctx context.Context, client utcp.UtcpClientInterface, providerName string, catalog ToolCatalog) error {
	if client == nil {
		return fmt.Errorf("utcp client is nil")
	}
	if catalog == nil {
		return fmt.Errorf("tool catalog is nil")
	}
	providerName = strings.TrimSpace(providerName)
	if providerName == "" {
		return fmt.Errorf("provider name is empty")
	}

	list := make([]tools.Tool, 0, len(catalog.Tools()))
	for _, tool := range catalog.Tools() {
		list = append(list, AsUTCPTool(tool, providerName))
	}

	tp := &cli.CliProvider{
		BaseProvider: base.BaseProvider{
			Name:         providerName,
			ProviderType: base.ProviderCLI,
		},
	}

	transportsMap := client.GetTransports()
	if transportsMap == nil {
		return fmt.Errorf("utcp client transports map is nil")
	}

	existing := transportsMap[string(base.ProviderCLI)]
	var shim *catalogCLITransport
	if maybe, ok := existing.(*catalogCLITransport); ok {
		shim = maybe
	} else {
		shim = &catalogCLITransport{inner: existing}
		transportsMap[string(base.ProviderCLI)] = shim
	}
	if shim.tools == nil {
		shim.tools = make(map[string][]tools.Tool)
	}
	shim.tools[tp.Name] = list

	_, err := client.RegisterToolProvider(ctx, tp)
	return err
}
