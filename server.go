package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	json "github.com/alpkeskin/gotoon"
	utcp "github.com/universal-tool-calling-protocol/go-utcp"
)

// ListToolsRequest is the reserved tool name that makes the server answer
// with the catalog specs instead of dispatching an invocation.
const ListToolsRequest = "__list__"

// Server exposes a tool catalog over a line-oriented JSON protocol: one
// request object per line on the input stream, one response object per line
// on the output stream. Dispatch goes through a UTCP client so the same
// catalog is also callable by any other UTCP consumer in the process.
type Server struct {
	name    string
	catalog ToolCatalog
	client  utcp.UtcpClientInterface
	logger  *log.Logger
}

// NewServer builds a server around the catalog and registers the catalog
// tools on a fresh UTCP client under the server's name.
func NewServer(ctx context.Context, name string, catalog ToolCatalog) (*Server, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("server name is empty")
	}

	client, err := utcp.NewUTCPClient(ctx, &utcp.UtcpClientConfig{}, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create utcp client: %w", err)
	}
	if err := RegisterCatalogAsUTCPProvider(ctx, client, name, catalog); err != nil {
		return nil, fmt.Errorf("register tool provider: %w", err)
	}

	return &Server{
		name:    name,
		catalog: catalog,
		client:  client,
		logger:  log.New(log.Writer(), fmt.Sprintf("[%s] ", name), log.LstdFlags),
	}, nil
}

// Name returns the provider name the catalog is registered under.
func (s *Server) Name() string { return s.name }

// UTCP returns the underlying tool bus client.
func (s *Server) UTCP() utcp.UtcpClientInterface { return s.client }

// Call invokes a single tool by its bare name and returns the JSON document
// produced by the tool. Unknown tools and handler failures are returned as
// Go errors; the serve loop converts those into error envelopes.
func (s *Server) Call(ctx context.Context, tool string, args map[string]any) (string, error) {
	tool = strings.TrimSpace(tool)
	if tool == "" {
		return "", fmt.Errorf("tool name is empty")
	}
	if _, _, ok := s.catalog.Lookup(tool); !ok {
		return "", fmt.Errorf("unknown tool %q", tool)
	}
	if args == nil {
		args = map[string]any{}
	}

	out, err := s.client.CallTool(ctx, fmt.Sprintf("%s.%s", s.name, tool), args)
	if err != nil {
		return "", err
	}
	if text, ok := out.(string); ok {
		return text, nil
	}
	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode tool result: %w", err)
	}
	return string(encoded), nil
}

type serverRequest struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

type serverResponse struct {
	Tool   string `json:"tool"`
	OK     bool   `json:"ok"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Serve reads requests from in until EOF or context cancellation. Malformed
// requests and dispatch failures are reported in the response envelope; the
// loop itself only stops on I/O errors.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	writer := bufio.NewWriter(out)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req serverRequest
		resp := serverResponse{}
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			resp.Error = fmt.Sprintf("malformed request: %v", err)
		} else {
			resp.Tool = req.Tool
			switch req.Tool {
			case ListToolsRequest:
				if encoded, err := json.MarshalIndent(s.catalog.Specs(), "", "  "); err != nil {
					resp.Error = fmt.Sprintf("encode specs: %v", err)
				} else {
					resp.OK = true
					resp.Result = string(encoded)
				}
			default:
				if result, err := s.Call(ctx, req.Tool, req.Arguments); err != nil {
					resp.Error = err.Error()
				} else {
					resp.OK = true
					resp.Result = result
				}
			}
		}

		encoded, err := json.Marshal(resp)
		if err != nil {
			s.logger.Printf("encode response: %v", err)
			continue
		}
		if _, err := writer.Write(append(encoded, '\n')); err != nil {
			return err
		}
		if err := writer.Flush(); err != nil {
			return err
		}
	}
	return scanner.Err()
}
