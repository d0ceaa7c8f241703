package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mcpjungle/mcpchat/pkg/types"
	"github.com/mcpjungle/mcpchat/pkg/version"
	"go.uber.org/zap"
)

// closeGracePeriod is how long Close waits for a server process to exit on its own
// after its stdin is closed, before killing it.
const closeGracePeriod = 5 * time.Second

const clientName = "mcpchat"

// Session is an initialized connection to a single MCP server.
// A Session is not meant to be shared between conversations, use WithSession to scope it.
type Session struct {
	name   string
	client *client.Client

	// kill tears down the underlying process or stream without waiting for a graceful exit
	kill context.CancelFunc

	serverInfo mcp.Implementation
	logger     *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

func newSession(name string, c *client.Client, kill context.CancelFunc, logger *zap.Logger) *Session {
	if kill == nil {
		kill = func() {}
	}
	return &Session{
		name:   name,
		client: c,
		kill:   kill,
		logger: logger.With(zap.String("server", name)),
	}
}

// initialize performs the MCP initialize handshake, bounded by timeout.
func (s *Session) initialize(ctx context.Context, timeout time.Duration) error {
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{
		Name:    clientName,
		Version: version.GetVersion(),
	}
	req.Params.Capabilities = mcp.ClientCapabilities{}

	initCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := s.client.Initialize(initCtx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf(
				"%w: MCP server %s did not respond to the initialization request within %s",
				ErrConnectTimeout, s.name, timeout,
			)
		}
		return fmt.Errorf("%w: initialization request to MCP server %s failed: %w", ErrConnectionFailed, s.name, err)
	}
	s.serverInfo = res.ServerInfo
	return nil
}

// Name returns the configured name of the MCP server this session is connected to.
func (s *Session) Name() string {
	return s.name
}

// ServerVersion returns the name and version the server reported during the handshake.
func (s *Session) ServerVersion() mcp.Implementation {
	return s.serverInfo
}

// Close gracefully closes the session.
// The server process is given a grace period to exit after its stdin is closed, after which it is killed.
// It is safe to call Close multiple times.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		done := make(chan error, 1)
		go func() {
			done <- s.client.Close()
		}()

		select {
		case err := <-done:
			s.closeErr = err
		case <-time.After(closeGracePeriod):
			s.logger.Warn("MCP server did not exit in time, killing it", zap.Duration("grace_period", closeGracePeriod))
			s.kill()
			<-done
		}
		s.kill()
		s.logger.Debug("closed MCP session")
	})
	return s.closeErr
}

// abort kills the server immediately and releases the transport.
func (s *Session) abort() {
	s.closeOnce.Do(func() {
		s.kill()
		if err := s.client.Close(); err != nil {
			s.logger.Debug("transport closed after killing MCP server", zap.Error(err))
		}
	})
}

// ListTools returns all tools offered by the server.
func (s *Session) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	res, err := s.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tools of MCP server %s: %w", s.name, err)
	}
	return res.Tools, nil
}

// ListResources returns the static resources followed by the resource templates offered by the server.
func (s *Session) ListResources(ctx context.Context) ([]types.ResourceInfo, error) {
	res, err := s.client.ListResources(ctx, mcp.ListResourcesRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list resources of MCP server %s: %w", s.name, err)
	}
	resources := make([]types.ResourceInfo, 0, len(res.Resources))
	for _, r := range res.Resources {
		resources = append(resources, types.ResourceInfo{
			Name:        r.Name,
			URI:         r.URI,
			Description: r.Description,
		})
	}

	templates, err := s.client.ListResourceTemplates(ctx, mcp.ListResourceTemplatesRequest{})
	if err != nil {
		// templates are optional, a server that only offers static resources is still usable
		s.logger.Warn("failed to list resource templates", zap.Error(err))
		return resources, nil
	}
	for _, t := range templates.ResourceTemplates {
		uri := ""
		if t.URITemplate != nil && t.URITemplate.Template != nil {
			uri = t.URITemplate.Raw()
		}
		resources = append(resources, types.ResourceInfo{
			Name:        t.Name,
			URI:         uri,
			Description: t.Description,
			Templated:   true,
		})
	}
	return resources, nil
}

// CallTool invokes a tool on the server and returns the text it produced.
// A result flagged as an error by the server is returned as an error carrying the server's message.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := s.client.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to call tool %s: %w", name, err)
	}

	text := toolResultText(res)
	if res.IsError {
		if text == "" {
			text = "tool returned an error without a message"
		}
		return "", fmt.Errorf("tool %s failed: %s", name, text)
	}
	return text, nil
}

// ReadResource reads the text content of a resource.
func (s *Session) ReadResource(ctx context.Context, uri string) (string, error) {
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri

	res, err := s.client.ReadResource(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to read resource %s: %w", uri, err)
	}
	for _, c := range res.Contents {
		if text, ok := mcp.AsTextResourceContents(c); ok {
			return text.Text, nil
		}
	}
	return "", fmt.Errorf("resource %s has no text content", uri)
}

// ServerInfo returns a summary of the tools and resources offered by the server.
func (s *Session) ServerInfo(ctx context.Context) (*types.ServerInfo, error) {
	tools, err := s.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	resources, err := s.ListResources(ctx)
	if err != nil {
		return nil, err
	}

	info := &types.ServerInfo{
		Tools:     make([]types.ToolInfo, 0, len(tools)),
		Resources: resources,
	}
	for _, t := range tools {
		info.Tools = append(info.Tools, types.ToolInfo{Name: t.Name, Description: t.Description})
	}
	return info, nil
}

// ResourceContents eagerly reads every static resource of the server, keyed by resource name.
// A resource that cannot be read is reported in-band instead of failing the whole batch.
// Templated resources are skipped since they cannot be read without arguments.
func (s *Session) ResourceContents(ctx context.Context) map[string]string {
	contents := make(map[string]string)

	resources, err := s.ListResources(ctx)
	if err != nil {
		s.logger.Error("failed to fetch resource contents", zap.Error(err))
		return contents
	}
	for _, r := range resources {
		if r.Templated {
			continue
		}
		text, err := s.ReadResource(ctx, r.URI)
		if err != nil {
			s.logger.Warn("failed to read resource", zap.String("uri", r.URI), zap.Error(err))
			text = fmt.Sprintf("[Content unavailable: %v]", err)
		}
		contents[r.Name] = text
	}
	return contents
}

// toolResultText returns the first text content of a tool result.
func toolResultText(res *mcp.CallToolResult) string {
	for _, c := range res.Content {
		if text, ok := mcp.AsTextContent(c); ok {
			return strings.TrimSpace(text.Text)
		}
	}
	return ""
}
