package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mcpjungle/mcpchat/internal/service/registry"
	"github.com/mcpjungle/mcpchat/pkg/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newInProcessSession returns a session with the given MCP server running in the same process.
func newInProcessSession(t *testing.T, srv *server.MCPServer) *Session {
	t.Helper()
	s, err := NewInProcessSession(context.Background(), "fred", srv, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newFredSession(t *testing.T, productDirs ...string) *Session {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, d := range productDirs {
		require.NoError(t, fs.MkdirAll("resources/"+d, 0o755))
	}
	srv, err := registry.NewMCPServer(&registry.Config{Fs: fs})
	require.NoError(t, err)
	return newInProcessSession(t, srv)
}

func TestSessionServerInfo(t *testing.T) {
	s := newFredSession(t)
	assert.Equal(t, "fred", s.Name())
	assert.Equal(t, registry.ServerName, s.ServerVersion().Name)

	info, err := s.ServerInfo(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(
		t,
		[]types.ToolInfo{
			{Name: "add", Description: "Add two numbers together"},
			{
				Name: "read_resource_content",
				Description: "Read the content of a specific MCP resource by its URI " +
					"(e.g., 'data://list', 'config://app', 'greeting://user').",
			},
		},
		info.Tools,
	)
	assert.ElementsMatch(
		t,
		[]types.ResourceInfo{
			{Name: "get_config", URI: "config://app", Description: "Static configuration data"},
			{Name: "list_all_data_products", URI: "data://list", Description: "List all available data product names"},
			{Name: "get_greeting", URI: "greeting://{name}", Description: "Get a personalized greeting", Templated: true},
		},
		info.Resources,
	)
}

func TestSessionCallTool(t *testing.T) {
	s := newFredSession(t, "sales")
	ctx := context.Background()

	t.Run("add", func(t *testing.T) {
		out, err := s.CallTool(ctx, "add", map[string]any{"a": 5, "b": 3})
		require.NoError(t, err)
		assert.Equal(t, "8", out)
	})

	t.Run("read_resource_content", func(t *testing.T) {
		out, err := s.CallTool(ctx, "read_resource_content", map[string]any{"resource_uri": "data://list"})
		require.NoError(t, err)
		assert.Equal(t, "Available Data Products:\n- sales", out)
	})

	t.Run("tool error result", func(t *testing.T) {
		_, err := s.CallTool(ctx, "add", map[string]any{"a": "five"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid arguments for tool add")
	})

	t.Run("unknown tool", func(t *testing.T) {
		_, err := s.CallTool(ctx, "subtract", map[string]any{"a": 1, "b": 2})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "subtract")
	})
}

func TestSessionReadResource(t *testing.T) {
	s := newFredSession(t)
	ctx := context.Background()

	out, err := s.ReadResource(ctx, "greeting://Ann")
	require.NoError(t, err)
	assert.Equal(t, "Hello, Ann!", out)

	out, err = s.ReadResource(ctx, "config://app")
	require.NoError(t, err)
	assert.Equal(t, "App configuration here", out)

	_, err = s.ReadResource(ctx, "foo://bar")
	assert.Error(t, err)
}

func TestSessionResourceContents(t *testing.T) {
	t.Run("fred", func(t *testing.T) {
		s := newFredSession(t, "inventory")
		contents := s.ResourceContents(context.Background())
		assert.Equal(
			t,
			map[string]string{
				"get_config":             "App configuration here",
				"list_all_data_products": "Available Data Products:\n- inventory",
			},
			contents,
		)
	})

	t.Run("unreadable resource", func(t *testing.T) {
		srv := server.NewMCPServer("broken", "0.0.1", server.WithResourceCapabilities(false, false))
		srv.AddResource(
			mcp.NewResource("data://broken", "broken", mcp.WithResourceDescription("always fails")),
			func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
				return nil, errors.New("disk on fire")
			},
		)
		srv.AddResource(
			mcp.NewResource("data://ok", "ok"),
			func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
				return []mcp.ResourceContents{mcp.TextResourceContents{URI: req.Params.URI, Text: "fine"}}, nil
			},
		)

		s := newInProcessSession(t, srv)
		contents := s.ResourceContents(context.Background())
		require.Len(t, contents, 2)
		assert.Equal(t, "fine", contents["ok"])
		assert.Contains(t, contents["broken"], "[Content unavailable: ")
		assert.Contains(t, contents["broken"], "disk on fire")
	})
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	s := newFredSession(t)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
