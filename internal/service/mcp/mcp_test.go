package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/mcpjungle/mcpchat/internal/model"
	"github.com/mcpjungle/mcpchat/internal/service/registry"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stdioServerEnv makes the test binary act as a stdio MCP server instead of running tests.
const stdioServerEnv = "MCPCHAT_TEST_STDIO_SERVER"

func TestMain(m *testing.M) {
	if os.Getenv(stdioServerEnv) == "1" {
		os.Exit(runStdioTestServer())
	}
	os.Exit(m.Run())
}

func runStdioTestServer() int {
	fs := afero.NewMemMapFs()
	_ = fs.MkdirAll("resources/sales", 0o755)

	s, err := registry.NewMCPServer(&registry.Config{Fs: fs})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Fprintln(os.Stderr, "test server ready")
	if err := registry.ServeStdio(context.Background(), s, nil, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func newTestStdioServer(t *testing.T) *model.McpServer {
	t.Helper()
	s, err := model.NewStdioServer("fred", "test server", os.Args[0], nil, map[string]string{stdioServerEnv: "1"})
	require.NoError(t, err)
	return s
}

func TestConnectStdioServer(t *testing.T) {
	ctx := context.Background()

	session, err := Connect(ctx, newTestStdioServer(t), 10*time.Second, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, registry.ServerName, session.ServerVersion().Name)

	out, err := session.CallTool(ctx, "add", map[string]any{"a": 5, "b": 3})
	require.NoError(t, err)
	assert.Equal(t, "8", out)

	out, err = session.ReadResource(ctx, "data://list")
	require.NoError(t, err)
	assert.Equal(t, "Available Data Products:\n- sales", out)

	started := time.Now()
	assert.NoError(t, session.Close())
	assert.Less(t, time.Since(started), closeGracePeriod, "server should exit once its stdin is closed")
}

func TestConnectFailures(t *testing.T) {
	ctx := context.Background()

	missing, err := model.NewStdioServer("missing", "", "/nonexistent/mcp-server-binary", nil, nil)
	require.NoError(t, err)

	refused, err := model.NewSSEServer("refused", "", "http://127.0.0.1:1/sse", "")
	require.NoError(t, err)

	unsupported := &model.McpServer{Name: "weird", Transport: "carrier-pigeon"}

	tests := []struct {
		name   string
		server *model.McpServer
	}{
		{"command not found", missing},
		{"sse connection refused", refused},
		{"unsupported transport", unsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Connect(ctx, tt.server, 5*time.Second, zap.NewNop())
			require.Error(t, err)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, ErrConnectionFailed)
			assert.NotErrorIs(t, err, ErrConnectTimeout)
		})
	}
}

func TestWithSessionClosesSession(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	t.Run("fn error is returned", func(t *testing.T) {
		var captured *Session
		err := WithSession(ctx, newTestStdioServer(t), 10*time.Second, zap.NewNop(), func(s *Session) error {
			captured = s
			out, err := s.CallTool(ctx, "add", map[string]any{"a": 1, "b": 1})
			require.NoError(t, err)
			assert.Equal(t, "2", out)
			return boom
		})
		assert.ErrorIs(t, err, boom)

		require.NotNil(t, captured)
		_, err = captured.CallTool(ctx, "add", map[string]any{"a": 1, "b": 1})
		assert.Error(t, err, "session must be closed after WithSession returns")
	})

	t.Run("panic", func(t *testing.T) {
		var captured *Session
		assert.Panics(t, func() {
			_ = WithSession(ctx, newTestStdioServer(t), 10*time.Second, zap.NewNop(), func(s *Session) error {
				captured = s
				panic("boom")
			})
		})

		require.NotNil(t, captured)
		_, err := captured.CallTool(ctx, "add", map[string]any{"a": 1, "b": 1})
		assert.Error(t, err, "session must be closed while unwinding the panic")
	})

	t.Run("connect error", func(t *testing.T) {
		missing, err := model.NewStdioServer("missing", "", "/nonexistent/mcp-server-binary", nil, nil)
		require.NoError(t, err)

		called := false
		err = WithSession(ctx, missing, time.Second, zap.NewNop(), func(s *Session) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, ErrConnectionFailed)
		assert.False(t, called)
	})
}

func TestTestConnection(t *testing.T) {
	ctx := context.Background()
	assert.True(t, TestConnection(ctx, newTestStdioServer(t), zap.NewNop()))

	missing, err := model.NewStdioServer("missing", "", "/nonexistent/mcp-server-binary", nil, nil)
	require.NoError(t, err)
	assert.False(t, TestConnection(ctx, missing, nil))
}
