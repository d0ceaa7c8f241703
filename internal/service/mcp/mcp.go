// Package mcp manages client sessions with MCP servers.
// A session is scoped to a single use: it is established by Connect and always released by Session.Close.
package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mcpjungle/mcpchat/internal/model"
	"github.com/mcpjungle/mcpchat/pkg/types"
	"go.uber.org/zap"
)

const (
	// DefaultConnectTimeout bounds the initialize handshake when no timeout is configured.
	DefaultConnectTimeout = 30 * time.Second

	// TestConnectionTimeout bounds the handshake performed by TestConnection.
	TestConnectionTimeout = 10 * time.Second
)

// Connect establishes a session with the given MCP server.
// For stdio servers, the server's command is started as a subprocess. The initialize handshake must
// complete within timeout, otherwise an error matching ErrConnectTimeout is returned.
// Any other failure returns an error matching ErrConnectionFailed.
// On failure, the subprocess (if any) is guaranteed to be gone by the time Connect returns.
func Connect(ctx context.Context, s *model.McpServer, timeout time.Duration, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	var (
		c    *client.Client
		kill context.CancelFunc
		err  error
	)
	switch s.Transport {
	case types.TransportSSE:
		c, kill, err = startSSEServerConn(s, logger)
	case types.TransportStdio, "":
		c, kill, err = startStdioServer(s, logger)
	default:
		err = fmt.Errorf("%w: unsupported transport %q for MCP server %s", ErrConnectionFailed, s.Transport, s.Name)
	}
	if err != nil {
		logger.Error("failed to connect to MCP server", zap.String("server", s.Name), zap.Error(err))
		return nil, err
	}

	session := newSession(s.Name, c, kill, logger)
	if err := session.initialize(ctx, timeout); err != nil {
		session.abort()
		logger.Error("failed to initialize MCP session", zap.String("server", s.Name), zap.Error(err))
		return nil, err
	}

	logger.Info(
		"connected to MCP server",
		zap.String("server", s.Name),
		zap.String("target", s.Target()),
		zap.String("server_name", session.serverInfo.Name),
		zap.String("server_version", session.serverInfo.Version),
	)
	return session, nil
}

// WithSession connects to the MCP server, runs fn with the session and always closes the session afterwards,
// regardless of whether fn succeeds, fails or panics.
func WithSession(
	ctx context.Context,
	s *model.McpServer,
	timeout time.Duration,
	logger *zap.Logger,
	fn func(*Session) error,
) error {
	session, err := Connect(ctx, s, timeout, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			session.logger.Warn("error while closing MCP session", zap.Error(cerr))
		}
	}()
	return fn(session)
}

// TestConnection connects to the MCP server, fetches its catalog and reports whether that succeeded.
func TestConnection(ctx context.Context, s *model.McpServer, logger *zap.Logger) bool {
	if logger == nil {
		logger = zap.NewNop()
	}
	err := WithSession(ctx, s, TestConnectionTimeout, logger, func(session *Session) error {
		info, err := session.ServerInfo(ctx)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(info.Tools))
		for _, t := range info.Tools {
			names = append(names, t.Name)
		}
		logger.Info(
			"connection test succeeded",
			zap.String("server", s.Name),
			zap.Int("tools", len(info.Tools)),
			zap.String("tool_names", strings.Join(names, ", ")),
			zap.Int("resources", len(info.Resources)),
		)
		return nil
	})
	if err != nil {
		logger.Error("connection test failed", zap.String("server", s.Name), zap.Error(err))
		return false
	}
	return true
}
