package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// NewInProcessSession creates a session with an MCP server living in the same process.
// No subprocess or network connection is involved, the handshake still runs so that the session behaves
// exactly like a remote one.
func NewInProcessSession(ctx context.Context, name string, srv *server.MCPServer, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c, err := client.NewInProcessClient(srv)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create in-process client for %s: %w", ErrConnectionFailed, name, err)
	}
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("%w: failed to start in-process client for %s: %w", ErrConnectionFailed, name, err)
	}

	session := newSession(name, c, nil, logger)
	if err := session.initialize(ctx, 10*time.Second); err != nil {
		session.abort()
		return nil, err
	}
	return session, nil
}
