package registry

import (
	"context"
	"errors"
	"io"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// ServeStdio serves the MCP server over the given stdio streams until ctx is cancelled or stdin is closed.
// Nothing but protocol messages may be written to stdout, all logging goes through the zap logger.
func ServeStdio(ctx context.Context, s *server.MCPServer, logger *zap.Logger, stdin io.Reader, stdout io.Writer) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(zap.NewStdLog(logger.Named("stdio")))

	logger.Info("serving MCP server over stdio")
	err := stdio.Listen(ctx, stdin, stdout)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return err
	}
	logger.Info("stdio transport closed")
	return nil
}
