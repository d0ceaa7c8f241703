package mcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"sort"
	"strings"
	"syscall"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mcpjungle/mcpchat/internal/model"
	"go.uber.org/zap"
)

// isLoopbackURL returns true if rawURL resolves to a loopback address.
// It assumes that rawURL is a valid URL.
func isLoopbackURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false // invalid URL, cannot determine loopback
	}
	host := u.Hostname()

	if host == "" {
		return false // no host, not a loopback
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}

	return false
}

// stdioEnv converts the environment map to a slice of strings in the format "KEY=VALUE".
// The result is sorted so that the child's environment is deterministic.
func stdioEnv(env map[string]string) []string {
	envVars := make([]string, 0, len(env))
	for k, v := range env {
		envVars = append(envVars, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(envVars)
	return envVars
}

// captureStdioServerStderr drains the stderr of a stdio MCP server in the background
// and writes every line to the logger.
// The child blocks once its stderr pipe buffer is full, so the pipe must always be drained.
func captureStdioServerStderr(name string, tr *transport.Stdio, logger *zap.Logger) {
	stderr := tr.Stderr()
	if stderr == nil {
		return
	}
	l := logger.With(zap.String("server", name))

	go func() {
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 4096), 1024*1024)
		for scanner.Scan() {
			l.Info("mcp server stderr", zap.String("line", scanner.Text()))
		}
		if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) && !errors.Is(err, io.EOF) {
			l.Debug("stopped reading mcp server stderr", zap.Error(err))
			return
		}
		l.Debug("mcp server process has closed its stderr")
	}()
}

// startStdioServer spawns a stdio MCP server and returns a started client for it.
// The subprocess lives until the returned kill function is called or the transport is closed.
func startStdioServer(s *model.McpServer, logger *zap.Logger) (*client.Client, context.CancelFunc, error) {
	conf, err := s.GetStdioConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to get stdio config for MCP server %s: %w", ErrConnectionFailed, s.Name, err)
	}

	// the process context is detached from the caller's context so that the child outlives
	// the handshake and is only torn down by the session
	procCtx, kill := context.WithCancel(context.Background())

	tr := transport.NewStdio(conf.Command, stdioEnv(conf.Env), conf.Args...)
	c := client.NewClient(tr)
	if err := c.Start(procCtx); err != nil {
		kill()
		return nil, nil, fmt.Errorf("%w: failed to start stdio MCP server %s: %w", ErrConnectionFailed, s.Name, err)
	}

	captureStdioServerStderr(s.Name, tr, logger)

	logger.Debug(
		"started stdio MCP server",
		zap.String("server", s.Name),
		zap.String("command", conf.Command),
		zap.Strings("args", conf.Args),
	)
	return c, kill, nil
}

// startSSEServerConn opens the event stream of an SSE transport-based MCP server and returns a started client.
func startSSEServerConn(s *model.McpServer, logger *zap.Logger) (*client.Client, context.CancelFunc, error) {
	conf, err := s.GetSSEConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to get SSE transport config for MCP server %s: %w", ErrConnectionFailed, s.Name, err)
	}

	var opts []transport.ClientOption
	if conf.BearerToken != "" {
		// If bearer token is provided, set the Authorization header
		o := transport.WithHeaders(map[string]string{
			"Authorization": "Bearer " + conf.BearerToken,
		})
		opts = append(opts, o)
	}

	c, err := client.NewSSEMCPClient(conf.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to create SSE client for MCP server %s: %w", ErrConnectionFailed, s.Name, err)
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	if err = c.Start(streamCtx); err != nil {
		cancel()
		if errors.Is(err, syscall.ECONNREFUSED) && isLoopbackURL(conf.URL) {
			return nil, nil, fmt.Errorf(
				"%w: connection to the MCP server %s was refused, "+
					"check that 'mcpchat serve --transport sse' is running on this address",
				ErrConnectionFailed, conf.URL,
			)
		}
		return nil, nil, fmt.Errorf("%w: failed to start SSE transport for MCP server %s: %w", ErrConnectionFailed, s.Name, err)
	}

	logger.Debug("opened SSE stream to MCP server", zap.String("server", s.Name), zap.String("url", conf.URL))
	return c, cancel, nil
}
