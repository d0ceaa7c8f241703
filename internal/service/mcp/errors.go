package mcp

import "errors"

var (
	// ErrConnectTimeout is returned when an MCP server does not complete the initialize handshake in time.
	ErrConnectTimeout = errors.New("timed out waiting for MCP server to initialize")

	// ErrConnectionFailed is returned when a session with an MCP server could not be established,
	// eg- the server process could not be started or the handshake was rejected.
	ErrConnectionFailed = errors.New("failed to connect to MCP server")
)
