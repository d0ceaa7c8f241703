// Package model holds the connection models mcpchat uses to reach MCP servers.
package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcpjungle/mcpchat/pkg/types"
)

type StdioConfig struct {
	// Command is the shell command to run the stdio mcp server.
	Command string `json:"command"`

	// Args contains a list of strings that are passed as arguments to the command
	Args []string `json:"args,omitempty"`

	// Env describes the environment variables to pass to the MCP server
	Env map[string]string `json:"env,omitempty"`
}

type SSEConfig struct {
	// URL must be a valid http/https URL.
	URL string `json:"url"`

	BearerToken string `json:"bearer_token,omitempty"`
}

// McpServer represents an MCP server that mcpchat connects to
type McpServer struct {
	Name      string                   `json:"name"`
	Transport types.McpServerTransport `json:"transport"`

	Description string `json:"description"`

	// Config describes the transport-specific configuration for the MCP server.
	// It contains the JSON representation of either StdioConfig or SSEConfig.
	Config json.RawMessage `json:"config"`
}

// NewStdioServer creates a new MCP server with stdio transport configuration.
func NewStdioServer(name, description, command string, args []string, env map[string]string) (*McpServer, error) {
	if command == "" {
		return nil, errors.New("command is required for stdio transport")
	}
	config := StdioConfig{
		Command: command,
		Args:    args,
		Env:     env,
	}
	configJSON, err := json.Marshal(config)
	if err != nil {
		return nil, err
	}
	return &McpServer{
		Name:        name,
		Description: description,
		Transport:   types.TransportStdio,
		Config:      configJSON,
	}, nil
}

// NewSSEServer creates a new MCP server with SSE transport configuration.
func NewSSEServer(name, description, url, bearerToken string) (*McpServer, error) {
	if url == "" {
		return nil, errors.New("url is required for SSE transport")
	}
	config := SSEConfig{
		URL:         url,
		BearerToken: bearerToken,
	}
	configJSON, err := json.Marshal(config)
	if err != nil {
		return nil, err
	}
	return &McpServer{
		Name:        name,
		Description: description,
		Transport:   types.TransportSSE,
		Config:      configJSON,
	}, nil
}

// NewServerFromInput validates the user supplied input and creates the matching McpServer.
func NewServerFromInput(in *types.ServerInput) (*McpServer, error) {
	transport, err := types.ValidateTransport(in.Transport)
	if err != nil {
		return nil, err
	}
	switch transport {
	case types.TransportSSE:
		return NewSSEServer(in.Name, in.Description, in.URL, in.BearerToken)
	case types.TransportStdio:
		return NewStdioServer(in.Name, in.Description, in.Command, in.Args, in.Env)
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", transport)
	}
}

// GetStdioConfig returns the configuration if this is a stdio server
func (s *McpServer) GetStdioConfig() (*StdioConfig, error) {
	if s.Transport != types.TransportStdio {
		return nil, errors.New("server is not a stdio transport type")
	}
	var config StdioConfig
	if err := json.Unmarshal(s.Config, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// GetSSEConfig returns the configuration if this is an SSE server
func (s *McpServer) GetSSEConfig() (*SSEConfig, error) {
	if s.Transport != types.TransportSSE {
		return nil, errors.New("server is not a SSE transport type")
	}
	var config SSEConfig
	if err := json.Unmarshal(s.Config, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// Target returns a short human readable description of where the server lives,
// ie, the command line for stdio servers and the URL for SSE servers.
func (s *McpServer) Target() string {
	switch s.Transport {
	case types.TransportSSE:
		if c, err := s.GetSSEConfig(); err == nil {
			return c.URL
		}
	case types.TransportStdio:
		if c, err := s.GetStdioConfig(); err == nil {
			target := c.Command
			for _, a := range c.Args {
				target += " " + a
			}
			return target
		}
	}
	return s.Name
}
