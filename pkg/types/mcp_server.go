package types

import "fmt"

// McpServerTransport represents the transport protocol used to reach an MCP server.
// All transport types supported by mcpchat are defined in this file with this type.
type McpServerTransport string

const (
	TransportStdio McpServerTransport = "stdio"
	TransportSSE   McpServerTransport = "sse"
)

// ServerInput describes how mcpchat should reach an MCP server.
// It is also the basis for the YAML configuration file accepted by the client commands.
type ServerInput struct {
	// Name is a human-friendly label for the server, used in logs only.
	Name string `json:"name" yaml:"name"`

	// Transport is the transport protocol used by the MCP server.
	// valid values are "stdio" and "sse". Empty means stdio.
	Transport string `json:"transport" yaml:"transport"`

	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Command is the command to run the mcp server.
	// It is mandatory when the transport is "stdio".
	Command string `json:"command,omitempty" yaml:"command,omitempty"`

	// Args is the list of arguments to pass to the command when the transport is "stdio".
	// For a script-based server this is usually the path of the script.
	Args []string `json:"args,omitempty" yaml:"args,omitempty"`

	// Env is the set of environment variables to pass to the mcp server when the transport is "stdio".
	Env map[string]string `json:"env,omitempty" yaml:"env,omitempty"`

	// URL is the SSE endpoint of a remote mcp server (eg- http://localhost:8050/sse).
	// It is mandatory when transport is sse.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// BearerToken is an optional token sent in the Authorization header to an SSE server.
	// If the transport is "stdio", this field is ignored.
	BearerToken string `json:"bearer_token,omitempty" yaml:"bearer_token,omitempty"`
}

// ServerMetadata represents the metadata response of the mcpchat HTTP host
type ServerMetadata struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ValidateTransport validates the input string and returns the corresponding McpServerTransport.
// An empty input defaults to stdio, which is how the client launches the bundled server.
func ValidateTransport(input string) (McpServerTransport, error) {
	switch input {
	case string(TransportStdio), "":
		return TransportStdio, nil
	case string(TransportSSE):
		return TransportSSE, nil
	default:
		return "", fmt.Errorf(
			"unsupported transport type: %s (acceptable values: '%s', '%s')", input, TransportStdio, TransportSSE,
		)
	}
}
