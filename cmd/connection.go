package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mcpjungle/mcpchat/internal/model"
	"github.com/mcpjungle/mcpchat/internal/service/config"
	"github.com/mcpjungle/mcpchat/pkg/types"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const (
	// McpServerInitReqTimeoutSecEnvVar is the environment variable for configuring
	// the MCP server initialization request timeout.
	McpServerInitReqTimeoutSecEnvVar = "MCP_SERVER_INIT_REQ_TIMEOUT_SEC"

	// McpServerInitRequestTimeoutSecondsDefault is the default timeout in seconds for MCP server
	// initialization requests.
	McpServerInitRequestTimeoutSecondsDefault = 30
)

// defaultServerName labels the server in logs when nothing else names it
const defaultServerName = "fred"

// configFs is the filesystem config files are read from
var configFs = afero.NewOsFs()

// connFlags holds the flags shared by all commands that connect to an MCP server.
// Only one command runs per process, so they all bind to the same variables.
var connFlags struct {
	configFile  string
	command     string
	args        []string
	env         []string
	transport   string
	url         string
	bearerToken string
	timeoutSec  int
}

// addConnectionFlags registers the MCP server connection flags on the given command.
func addConnectionFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(
		&connFlags.configFile,
		"config",
		"",
		"path to a YAML config file describing the MCP server and the completion settings",
	)
	f.StringVar(
		&connFlags.command,
		"server-command",
		"",
		"command that starts a stdio MCP server (default: this mcpchat executable with the 'serve' argument)",
	)
	f.StringArrayVar(
		&connFlags.args,
		"server-arg",
		nil,
		"argument passed to the server command, repeat the flag for multiple arguments",
	)
	f.StringArrayVar(
		&connFlags.env,
		"server-env",
		nil,
		"KEY=VALUE environment variable passed to the server command, repeat the flag for multiple variables",
	)
	f.StringVar(
		&connFlags.transport,
		"transport",
		"",
		fmt.Sprintf("transport used to reach the MCP server ('%s' | '%s')", types.TransportStdio, types.TransportSSE),
	)
	f.StringVar(
		&connFlags.url,
		"url",
		"",
		"SSE endpoint of the MCP server, eg- http://localhost:8050/sse (implies --transport sse)",
	)
	f.StringVar(
		&connFlags.bearerToken,
		"bearer-token",
		"",
		"token sent in the Authorization header to an SSE MCP server",
	)
	f.IntVar(
		&connFlags.timeoutSec,
		"timeout",
		0,
		fmt.Sprintf(
			"seconds to wait for the MCP server to initialize (overrides env var %s, default %d)",
			McpServerInitReqTimeoutSecEnvVar, McpServerInitRequestTimeoutSecondsDefault,
		),
	)
}

// loadConfigFile returns the parsed --config file, or an empty config if none was given.
func loadConfigFile() (*config.File, error) {
	if connFlags.configFile == "" {
		return &config.File{}, nil
	}
	return config.Load(configFs, connFlags.configFile)
}

// parseEnvPairs converts KEY=VALUE strings into a map
func parseEnvPairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid environment variable '%s', expected KEY=VALUE", p)
		}
		env[strings.TrimSpace(k)] = v
	}
	return env, nil
}

// getServerInput merges the connection settings of the config file with the command line flags.
// precedence: command line flag > config file > default
func getServerInput(cfg *config.File) (*types.ServerInput, error) {
	in := cfg.Server

	if connFlags.transport != "" {
		in.Transport = connFlags.transport
	}
	if connFlags.url != "" {
		in.URL = connFlags.url
		if connFlags.transport == "" {
			in.Transport = string(types.TransportSSE)
		}
	}
	if connFlags.bearerToken != "" {
		in.BearerToken = connFlags.bearerToken
	}
	if connFlags.command != "" {
		in.Command = connFlags.command
		in.Args = nil
	}
	if len(connFlags.args) > 0 {
		in.Args = connFlags.args
	}

	env, err := parseEnvPairs(connFlags.env)
	if err != nil {
		return nil, err
	}
	if len(env) > 0 {
		merged := make(map[string]string, len(in.Env)+len(env))
		for k, v := range in.Env {
			merged[k] = v
		}
		for k, v := range env {
			merged[k] = v
		}
		in.Env = merged
	}

	transport, err := types.ValidateTransport(in.Transport)
	if err != nil {
		return nil, err
	}
	if transport == types.TransportStdio && in.Command == "" {
		// launch the bundled server by default
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to locate the mcpchat executable: %w", err)
		}
		in.Command = exe
		if len(in.Args) == 0 {
			in.Args = []string{"serve"}
		}
	}
	if in.Name == "" {
		in.Name = defaultServerName
	}
	return &in, nil
}

// getMcpServerInitReqTimeout returns the timeout for MCP server initialization requests.
// precedence: command line flag > environment variable > config file > default
func getMcpServerInitReqTimeout(cfg *config.File) (time.Duration, error) {
	if connFlags.timeoutSec < 0 {
		return 0, fmt.Errorf("invalid value for --timeout: %d, must be a positive integer", connFlags.timeoutSec)
	}
	if connFlags.timeoutSec > 0 {
		return time.Duration(connFlags.timeoutSec) * time.Second, nil
	}

	timeoutStr := strings.TrimSpace(os.Getenv(McpServerInitReqTimeoutSecEnvVar))
	if timeoutStr != "" {
		timeout, err := strconv.Atoi(timeoutStr)
		if err != nil || timeout < 1 {
			return 0, fmt.Errorf(
				"invalid value for %s: '%s', must be a positive integer", McpServerInitReqTimeoutSecEnvVar, timeoutStr,
			)
		}
		return time.Duration(timeout) * time.Second, nil
	}

	if cfg.InitTimeoutSec > 0 {
		return time.Duration(cfg.InitTimeoutSec) * time.Second, nil
	}
	return McpServerInitRequestTimeoutSecondsDefault * time.Second, nil
}

// resolveServer works out which MCP server the command should connect to and how long to wait for it.
func resolveServer() (*model.McpServer, time.Duration, *config.File, error) {
	cfg, err := loadConfigFile()
	if err != nil {
		return nil, 0, nil, err
	}
	in, err := getServerInput(cfg)
	if err != nil {
		return nil, 0, nil, err
	}
	s, err := model.NewServerFromInput(in)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("invalid MCP server configuration: %w", err)
	}
	timeout, err := getMcpServerInitReqTimeout(cfg)
	if err != nil {
		return nil, 0, nil, err
	}
	return s, timeout, cfg, nil
}
