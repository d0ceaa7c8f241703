package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mcpjungle/mcpchat/internal"
	"github.com/mcpjungle/mcpchat/internal/api"
	"github.com/mcpjungle/mcpchat/internal/service/registry"
	"github.com/mcpjungle/mcpchat/internal/telemetry"
	"github.com/mcpjungle/mcpchat/pkg/types"
	"github.com/mcpjungle/mcpchat/pkg/version"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	BindPortEnvVar  = "PORT"
	BindPortDefault = "8050"

	AccessTokenEnvVar      = "MCPCHAT_ACCESS_TOKEN"
	ResourcesDirEnvVar     = "MCPCHAT_RESOURCES_DIR"
	TelemetryEnabledEnvVar = "OTEL_ENABLED"
)

var (
	serveCmdTransport     string
	serveCmdBindPort      string
	serveCmdResourcesDir  string
	serveCmdGenerateToken bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Fred MCP server",
	Long: "Runs Fred, the MCP server bundled with mcpchat.\n\n" +
		"Fred offers the 'add' and 'read_resource_content' tools and the config://app, greeting://{name} and\n" +
		"data://list resources. data://list lists the sub-directories of the resources directory\n" +
		"(default ./resources, override with --resources-dir or the MCPCHAT_RESOURCES_DIR env var).\n\n" +
		"By default the server speaks MCP over stdin/stdout, which is how `mcpchat ask` launches it.\n" +
		"With --transport sse, the server is hosted over HTTP instead (default port 8050, env var PORT),\n" +
		"along with a small REST API under /api/v0.\n" +
		"Set MCPCHAT_ACCESS_TOKEN (or MCPCHAT_ACCESS_TOKEN_FILE) to require clients of the HTTP host to send\n" +
		"`Authorization: Bearer {token}`.",
	Args: cobra.NoArgs,
	RunE: runServe,
	Annotations: map[string]string{
		"group": string(subCommandGroupBasic),
		"order": "1",
	},
}

func init() {
	serveCmd.Flags().StringVar(
		&serveCmdTransport,
		"transport",
		string(types.TransportStdio),
		fmt.Sprintf("transport to serve MCP over ('%s' | '%s')", types.TransportStdio, types.TransportSSE),
	)
	serveCmd.Flags().StringVar(
		&serveCmdBindPort,
		"port",
		"",
		fmt.Sprintf("port to bind the HTTP server to when serving over sse (overrides env var %s)", BindPortEnvVar),
	)
	serveCmd.Flags().StringVar(
		&serveCmdResourcesDir,
		"resources-dir",
		"",
		fmt.Sprintf(
			"directory whose sub-directories are listed as data products (overrides env var %s, default '%s')",
			ResourcesDirEnvVar, registry.DefaultResourcesDir,
		),
	)
	serveCmd.Flags().BoolVar(
		&serveCmdGenerateToken,
		"generate-token",
		false,
		"generate a random access token for the HTTP host if none is configured, and print it",
	)

	rootCmd.AddCommand(serveCmd)
}

// getBindPort returns the TCP port to bind the HTTP host to
// precedence: command line flag > environment variable > default
func getBindPort() string {
	port := serveCmdBindPort
	if port == "" {
		port = os.Getenv(BindPortEnvVar)
	}
	if port == "" {
		port = BindPortDefault
	}
	return port
}

// getResourcesDir returns the directory served by the data products resource
// precedence: command line flag > environment variable > default
func getResourcesDir() string {
	dir := serveCmdResourcesDir
	if dir == "" {
		dir = os.Getenv(ResourcesDirEnvVar)
	}
	if dir == "" {
		dir = registry.DefaultResourcesDir
	}
	return dir
}

// isTelemetryEnabled returns true if telemetry should be enabled.
// Telemetry is disabled unless the env var says otherwise.
func isTelemetryEnabled() (bool, error) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(TelemetryEnabledEnvVar)))
	switch v {
	case "":
		return false, nil
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf(
			"invalid value for %s environment variable: '%s', valid values are 'true' or 'false'",
			TelemetryEnabledEnvVar, v,
		)
	}
}

// getEnvOrFile returns the value of the given environment variable.
// If the environment variable is not set, it checks for a corresponding
// _FILE environment variable and reads the value from the file if it exists.
// If neither is set, it returns an empty string.
// If both are set, the value of the original environment variable takes precedence.
func getEnvOrFile(envVar string) (string, error) {
	val := os.Getenv(envVar)
	if val != "" {
		return val, nil
	}

	fileEnvVar := envVar + "_FILE"
	filePath := os.Getenv(fileEnvVar)
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", fileEnvVar, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	return "", nil
}

// getAccessToken returns the access token the HTTP host should require, if any.
func getAccessToken(cmd *cobra.Command) (string, error) {
	token, err := getEnvOrFile(AccessTokenEnvVar)
	if err != nil {
		return "", err
	}
	if token != "" {
		if err := internal.ValidateAccessToken(token); err != nil {
			return "", fmt.Errorf("invalid value for %s: %w", AccessTokenEnvVar, err)
		}
		return token, nil
	}
	if !serveCmdGenerateToken {
		return "", nil
	}
	token, err = internal.GenerateAccessToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	cmd.Printf("Generated access token: %s\n", token)
	cmd.Println("Clients must send it in the `Authorization: Bearer {token}` header.")
	cmd.Println()
	return token, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	transport, err := types.ValidateTransport(serveCmdTransport)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telemetryEnabled, err := isTelemetryEnabled()
	if err != nil {
		return err
	}
	otelProviders, err := telemetry.Init(ctx, &telemetry.Config{
		ServiceName: "mcpchat",
		Enabled:     telemetryEnabled,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Opentelemetry providers: %v", err)
	}
	defer func() {
		if err := otelProviders.Shutdown(context.Background()); err != nil {
			logger.Warn("failed to shutdown opentelemetry providers", zap.Error(err))
		}
	}()

	// A no-op implementation is used unless telemetry is enabled,
	// so the rest of the code never has to check whether metrics are on.
	metrics := telemetry.NewNoopCustomMetrics()
	if otelProviders.IsEnabled() {
		metrics, err = telemetry.NewOtelCustomMetrics(otelProviders.Meter)
		if err != nil {
			return fmt.Errorf("failed to create MCP metrics: %v", err)
		}
	}

	resourcesDir := getResourcesDir()
	mcpServer, err := registry.NewMCPServer(&registry.Config{
		Version:      version.GetVersion(),
		Fs:           afero.NewOsFs(),
		ResourcesDir: resourcesDir,
		Logger:       logger,
		Metrics:      metrics,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %v", err)
	}

	if transport == types.TransportStdio {
		logger.Debug("data products directory", zap.String("resources_dir", resourcesDir))
		return registry.ServeStdio(ctx, mcpServer, logger, cmd.InOrStdin(), os.Stdout)
	}

	token, err := getAccessToken(cmd)
	if err != nil {
		return err
	}

	bindPort := getBindPort()
	s, err := api.NewServer(&api.ServerOptions{
		Port:          bindPort,
		MCPServer:     mcpServer,
		ServerName:    registry.ServerName,
		AccessToken:   token,
		OtelProviders: otelProviders,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %v", err)
	}

	cmd.Printf("%s MCP server listening on :%s (SSE endpoint: /sse)\n\n", registry.ServerName, bindPort)
	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("failed to run the server: %v", err)
	}
	return nil
}
