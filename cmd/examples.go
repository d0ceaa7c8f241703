package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mcpjungle/mcpchat/internal/logging"
	"github.com/mcpjungle/mcpchat/internal/model"
	"github.com/mcpjungle/mcpchat/internal/service/mcp"
	"github.com/mcpjungle/mcpchat/pkg/types"
	"github.com/spf13/cobra"
)

// missingServerCommand is launched by the error handling example, it must not exist
const missingServerCommand = "mcpchat-non-existent-server"

type example struct {
	name string
	run  func(ctx context.Context, cmd *cobra.Command, s *model.McpServer, timeout time.Duration) error
}

var examples = []example{
	{"Basic connection", exampleBasicConnection},
	{"Custom server command", exampleCustomServer},
	{"Tool execution", exampleToolExecution},
	{"Resource access", exampleResourceAccess},
	{"Connection testing", exampleConnectionTesting},
	{"Error handling", exampleErrorHandling},
}

var examplesCmd = &cobra.Command{
	Use:   "examples",
	Short: "Run a guided tour of the MCP client features",
	Long: "Runs a series of examples against the MCP server: connecting and listing tools,\n" +
		"connecting with an explicit server description, calling the add tool, reading a resource,\n" +
		"testing the connection and handling a server that cannot be started.",
	Args: cobra.NoArgs,
	RunE: runExamples,
	Annotations: map[string]string{
		"group": string(subCommandGroupAdvanced),
		"order": "3",
	},
}

func init() {
	addConnectionFlags(examplesCmd)
	rootCmd.AddCommand(examplesCmd)
}

func runExamples(cmd *cobra.Command, args []string) error {
	s, timeout, _, err := resolveServer()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	failed := 0
	for _, e := range examples {
		cmd.Printf("=== %s ===\n", e.name)
		if err := e.run(ctx, cmd, s, timeout); err != nil {
			failed++
			cmd.Printf("Example failed: %v\n\n", err)
			continue
		}
		cmd.Println("Example completed successfully")
		cmd.Println()
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d examples failed", failed, len(examples))
	}
	return nil
}

func exampleBasicConnection(ctx context.Context, cmd *cobra.Command, s *model.McpServer, timeout time.Duration) error {
	return mcp.WithSession(ctx, s, timeout, logger, func(session *mcp.Session) error {
		info, err := session.ServerInfo(ctx)
		if err != nil {
			return err
		}
		cmd.Printf("Connected! Found %d tools\n", len(info.Tools))
		for _, t := range info.Tools {
			cmd.Printf("  %s: %s\n", t.Name, t.Description)
		}
		return nil
	})
}

// exampleCustomServer connects using a server description built by hand rather than from flags.
func exampleCustomServer(ctx context.Context, cmd *cobra.Command, s *model.McpServer, timeout time.Duration) error {
	var (
		custom *model.McpServer
		err    error
	)
	switch s.Transport {
	case types.TransportSSE:
		c, cerr := s.GetSSEConfig()
		if cerr != nil {
			return cerr
		}
		custom, err = model.NewSSEServer("custom", "", c.URL, c.BearerToken)
	default:
		c, cerr := s.GetStdioConfig()
		if cerr != nil {
			return cerr
		}
		custom, err = model.NewStdioServer("custom", "", c.Command, c.Args, c.Env)
	}
	if err != nil {
		return err
	}

	cmd.Printf("Connecting to %s\n", custom.Target())
	return mcp.WithSession(ctx, custom, timeout, logger, func(session *mcp.Session) error {
		tools, err := session.ListTools(ctx)
		if err != nil {
			return err
		}
		cmd.Printf("Connected to custom server: %d tools available\n", len(tools))
		return nil
	})
}

func exampleToolExecution(ctx context.Context, cmd *cobra.Command, s *model.McpServer, timeout time.Duration) error {
	return mcp.WithSession(ctx, s, timeout, logger, func(session *mcp.Session) error {
		result, err := session.CallTool(ctx, "add", map[string]any{"a": 5, "b": 3})
		if err != nil {
			return fmt.Errorf("tool execution failed: %w", err)
		}
		cmd.Printf("Calculator result: 5 + 3 = %s\n", result)
		return nil
	})
}

func exampleResourceAccess(ctx context.Context, cmd *cobra.Command, s *model.McpServer, timeout time.Duration) error {
	return mcp.WithSession(ctx, s, timeout, logger, func(session *mcp.Session) error {
		resources, err := session.ListResources(ctx)
		if err != nil {
			return fmt.Errorf("resource access failed: %w", err)
		}
		for _, r := range resources {
			if r.Templated {
				continue
			}
			cmd.Printf("Accessing resource: %s\n", r.Name)
			content, err := session.ReadResource(ctx, r.URI)
			if err != nil {
				return fmt.Errorf("resource access failed: %w", err)
			}
			cmd.Printf("Resource content preview: %s\n", logging.Preview(content, 100))
			return nil
		}
		cmd.Println("No resources available")
		return nil
	})
}

func exampleConnectionTesting(ctx context.Context, cmd *cobra.Command, s *model.McpServer, _ time.Duration) error {
	if !mcp.TestConnection(ctx, s, logger) {
		return errors.New("server connection test failed")
	}
	cmd.Println("Server connection test passed")
	return nil
}

// exampleErrorHandling succeeds when connecting to a server that cannot be started fails cleanly.
func exampleErrorHandling(ctx context.Context, cmd *cobra.Command, _ *model.McpServer, _ time.Duration) error {
	missing, err := model.NewStdioServer("missing", "", missingServerCommand, nil, nil)
	if err != nil {
		return err
	}

	err = mcp.WithSession(ctx, missing, 5*time.Second, logger, func(session *mcp.Session) error {
		_, err := session.ServerInfo(ctx)
		return err
	})
	switch {
	case errors.Is(err, mcp.ErrConnectTimeout):
		cmd.Println("Connection timed out as expected")
	case errors.Is(err, mcp.ErrConnectionFailed):
		cmd.Printf("Connection failed as expected: %v\n", err)
	case err == nil:
		return fmt.Errorf("connecting to %s unexpectedly succeeded", missingServerCommand)
	default:
		return fmt.Errorf("unexpected error: %w", err)
	}
	return nil
}
