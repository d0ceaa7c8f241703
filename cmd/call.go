package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/mcpjungle/mcpchat/internal/service/mcp"
	"github.com/spf13/cobra"
)

var callCmdArgs string

var callCmd = &cobra.Command{
	Use:   "call <tool>",
	Short: "Call a tool of the MCP server",
	Long: "Calls a tool of the MCP server and prints its result.\n" +
		"Supply the tool's input as a JSON object, eg-\n" +
		"    mcpchat call add --args '{\"a\": 5, \"b\": 3}'",
	Args: cobra.ExactArgs(1),
	RunE: runCallTool,
	Annotations: map[string]string{
		"group": string(subCommandGroupBasic),
		"order": "4",
	},
}

func init() {
	callCmd.Flags().StringVar(
		&callCmdArgs,
		"args",
		"",
		"arguments of the tool as a JSON object",
	)
	addConnectionFlags(callCmd)

	rootCmd.AddCommand(callCmd)
}

// parseToolArgs decodes the JSON object given to --args. An empty string yields no arguments.
func parseToolArgs(raw string) (map[string]any, error) {
	args := map[string]any{}
	if raw == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("invalid value for --args, must be a JSON object: %w", err)
	}
	return args, nil
}

func runCallTool(cmd *cobra.Command, args []string) error {
	toolArgs, err := parseToolArgs(callCmdArgs)
	if err != nil {
		return err
	}

	s, timeout, _, err := resolveServer()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	return mcp.WithSession(ctx, s, timeout, logger, func(session *mcp.Session) error {
		result, err := session.CallTool(ctx, args[0], toolArgs)
		if err != nil {
			return err
		}
		cmd.Println(result)
		return nil
	})
}
