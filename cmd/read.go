package cmd

import (
	"fmt"

	"github.com/mcpjungle/mcpchat/internal/service/mcp"
	"github.com/spf13/cobra"
)

var readCmd = &cobra.Command{
	Use:   "read <uri>",
	Short: "Read a resource of the MCP server",
	Long: "Reads a resource of the MCP server and prints its text content, eg-\n" +
		"    mcpchat read data://list\n" +
		"    mcpchat read greeting://Ann",
	Args: cobra.ExactArgs(1),
	RunE: runReadResource,
	Annotations: map[string]string{
		"group": string(subCommandGroupBasic),
		"order": "5",
	},
}

func init() {
	addConnectionFlags(readCmd)
	rootCmd.AddCommand(readCmd)
}

func runReadResource(cmd *cobra.Command, args []string) error {
	s, timeout, _, err := resolveServer()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	return mcp.WithSession(ctx, s, timeout, logger, func(session *mcp.Session) error {
		content, err := session.ReadResource(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to read resource '%s': %w", args[0], err)
		}
		cmd.Println(content)
		return nil
	})
}
