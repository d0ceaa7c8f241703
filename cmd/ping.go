package cmd

import (
	"errors"

	"github.com/mcpjungle/mcpchat/internal/service/mcp"
	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the MCP server can be reached and initialized",
	Long: "Connects to the MCP server, performs the initialize handshake and lists its catalog.\n" +
		"The handshake must complete within 10 seconds.",
	Args: cobra.NoArgs,
	RunE: runPing,
	Annotations: map[string]string{
		"group": string(subCommandGroupAdvanced),
		"order": "1",
	},
}

func init() {
	addConnectionFlags(pingCmd)
	rootCmd.AddCommand(pingCmd)
}

func runPing(cmd *cobra.Command, args []string) error {
	s, _, _, err := resolveServer()
	if err != nil {
		return err
	}
	if !mcp.TestConnection(cmd.Context(), s, logger) {
		return errors.New("server connection test failed")
	}
	cmd.Println("Server connection test passed")
	return nil
}
