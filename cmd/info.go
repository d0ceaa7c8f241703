package cmd

import (
	"github.com/mcpjungle/mcpchat/internal/service/mcp"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "List the tools & resources offered by the MCP server",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
	Annotations: map[string]string{
		"group": string(subCommandGroupBasic),
		"order": "3",
	},
}

func init() {
	addConnectionFlags(infoCmd)
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	s, timeout, _, err := resolveServer()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	return mcp.WithSession(ctx, s, timeout, logger, func(session *mcp.Session) error {
		info, err := session.ServerInfo(ctx)
		if err != nil {
			return err
		}

		impl := session.ServerVersion()
		cmd.Printf("Connected to %s %s\n\n", impl.Name, impl.Version)

		if len(info.Tools) == 0 {
			cmd.Println("There are no tools available")
		} else {
			cmd.Println("Tools:")
			for i, t := range info.Tools {
				cmd.Printf("%d. %s\n", i+1, t.Name)
				if t.Description != "" {
					cmd.Printf("   %s\n", t.Description)
				}
			}
		}
		cmd.Println()

		if len(info.Resources) == 0 {
			cmd.Println("There are no resources available")
			return nil
		}
		cmd.Println("Resources:")
		for i, r := range info.Resources {
			cmd.Printf("%d. %s (%s)\n", i+1, r.Name, r.URI)
			if r.Description != "" {
				cmd.Printf("   %s\n", r.Description)
			}
		}
		return nil
	})
}
