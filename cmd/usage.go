package cmd

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mcpjungle/mcpchat/internal/service/mcp"
	"github.com/spf13/cobra"
)

var usageCmd = &cobra.Command{
	Use:   "usage <tool>",
	Short: "Get usage information for a MCP tool",
	Args:  cobra.ExactArgs(1),
	RunE:  runGetToolUsage,
	Annotations: map[string]string{
		"group": string(subCommandGroupBasic),
		"order": "6",
	},
}

func init() {
	addConnectionFlags(usageCmd)
	rootCmd.AddCommand(usageCmd)
}

func runGetToolUsage(cmd *cobra.Command, args []string) error {
	s, timeout, _, err := resolveServer()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	return mcp.WithSession(ctx, s, timeout, logger, func(session *mcp.Session) error {
		tools, err := session.ListTools(ctx)
		if err != nil {
			return err
		}
		i := slices.IndexFunc(tools, func(t mcpgo.Tool) bool { return t.Name == args[0] })
		if i < 0 {
			return fmt.Errorf("tool '%s' not found on MCP server %s", args[0], session.Name())
		}
		printToolUsage(cmd, tools[i])
		return nil
	})
}

func printToolUsage(cmd *cobra.Command, t mcpgo.Tool) {
	cmd.Println(t.Name)
	cmd.Println(t.Description)

	if len(t.InputSchema.Properties) == 0 {
		cmd.Println("This tool does not require any input parameters.")
	} else {
		cmd.Println()
		cmd.Println("Input Parameters:")
		for _, k := range slices.Sorted(maps.Keys(t.InputSchema.Properties)) {
			v := t.InputSchema.Properties[k]
			requiredOrOptional := "optional"
			if slices.Contains(t.InputSchema.Required, k) {
				requiredOrOptional = "required"
			}

			boundary := strings.Repeat("=", len(k)+len(requiredOrOptional)+20)

			cmd.Println(boundary)
			cmd.Printf("%s (%s)\n", k, requiredOrOptional)

			j, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				// Simply print the raw object if we fail to marshal it
				cmd.Println(v)
			} else {
				cmd.Println(string(j))
			}
			cmd.Println(boundary)

			cmd.Println()
		}
	}

	hints := toolHints(t.Annotations)
	if len(hints) > 0 {
		cmd.Println()
		cmd.Println("Annotations:")
		for _, h := range hints {
			cmd.Printf("* %s\n", h)
		}
	}
}

// toolHints lists the annotation hints the server set on a tool
func toolHints(a mcpgo.ToolAnnotation) []string {
	var hints []string
	if a.Title != "" {
		hints = append(hints, "title = "+a.Title)
	}
	add := func(name string, v *bool) {
		if v != nil {
			hints = append(hints, fmt.Sprintf("%s = %t", name, *v))
		}
	}
	add("readOnlyHint", a.ReadOnlyHint)
	add("destructiveHint", a.DestructiveHint)
	add("idempotentHint", a.IdempotentHint)
	add("openWorldHint", a.OpenWorldHint)
	return hints
}
