package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mcpjungle/mcpchat/client"
	"github.com/spf13/cobra"
)

// HostURLEnvVar points the status command at an mcpchat HTTP host
const HostURLEnvVar = "MCPCHAT_HOST_URL"

var (
	statusCmdHostURL     string
	statusCmdAccessToken string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of an mcpchat HTTP host",
	Long: "Queries an mcpchat HTTP host (started with `mcpchat serve --transport sse`)\n" +
		"and prints its health, version and catalog.\n" +
		"It then smoke tests the host through its REST API by invoking the add tool and reading data://list.",
	Args: cobra.NoArgs,
	RunE: runStatus,
	Annotations: map[string]string{
		"group": string(subCommandGroupAdvanced),
		"order": "2",
	},
}

func init() {
	statusCmd.Flags().StringVar(
		&statusCmdHostURL,
		"host-url",
		"",
		fmt.Sprintf(
			"base URL of the mcpchat HTTP host (overrides env var %s, default http://localhost:%s)",
			HostURLEnvVar, BindPortDefault,
		),
	)
	statusCmd.Flags().StringVar(
		&statusCmdAccessToken,
		"access-token",
		"",
		fmt.Sprintf("access token of the HTTP host (overrides env var %s)", AccessTokenEnvVar),
	)
	rootCmd.AddCommand(statusCmd)
}

// getHostURL returns the base URL of the HTTP host
// precedence: command line flag > environment variable > default
func getHostURL() string {
	u := statusCmdHostURL
	if u == "" {
		u = os.Getenv(HostURLEnvVar)
	}
	if u == "" {
		u = "http://localhost:" + BindPortDefault
	}
	return u
}

func runStatus(cmd *cobra.Command, args []string) error {
	token := statusCmdAccessToken
	if token == "" {
		t, err := getEnvOrFile(AccessTokenEnvVar)
		if err != nil {
			return err
		}
		token = t
	}

	c := client.NewClient(getHostURL(), token, &http.Client{Timeout: 30 * time.Second})

	if err := c.Health(); err != nil {
		return fmt.Errorf("mcpchat host at %s is not healthy: %w", c.BaseURL(), err)
	}
	cmd.Printf("Host %s is healthy\n", c.BaseURL())

	m, err := c.GetMetadata()
	if err != nil {
		return fmt.Errorf("failed to get metadata: %w", err)
	}
	cmd.Printf("Serving MCP server %s (version %s)\n", m.Name, m.Version)

	info, err := c.GetServerInfo()
	if err != nil {
		return fmt.Errorf("failed to get server info: %w", err)
	}
	cmd.Printf("%d tools, %d resources\n", len(info.Tools), len(info.Resources))

	sum, err := c.InvokeTool("add", map[string]any{"a": 2, "b": 3})
	if err != nil {
		return fmt.Errorf("tool check failed: %w", err)
	}
	cmd.Printf("Tool check: add(2, 3) = %s\n", sum)

	products, err := c.ReadResource("data://list")
	if err != nil {
		return fmt.Errorf("resource check failed: %w", err)
	}
	cmd.Printf("Resource check: data://list\n%s\n", products)
	return nil
}
