// Package cmd implements the mcpchat command line interface.
package cmd

import (
	"os"
	"sort"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/mcpjungle/mcpchat/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type subCommandGroup string

const (
	subCommandGroupBasic    subCommandGroup = "basic"
	subCommandGroupAdvanced subCommandGroup = "advanced"
)

// LogLevelEnvVar configures the log level when the --log-level flag is not supplied
const LogLevelEnvVar = "LOG_LEVEL"

var rootCmdLogLevel string

// logger is built once the command line has been parsed.
// It writes to stderr only, stdout belongs to the stdio transport when serving.
var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "mcpchat",
	Short: "Chat with an LLM that can use the tools & resources of an MCP server",
	Long: "mcpchat bundles a small MCP server (Fred) and a client that lets an OpenAI-compatible\n" +
		"chat completion API use the server's tools and resources to answer queries.\n\n" +
		"Run `mcpchat ask \"What is 5 + 3?\"` to launch the bundled server over stdio and ask a question.",
	SilenceUsage:      true,
	PersistentPreRunE: setupRoot,
}

func init() {
	cobra.EnableCommandSorting = false

	rootCmd.PersistentFlags().StringVar(
		&rootCmdLogLevel,
		"log-level",
		"",
		"log level (debug, info, warn, error), overrides env var "+LogLevelEnvVar,
	)

	rootCmd.AddGroup(
		&cobra.Group{ID: string(subCommandGroupBasic), Title: "Basic Commands:"},
		&cobra.Group{ID: string(subCommandGroupAdvanced), Title: "Advanced Commands:"},
	)
}

// setupRoot runs before every sub-command: it loads the .env file and builds the logger.
func setupRoot(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	level := rootCmdLogLevel
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}
	l, err := logging.New("mcpchat", level)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// organizeCommands assigns every sub-command to the group named by its "group" annotation
// and orders the commands by group and then by their "order" annotation.
func organizeCommands(root *cobra.Command) {
	cmds := root.Commands()
	for _, c := range cmds {
		if g, ok := c.Annotations["group"]; ok {
			c.GroupID = g
		}
	}
	sort.SliceStable(cmds, func(i, j int) bool {
		gi, gj := groupRank(cmds[i]), groupRank(cmds[j])
		if gi != gj {
			return gi < gj
		}
		return commandOrder(cmds[i]) < commandOrder(cmds[j])
	})
}

func groupRank(c *cobra.Command) int {
	switch subCommandGroup(c.Annotations["group"]) {
	case subCommandGroupBasic:
		return 0
	case subCommandGroupAdvanced:
		return 1
	default:
		return 2
	}
}

func commandOrder(c *cobra.Command) int {
	o, err := strconv.Atoi(c.Annotations["order"])
	if err != nil {
		return 1 << 16
	}
	return o
}

// Execute runs the mcpchat CLI
func Execute() error {
	organizeCommands(rootCmd)
	// command output goes to stdout so it can be piped, logs stay on stderr
	rootCmd.SetOut(os.Stdout)
	defer func() { _ = logger.Sync() }()
	return rootCmd.Execute()
}
