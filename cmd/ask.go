package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/mcpjungle/mcpchat/internal/service/assistant"
	"github.com/mcpjungle/mcpchat/internal/service/config"
	"github.com/mcpjungle/mcpchat/internal/service/llm"
	"github.com/mcpjungle/mcpchat/internal/service/mcp"
	"github.com/spf13/cobra"
)

const (
	OpenAIAPIKeyEnvVar  = "OPENAI_API_KEY"
	OpenAIModelEnvVar   = "OPENAI_MODEL"
	OpenAIBaseURLEnvVar = "OPENAI_BASE_URL"
)

// defaultQuery is asked when the user doesn't supply one
const defaultQuery = "What data products are available to me?"

var (
	askCmdModel           string
	askCmdInlineResources bool
)

var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Ask the LLM a question it can answer with the MCP server's tools & resources",
	Long: "Connects to the MCP server, shares its tools and resources with the chat completion API\n" +
		"and relays any tool calls the model requests back to the server before printing the final answer.\n\n" +
		"The OPENAI_API_KEY environment variable is required.\n" +
		"OPENAI_MODEL (default gpt-4) and OPENAI_BASE_URL can point mcpchat at any OpenAI-compatible API.\n\n" +
		"If no query is given, mcpchat asks: \"" + defaultQuery + "\"",
	Args: cobra.MaximumNArgs(1),
	RunE: runAsk,
	Annotations: map[string]string{
		"group": string(subCommandGroupBasic),
		"order": "2",
	},
}

func init() {
	askCmd.Flags().StringVar(
		&askCmdModel,
		"model",
		"",
		fmt.Sprintf("chat completion model to use (overrides env var %s, default %s)", OpenAIModelEnvVar, llm.DefaultModel),
	)
	askCmd.Flags().BoolVar(
		&askCmdInlineResources,
		"inline-resources",
		false,
		"include the content of all resources in the system prompt instead of letting the model read them with tools",
	)
	addConnectionFlags(askCmd)

	rootCmd.AddCommand(askCmd)
}

// getLLMConfig returns the completion API settings
// precedence: command line flag > environment variable > config file > default
func getLLMConfig(cfg *config.File) llm.Config {
	c := llm.Config{
		APIKey:  strings.TrimSpace(os.Getenv(OpenAIAPIKeyEnvVar)),
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
	}
	if v := os.Getenv(OpenAIBaseURLEnvVar); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(OpenAIModelEnvVar); v != "" {
		c.Model = v
	}
	if askCmdModel != "" {
		c.Model = askCmdModel
	}
	return c
}

func runAsk(cmd *cobra.Command, args []string) error {
	query := defaultQuery
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		query = args[0]
	}

	s, timeout, cfg, err := resolveServer()
	if err != nil {
		return err
	}

	llmConfig := getLLMConfig(cfg)
	completer, err := llm.NewClient(llmConfig)
	if err != nil {
		return err
	}

	a := assistant.New(&assistant.Config{
		Completer:       completer,
		Model:           llmConfig.ModelOrDefault(),
		InlineResources: askCmdInlineResources || cfg.InlineResources,
		Logger:          logger,
	})

	ctx := cmd.Context()
	return mcp.WithSession(ctx, s, timeout, logger, func(session *mcp.Session) error {
		answer := a.ProcessQuery(ctx, session, query)
		cmd.Println(answer)
		return nil
	})
}
