// Package catalog converts the tools and resources of an MCP server into the shapes the chat completion API expects.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mcpjungle/mcpchat/pkg/types"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	systemMessageBase = "You are a helpful assistant."
	resourcesPrompt   = "\n\nAvailable Resources (use tools to fetch content):\n"
	toolUsagePrompt   = "\nUse the appropriate tools to fetch resource content when needed."

	resourceContentsPrompt = "\n\nResource Contents:\n"
)

// emptyObjectSchema is sent for tools whose input schema cannot be encoded.
var emptyObjectSchema = json.RawMessage(`{"type":"object","properties":{}}`)

// Source is anything that can list the catalog of an MCP server, usually a session.
type Source interface {
	ListTools(ctx context.Context) ([]mcp.Tool, error)
	ListResources(ctx context.Context) ([]types.ResourceInfo, error)
}

// FormatTools converts MCP tools into function definitions for the completion API.
// Exactly one function is produced per tool, in the same order.
func FormatTools(tools []mcp.Tool) []openai.Tool {
	formatted := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		formatted = append(formatted, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  inputSchema(t),
			},
		})
	}
	return formatted
}

// inputSchema returns the JSON encoding of the tool's input schema.
func inputSchema(t mcp.Tool) json.RawMessage {
	if len(t.RawInputSchema) > 0 {
		return t.RawInputSchema
	}
	b, err := json.Marshal(t.InputSchema)
	if err != nil {
		return emptyObjectSchema
	}
	return b
}

// FormatResources converts resource summaries into resource entries, one per resource, in the same order.
func FormatResources(resources []types.ResourceInfo) []types.ResourceEntry {
	entries := make([]types.ResourceEntry, 0, len(resources))
	for _, r := range resources {
		entries = append(entries, types.ResourceEntry{
			Type: types.ResourceEntryType,
			Resource: types.ResourceDescriptor{
				Name:        r.Name,
				Description: r.Description,
			},
		})
	}
	return entries
}

// BuildSystemMessage builds the system prompt advertising the given resources.
// Without resources, the prompt is just the base assistant instruction.
func BuildSystemMessage(resources []types.ResourceEntry) string {
	var b strings.Builder
	b.WriteString(systemMessageBase)
	if len(resources) == 0 {
		return b.String()
	}

	b.WriteString(resourcesPrompt)
	for _, r := range resources {
		fmt.Fprintf(&b, "- %s: %s\n", r.Resource.Name, r.Resource.Description)
	}
	b.WriteString(toolUsagePrompt)
	return b.String()
}

// BuildSystemMessageWithContents is like BuildSystemMessage but also inlines the content of each resource,
// so that the model does not need a tool call to read it.
// contents is keyed by resource name; resources without content are listed but not inlined.
func BuildSystemMessageWithContents(resources []types.ResourceEntry, contents map[string]string) string {
	msg := BuildSystemMessage(resources)
	if len(contents) == 0 {
		return msg
	}

	names := make([]string, 0, len(contents))
	for name := range contents {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(msg)
	b.WriteString(resourceContentsPrompt)
	for _, name := range names {
		fmt.Fprintf(&b, "\n### %s\n%s\n", name, contents[name])
	}
	return b.String()
}

// Tools lists and formats the tools of the source.
// Any failure is logged and results in an empty tool list.
func Tools(ctx context.Context, src Source, logger *zap.Logger) []openai.Tool {
	tools, err := src.ListTools(ctx)
	if err != nil {
		logger.Error("failed to fetch tools, continuing without them", zap.Error(err))
		return []openai.Tool{}
	}
	return FormatTools(tools)
}

// Resources lists and formats the resources of the source.
// Any failure is logged and results in an empty resource list.
func Resources(ctx context.Context, src Source, logger *zap.Logger) []types.ResourceEntry {
	resources, err := src.ListResources(ctx)
	if err != nil {
		logger.Error("failed to fetch resources, continuing without them", zap.Error(err))
		return []types.ResourceEntry{}
	}
	return FormatResources(resources)
}
