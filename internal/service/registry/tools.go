package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

const (
	addToolName                 = "add"
	readResourceContentToolName = "read_resource_content"
)

// maxExactInteger is the largest magnitude an integer argument may have.
// Tool arguments are decoded into float64, which is exact only up to 2^53 - 1.
const maxExactInteger = 1<<53 - 1

type addArgs struct {
	A int64 `json:"a" jsonschema:"the first number"`
	B int64 `json:"b" jsonschema:"the second number"`
}

// typedTool pairs a tool definition with the resolved schema its arguments are validated against.
type typedTool struct {
	tool   mcp.Tool
	schema *jsonschema.Resolved
}

// newAddTool derives the input schema of the add tool from addArgs.
func newAddTool() (*typedTool, error) {
	schema, err := jsonschema.For[addArgs](nil)
	if err != nil {
		return nil, fmt.Errorf("failed to infer input schema: %w", err)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve input schema: %w", err)
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input schema: %w", err)
	}
	tool := mcp.NewToolWithRawSchema(addToolName, "Add two numbers together", raw)
	tool.Annotations = mcp.ToolAnnotation{
		ReadOnlyHint:    mcp.ToBoolPtr(true),
		DestructiveHint: mcp.ToBoolPtr(false),
		IdempotentHint:  mcp.ToBoolPtr(true),
	}
	return &typedTool{tool: tool, schema: resolved}, nil
}

func newReadResourceContentTool() mcp.Tool {
	return mcp.NewTool(
		readResourceContentToolName,
		mcp.WithDescription(
			"Read the content of a specific MCP resource by its URI "+
				"(e.g., 'data://list', 'config://app', 'greeting://user').",
		),
		mcp.WithString(
			"resource_uri",
			mcp.Required(),
			mcp.Description("The URI of the resource to read"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)
}

func (r *Registry) handleAdd(t *typedTool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := t.schema.Validate(req.GetArguments()); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments for tool %s: %v", addToolName, err)), nil
		}
		var args addArgs
		if err := req.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments for tool %s: %v", addToolName, err)), nil
		}

		for name, v := range map[string]int64{"a": args.A, "b": args.B} {
			if v > maxExactInteger || v < -maxExactInteger {
				return mcp.NewToolResultError(fmt.Sprintf(
					"invalid arguments for tool %s: %s is out of range, integers must be within +/-%d",
					addToolName, name, int64(maxExactInteger),
				)), nil
			}
		}

		// both operands are within 2^53, so the sum cannot overflow int64
		result := args.A + args.B
		r.logger.Debug("calculator tool", zap.Int64("a", args.A), zap.Int64("b", args.B), zap.Int64("result", result))
		return mcp.NewToolResultText(strconv.FormatInt(result, 10)), nil
	}
}

func (r *Registry) handleReadResourceContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uri, err := req.RequireString("resource_uri")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(r.ReadResourceContent(uri)), nil
}
