// Package assistant answers natural language queries using a chat completion model and the tools of an MCP server.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcpjungle/mcpchat/internal/logging"
	"github.com/mcpjungle/mcpchat/internal/service/catalog"
	"github.com/mcpjungle/mcpchat/internal/service/llm"
	"github.com/mcpjungle/mcpchat/internal/telemetry"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	toolChoiceAuto = "auto"
	toolChoiceNone = "none"

	stageInitial = "initial"
	stageFinal   = "final"

	previewLen = 100
)

var errNoChoices = errors.New("completion response contained no choices")

// Session is the part of an MCP session the assistant needs.
type Session interface {
	catalog.Source

	Name() string
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
}

// resourceContentReader is implemented by sessions that can eagerly read all their resources.
type resourceContentReader interface {
	ResourceContents(ctx context.Context) map[string]string
}

// Config holds the dependencies of the Assistant.
type Config struct {
	Completer llm.ChatCompleter
	Model     string

	// InlineResources makes the assistant read every resource up front and include
	// the contents in the system prompt, instead of only advertising the resources.
	InlineResources bool

	Logger  *zap.Logger
	Metrics telemetry.CustomMetrics
}

// Assistant runs the query loop: one completion call, at most one round of tool calls
// and a final completion call that summarizes the tool results.
type Assistant struct {
	completer       llm.ChatCompleter
	model           string
	inlineResources bool

	logger  *zap.Logger
	metrics telemetry.CustomMetrics
}

// New creates an Assistant from the config.
func New(c *Config) *Assistant {
	a := &Assistant{
		completer:       c.Completer,
		model:           c.Model,
		inlineResources: c.InlineResources,
		logger:          c.Logger,
		metrics:         c.Metrics,
	}
	if a.model == "" {
		a.model = llm.DefaultModel
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.metrics == nil {
		a.metrics = telemetry.NewNoopCustomMetrics()
	}
	return a
}

// ProcessQuery answers the query using the tools and resources offered by the session.
// It never fails, any error is turned into an apology addressed to the user.
func (a *Assistant) ProcessQuery(ctx context.Context, session Session, query string) string {
	logger := a.logger.With(zap.String("query_id", uuid.NewString()), zap.String("server", session.Name()))
	logger.Info("processing query", zap.String("query", logging.Preview(query, previewLen)))

	answer, err := a.processQuery(ctx, logger, session, query)
	if err != nil {
		logger.Error("failed to process query", zap.Error(err))
		return fmt.Sprintf("Sorry, I encountered an error while processing your query: %v", err)
	}
	logger.Info("query processed", zap.String("answer", logging.Preview(answer, previewLen)))
	return answer
}

func (a *Assistant) processQuery(ctx context.Context, logger *zap.Logger, session Session, query string) (string, error) {
	tools := catalog.Tools(ctx, session, logger)
	resources := catalog.Resources(ctx, session, logger)
	logger.Debug("fetched catalog", zap.Int("tools", len(tools)), zap.Int("resources", len(resources)))

	systemMessage := catalog.BuildSystemMessage(resources)
	if reader, ok := session.(resourceContentReader); ok && a.inlineResources {
		systemMessage = catalog.BuildSystemMessageWithContents(resources, reader.ResourceContents(ctx))
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
		{Role: openai.ChatMessageRoleUser, Content: query},
	}

	req := openai.ChatCompletionRequest{
		Model:    a.model,
		Messages: messages,
	}
	if len(tools) > 0 {
		req.Tools = tools
		req.ToolChoice = toolChoiceAuto
	}

	reply, err := a.complete(ctx, stageInitial, req)
	if err != nil {
		return "", err
	}
	if len(reply.ToolCalls) == 0 {
		return reply.Content, nil
	}

	messages = append(messages, reply)
	for _, call := range reply.ToolCalls {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    a.dispatch(ctx, logger, session, call),
			ToolCallID: call.ID,
		})
	}

	finalReq := openai.ChatCompletionRequest{
		Model:    a.model,
		Messages: messages,
	}
	if len(tools) > 0 {
		finalReq.Tools = tools
		finalReq.ToolChoice = toolChoiceNone
	}
	final, err := a.complete(ctx, stageFinal, finalReq)
	if err != nil {
		return "", err
	}
	return final.Content, nil
}

// dispatch runs a single tool call requested by the model and returns the text to hand back to it.
// Failures are reported in-band so that the remaining tool calls still run.
func (a *Assistant) dispatch(ctx context.Context, logger *zap.Logger, session Session, call openai.ToolCall) string {
	name := call.Function.Name
	l := logger.With(zap.String("tool", name), zap.String("tool_call_id", call.ID))
	l.Info("executing tool call", zap.String("arguments", logging.Preview(call.Function.Arguments, previewLen)))

	started := time.Now()
	result, err := a.callTool(ctx, session, call)
	outcome := telemetry.ToolCallOutcomeSuccess
	if err != nil {
		outcome = telemetry.ToolCallOutcomeError
	}
	a.metrics.RecordToolCall(ctx, session.Name(), name, outcome, time.Since(started))

	if err != nil {
		l.Error("tool call failed", zap.Error(err))
		return fmt.Sprintf("Error executing tool: %v", err)
	}
	l.Info("tool call succeeded", zap.String("result", logging.Preview(result, previewLen)))
	return result
}

func (a *Assistant) callTool(ctx context.Context, session Session, call openai.ToolCall) (string, error) {
	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return "", fmt.Errorf("invalid arguments for tool %s: %w", call.Function.Name, err)
		}
	}
	return session.CallTool(ctx, call.Function.Name, args)
}

// complete sends a completion request and returns the first choice's message.
func (a *Assistant) complete(
	ctx context.Context, stage string, req openai.ChatCompletionRequest,
) (openai.ChatCompletionMessage, error) {
	started := time.Now()
	resp, err := a.completer.CreateChatCompletion(ctx, req)
	if err == nil && len(resp.Choices) == 0 {
		err = errNoChoices
	}

	outcome := telemetry.ToolCallOutcomeSuccess
	if err != nil {
		outcome = telemetry.ToolCallOutcomeError
	}
	a.metrics.RecordCompletionCall(ctx, req.Model, stage, outcome, time.Since(started))

	if err != nil {
		return openai.ChatCompletionMessage{}, fmt.Errorf("%s completion request failed: %w", stage, err)
	}
	return resp.Choices[0].Message, nil
}
