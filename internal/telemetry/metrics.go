package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ToolCallOutcome is the result of a tool call, recorded as a metric attribute.
type ToolCallOutcome string

const (
	ToolCallOutcomeSuccess ToolCallOutcome = "success"
	ToolCallOutcomeError   ToolCallOutcome = "error"
)

// CustomMetrics records mcpchat specific metrics.
// Callers always hold a CustomMetrics, the no-op implementation is used when telemetry is disabled.
type CustomMetrics interface {
	// RecordToolCall records a single tool invocation handled (server) or dispatched (client).
	RecordToolCall(ctx context.Context, serverName, toolName string, outcome ToolCallOutcome, elapsed time.Duration)

	// RecordCompletionCall records a single request to the chat completion API.
	// stage is "initial" or "final".
	RecordCompletionCall(ctx context.Context, model, stage string, outcome ToolCallOutcome, elapsed time.Duration)
}

type noopCustomMetrics struct{}

// NewNoopCustomMetrics returns a CustomMetrics that does nothing.
func NewNoopCustomMetrics() CustomMetrics {
	return noopCustomMetrics{}
}

func (noopCustomMetrics) RecordToolCall(context.Context, string, string, ToolCallOutcome, time.Duration) {
}

func (noopCustomMetrics) RecordCompletionCall(context.Context, string, string, ToolCallOutcome, time.Duration) {
}

type otelCustomMetrics struct {
	toolCalls          metric.Int64Counter
	toolCallLatency    metric.Float64Histogram
	completionCalls    metric.Int64Counter
	completionDuration metric.Float64Histogram
}

// NewOtelCustomMetrics creates the metric instruments on the given meter.
func NewOtelCustomMetrics(meter metric.Meter) (CustomMetrics, error) {
	toolCalls, err := meter.Int64Counter(
		"mcpchat_tool_calls",
		metric.WithDescription("Number of MCP tool calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool call counter: %w", err)
	}
	toolCallLatency, err := meter.Float64Histogram(
		"mcpchat_tool_call_duration",
		metric.WithDescription("Latency of MCP tool calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool call histogram: %w", err)
	}
	completionCalls, err := meter.Int64Counter(
		"mcpchat_completion_calls",
		metric.WithDescription("Number of chat completion API calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create completion call counter: %w", err)
	}
	completionDuration, err := meter.Float64Histogram(
		"mcpchat_completion_call_duration",
		metric.WithDescription("Latency of chat completion API calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create completion call histogram: %w", err)
	}

	return &otelCustomMetrics{
		toolCalls:          toolCalls,
		toolCallLatency:    toolCallLatency,
		completionCalls:    completionCalls,
		completionDuration: completionDuration,
	}, nil
}

func (m *otelCustomMetrics) RecordToolCall(
	ctx context.Context, serverName, toolName string, outcome ToolCallOutcome, elapsed time.Duration,
) {
	attrs := metric.WithAttributes(
		attribute.String("server", serverName),
		attribute.String("tool", toolName),
		attribute.String("outcome", string(outcome)),
	)
	m.toolCalls.Add(ctx, 1, attrs)
	m.toolCallLatency.Record(ctx, elapsed.Seconds(), attrs)
}

func (m *otelCustomMetrics) RecordCompletionCall(
	ctx context.Context, model, stage string, outcome ToolCallOutcome, elapsed time.Duration,
) {
	attrs := metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("stage", stage),
		attribute.String("outcome", string(outcome)),
	)
	m.completionCalls.Add(ctx, 1, attrs)
	m.completionDuration.Record(ctx, elapsed.Seconds(), attrs)
}
