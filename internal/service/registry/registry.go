// Package registry hosts Fred, the demo MCP server: a calculator tool, a generic resource reader
// and a handful of static and templated resources.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mcpjungle/mcpchat/internal/telemetry"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	// ServerName is the name Fred advertises during the initialize handshake.
	ServerName = "Fred"

	// DefaultResourcesDir is the directory scanned for data products, relative to the working directory.
	DefaultResourcesDir = "resources"
)

// Config holds the dependencies of the registry.
// Zero values are replaced with sensible defaults by NewMCPServer.
type Config struct {
	Version string

	// Fs is the filesystem the data product lister reads from.
	Fs afero.Fs
	// ResourcesDir is the directory whose subdirectories are reported as data products.
	ResourcesDir string

	Logger  *zap.Logger
	Metrics telemetry.CustomMetrics
}

// Registry owns the handlers registered on the MCP server.
// Handlers never mutate the registry once it is built.
type Registry struct {
	fs           afero.Fs
	resourcesDir string

	logger  *zap.Logger
	metrics telemetry.CustomMetrics
}

// New creates a Registry from the given config.
func New(c *Config) *Registry {
	r := &Registry{
		fs:           c.Fs,
		resourcesDir: c.ResourcesDir,
		logger:       c.Logger,
		metrics:      c.Metrics,
	}
	if r.fs == nil {
		r.fs = afero.NewOsFs()
	}
	if r.resourcesDir == "" {
		r.resourcesDir = DefaultResourcesDir
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.metrics == nil {
		r.metrics = telemetry.NewNoopCustomMetrics()
	}
	return r
}

// NewMCPServer creates the Fred MCP server with all tools and resources registered.
func NewMCPServer(c *Config) (*server.MCPServer, error) {
	r := New(c)

	version := c.Version
	if version == "" {
		version = "0.0.1"
	}
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
	)
	if err := r.Register(s); err != nil {
		return nil, err
	}
	r.logger.Info("initialized MCP server", zap.String("name", ServerName), zap.String("version", version))
	return s, nil
}

// Register adds all of Fred's tools and resources to the given MCP server.
func (r *Registry) Register(s *server.MCPServer) error {
	addTool, err := newAddTool()
	if err != nil {
		return fmt.Errorf("failed to build add tool: %w", err)
	}
	s.AddTool(addTool.tool, r.instrument(addTool.tool.Name, r.handleAdd(addTool)))
	s.AddTool(newReadResourceContentTool(), r.instrument(readResourceContentToolName, r.handleReadResourceContent))

	s.AddResource(
		mcp.NewResource(
			configURI,
			"get_config",
			mcp.WithResourceDescription("Static configuration data"),
			mcp.WithMIMEType("text/plain"),
		),
		r.handleConfigResource,
	)
	s.AddResourceTemplate(
		mcp.NewResourceTemplate(
			greetingURITemplate,
			"get_greeting",
			mcp.WithTemplateDescription("Get a personalized greeting"),
			mcp.WithTemplateMIMEType("text/plain"),
		),
		r.handleGreetingResource,
	)
	s.AddResource(
		mcp.NewResource(
			dataListURI,
			"list_all_data_products",
			mcp.WithResourceDescription("List all available data product names"),
			mcp.WithMIMEType("text/plain"),
		),
		r.handleDataProductsResource,
	)
	return nil
}

// instrument records the outcome and latency of every call to the wrapped tool handler.
func (r *Registry) instrument(name string, h server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		started := time.Now()
		res, err := h(ctx, req)

		outcome := telemetry.ToolCallOutcomeSuccess
		if err != nil || (res != nil && res.IsError) {
			outcome = telemetry.ToolCallOutcomeError
		}
		r.metrics.RecordToolCall(ctx, ServerName, name, outcome, time.Since(started))
		return res, err
	}
}
