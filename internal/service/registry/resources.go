package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	configURI           = "config://app"
	greetingURITemplate = "greeting://{name}"
	greetingURIPrefix   = "greeting://"
	dataListURI         = "data://list"

	// aliases accepted by read_resource_content, named after the resource functions
	configAliasURI   = "config://get_config"
	dataListAliasURI = "data://list_all_data_products"

	configContent = "App configuration here"
)

// ReadResourceContent resolves a resource URI to its text content.
// It never fails: unknown URIs and read errors are reported as text so the model can relay them.
func (r *Registry) ReadResourceContent(uri string) (content string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic while reading resource", zap.String("uri", uri), zap.Any("panic", rec))
			content = fmt.Sprintf("Error reading resource %s: %v", uri, rec)
		}
	}()

	switch {
	case uri == dataListURI || uri == dataListAliasURI:
		return r.ListDataProducts()
	case uri == configURI || uri == configAliasURI:
		return configContent
	case strings.HasPrefix(uri, greetingURIPrefix):
		return greeting(strings.TrimPrefix(uri, greetingURIPrefix))
	default:
		return fmt.Sprintf("Unknown resource URI: %s", uri)
	}
}

// ListDataProducts reports the subdirectories of the resources directory, sorted by name.
func (r *Registry) ListDataProducts() string {
	entries, err := afero.ReadDir(r.fs, r.resourcesDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "Resources directory not found."
		}
		r.logger.Error("failed to read resources directory", zap.String("dir", r.resourcesDir), zap.Error(err))
		return fmt.Sprintf("Error accessing data products: %v", err)
	}

	var products []string
	for _, e := range entries {
		if e.IsDir() {
			products = append(products, e.Name())
		}
	}
	if len(products) == 0 {
		return "No data products found in the resources directory."
	}
	sort.Strings(products)

	var b strings.Builder
	b.WriteString("Available Data Products:")
	for _, p := range products {
		b.WriteString("\n- ")
		b.WriteString(p)
	}
	return b.String()
}

func greeting(name string) string {
	return fmt.Sprintf("Hello, %s!", name)
}

func textContents(uri, text string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     text,
		},
	}
}

func (r *Registry) handleConfigResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return textContents(req.Params.URI, configContent), nil
}

func (r *Registry) handleGreetingResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	name := strings.TrimPrefix(req.Params.URI, greetingURIPrefix)
	if name == "" {
		return nil, fmt.Errorf("greeting resource requires a name: %s", req.Params.URI)
	}
	return textContents(req.Params.URI, greeting(name)), nil
}

func (r *Registry) handleDataProductsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return textContents(req.Params.URI, r.ListDataProducts()), nil
}
