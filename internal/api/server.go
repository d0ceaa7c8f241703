// Package api hosts the mcpchat MCP server over HTTP: the SSE transport plus a small REST API.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mcpjungle/mcpchat/internal/telemetry"
	"github.com/mcpjungle/mcpchat/pkg/types"
	"github.com/mcpjungle/mcpchat/pkg/version"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	V0PathPrefix    = "/v0"
	V0ApiPathPrefix = "/api" + V0PathPrefix
)

// shutdownTimeout bounds the graceful shutdown of the HTTP server.
const shutdownTimeout = 10 * time.Second

type ServerOptions struct {
	// Port is the HTTP port to bind the server to
	Port string

	// MCPServer is the MCP server exposed over the SSE transport and the REST API.
	MCPServer *server.MCPServer
	// ServerName is the name reported by the metadata endpoint.
	ServerName string

	// AccessToken, if set, must be sent by clients in the `Authorization: Bearer {token}` header
	// to access the MCP endpoints and the API.
	AccessToken string

	OtelProviders *telemetry.Providers
	Logger        *zap.Logger
}

// Server is the HTTP host of the mcpchat MCP server
type Server struct {
	port   string
	router *gin.Engine

	httpServer *http.Server

	mcpServer  *server.MCPServer
	sseServer  *server.SSEServer
	serverName string

	accessToken string

	otelProviders *telemetry.Providers
	logger        *zap.Logger
}

// NewServer initializes a new Gin server hosting the given MCP server
func NewServer(opts *ServerOptions) (*Server, error) {
	if opts.MCPServer == nil {
		return nil, errors.New("an MCP server is required")
	}

	s := &Server{
		port:          opts.Port,
		mcpServer:     opts.MCPServer,
		serverName:    opts.ServerName,
		accessToken:   opts.AccessToken,
		otelProviders: opts.OtelProviders,
		logger:        opts.Logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	s.httpServer = &http.Server{
		Addr:              ":" + s.port,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// the SSE server owns the http server so that shutting it down also ends the open event streams
	s.sseServer = server.NewSSEServer(s.mcpServer, server.WithHTTPServer(s.httpServer))

	r, err := s.setupRouter()
	if err != nil {
		return nil, err
	}
	s.router = r
	s.httpServer.Handler = r

	return s, nil
}

// Handler returns the http handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server until ctx is cancelled, then shuts it down gracefully.
func (s *Server) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to run the server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.sseServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down the server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// setupRouter sets up the Gin router with the MCP SSE transport and API endpoints.
func (s *Server) setupRouter() (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	// if otel is enabled, setup prometheus metrics endpoint
	if s.otelProviders != nil && s.otelProviders.IsEnabled() {
		// instrument gin
		r.Use(otelgin.Middleware(s.otelProviders.ServiceName()))

		// expose prometheus metrics endpoint
		r.GET("/metrics", gin.WrapH(s.otelProviders.Handler()))
	}

	r.GET(
		"/health",
		func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		},
	)

	r.GET(
		"/metadata",
		func(c *gin.Context) {
			m := &types.ServerMetadata{
				Name:    s.serverName,
				Version: version.GetVersion(),
			}
			c.JSON(http.StatusOK, m)
		},
	)

	// Set up the SSE transport of the MCP server
	r.GET(
		"/sse",
		s.checkAuthForMcpAccess(),
		gin.WrapH(s.sseServer.SSEHandler()),
	)
	r.POST(
		"/message",
		s.checkAuthForMcpAccess(),
		gin.WrapH(s.sseServer.MessageHandler()),
	)

	apiV0 := r.Group(V0ApiPathPrefix, s.checkAuthForMcpAccess())
	{
		apiV0.GET("/server", s.getServerInfoHandler())
		apiV0.POST("/tools/invoke", s.invokeToolHandler())
		apiV0.GET("/resource", s.readResourceHandler())
	}

	return r, nil
}
