package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mcpjungle/mcpchat/internal/service/mcp"
	"github.com/mcpjungle/mcpchat/pkg/types"
	"go.uber.org/zap"
)

// withSession runs fn with a fresh in-process session to the hosted MCP server.
// If the session cannot be created, a 500 response is written and fn is not called.
func (s *Server) withSession(c *gin.Context, fn func(session *mcp.Session)) {
	session, err := mcp.NewInProcessSession(c.Request.Context(), s.serverName, s.mcpServer, s.logger)
	if err != nil {
		s.logger.Error("failed to create in-process MCP session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer func() {
		_ = session.Close()
	}()
	fn(session)
}

func (s *Server) getServerInfoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.withSession(c, func(session *mcp.Session) {
			info, err := session.ServerInfo(c.Request.Context())
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, info)
		})
	}
}

func (s *Server) invokeToolHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input types.InvokeToolRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if input.Args == nil {
			input.Args = map[string]any{}
		}

		s.withSession(c, func(session *mcp.Session) {
			result, err := session.CallTool(c.Request.Context(), input.Name, input.Args)
			if err != nil {
				c.JSON(
					http.StatusBadGateway,
					gin.H{"error": fmt.Sprintf("Error executing tool: %v", err)},
				)
				return
			}
			c.JSON(http.StatusOK, &types.InvokeToolResponse{Result: result})
		})
	}
}

func (s *Server) readResourceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		uri := c.Query("uri")
		if uri == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing 'uri' query parameter"})
			return
		}

		s.withSession(c, func(session *mcp.Session) {
			content, err := session.ReadResource(c.Request.Context(), uri)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, &types.ReadResourceResponse{URI: uri, Content: content})
		})
	}
}
