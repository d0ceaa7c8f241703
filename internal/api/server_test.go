package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mcpjungle/mcpchat/internal/service/registry"
	"github.com/mcpjungle/mcpchat/internal/telemetry"
	"github.com/mcpjungle/mcpchat/pkg/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "test-access-token"

func newTestServer(t *testing.T, token string, providers *telemetry.Providers) *Server {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("resources/sales", 0o755))

	mcpServer, err := registry.NewMCPServer(&registry.Config{Fs: fs})
	require.NoError(t, err)

	s, err := NewServer(&ServerOptions{
		Port:          "0",
		MCPServer:     mcpServer,
		ServerName:    registry.ServerName,
		AccessToken:   token,
		OtelProviders: providers,
	})
	require.NoError(t, err)
	return s
}

func doRequest(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestNewServerRequiresMCPServer(t *testing.T) {
	_, err := NewServer(&ServerOptions{Port: "0"})
	assert.Error(t, err)
}

func TestHealthAndMetadata(t *testing.T) {
	s := newTestServer(t, testToken, nil)

	w := doRequest(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = doRequest(t, s, http.MethodGet, "/metadata", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var m types.ServerMetadata
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.Equal(t, "Fred", m.Name)
	assert.NotEmpty(t, m.Version)

	// metrics are not exposed when telemetry is disabled
	w = doRequest(t, s, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAccessTokenGuard(t *testing.T) {
	s := newTestServer(t, testToken, nil)

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"wrong token", "not-the-token", http.StatusUnauthorized},
		{"valid token", testToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, s, http.MethodGet, V0ApiPathPrefix+"/server", tt.token, nil)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	t.Run("sse endpoint is guarded", func(t *testing.T) {
		w := doRequest(t, s, http.MethodGet, "/sse", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("no token configured", func(t *testing.T) {
		open := newTestServer(t, "", nil)
		w := doRequest(t, open, http.MethodGet, V0ApiPathPrefix+"/server", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetServerInfo(t *testing.T) {
	s := newTestServer(t, "", nil)

	w := doRequest(t, s, http.MethodGet, V0ApiPathPrefix+"/server", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var info types.ServerInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Len(t, info.Tools, 2)
	assert.Len(t, info.Resources, 3)
}

func TestInvokeTool(t *testing.T) {
	s := newTestServer(t, "", nil)
	path := V0ApiPathPrefix + "/tools/invoke"

	w := doRequest(t, s, http.MethodPost, path, "", types.InvokeToolRequest{
		Name: "add",
		Args: map[string]any{"a": 5, "b": 3},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result":"8"}`, w.Body.String())

	w = doRequest(t, s, http.MethodPost, path, "", types.InvokeToolRequest{
		Name: "read_resource_content",
		Args: map[string]any{"resource_uri": "greeting://Ann"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result":"Hello, Ann!"}`, w.Body.String())

	w = doRequest(t, s, http.MethodPost, path, "", types.InvokeToolRequest{Name: "add", Args: map[string]any{"a": 1}})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Error executing tool")

	w = doRequest(t, s, http.MethodPost, path, "", map[string]any{"args": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReadResource(t *testing.T) {
	s := newTestServer(t, "", nil)

	w := doRequest(t, s, http.MethodGet, V0ApiPathPrefix+"/resource?uri=data://list", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res types.ReadResourceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, types.ReadResourceResponse{URI: "data://list", Content: "Available Data Products:\n- sales"}, res)

	w = doRequest(t, s, http.MethodGet, V0ApiPathPrefix+"/resource", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, s, http.MethodGet, V0ApiPathPrefix+"/resource?uri=foo://bar", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ctx := context.Background()
	providers, err := telemetry.Init(ctx, &telemetry.Config{ServiceName: "mcpchat-test", Enabled: true})
	require.NoError(t, err)
	defer func() { _ = providers.Shutdown(ctx) }()

	s := newTestServer(t, "", providers)
	doRequest(t, s, http.MethodGet, "/health", "", nil)

	w := doRequest(t, s, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestStartStopsWhenContextIsCancelled(t *testing.T) {
	s := newTestServer(t, "", nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Start(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + 5*time.Second):
		t.Fatal("server did not shut down")
	}
}
