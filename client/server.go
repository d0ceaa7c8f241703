package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mcpjungle/mcpchat/pkg/types"
)

// Health checks whether the mcpchat host is up
func (c *Client) Health() error {
	u, err := url.JoinPath(c.baseURL, "/health")
	if err != nil {
		return fmt.Errorf("invalid base URL %s: %w", c.baseURL, err)
	}

	req, err := c.newRequest(http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", u, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}

	var health struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if health.Status != "ok" {
		return fmt.Errorf("host reported status %q", health.Status)
	}
	return nil
}

// GetMetadata fetches the name and version of the MCP server behind the mcpchat host
func (c *Client) GetMetadata() (*types.ServerMetadata, error) {
	u, err := url.JoinPath(c.baseURL, "/metadata")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %s: %w", c.baseURL, err)
	}

	req, err := c.newRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request to %s: %w", u, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var metadata types.ServerMetadata
	if err := json.NewDecoder(resp.Body).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &metadata, nil
}

// GetServerInfo fetches the tools and resources offered by the hosted MCP server
func (c *Client) GetServerInfo() (*types.ServerInfo, error) {
	u, _ := c.constructAPIEndpoint("/server")

	req, err := c.newRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request to %s: %w", u, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var info types.ServerInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &info, nil
}

// InvokeTool calls a tool of the hosted MCP server and returns its text result
func (c *Client) InvokeTool(name string, args map[string]any) (string, error) {
	u, _ := c.constructAPIEndpoint("/tools/invoke")

	body, err := json.Marshal(&types.InvokeToolRequest{Name: name, Args: args})
	if err != nil {
		return "", err
	}

	req, err := c.newRequest(http.MethodPost, u, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request to %s: %w", u, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request to %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.parseErrorResponse(resp)
	}

	var result types.InvokeToolResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Result, nil
}

// ReadResource reads the text content of a resource of the hosted MCP server
func (c *Client) ReadResource(uri string) (string, error) {
	u, _ := c.constructAPIEndpoint("/resource")
	u += "?" + url.Values{"uri": []string{uri}}.Encode()

	req, err := c.newRequest(http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request to %s: %w", u, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request to %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.parseErrorResponse(resp)
	}

	var result types.ReadResourceResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Content, nil
}
