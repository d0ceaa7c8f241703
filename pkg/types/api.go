package types

// InvokeToolRequest is the body of a tool invocation request to the mcpchat HTTP host.
type InvokeToolRequest struct {
	Name string         `json:"name" binding:"required"`
	Args map[string]any `json:"args,omitempty"`
}

// InvokeToolResponse is the result of a successful tool invocation.
type InvokeToolResponse struct {
	Result string `json:"result"`
}

// ReadResourceResponse carries the text content of a resource.
type ReadResourceResponse struct {
	URI     string `json:"uri"`
	Content string `json:"content"`
}
