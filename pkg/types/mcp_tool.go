package types

// ToolInfo is the client-side summary of a tool exposed by an MCP server.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ResourceInfo is the client-side summary of a resource exposed by an MCP server.
// For templated resources, URI holds the URI template (eg- greeting://{name}).
type ResourceInfo struct {
	Name        string `json:"name"`
	URI         string `json:"uri"`
	Description string `json:"description"`

	// Templated is true when URI is a template that must be expanded before it can be read.
	Templated bool `json:"templated,omitempty"`
}

// ServerInfo is a snapshot of the catalog offered by a connected MCP server.
type ServerInfo struct {
	Tools     []ToolInfo     `json:"tools"`
	Resources []ResourceInfo `json:"resources"`
}

// ResourceDescriptor is the name & description pair forwarded to the completion API.
type ResourceDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ResourceEntry is a resource formatted for the chat completion request, ie,
// {"type": "resource", "resource": {"name": ..., "description": ...}}
type ResourceEntry struct {
	Type     string             `json:"type"`
	Resource ResourceDescriptor `json:"resource"`
}

// ResourceEntryType is the value of ResourceEntry.Type
const ResourceEntryType = "resource"
