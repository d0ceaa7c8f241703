// Package llm wires up the OpenAI compatible chat completion client.
package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "gpt-4"

	// defaultRequestTimeout bounds a single completion request.
	defaultRequestTimeout = 2 * time.Minute
)

// ErrMissingAPIKey is returned when no API key is configured for the completion API.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY environment variable is required")

// ChatCompleter creates chat completions.
// It is satisfied by *openai.Client and replaced with fakes in tests.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config holds the settings of the completion API client.
type Config struct {
	APIKey string
	// BaseURL overrides the API endpoint, eg- for OpenAI compatible servers. Optional.
	BaseURL string
	// Model is the chat model to use, defaults to DefaultModel.
	Model string
}

// ModelOrDefault returns the configured model or DefaultModel.
func (c Config) ModelOrDefault() string {
	if m := strings.TrimSpace(c.Model); m != "" {
		return m
	}
	return DefaultModel
}

// NewClient creates a completion API client from the config.
func NewClient(c Config) (*openai.Client, error) {
	key := strings.TrimSpace(c.APIKey)
	if key == "" {
		return nil, ErrMissingAPIKey
	}

	conf := openai.DefaultConfig(key)
	if c.BaseURL != "" {
		conf.BaseURL = strings.TrimRight(c.BaseURL, "/")
	}
	conf.HTTPClient = &http.Client{Timeout: defaultRequestTimeout}

	return openai.NewClientWithConfig(conf), nil
}
