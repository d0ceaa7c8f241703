// Package config loads the optional YAML configuration file of the mcpchat client.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/mcpjungle/mcpchat/pkg/types"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// LLMConfig holds the completion API settings that may be set in the config file.
// The API key is deliberately not part of the file, it must come from the environment.
type LLMConfig struct {
	Model   string `yaml:"model,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// File is the content of an mcpchat configuration file, eg-
//
//	server:
//	  name: fred
//	  transport: stdio
//	  command: mcpchat
//	  args: ["serve"]
//	llm:
//	  model: gpt-4
//	init_timeout_sec: 30
type File struct {
	Server types.ServerInput `yaml:"server"`
	LLM    LLMConfig         `yaml:"llm,omitempty"`

	// InitTimeoutSec bounds the initialize handshake with the server, in seconds.
	InitTimeoutSec int `yaml:"init_timeout_sec,omitempty"`

	// InlineResources makes the assistant include the content of all resources in its system prompt.
	InlineResources bool `yaml:"inline_resources,omitempty"`
}

// Load reads and validates the configuration file at path.
func Load(fsys afero.Fs, path string) (*File, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s does not exist", path)
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates the YAML content of a configuration file.
// Unknown keys are rejected to surface typos early.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	if _, err := types.ValidateTransport(f.Server.Transport); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	if f.InitTimeoutSec < 0 {
		return fmt.Errorf("init_timeout_sec must not be negative, got %d", f.InitTimeoutSec)
	}
	return nil
}
