package config

import (
	"testing"

	"github.com/mcpjungle/mcpchat/pkg/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  name: fred
  transport: stdio
  command: mcpchat
  args: ["serve", "--resources-dir", "/srv/products"]
  env:
    LOG_LEVEL: debug
llm:
  model: gpt-4o-mini
  base_url: http://localhost:11434/v1
init_timeout_sec: 15
inline_resources: true
`

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/mcpchat.yaml", []byte(sampleConfig), 0o644))

	f, err := Load(fs, "/etc/mcpchat.yaml")
	require.NoError(t, err)

	assert.Equal(t, types.ServerInput{
		Name:      "fred",
		Transport: "stdio",
		Command:   "mcpchat",
		Args:      []string{"serve", "--resources-dir", "/srv/products"},
		Env:       map[string]string{"LOG_LEVEL": "debug"},
	}, f.Server)
	assert.Equal(t, LLMConfig{Model: "gpt-4o-mini", BaseURL: "http://localhost:11434/v1"}, f.LLM)
	assert.Equal(t, 15, f.InitTimeoutSec)
	assert.True(t, f.InlineResources)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "empty document", input: ""},
		{name: "sse server", input: "server:\n  transport: sse\n  url: http://localhost:8050/sse\n"},
		{name: "unknown key", input: "server:\n  comand: typo\n", wantErr: "failed to parse config file"},
		{name: "bad transport", input: "server:\n  transport: http\n", wantErr: "acceptable values"},
		{name: "negative timeout", input: "init_timeout_sec: -1\n", wantErr: "must not be negative"},
		{name: "not yaml", input: "server: [", wantErr: "failed to parse config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, f)
		})
	}
}
