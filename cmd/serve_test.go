package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandStructure(t *testing.T) {
	tests := []struct {
		cmd       *cobra.Command
		use       string
		group     subCommandGroup
		order     string
		connFlags bool
	}{
		{serveCmd, "serve", subCommandGroupBasic, "1", false},
		{askCmd, "ask [query]", subCommandGroupBasic, "2", true},
		{infoCmd, "info", subCommandGroupBasic, "3", true},
		{callCmd, "call <tool>", subCommandGroupBasic, "4", true},
		{readCmd, "read <uri>", subCommandGroupBasic, "5", true},
		{usageCmd, "usage <tool>", subCommandGroupBasic, "6", true},
		{pingCmd, "ping", subCommandGroupAdvanced, "1", true},
		{statusCmd, "status", subCommandGroupAdvanced, "2", false},
		{examplesCmd, "examples", subCommandGroupAdvanced, "3", true},
		{versionCmd, "version", subCommandGroupAdvanced, "4", false},
	}
	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short)
			assert.Equal(t, string(tt.group), tt.cmd.Annotations["group"])
			assert.Equal(t, tt.order, tt.cmd.Annotations["order"])
			assert.Same(t, rootCmd, tt.cmd.Parent())

			for _, f := range []string{"server-command", "server-arg", "server-env", "url", "bearer-token", "timeout", "config"} {
				if tt.connFlags {
					assert.NotNil(t, tt.cmd.Flags().Lookup(f), "flag --%s", f)
				} else {
					assert.Nil(t, tt.cmd.Flags().Lookup(f), "flag --%s", f)
				}
			}
		})
	}
}

func TestOrganizeCommands(t *testing.T) {
	organizeCommands(rootCmd)

	var names []string
	for _, c := range rootCmd.Commands() {
		if _, ok := c.Annotations["group"]; !ok {
			continue
		}
		assert.Equal(t, c.Annotations["group"], c.GroupID)
		names = append(names, c.Name())
	}
	assert.Equal(
		t,
		[]string{"serve", "ask", "info", "call", "read", "usage", "ping", "status", "examples", "version"},
		names,
	)
}

func TestGetBindPort(t *testing.T) {
	serveCmdBindPort = ""
	t.Setenv(BindPortEnvVar, "")
	assert.Equal(t, BindPortDefault, getBindPort())

	t.Setenv(BindPortEnvVar, "9000")
	assert.Equal(t, "9000", getBindPort())

	serveCmdBindPort = "9100"
	defer func() { serveCmdBindPort = "" }()
	assert.Equal(t, "9100", getBindPort())
}

func TestGetResourcesDir(t *testing.T) {
	serveCmdResourcesDir = ""
	t.Setenv(ResourcesDirEnvVar, "")
	assert.Equal(t, "resources", getResourcesDir())

	t.Setenv(ResourcesDirEnvVar, "/srv/data")
	assert.Equal(t, "/srv/data", getResourcesDir())

	serveCmdResourcesDir = "./products"
	defer func() { serveCmdResourcesDir = "" }()
	assert.Equal(t, "./products", getResourcesDir())
}

func TestIsTelemetryEnabled(t *testing.T) {
	tests := []struct {
		env     string
		want    bool
		wantErr bool
	}{
		{"", false, false},
		{"true", true, false},
		{"TRUE", true, false},
		{"1", true, false},
		{"false", false, false},
		{"0", false, false},
		{"maybe", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(TelemetryEnabledEnvVar, tt.env)
			got, err := isTelemetryEnabled()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetEnvOrFile(t *testing.T) {
	const envVar = "MCPCHAT_TEST_SECRET"
	path := filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(path, []byte("from-file\n"), 0o600))

	t.Setenv(envVar, "")
	t.Setenv(envVar+"_FILE", "")
	v, err := getEnvOrFile(envVar)
	require.NoError(t, err)
	assert.Empty(t, v)

	t.Setenv(envVar+"_FILE", path)
	v, err = getEnvOrFile(envVar)
	require.NoError(t, err)
	assert.Equal(t, "from-file", v)

	t.Setenv(envVar, "from-env")
	v, err = getEnvOrFile(envVar)
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)

	t.Setenv(envVar, "")
	t.Setenv(envVar+"_FILE", filepath.Join(t.TempDir(), "missing"))
	_, err = getEnvOrFile(envVar)
	assert.Error(t, err)
}

func TestGetAccessToken(t *testing.T) {
	var out bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&out)

	t.Setenv(AccessTokenEnvVar+"_FILE", "")
	defer func() { serveCmdGenerateToken = false }()

	t.Run("not configured", func(t *testing.T) {
		t.Setenv(AccessTokenEnvVar, "")
		serveCmdGenerateToken = false
		token, err := getAccessToken(c)
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("from env", func(t *testing.T) {
		t.Setenv(AccessTokenEnvVar, "a-valid-token")
		token, err := getAccessToken(c)
		require.NoError(t, err)
		assert.Equal(t, "a-valid-token", token)
	})

	t.Run("invalid token in env", func(t *testing.T) {
		t.Setenv(AccessTokenEnvVar, "has whitespace")
		_, err := getAccessToken(c)
		assert.Error(t, err)
	})

	t.Run("generated", func(t *testing.T) {
		t.Setenv(AccessTokenEnvVar, "")
		serveCmdGenerateToken = true
		out.Reset()
		token, err := getAccessToken(c)
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Contains(t, out.String(), token)
	})
}

func TestVersionCommand(t *testing.T) {
	resetFlags()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "mcpchat ")
}
