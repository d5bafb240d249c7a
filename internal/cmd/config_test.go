package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tribunales-evau/bundler/internal/config"
	oerrors "github.com/tribunales-evau/bundler/internal/errors"
)

func TestNewConfigInitCmd(t *testing.T) {
	c := NewConfigInitCmd(&GlobalConfig{})

	assert.Equal(t, "init", c.Use)
	assert.NotEmpty(t, c.Short)
	assert.NotEmpty(t, c.Long)
	assert.NotNil(t, c.Flags().Lookup("force"))
}

func TestConfigInit_WritesDefault(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	out, err := execute(t, "config", "init")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "bundler.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfigTemplate, string(data))
	assert.Contains(t, out, "Configuration written to")
}

func TestConfigInit_ConfigFlagPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "web", "bundler.yaml")

	_, err := execute(t, "config", "init", "-c", path)
	require.NoError(t, err)

	assert.FileExists(t, path)
}

func TestConfigInit_ExistingConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundler.yaml")
	require.NoError(t, os.WriteFile(path, []byte("# mine\n"), 0o644))

	t.Run("refuses without force", func(t *testing.T) {
		_, err := execute(t, "config", "init", "-c", path)

		assert.Equal(t, oerrors.ExitValidationError, exitCode(t, err))
		data, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		assert.Equal(t, "# mine\n", string(data))
	})

	t.Run("overwrites with force", func(t *testing.T) {
		_, err := execute(t, "config", "init", "--force", "-c", path)
		require.NoError(t, err)

		data, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		assert.Equal(t, config.DefaultConfigTemplate, string(data))
	})
}

func TestConfigVet(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantCode int
	}{
		{
			name:    "valid",
			content: projectConfig,
		},
		{
			name:     "no entry points",
			content:  "outDir: dist\n",
			wantCode: oerrors.ExitValidationError,
		},
		{
			name:     "unknown plugin",
			content:  projectConfig + "plugins:\n  - name: sass\n",
			wantCode: oerrors.ExitValidationError,
		},
		{
			name:     "malformed yaml",
			content:  "entryPoints: [\n",
			wantCode: oerrors.ExitValidationError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeProject(t, map[string]string{"bundler.yaml": tt.content})

			out, err := execute(t, "config", "vet", "-c", filepath.Join(dir, "bundler.yaml"))

			if tt.wantCode == 0 {
				require.NoError(t, err)
				assert.Contains(t, out, "Configuration is valid")
				return
			}
			assert.Equal(t, tt.wantCode, exitCode(t, err))
		})
	}
}

func TestConfigVet_MissingFile(t *testing.T) {
	_, err := execute(t, "config", "vet", "-c", filepath.Join(t.TempDir(), "bundler.yaml"))

	assert.Equal(t, oerrors.ExitNotFound, exitCode(t, err))
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)

	assert.Contains(t, out, "bundler")
	assert.Contains(t, out, "CUE SDK")
}
