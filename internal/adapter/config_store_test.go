package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProjectConfig(t *testing.T, content string) string {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ProjectConfigFilename), []byte(content), 0o644))

	return root
}

func TestLoadProjectConfig_Full(t *testing.T) {
	root := writeProjectConfig(t, `
builder: ghdl
flags:
  global: ["--std=08"]
  single: ["--warn-unused"]
  dependencies: []
sources:
  - src/utils.vhd
  - path: src/top.vhd
    library: mylib
    flags: ["-frelaxed"]
`)

	config, err := LoadProjectConfig(root)
	require.NoError(t, err)

	assert.Equal(t, "ghdl", config.Builder)
	assert.Equal(t, []string{"--std=08"}, config.Flags.Global)
	assert.Equal(t, []string{"--warn-unused"}, config.Flags.Single)
	assert.Empty(t, config.Flags.Dependencies)

	require.Len(t, config.Sources, 2)

	// Bare string entries carry only the path.
	assert.Equal(t, "src/utils.vhd", config.Sources[0].Path)
	assert.Empty(t, config.Sources[0].Library)

	assert.Equal(t, "src/top.vhd", config.Sources[1].Path)
	assert.Equal(t, "mylib", config.Sources[1].Library)
	assert.Equal(t, []string{"-frelaxed"}, config.Sources[1].Flags)
}

func TestLoadProjectConfig_Missing(t *testing.T) {
	config, err := LoadProjectConfig(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, config.Builder)
	assert.Empty(t, config.Sources)
}

func TestLoadProjectConfig_Invalid(t *testing.T) {
	root := writeProjectConfig(t, "builder: [not, a, string]")

	_, err := LoadProjectConfig(root)
	assert.Error(t, err)
}

func TestLoadProjectConfig_SourceWithoutPath(t *testing.T) {
	root := writeProjectConfig(t, `
sources:
  - library: mylib
`)

	_, err := LoadProjectConfig(root)
	assert.Error(t, err)
}
