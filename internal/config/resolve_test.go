package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/mcp2serial/internal/config"
)

func TestFileName(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"":                 "config.yaml",
		"default":          "config.yaml",
		"Pico":             "Pico_config.yaml",
		"Pico_config.yaml": "Pico_config.yaml",
		"bench.yml":        "bench.yml",
		"custom.YAML":      "custom.YAML",
		"./boards/esp32":   "./boards/esp32_config.yaml",
	}
	for in, want := range tests {
		assert.Equal(t, want, config.FileName(in), in)
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()
	first := t.TempDir()
	second := t.TempDir()
	writeConfig(t, second, "Pico_config.yaml", "")
	writeConfig(t, second, "config.yaml", "")
	writeConfig(t, first, "config.yaml", "")

	path, err := config.Resolve("Pico", []string{first, second})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(second, "Pico_config.yaml"), path)

	path, err = config.Resolve("default", []string{first, second})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(first, "config.yaml"), path, "earlier directories win")

	_, err = config.Resolve("ESP32", []string{first, second})
	assert.ErrorIs(t, err, config.ErrFileNotFound)
}

func TestResolve_ExplicitPath(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeConfig(t, dir, "bench.yaml", "")

	got, err := config.Resolve(path, nil)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	_, err = config.Resolve(filepath.Join(dir, "missing.yaml"), nil)
	assert.ErrorIs(t, err, config.ErrFileNotFound)
}

func TestResolve_SkipsDirectories(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "config.yaml"), 0o755))

	_, err := config.Resolve("", []string{dir})
	assert.ErrorIs(t, err, config.ErrFileNotFound)
}

func TestSearchDirs(t *testing.T) {
	t.Parallel()
	dirs := config.SearchDirs()
	require.NotEmpty(t, dirs)
	assert.Equal(t, ".", dirs[0])
	assert.Equal(t, "/etc/mcp2serial", dirs[len(dirs)-1])
}
