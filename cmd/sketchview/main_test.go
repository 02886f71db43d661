//go:build !js

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sketch.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
width = 400
height = 300
recycle = true

[[effects]]
name = "grayscale"
`), 0o644))

	var opts options
	cmd := newCommand(&opts)
	require.NoError(t, cmd.ParseFlags([]string{
		"--config", path, "--effect", "blur", "-e", "vignette", "--recycle=false", "--shaders", "./glsl",
	}))
	cfg, err := opts.load(cmd)
	require.NoError(t, err)

	assert.Equal(t, 400, cfg.Width)
	assert.False(t, cfg.Recycle)
	assert.Equal(t, "./glsl", cfg.ShaderDir)
	var names []string
	for _, e := range cfg.Effects {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"grayscale", "blur", "vignette"}, names)
}

func TestRecycleKeptWhenFlagUnset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sketch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recycle: true\n"), 0o644))

	var opts options
	cmd := newCommand(&opts)
	require.NoError(t, cmd.ParseFlags([]string{"-c", path}))
	cfg, err := opts.load(cmd)
	require.NoError(t, err)
	assert.True(t, cfg.Recycle)
	assert.Empty(t, cfg.Effects)
}

func TestBadConfigFails(t *testing.T) {
	var opts options
	cmd := newCommand(&opts)
	require.NoError(t, cmd.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "none.json")}))
	_, err := opts.load(cmd)
	assert.Error(t, err)
}
