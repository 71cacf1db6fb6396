package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/vkcube/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vkcube.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, uint32(800), cfg.Window.StartWidth)
	assert.Equal(t, uint32(600), cfg.Window.StartHeight)
	assert.Equal(t, "shaders/vert.spv", cfg.Assets.VertexShader)
	assert.Equal(t, "shaders/frag.spv", cfg.Assets.FragmentShader)
	assert.Equal(t, "textures/texture.png", cfg.Assets.Texture)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"

[window]
title = "cube"
width = 1024

[renderer]
validation = false
rotation_step = 1.25
clear_color = [0.1, 0.2, 0.3, 1.0]
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "cube", cfg.Window.Title)
	assert.Equal(t, uint32(1024), cfg.Window.StartWidth)
	// Untouched keys keep their defaults.
	assert.Equal(t, uint32(600), cfg.Window.StartHeight)
	assert.False(t, cfg.Renderer.Validation)
	assert.Equal(t, float32(1.25), cfg.Renderer.RotationStep)
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1.0}, cfg.Renderer.ClearColor)
	assert.True(t, cfg.Renderer.WatchAssets)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
[window]
fullscreen = true
`)
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfigRejectsZeroSize(t *testing.T) {
	path := writeConfig(t, `
[window]
height = 0
`)
	_, err := LoadConfig(path)
	require.Error(t, err)
	require.True(t, errors.Is(err, core.ErrInvalidConfig))
}

func TestAssetPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Assets.Root = "/srv/cube"
	assert.Equal(t, "/srv/cube/shaders/vert.spv", cfg.AssetPath(cfg.Assets.VertexShader))
	assert.Equal(t, "/abs/tex.png", cfg.AssetPath("/abs/tex.png"))
}
