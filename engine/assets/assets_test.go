package assets

import (
	"context"
	"encoding/binary"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetermineAssetType(t *testing.T) {
	cases := map[string]ResourceType{
		"shaders/vert.spv":    ResourceTypeShader,
		"textures/a.png":      ResourceTypeImage,
		"textures/a.JPG":      ResourceTypeImage,
		"textures/a.webp":     ResourceTypeImage,
		"textures/a.bmp":      ResourceTypeImage,
		"shaders/shader.vert": ResourceTypeNone,
		"README":              ResourceTypeNone,
	}
	for path, want := range cases {
		assert.Equal(t, want, DetermineAssetType(path), path)
	}
}

func TestTrackRejectsUnknownType(t *testing.T) {
	am, err := NewAssetManager()
	require.NoError(t, err)
	defer am.Close()

	require.Error(t, am.Track(filepath.Join(t.TempDir(), "notes.txt")))
}

func TestWatcherReportsTrackedFiles(t *testing.T) {
	dir := t.TempDir()
	tracked := filepath.Join(dir, "frag.spv")
	other := filepath.Join(dir, "other.spv")
	require.NoError(t, os.WriteFile(tracked, []byte{0}, 0o644))

	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Track(tracked))
	am.Start()

	require.NoError(t, os.WriteFile(other, []byte{1}, 0o644))
	require.NoError(t, os.WriteFile(tracked, []byte{1, 2}, 0o644))

	var got AssetChange
	require.Eventually(t, func() bool {
		select {
		case got = <-am.Changes():
			return true
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	abs, _ := filepath.Abs(tracked)
	assert.Equal(t, abs, got.Path)
	assert.Equal(t, ResourceTypeShader, got.Type)

	require.NoError(t, am.Close())
	for c := range am.Changes() {
		assert.Equal(t, abs, c.Path, "untracked files must not be reported")
	}
}

func TestCloseWithoutStart(t *testing.T) {
	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Close())
	require.NoError(t, am.Close())
	_, open := <-am.Changes()
	assert.False(t, open)
}

func writeSPIRV(t *testing.T, path string) {
	t.Helper()
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b, 0x07230203)
	require.NoError(t, os.WriteFile(path, b, 0o644))
}

func TestLoadStartupAssets(t *testing.T) {
	dir := t.TempDir()
	vert := filepath.Join(dir, "vert.spv")
	frag := filepath.Join(dir, "frag.spv")
	tex := filepath.Join(dir, "texture.png")
	writeSPIRV(t, vert)
	writeSPIRV(t, frag)

	f, err := os.Create(tex)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	require.NoError(t, f.Close())

	out, err := LoadStartupAssets(context.Background(), vert, frag, tex)
	require.NoError(t, err)
	assert.Len(t, out.Shaders.Vertex, 2)
	assert.Len(t, out.Shaders.Fragment, 2)
	assert.Equal(t, 4, out.Texture.Bounds().Dx())
}

func TestLoadStartupAssetsMissingTexture(t *testing.T) {
	dir := t.TempDir()
	vert := filepath.Join(dir, "vert.spv")
	frag := filepath.Join(dir, "frag.spv")
	writeSPIRV(t, vert)
	writeSPIRV(t, frag)

	_, err := LoadStartupAssets(context.Background(), vert, frag, filepath.Join(dir, "missing.png"))
	require.Error(t, err)
}
