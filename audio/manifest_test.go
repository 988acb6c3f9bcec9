package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/spook/registry"
)

// TestManifestRoundTrip verifies written manifests load into a registry with their options
func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	loader := lengthLoader{"a": time.Second, "b": 2 * time.Second}

	door := NewDefinition("door", NewRangeProvider(loader, zerolog.Nop(), "a", "b"))
	door.Group = "props"
	door.Options = door.Options.WithVolume(0.6).WithSpatialBlend(1)
	wind := NewDefinition("wind", NewRangeProvider(loader, zerolog.Nop(), "b"))
	wind.Options = wind.Options.WithLoop(true)

	require.NoError(t, WriteManifest(filepath.Join(dir, "sfx.toml"), "sfx", door, wind))
	require.NoError(t, WriteManifest(filepath.Join(dir, "music.toml"), "music", NewDefinition("theme", NewRangeProvider(loader, zerolog.Nop(), "a"))))

	reg := registry.New[*Definition](zerolog.Nop())
	locator := NewManifestLocator(dir, loader, zerolog.Nop())
	require.NoError(t, reg.Load(context.Background(), locator, "sfx"))
	assert.Equal(t, 2, reg.Len())

	got, err := reg.GetByGUID(door.GUID())
	require.NoError(t, err)
	assert.Equal(t, "door", got.Name())
	assert.Equal(t, "props", got.Group)
	assert.Equal(t, 0.6, got.Options.Volume)
	assert.Equal(t, 1.0, got.Options.SpatialBlend)
	assert.True(t, got.Provider.IsLoaded())
	assert.Equal(t, 2, got.Provider.Count())

	got, err = reg.GetByName("wind")
	require.NoError(t, err)
	assert.True(t, got.Options.Loop)

	reg.Dispose()
	assert.False(t, got.Provider.IsLoaded())
}

// TestManifestDefaultsAndBadFiles verifies omitted keys keep defaults and broken files are skipped
func TestManifestDefaultsAndBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.toml"), []byte(`
label = "sfx"

[[sound]]
guid = "5f0c6a8e-3f55-4a8e-9a55-0d6f3e1a7b21"
name = "bell"
clips = ["a"]
pitch = 1.25

[[sound]]
name = "anonymous"
clips = ["a"]
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.toml"), []byte("label = [unterminated"), 0o644))

	reg := registry.New[*Definition](zerolog.Nop())
	locator := NewManifestLocator(dir, lengthLoader{"a": time.Second}, zerolog.Nop())
	require.NoError(t, reg.Load(context.Background(), locator, ""))

	require.Equal(t, 1, reg.Len())
	bell, err := reg.GetByName("bell")
	require.NoError(t, err)
	assert.Equal(t, 1.25, bell.Options.Pitch)
	assert.Equal(t, 1.0, bell.Options.Volume)
	assert.Equal(t, 500.0, bell.Options.MaxDistance)
}
