package audio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseTone verifies tone reference parsing
func TestParseTone(t *testing.T) {
	freq, dur, wave, err := ParseTone("tone:440:0.5")
	require.NoError(t, err)
	assert.Equal(t, 440.0, freq)
	assert.Equal(t, 500*time.Millisecond, dur)
	assert.Equal(t, WaveSine, wave)

	_, _, wave, err = ParseTone("tone:220:1:saw")
	require.NoError(t, err)
	assert.Equal(t, WaveSaw, wave)

	for _, bad := range []string{"440:0.5", "tone:abc:1", "tone:440", "tone:440:-1", "tone:440:1:organ"} {
		_, _, _, err := ParseTone(bad)
		assert.Error(t, err, bad)
	}
}

// TestToneLoaderRendersAndCaches verifies rendered length and cache sharing
func TestToneLoaderRendersAndCaches(t *testing.T) {
	loader := NewToneLoader(8000)
	ctx := context.Background()

	clip, err := loader.LoadClip(ctx, "tone:440:0.25:square")
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, clip.Length)
	require.NotNil(t, clip.Buffer)
	assert.Equal(t, 2000, clip.Buffer.Len())

	again, err := loader.LoadClip(ctx, "tone:440:0.25:square")
	require.NoError(t, err)
	assert.Same(t, clip, again)

	loader.ReleaseClip(clip)
	assert.Equal(t, 1, loader.cache.len())
	loader.ReleaseClip(again)
	assert.Zero(t, loader.cache.len())
}

// TestWaveStreamerEndsAtDuration verifies the generator stops after its sample count
func TestWaveStreamerEndsAtDuration(t *testing.T) {
	gen := waveStreamer(100, 10*time.Millisecond, WaveSaw, 1000)
	buf := make([][2]float64, 64)

	n, ok := gen.Stream(buf)
	assert.Equal(t, 10, n)
	assert.True(t, ok)
	// Saw at 100Hz over 1kHz climbs 0.2 per sample from -1
	assert.InDelta(t, -1.0, buf[0][0], 1e-9)
	assert.InDelta(t, -0.8, buf[1][1], 1e-9)

	n, ok = gen.Stream(buf)
	assert.Zero(t, n)
	assert.False(t, ok)
}

// TestWaveAtShapes checks each shape at a quarter period
func TestWaveAtShapes(t *testing.T) {
	assert.InDelta(t, 1.0, waveAt(WaveSine, 0.25), 1e-9)
	assert.Equal(t, 1.0, waveAt(WaveSquare, 0.25))
	assert.Equal(t, -1.0, waveAt(WaveSquare, 0.75))
	assert.InDelta(t, -0.5, waveAt(WaveSaw, 0.25), 1e-9)
	v := waveAt(WaveNoise, 0.25)
	assert.True(t, v >= -1 && v <= 1)
}
