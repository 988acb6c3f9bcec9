package audio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestReleaseThenLeaseIsClean verifies a re-leased handle carries nothing from its last owner
func TestReleaseThenLeaseIsClean(t *testing.T) {
	f := newFixture(t, 0)
	h := f.pool.Lease()
	h.SetKeepAlive(true)
	h.SetContinuation(func() {})
	h.SetOnEnd(func() {})
	h.SetFadeIn(time.Second, CurveLogarithmic)
	h.SetFadeOut(time.Second, CurveLinear)

	f.pool.Release(h)
	f.pool.Release(h)
	leased, available := f.pool.Stats()
	assert.Zero(t, leased)
	assert.Equal(t, 1, available)
	assert.Equal(t, HandleReleased, h.State())

	again := f.pool.Lease()
	require.Same(t, h, again)
	assert.Equal(t, HandleIdle, again.State())
	assert.False(t, again.keepAlive)
	assert.Nil(t, again.continuation)
	assert.Nil(t, again.onEnd)
	assert.False(t, again.fadeInSpec.set)
	assert.False(t, again.fadeOutSpec.set)
	assert.False(t, again.fired)
	assert.Nil(t, again.owner)
}

// TestSoftMaxDestroysSurplus verifies handles beyond capacity are destroyed on release
func TestSoftMaxDestroysSurplus(t *testing.T) {
	f := newFixture(t, 2)
	handles := []*Handle{f.pool.Lease(), f.pool.Lease(), f.pool.Lease()}
	assert.Equal(t, 3, f.backend.Live())

	for _, h := range handles {
		f.pool.Release(h)
	}

	leased, available := f.pool.Stats()
	assert.Zero(t, leased)
	assert.Equal(t, 2, available)
	assert.Equal(t, 2, f.backend.Live())
	assert.Equal(t, int64(1), f.status.Ints.Get("audio.pool.destroyed").Load())
	assert.Equal(t, int64(3), f.status.Ints.Get("audio.pool.created").Load())
}

// TestClearInvalidatesReferences verifies references observe destroyed handles
func TestClearInvalidatesReferences(t *testing.T) {
	f := newFixture(t, 0)
	playing := f.lease(t)
	idle := f.lease(t)
	require.NoError(t, playing.Play())
	spare := f.pool.Lease()
	f.pool.Release(spare)

	f.pool.Clear()

	assert.False(t, playing.IsValid())
	assert.False(t, idle.IsValid())
	assert.False(t, playing.IsPlaying())
	assert.Zero(t, f.backend.Live())
	leased, available := f.pool.Stats()
	assert.Zero(t, leased+available)

	// Disposing afterwards is harmless
	playing.Dispose()
	assert.Equal(t, RefKilled, playing.State())
	assert.True(t, errors.Is(idle.Play(), ErrReleased))
}

// TestDisposePendingReference verifies a never-started reference dies cleanly
func TestDisposePendingReference(t *testing.T) {
	f := newFixture(t, 0)
	job := f.def.Provider.CreateJob(f.def)

	ref := f.pool.Reserve(job)
	assert.True(t, ref.IsPending())
	assert.True(t, ref.IsValid())

	ref.Dispose()
	assert.Equal(t, RefKilled, ref.State())
	assert.False(t, ref.IsValid())

	err := f.pool.Fulfil(ref, nil)
	assert.True(t, errors.Is(err, ErrKilled))
	leased, _ := f.pool.Stats()
	assert.Zero(t, leased)
}

// TestDisposeDuringLease verifies a handle leased for a reference killed mid-lease is returned
func TestDisposeDuringLease(t *testing.T) {
	f := newFixture(t, 0)
	job := f.def.Provider.CreateJob(f.def)
	ref := f.pool.Reserve(job)

	err := f.pool.Fulfil(ref, func(h *Handle) error {
		ref.Dispose()
		return f.def.Provider.Apply(h, job)
	})
	assert.True(t, errors.Is(err, ErrKilled))
	assert.Equal(t, RefKilled, ref.State())
	assert.Nil(t, ref.Handle())

	leased, available := f.pool.Stats()
	assert.Zero(t, leased)
	assert.Equal(t, 1, available)
}

// TestDisposeIdempotent verifies repeated Dispose releases once
func TestDisposeIdempotent(t *testing.T) {
	f := newFixture(t, 0)
	ref := f.lease(t)
	require.NoError(t, ref.Play())

	ref.Dispose()
	ref.Dispose()

	leased, available := f.pool.Stats()
	assert.Zero(t, leased)
	assert.Equal(t, 1, available)
	assert.True(t, errors.Is(ref.Play(), ErrKilled))
}

// TestStopKeepsKeptAliveHandle verifies Stop idles a kept-alive handle without releasing it
func TestStopKeepsKeptAliveHandle(t *testing.T) {
	f := newFixture(t, 0)
	ref := f.lease(t)
	ref.Handle().SetKeepAlive(true)
	fired := false
	ref.Handle().SetContinuation(func() { fired = true })

	require.NoError(t, ref.Play())
	f.tick(2, 100*time.Millisecond)
	ref.Stop()

	assert.Equal(t, HandleIdle, ref.Handle().State())
	assert.True(t, ref.IsValid())
	assert.False(t, fired)
}

// TestPostRunsOnTick verifies posted work waits for the tick
func TestPostRunsOnTick(t *testing.T) {
	f := newFixture(t, 0)
	ran := 0
	f.pool.Post(func() { ran++ })
	assert.Zero(t, ran)

	f.pool.Tick(time.Millisecond)
	f.pool.Tick(time.Millisecond)
	assert.Equal(t, 1, ran)
	assert.Equal(t, int64(2), f.status.Ints.Get("audio.pool.ticks").Load())
}

// TestStatsPublished verifies lease counts reach the status registry
func TestStatsPublished(t *testing.T) {
	f := newFixture(t, 0)
	h := f.pool.Lease()
	f.pool.Lease()
	assert.Equal(t, int64(2), f.status.Ints.Get("audio.pool.leased").Load())

	f.pool.Release(h)
	assert.Equal(t, int64(1), f.status.Ints.Get("audio.pool.leased").Load())
	assert.Equal(t, int64(1), f.status.Ints.Get("audio.pool.available").Load())
}

// TestClipShorterThanTickReleases verifies a clip ending before the first update leaves Starting
func TestClipShorterThanTickReleases(t *testing.T) {
	f := newFixture(t, 0)
	provider := NewRangeProvider(lengthLoader{"click": 10 * time.Millisecond}, zerolog.Nop(), "click")
	require.NoError(t, provider.Load(context.Background()))
	def := NewDefinition("click", provider)

	job := provider.CreateJob(def)
	ref := f.pool.Reserve(job)
	require.NoError(t, f.pool.Fulfil(ref, func(h *Handle) error { return provider.Apply(h, job) }))
	h := ref.Handle()
	fired := 0
	h.SetContinuation(func() { fired++ })
	require.NoError(t, ref.Play())
	assert.Equal(t, HandleStarting, h.State())

	f.tick(1, 16*time.Millisecond)

	assert.Equal(t, HandleReleased, h.State())
	assert.Equal(t, 1, fired)
	assert.False(t, ref.IsValid())
	assert.False(t, ref.IsPlaying())
	leased, available := f.pool.Stats()
	assert.Zero(t, leased)
	assert.Equal(t, 1, available)
}
