package status

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMetricPointerStable verifies repeated lookups return the cached pointer
func TestMetricPointerStable(t *testing.T) {
	r := NewRegistry()
	a := r.Ints.Get("audio.pool.leased")
	b := r.Ints.Get("audio.pool.leased")

	assert.Same(t, a, b)
	assert.True(t, r.Ints.Has("audio.pool.leased"))
	assert.False(t, r.Ints.Has("missing"))
}

// TestFloatAddConcurrent verifies the CAS loop under contention
func TestFloatAddConcurrent(t *testing.T) {
	var f Float
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				f.Add(0.5)
			}
		}()
	}
	wg.Wait()

	assert.InDelta(t, 800.0, f.Get(), 1e-9)
}

// TestSnapshotOrder verifies snapshot grouping and key sorting
func TestSnapshotOrder(t *testing.T) {
	r := NewRegistry()
	r.Ints.Get("b").Store(2)
	r.Ints.Get("a").Store(1)
	r.Floats.Get("vol").Set(0.5)
	r.Strings.Get("phase").Set("started")

	snap := r.Snapshot()
	require.Len(t, snap, 4)
	assert.Equal(t, Entry{"a", "1"}, snap[0])
	assert.Equal(t, Entry{"b", "2"}, snap[1])
	assert.Equal(t, Entry{"vol", "0.500"}, snap[2])
	assert.Equal(t, Entry{"phase", "started"}, snap[3])
}

// TestTextZeroValue verifies unset strings read empty
func TestTextZeroValue(t *testing.T) {
	var s Text
	assert.Equal(t, "", s.Get())
	s.Set("x")
	assert.Equal(t, "x", s.Get())
}

// TestMetricMapConcurrentGet verifies racing first lookups create one metric per key
func TestMetricMapConcurrentGet(t *testing.T) {
	m := NewMetricMap[Float]()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Get("shared").Add(1)
			m.Get("other")
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, m.Count())
	assert.InDelta(t, 8.0, m.Get("shared").Get(), 1e-9)

	var keys []string
	m.Range(func(key string, _ *Float) { keys = append(keys, key) })
	assert.Equal(t, []string{"other", "shared"}, keys)
}
