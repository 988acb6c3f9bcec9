package status

import (
	"math"
	"sync/atomic"
)

// Float is an atomic float64 backed by its bit pattern
// Zero value reads 0.0
type Float struct {
	bits atomic.Uint64
}

// Set stores val
func (f *Float) Set(val float64) {
	f.bits.Store(math.Float64bits(val))
}

// Get loads the current value
func (f *Float) Get() float64 {
	return math.Float64frombits(f.bits.Load())
}

// Add adds delta and returns the new value
func (f *Float) Add(delta float64) float64 {
	for {
		old := f.bits.Load()
		next := math.Float64frombits(old) + delta
		if f.bits.CompareAndSwap(old, math.Float64bits(next)) {
			return next
		}
	}
}

// Text is an atomic string
type Text struct {
	v atomic.Pointer[string]
}

// Set stores s
func (t *Text) Set(s string) {
	t.v.Store(&s)
}

// Get returns the stored string, empty when unset
func (t *Text) Get() string {
	if p := t.v.Load(); p != nil {
		return *p
	}
	return ""
}
