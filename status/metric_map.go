package status

import (
	"cmp"
	"slices"
	"sync"
	"sync/atomic"
)

// MetricMap is a named set of metrics of type T
// Callers fetch a pointer once and update it without touching the map again
type MetricMap[T any] struct {
	items sync.Map // string -> *T
	n     atomic.Int64
}

// NewMetricMap creates an empty map
func NewMetricMap[T any]() *MetricMap[T] {
	return &MetricMap[T]{}
}

// Get returns the metric for key, creating it on first use
func (m *MetricMap[T]) Get(key string) *T {
	if v, ok := m.items.Load(key); ok {
		return v.(*T)
	}
	v, loaded := m.items.LoadOrStore(key, new(T))
	if !loaded {
		m.n.Add(1)
	}
	return v.(*T)
}

// Has reports whether key was ever requested
func (m *MetricMap[T]) Has(key string) bool {
	_, ok := m.items.Load(key)
	return ok
}

// Range visits metrics in sorted key order
func (m *MetricMap[T]) Range(fn func(key string, ptr *T)) {
	type entry struct {
		key string
		ptr *T
	}
	var entries []entry
	m.items.Range(func(k, v any) bool {
		entries = append(entries, entry{k.(string), v.(*T)})
		return true
	})
	slices.SortFunc(entries, func(a, b entry) int {
		return cmp.Compare(a.key, b.key)
	})
	for _, e := range entries {
		fn(e.key, e.ptr)
	}
}

// Count returns the number of metrics
func (m *MetricMap[T]) Count() int {
	return int(m.n.Load())
}
