package status

import (
	"fmt"
	"sync/atomic"
)

// Registry is the process-wide metrics facade
// Components fetch their metric pointers on load and update them lock-free
type Registry struct {
	Ints    *MetricMap[atomic.Int64]
	Floats  *MetricMap[Float]
	Strings *MetricMap[Text]
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		Ints:    NewMetricMap[atomic.Int64](),
		Floats:  NewMetricMap[Float](),
		Strings: NewMetricMap[Text](),
	}
}

// Entry is one formatted metric
type Entry struct {
	Key   string
	Value string
}

// Snapshot returns every metric formatted, ints first, then floats, then strings
func (r *Registry) Snapshot() []Entry {
	out := make([]Entry, 0, r.Ints.Count()+r.Floats.Count()+r.Strings.Count())
	r.Ints.Range(func(k string, v *atomic.Int64) {
		out = append(out, Entry{Key: k, Value: fmt.Sprintf("%d", v.Load())})
	})
	r.Floats.Range(func(k string, v *Float) {
		out = append(out, Entry{Key: k, Value: fmt.Sprintf("%.3f", v.Get())})
	})
	r.Strings.Range(func(k string, v *Text) {
		out = append(out, Entry{Key: k, Value: v.Get()})
	})
	return out
}
