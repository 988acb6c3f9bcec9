// Package module provides the load/unload lifecycle shared by every unit of
// host functionality, plus the process context those units run inside
package module

import (
	"reflect"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/spook/config"
	"github.com/lixenwraith/spook/event"
	"github.com/lixenwraith/spook/status"
)

// Runtime is the process context handed to every module
// It replaces process-wide singletons: the event manager, logger, metrics and
// the one-live-instance-per-module-type slots all hang off it
type Runtime struct {
	Events *event.Manager
	Log    zerolog.Logger
	Status *status.Registry
	Config *config.Config

	mu        sync.RWMutex
	instances map[reflect.Type]Module
}

// NewRuntime builds a runtime with a fresh event manager and metrics registry
func NewRuntime(cfg *config.Config, log zerolog.Logger) *Runtime {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Runtime{
		Events:    event.NewManager(log),
		Log:       log,
		Status:    status.NewRegistry(),
		Config:    cfg,
		instances: make(map[reflect.Type]Module),
	}
}

// Bind records m as the live instance of its concrete type
// A second live instance is logged and replaces the first
func (rt *Runtime) Bind(m Module) {
	t := reflect.TypeOf(m)

	rt.mu.Lock()
	prev, exists := rt.instances[t]
	rt.instances[t] = m
	rt.mu.Unlock()

	if exists && prev != m {
		rt.Log.Error().Str("module", m.Name()).Str("type", t.String()).Msg("module instance already bound, replacing")
	}
}

// Unbind clears the slot for m's type if m is the bound instance
func (rt *Runtime) Unbind(m Module) {
	t := reflect.TypeOf(m)

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.instances[t] == m {
		delete(rt.instances, t)
	}
}

// Instance returns the live instance of module type T
func Instance[T Module](rt *Runtime) (T, bool) {
	rt.mu.RLock()
	m, ok := rt.instances[reflect.TypeFor[T]()]
	rt.mu.RUnlock()

	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := m.(T)
	return typed, ok
}

// Bound returns the number of bound module instances
func (rt *Runtime) Bound() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return len(rt.instances)
}
