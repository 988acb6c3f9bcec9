package module

import (
	"reflect"
	"sync"

	"github.com/lixenwraith/spook/core"
)

// Module is a unit of functionality with a deterministic lifecycle
// Load is called once at boot in host registration order; Unload once at teardown
type Module interface {
	Name() string
	Load(rt *Runtime) error
	Unload()
}

// Owner is what callback builders need from a module
type Owner interface {
	Runtime() *Runtime
	Label() string
	DisposeOnUnload(d core.Disposable)
}

// Base carries the owned-disposables list; embed it and call Attach from Load
type Base struct {
	mu          sync.Mutex
	rt          *Runtime
	label       string
	disposables []core.Disposable
}

// Attach associates the base with its runtime and the name used in debug labels
func (b *Base) Attach(rt *Runtime, label string) {
	b.mu.Lock()
	b.rt = rt
	b.label = label
	b.mu.Unlock()
}

// Runtime returns the runtime passed to Attach
func (b *Base) Runtime() *Runtime {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rt
}

// Label returns the module name passed to Attach
func (b *Base) Label() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.label
}

// DisposeOnUnload registers d to be disposed when the module unloads
func (b *Base) DisposeOnUnload(d core.Disposable) {
	if d == nil {
		return
	}
	b.mu.Lock()
	b.disposables = append(b.disposables, d)
	b.mu.Unlock()
}

// RemoveOnUnloadDisposal forgets d without disposing it
// d must be of a comparable type, such as a pointer
func (b *Base) RemoveOnUnloadDisposal(d core.Disposable) bool {
	if d == nil || !reflect.TypeOf(d).Comparable() {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, existing := range b.disposables {
		if reflect.TypeOf(existing) == reflect.TypeOf(d) && existing == d {
			b.disposables = append(b.disposables[:i], b.disposables[i+1:]...)
			return true
		}
	}
	return false
}

// Owned returns the number of disposables awaiting unload
func (b *Base) Owned() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.disposables)
}

// Unload disposes everything registered, in registration order
func (b *Base) Unload() {
	b.mu.Lock()
	items := b.disposables
	b.disposables = nil
	b.mu.Unlock()

	core.DisposeAll(items)
}
