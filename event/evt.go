package event

import "sync"

// Evt is the embeddable base of every event payload
// Handlers mutate the embedding struct's exported fields to pass data along the chain
//
// Usage:
//
//	type DamageEvt struct {
//		event.Evt
//		Amount int
//	}
//
// Reactors are keyed by the pointer type (*DamageEvt)
type Evt struct {
	mu         sync.Mutex
	finalizers []func()
}

// AddFinalizer queues fn to run after every handler of the current raise returned
// Finalizers run in the order they were added
func (e *Evt) AddFinalizer(fn func()) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	e.finalizers = append(e.finalizers, fn)
	e.mu.Unlock()
}

// runFinalizers drains the finalizer chain
// Finalizers added by a finalizer run in the same pass
func (e *Evt) runFinalizers() {
	for {
		e.mu.Lock()
		if len(e.finalizers) == 0 {
			e.mu.Unlock()
			return
		}
		fn := e.finalizers[0]
		e.finalizers[0] = nil
		e.finalizers = e.finalizers[1:]
		e.mu.Unlock()

		fn()
	}
}

func (e *Evt) base() *Evt { return e }

// Event is satisfied by any pointer to a struct embedding Evt
type Event interface {
	base() *Evt
}

// Handler receives a raised event
type Handler[T Event] func(T)

// StreamHandler receives a raised event and returns true once it wants no more events
type StreamHandler[T Event] func(T) bool
