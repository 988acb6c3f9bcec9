package event

import (
	"cmp"
	"reflect"
	"runtime"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
)

// Registration is the disposable token returned by every subscribe call
// It belongs to exactly one reactor while active
type Registration[T Event] struct {
	priority  int
	handler   Handler[T]
	debugName string
	seq       uint64
	reactor   atomic.Pointer[Reactor[T]]
}

// Priority returns the dispatch priority, lower runs first
func (r *Registration[T]) Priority() int { return r.priority }

// DebugName returns the name shown by reactor info
func (r *Registration[T]) DebugName() string { return r.debugName }

// Active reports whether the registration is still attached to its reactor
func (r *Registration[T]) Active() bool { return r.reactor.Load() != nil }

// Dispose detaches the registration from its reactor
// Safe to call repeatedly and from inside a handler
func (r *Registration[T]) Dispose() {
	if reactor := r.reactor.Swap(nil); reactor != nil {
		reactor.remove(r)
	}
}

// Reactor is the multicast dispatcher for a single event type
//
// Registrations are kept sorted by ascending priority; equal priorities keep
// subscription order. The list is copy-on-write: Raise dispatches over the
// snapshot it read under the lock, so handlers may subscribe, unsubscribe or
// raise again without deadlocking or disturbing the running dispatch.
// Registrations disposed mid-dispatch are skipped for the rest of the raise.
type Reactor[T Event] struct {
	mu            sync.Mutex
	registrations []*Registration[T]
	nextSeq       uint64
	raised        atomic.Uint64
	eventType     reflect.Type
}

// NewReactor creates an empty reactor
func NewReactor[T Event]() *Reactor[T] {
	return &Reactor[T]{eventType: reflect.TypeFor[T]()}
}

// Type returns the event type this reactor dispatches
func (r *Reactor[T]) Type() reflect.Type { return r.eventType }

// Name returns the event type name without package path or pointer marker
func (r *Reactor[T]) Name() string { return typeName(r.eventType) }

// Len returns the number of active registrations
func (r *Reactor[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.registrations)
}

// Raised returns how many times Raise has been called
func (r *Reactor[T]) Raised() uint64 { return r.raised.Load() }

// Subscribe registers handler at priority
// An empty debugName is derived from the handler's function symbol
func (r *Reactor[T]) Subscribe(handler Handler[T], priority int, debugName string) *Registration[T] {
	if debugName == "" {
		debugName = FuncName(handler)
	}
	reg := &Registration[T]{priority: priority, handler: handler, debugName: debugName}
	r.insert(reg)
	return reg
}

// SubscribeOnce registers a handler that runs for at most one raise
// The registration disposes itself after the raise's handlers completed
func (r *Reactor[T]) SubscribeOnce(handler Handler[T], priority int, debugName string) *Registration[T] {
	if debugName == "" {
		debugName = FuncName(handler)
	}

	var fired atomic.Bool
	reg := &Registration[T]{priority: priority, debugName: debugName}
	reg.handler = func(evt T) {
		if !fired.CompareAndSwap(false, true) {
			return
		}
		evt.base().AddFinalizer(reg.Dispose)
		handler(evt)
	}
	r.insert(reg)
	return reg
}

// SubscribeStream registers a handler that stays subscribed until it returns true
// Disposal happens synchronously right after the handler returns true
func (r *Reactor[T]) SubscribeStream(handler StreamHandler[T], priority int, debugName string) *Registration[T] {
	if debugName == "" {
		debugName = FuncName(handler)
	}

	reg := &Registration[T]{priority: priority, debugName: debugName}
	reg.handler = func(evt T) {
		if handler(evt) {
			reg.Dispose()
		}
	}
	r.insert(reg)
	return reg
}

// insert attaches reg and publishes a freshly sorted list
func (r *Reactor[T]) insert(reg *Registration[T]) {
	reg.reactor.Store(r)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextSeq++
	reg.seq = r.nextSeq

	next := make([]*Registration[T], 0, len(r.registrations)+1)
	next = append(next, r.registrations...)
	next = append(next, reg)
	slices.SortStableFunc(next, func(a, b *Registration[T]) int {
		if a.priority != b.priority {
			return cmp.Compare(a.priority, b.priority)
		}
		return cmp.Compare(a.seq, b.seq)
	})
	r.registrations = next
}

// Unsubscribe detaches reg, no-op when it is not attached to this reactor
func (r *Reactor[T]) Unsubscribe(reg *Registration[T]) {
	if reg == nil {
		return
	}
	if reg.reactor.CompareAndSwap(r, nil) {
		r.remove(reg)
	}
}

// remove drops reg from the list, copying so running dispatches keep their snapshot
func (r *Reactor[T]) remove(reg *Registration[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := slices.Index(r.registrations, reg)
	if idx < 0 {
		return
	}
	next := make([]*Registration[T], 0, len(r.registrations)-1)
	next = append(next, r.registrations[:idx]...)
	next = append(next, r.registrations[idx+1:]...)
	r.registrations = next
}

// Raise invokes every active handler in ascending priority order on the calling goroutine,
// then runs the event's finalizers
// A panicking handler propagates to the caller; finalizers of that raise are skipped
func (r *Reactor[T]) Raise(evt T) {
	r.raised.Add(1)

	r.mu.Lock()
	snapshot := r.registrations
	r.mu.Unlock()

	for _, reg := range snapshot {
		if reg.reactor.Load() != r {
			continue
		}
		reg.handler(evt)
	}

	evt.base().runFinalizers()
}

// raiseAny is the untyped entry point used by Manager.RaiseAny
func (r *Reactor[T]) raiseAny(evt any) bool {
	typed, ok := evt.(T)
	if !ok {
		return false
	}
	r.Raise(typed)
	return true
}

// FuncName returns a short "pkg.Type.method" name for a function value
func FuncName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "unknown"
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return "unknown"
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
