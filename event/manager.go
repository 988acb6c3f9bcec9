package event

import (
	"reflect"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// reactor is the type-erased view of Reactor[T] held by the Manager
type reactor interface {
	Type() reflect.Type
	Name() string
	Len() int
	Info() Info
	raiseAny(evt any) bool
}

// Manager maps event types to their single reactor
// One Manager exists per process runtime; it is passed explicitly, never global
type Manager struct {
	mu       sync.RWMutex
	reactors map[reflect.Type]reactor
	log      zerolog.Logger
}

// NewManager creates an empty manager logging through log
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		reactors: make(map[reflect.Type]reactor),
		log:      log.With().Str("component", "events").Logger(),
	}
}

// Logger returns the manager's logger
func (m *Manager) Logger() zerolog.Logger { return m.log }

// Register returns the reactor for T, creating it on first use
// Concurrent first calls agree on a single reactor
func Register[T Event](m *Manager) *Reactor[T] {
	t := reflect.TypeFor[T]()

	m.mu.RLock()
	existing, ok := m.reactors[t]
	m.mu.RUnlock()
	if ok {
		return existing.(*Reactor[T])
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.reactors[t]; ok {
		return existing.(*Reactor[T])
	}
	r := NewReactor[T]()
	m.reactors[t] = r
	m.log.Debug().Str("event", r.Name()).Msg("reactor registered")
	return r
}

// Adopt installs an externally built reactor unless T already has one
// Returns the reactor that ends up registered
func Adopt[T Event](m *Manager, r *Reactor[T]) *Reactor[T] {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.reactors[r.Type()]; ok {
		return existing.(*Reactor[T])
	}
	m.reactors[r.Type()] = r
	return r
}

// Get returns the registered reactor for T
func Get[T Event](m *Manager) (*Reactor[T], error) {
	t := reflect.TypeFor[T]()

	m.mu.RLock()
	defer m.mu.RUnlock()

	existing, ok := m.reactors[t]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownEvent, "%s", typeName(t))
	}
	return existing.(*Reactor[T]), nil
}

// Unregister drops the reactor for T
// Existing registrations stay attached to the dropped reactor
func Unregister[T Event](m *Manager) {
	m.UnregisterType(reflect.TypeFor[T]())
}

// UnregisterType drops the reactor for t
func (m *Manager) UnregisterType(t reflect.Type) {
	m.mu.Lock()
	delete(m.reactors, t)
	m.mu.Unlock()
}

// Has reports whether a reactor exists for t
func (m *Manager) Has(t reflect.Type) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.reactors[t]
	return ok
}

// RaiseAny dispatches evt through the reactor registered for its dynamic type
// Returns ErrUnknownEvent when none is registered
func (m *Manager) RaiseAny(evt any) error {
	t := reflect.TypeOf(evt)

	m.mu.RLock()
	r, ok := m.reactors[t]
	m.mu.RUnlock()

	if !ok {
		return eris.Wrapf(ErrUnknownEvent, "%v", t)
	}
	if !r.raiseAny(evt) {
		return eris.Wrapf(ErrUnknownEvent, "%v: reactor type mismatch", t)
	}
	return nil
}

// Raise dispatches evt through T's reactor, registering it if needed
func Raise[T Event](m *Manager, evt T) {
	Register[T](m).Raise(evt)
}

// Subscribe registers handler on T's reactor
func Subscribe[T Event](m *Manager, handler Handler[T], priority int, debugName string) *Registration[T] {
	return Register[T](m).Subscribe(handler, priority, debugName)
}

// SubscribeOnce registers a single-shot handler on T's reactor
func SubscribeOnce[T Event](m *Manager, handler Handler[T], priority int, debugName string) *Registration[T] {
	return Register[T](m).SubscribeOnce(handler, priority, debugName)
}

// SubscribeStream registers a stream handler on T's reactor
func SubscribeStream[T Event](m *Manager, handler StreamHandler[T], priority int, debugName string) *Registration[T] {
	return Register[T](m).SubscribeStream(handler, priority, debugName)
}

// Reactors returns info for every registered reactor sorted by event name
func (m *Manager) Reactors() []Info {
	m.mu.RLock()
	list := make([]reactor, 0, len(m.reactors))
	for _, r := range m.reactors {
		list = append(list, r)
	}
	m.mu.RUnlock()

	infos := make([]Info, 0, len(list))
	for _, r := range list {
		infos = append(infos, r.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
