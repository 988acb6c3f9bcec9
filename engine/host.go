package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/spook/core"
	"github.com/lixenwraith/spook/event"
	"github.com/lixenwraith/spook/module"
)

// Host is the runtime container for module instances
// Loads modules in registration order, then runs the global start chain
type Host struct {
	rt  *module.Runtime
	log zerolog.Logger

	mu      sync.Mutex
	modules []module.Module
	names   map[string]struct{}
	loaded  []module.Module // Modules whose Load succeeded, for teardown
	boot    *bootState

	statLoaded *atomic.Int64
	statFailed *atomic.Int64
}

// bootState tracks one Boot/Teardown cycle
type bootState struct {
	done    chan struct{}
	started atomic.Bool
	err     error
}

// NewHost creates an empty host over rt
func NewHost(rt *module.Runtime) *Host {
	return &Host{
		rt:         rt,
		log:        rt.Log.With().Str("component", "host").Logger(),
		names:      make(map[string]struct{}),
		statLoaded: rt.Status.Ints.Get("engine.modules.loaded"),
		statFailed: rt.Status.Ints.Get("engine.modules.failed"),
	}
}

// Runtime returns the process context shared by every module
func (h *Host) Runtime() *module.Runtime { return h.rt }

// Register adds a module; modules load in the order they are registered
func (h *Host) Register(m module.Module) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.boot != nil {
		return eris.Wrap(ErrAlreadyBooted, m.Name())
	}
	name := m.Name()
	if _, exists := h.names[name]; exists {
		return eris.Wrap(ErrDuplicateModule, name)
	}

	h.names[name] = struct{}{}
	h.modules = append(h.modules, m)
	return nil
}

// Get retrieves a registered module by name
func (h *Host) Get(name string) (module.Module, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, m := range h.modules {
		if m.Name() == name {
			return m, true
		}
	}
	return nil, false
}

// MustGet retrieves a module and casts to type T
// Panics if module not found or type mismatch
func MustGet[T module.Module](h *Host, name string) T {
	m, ok := h.Get(name)
	if !ok {
		panic(fmt.Sprintf("module not found: %s", name))
	}
	typed, ok := m.(T)
	if !ok {
		panic(fmt.Sprintf("module %s: type mismatch, got %T", name, m))
	}
	return typed
}

// Names returns registered module names in load order
func (h *Host) Names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, len(h.modules))
	for i, m := range h.modules {
		names[i] = m.Name()
	}
	return names
}

// Boot binds and loads every module, then raises GlobalStartEvt in the background
// A module whose Load fails is logged, has its disposables released and stays
// unbound; boot continues with the next module. Started reports true once the
// start chain has finished
func (h *Host) Boot(ctx context.Context) error {
	h.mu.Lock()
	if h.boot != nil {
		h.mu.Unlock()
		return ErrAlreadyBooted
	}
	bs := &bootState{done: make(chan struct{})}
	h.boot = bs
	modules := append([]module.Module(nil), h.modules...)
	h.mu.Unlock()

	var loaded []module.Module
	for _, m := range modules {
		h.rt.Bind(m)
		if err := m.Load(h.rt); err != nil {
			h.log.Error().Err(err).Str("module", m.Name()).Msg("module load failed, leaving inert")
			m.Unload()
			h.rt.Unbind(m)
			h.statFailed.Add(1)
			continue
		}
		loaded = append(loaded, m)
		h.statLoaded.Add(1)
		h.log.Debug().Str("module", m.Name()).Msg("module loaded")
	}

	h.mu.Lock()
	h.loaded = loaded
	h.mu.Unlock()

	core.Go(func() {
		err := event.RaiseChain(ctx, h.rt.Events, &module.GlobalStartEvt{})
		bs.err = err
		if errors.Is(err, event.ErrChainCancelled) {
			h.log.Warn().Msg("global start cancelled")
		} else {
			bs.started.Store(true)
			h.log.Info().Int("modules", len(loaded)).Msg("host started")
		}
		close(bs.done)
	})

	return nil
}

// Started reports whether the global start chain has completed
func (h *Host) Started() bool {
	h.mu.Lock()
	bs := h.boot
	h.mu.Unlock()
	return bs != nil && bs.started.Load()
}

// WaitStarted blocks until the start chain completes or ctx ends
// Returns the chain error when the chain was cancelled before finishing
func (h *Host) WaitStarted(ctx context.Context) error {
	h.mu.Lock()
	bs := h.boot
	h.mu.Unlock()
	if bs == nil {
		return eris.New("host not booted")
	}

	select {
	case <-bs.done:
		if !bs.started.Load() {
			return bs.err
		}
		return nil
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "wait started")
	}
}

// StartErr returns the joined continuation failures of the last start chain
func (h *Host) StartErr() error {
	h.mu.Lock()
	bs := h.boot
	h.mu.Unlock()
	if bs == nil {
		return nil
	}
	select {
	case <-bs.done:
		return bs.err
	default:
		return nil
	}
}

// Teardown unloads loaded modules in reverse order and clears the started flag
// Safe to call repeatedly; the host may be booted again afterwards
func (h *Host) Teardown() {
	h.mu.Lock()
	loaded := h.loaded
	h.loaded = nil
	h.boot = nil
	h.mu.Unlock()

	for i := len(loaded) - 1; i >= 0; i-- {
		m := loaded[i]
		m.Unload()
		h.rt.Unbind(m)
		h.statLoaded.Add(-1)
		h.log.Debug().Str("module", m.Name()).Msg("module unloaded")
	}
}
