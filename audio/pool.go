package audio

import (
	"cmp"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/spook/status"
)

// Pool leases reusable handles over backend sources
// Lease and Release are serialized by one mutex; lock order is pool then handle
type Pool struct {
	backend Backend
	log     zerolog.Logger
	softMax int
	master  status.Float

	mu        sync.Mutex
	available []*Handle
	leased    map[*Handle]struct{}
	nextID    uint64

	postMu sync.Mutex
	posted []func()

	// Cached metric pointers
	statLeased    *atomic.Int64
	statAvailable *atomic.Int64
	statCreated   *atomic.Int64
	statDestroyed *atomic.Int64
	statTicks     *atomic.Int64
}

// NewPool creates a pool; handles released while the pool holds softMax or more are destroyed
// A softMax of zero disables the cap
func NewPool(backend Backend, softMax int, log zerolog.Logger, reg *status.Registry) *Pool {
	if reg == nil {
		reg = status.NewRegistry()
	}
	p := &Pool{
		backend:       backend,
		log:           log.With().Str("component", "audio.pool").Logger(),
		softMax:       softMax,
		leased:        make(map[*Handle]struct{}),
		statLeased:    reg.Ints.Get("audio.pool.leased"),
		statAvailable: reg.Ints.Get("audio.pool.available"),
		statCreated:   reg.Ints.Get("audio.pool.created"),
		statDestroyed: reg.Ints.Get("audio.pool.destroyed"),
		statTicks:     reg.Ints.Get("audio.pool.ticks"),
	}
	p.master.Set(1)
	return p
}

// SetMasterVolume scales the target volume of jobs configured afterwards
func (p *Pool) SetMasterVolume(v float64) { p.master.Set(min(max(v, 0), 1)) }

func (p *Pool) masterVolume() float64 { return p.master.Get() }

// Lease returns an idle handle, creating one when none is available
func (p *Pool) Lease() *Handle {
	p.mu.Lock()
	defer p.mu.Unlock()

	var h *Handle
	if n := len(p.available); n > 0 {
		h = p.available[n-1]
		p.available[n-1] = nil
		p.available = p.available[:n-1]
	} else {
		p.nextID++
		h = newHandle(p.nextID, p, p.backend.NewSource())
		p.statCreated.Add(1)
	}
	h.lease()
	p.leased[h] = struct{}{}
	p.publishLocked()
	return h
}

// Release resets h and returns it to the available set
// Releasing a handle the pool does not hold as leased is a no-op
func (p *Pool) Release(h *Handle) {
	if h == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.leased[h]; !ok {
		return
	}
	delete(p.leased, h)

	if p.softMax > 0 && len(p.available)+len(p.leased) >= p.softMax {
		h.destroy()
		p.statDestroyed.Add(1)
	} else {
		h.reset()
		p.available = append(p.available, h)
	}
	p.publishLocked()
}

// Reserve creates a pending reference for job
func (p *Pool) Reserve(job Job) *JobReference {
	ref := &JobReference{job: job}
	ref.state.Store(int32(RefPending))
	return ref
}

// Fulfil leases a handle for ref, configures it with apply and binds it
// If ref is disposed before binding completes the handle goes straight back
func (p *Pool) Fulfil(ref *JobReference, apply func(h *Handle) error) error {
	if ref.State() == RefKilled {
		return ErrKilled
	}

	h := p.Lease()
	if apply != nil {
		if err := apply(h); err != nil {
			p.Release(h)
			ref.Dispose()
			return err
		}
	}
	if !ref.bind(h) {
		p.Release(h)
		return ErrKilled
	}
	return nil
}

// Clear destroys every handle, leased or not
// References to destroyed handles report IsValid false
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.available) + len(p.leased)
	for _, h := range p.available {
		h.destroy()
	}
	for h := range p.leased {
		h.destroy()
	}
	p.available = nil
	p.leased = make(map[*Handle]struct{})
	p.statDestroyed.Add(int64(n))
	p.publishLocked()

	p.log.Debug().Int("handles", n).Msg("pool cleared")
}

// Post queues fn to run at the start of the next Tick
func (p *Pool) Post(fn func()) {
	if fn == nil {
		return
	}
	p.postMu.Lock()
	p.posted = append(p.posted, fn)
	p.postMu.Unlock()
}

// Tick runs posted work, advances simulated clocks by dt and updates every leased handle
func (p *Pool) Tick(dt time.Duration) {
	p.postMu.Lock()
	posted := p.posted
	p.posted = nil
	p.postMu.Unlock()
	for _, fn := range posted {
		fn()
	}

	if adv, ok := p.backend.(Advancer); ok {
		adv.Advance(dt)
	}

	p.mu.Lock()
	handles := make([]*Handle, 0, len(p.leased))
	for h := range p.leased {
		handles = append(handles, h)
	}
	p.mu.Unlock()

	sortHandles(handles)
	for _, h := range handles {
		h.Update()
	}
	p.statTicks.Add(1)
}

// Stats reports leased and available handle counts
func (p *Pool) Stats() (leased, available int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.leased), len(p.available)
}

// Leased returns leased handles ordered by id
func (p *Pool) Leased() []*Handle {
	p.mu.Lock()
	handles := make([]*Handle, 0, len(p.leased))
	for h := range p.leased {
		handles = append(handles, h)
	}
	p.mu.Unlock()
	sortHandles(handles)
	return handles
}

func (p *Pool) publishLocked() {
	p.statLeased.Store(int64(len(p.leased)))
	p.statAvailable.Store(int64(len(p.available)))
}

// sortHandles orders handles by id so ticks update them deterministically
func sortHandles(handles []*Handle) {
	slices.SortFunc(handles, func(a, b *Handle) int { return cmp.Compare(a.id, b.id) })
}
