package audio

import (
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/spook/core"
)

// RefState is the owner-side view of a play request
type RefState int32

const (
	RefUninitialized RefState = iota
	RefPending
	RefReady
	RefKilled
)

func (s RefState) String() string {
	switch s {
	case RefUninitialized:
		return "uninitialized"
	case RefPending:
		return "pending"
	case RefReady:
		return "ready"
	case RefKilled:
		return "killed"
	}
	return "unknown"
}

// JobReference is the disposable token for one play request
// It owns its pooled handle until disposed or until the handle is released
type JobReference struct {
	job   Job
	state atomic.Int32

	mu     sync.Mutex
	handle *Handle
}

// Job returns the job this reference plays
func (r *JobReference) Job() Job { return r.job }

// State returns the reference state
func (r *JobReference) State() RefState { return RefState(r.state.Load()) }

// Handle returns the bound handle, nil while pending
func (r *JobReference) Handle() *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handle
}

// IsValid reports whether the reference is live and still owns its handle
// Turns false after Dispose, after the handle returns to the pool, and after Pool.Clear
func (r *JobReference) IsValid() bool {
	switch r.State() {
	case RefPending, RefReady:
	default:
		return false
	}
	h := r.Handle()
	return h == nil || h.IsOwnedBy(r)
}

// IsPending reports whether the handle is not yet bound
func (r *JobReference) IsPending() bool { return r.State() == RefPending }

// IsPlaying reports whether the owned handle is starting or playing
func (r *JobReference) IsPlaying() bool {
	if !r.IsValid() {
		return false
	}
	h := r.Handle()
	return h != nil && h.IsPlaying()
}

// Play starts the owned handle without a position
func (r *JobReference) Play() error { return r.PlayAt(core.Vec3{}) }

// PlayAt starts the owned handle at pos
func (r *JobReference) PlayAt(pos core.Vec3) error {
	h, err := r.owned()
	if err != nil {
		return err
	}
	return h.Play(pos)
}

// PlayTracked starts the owned handle following tracker
func (r *JobReference) PlayTracked(tracker Tracker) error {
	h, err := r.owned()
	if err != nil {
		return err
	}
	return h.PlayTracked(tracker)
}

func (r *JobReference) owned() (*Handle, error) {
	switch r.State() {
	case RefKilled:
		return nil, ErrKilled
	case RefReady:
	default:
		return nil, ErrNotSetUp
	}
	h := r.Handle()
	if h == nil || !h.IsOwnedBy(r) {
		return nil, ErrReleased
	}
	return h, nil
}

// Stop ends playback; a kept-alive handle stays with the reference
func (r *JobReference) Stop() {
	if h, err := r.owned(); err == nil {
		h.Stop()
	}
}

// Dispose kills the reference and releases its handle, even while pending
// Safe to call repeatedly
func (r *JobReference) Dispose() {
	if RefState(r.state.Swap(int32(RefKilled))) == RefKilled {
		return
	}

	r.mu.Lock()
	h := r.handle
	r.handle = nil
	r.mu.Unlock()

	if h != nil && h.IsOwnedBy(r) {
		h.Kill()
	}
}

// bind attaches a freshly leased handle; returns false if the reference was killed first
func (r *JobReference) bind(h *Handle) bool {
	r.mu.Lock()
	if r.State() == RefKilled {
		r.mu.Unlock()
		return false
	}
	r.handle = h
	r.mu.Unlock()

	h.setOwner(r)
	if !r.state.CompareAndSwap(int32(RefPending), int32(RefReady)) {
		// Disposed between bind and promotion
		r.mu.Lock()
		r.handle = nil
		r.mu.Unlock()
		return false
	}
	return true
}
