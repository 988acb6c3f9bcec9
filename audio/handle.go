package audio

import (
	"math"
	"sync"
	"time"

	"github.com/lixenwraith/spook/core"
)

// HandleState is the playback lifecycle of a pooled handle
type HandleState int32

const (
	HandleIdle HandleState = iota
	HandleStarting
	HandlePlaying
	HandleEnded
	HandleReleased
)

func (s HandleState) String() string {
	switch s {
	case HandleIdle:
		return "idle"
	case HandleStarting:
		return "starting"
	case HandlePlaying:
		return "playing"
	case HandleEnded:
		return "ended"
	case HandleReleased:
		return "released"
	}
	return "unknown"
}

// Curve shapes a fade ramp
type Curve int

const (
	CurveLinear Curve = iota
	CurveLogarithmic
)

// shape maps ramp progress r in [0,1] onto [0,1]
func (c Curve) shape(r float64) float64 {
	r = min(max(r, 0), 1)
	if c == CurveLogarithmic {
		return math.Log10(r*100+1) / 2.0043213737826426 // log10(101)
	}
	return r
}

// Fade is a volume ramp over a playback-time window
type Fade struct {
	Start time.Duration
	End   time.Duration
	Curve Curve
}

// progress returns how far t is into the window; zero-length windows are complete
func (f Fade) progress(t time.Duration) float64 {
	if f.End <= f.Start {
		return 1
	}
	return float64(t-f.Start) / float64(f.End-f.Start)
}

// fadeSpec is a fade requested by duration, resolved against the clip on play
type fadeSpec struct {
	set      bool
	duration time.Duration
	curve    Curve
}

// Handle is a pooled playback unit bound to one backend source
//
// Idle -> Starting on Play; Starting -> Playing once the source reports progress;
// Playing -> Ended when the source stops or the fade-out completes; Ended goes
// back to Idle when kept alive, otherwise the handle returns to the pool.
// Callbacks run outside the handle lock
type Handle struct {
	id   uint64
	pool *Pool
	src  Source

	mu        sync.Mutex
	state     HandleState
	owner     *JobReference
	keepAlive bool
	target    float64

	fadeInSpec  fadeSpec
	fadeOutSpec fadeSpec
	fadeIn      *Fade
	fadeOut     *Fade
	fired       bool // continuation fired this play-cycle

	continuation func()
	onEnd        func()

	tracker  Tracker
	position core.Vec3
	cycles   uint64
}

func newHandle(id uint64, pool *Pool, src Source) *Handle {
	return &Handle{id: id, pool: pool, src: src, state: HandleReleased, target: 1}
}

// ID returns the handle's pool-unique id
func (h *Handle) ID() uint64 { return h.id }

// Source returns the backend voice
func (h *Handle) Source() Source { return h.src }

// State returns the current state
func (h *Handle) State() HandleState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// IsPlaying reports whether the handle is starting or playing
func (h *Handle) IsPlaying() bool {
	s := h.State()
	return s == HandleStarting || s == HandlePlaying
}

// Cycles returns the number of completed play-cycles
func (h *Handle) Cycles() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cycles
}

// IsOwnedBy reports whether ref currently owns the handle
func (h *Handle) IsOwnedBy(ref *JobReference) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return ref != nil && h.owner == ref && h.state != HandleReleased
}

// SetKeepAlive keeps the handle leased after playback ends
func (h *Handle) SetKeepAlive(keep bool) {
	h.mu.Lock()
	h.keepAlive = keep
	h.mu.Unlock()
}

// SetContinuation sets the callback fired once per play-cycle when fade-out begins
func (h *Handle) SetContinuation(fn func()) {
	h.mu.Lock()
	h.continuation = fn
	h.mu.Unlock()
}

// SetOnEnd sets the callback fired each time playback ends
func (h *Handle) SetOnEnd(fn func()) {
	h.mu.Lock()
	h.onEnd = fn
	h.mu.Unlock()
}

// SetFadeIn ramps volume up over the first d of playback
func (h *Handle) SetFadeIn(d time.Duration, curve Curve) {
	h.mu.Lock()
	h.fadeInSpec = fadeSpec{set: true, duration: max(d, 0), curve: curve}
	h.mu.Unlock()
}

// SetFadeOut ramps volume down over the last d of the clip
func (h *Handle) SetFadeOut(d time.Duration, curve Curve) {
	h.mu.Lock()
	h.fadeOutSpec = fadeSpec{set: true, duration: max(d, 0), curve: curve}
	h.mu.Unlock()
}

// FadeIn returns the resolved fade-in window of the current cycle
func (h *Handle) FadeIn() (Fade, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fadeIn == nil {
		return Fade{}, false
	}
	return *h.fadeIn, true
}

// FadeOut returns the resolved fade-out window of the current cycle
func (h *Handle) FadeOut() (Fade, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fadeOut == nil {
		return Fade{}, false
	}
	return *h.fadeOut, true
}

// ImmediateFadeOut starts a fade-out of length d from the current position
// A zero d ends playback at once
func (h *Handle) ImmediateFadeOut(d time.Duration, curve Curve) {
	h.mu.Lock()
	if h.state != HandleStarting && h.state != HandlePlaying {
		h.mu.Unlock()
		return
	}
	if d <= 0 {
		h.mu.Unlock()
		h.EndNow()
		return
	}
	t := h.src.Time()
	h.fadeOut = &Fade{Start: t, End: t + d, Curve: curve}
	h.mu.Unlock()
}

// configure applies job options; called by providers
func (h *Handle) configure(opts Options) {
	h.mu.Lock()
	h.target = opts.Volume * h.pool.masterVolume()
	h.mu.Unlock()
	opts.ApplyTo(h.src)
}

// Target returns the volume the handle ramps toward
func (h *Handle) Target() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.target
}

// Play starts playback at a fixed position
func (h *Handle) Play(pos core.Vec3) error {
	return h.start(pos, nil)
}

// PlayTracked starts playback following tracker
func (h *Handle) PlayTracked(tracker Tracker) error {
	if tracker == nil {
		return h.start(core.Vec3{}, nil)
	}
	return h.start(tracker.Position(), tracker)
}

func (h *Handle) start(pos core.Vec3, tracker Tracker) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == HandleReleased {
		return ErrReleased
	}
	if h.src.Clip() == nil {
		return ErrNoClip
	}

	h.position = pos
	h.tracker = tracker
	h.fired = false
	h.fadeIn, h.fadeOut = h.resolveFadesLocked()

	h.src.SetPosition(pos)
	if h.fadeIn != nil {
		h.src.SetVolume(0)
	} else {
		h.src.SetVolume(h.target)
	}
	h.src.Play()
	h.state = HandleStarting
	return nil
}

// resolveFadesLocked turns requested durations into windows over the clip
func (h *Handle) resolveFadesLocked() (*Fade, *Fade) {
	var in, out *Fade
	if h.fadeInSpec.set {
		in = &Fade{Start: 0, End: h.fadeInSpec.duration, Curve: h.fadeInSpec.curve}
	}
	if h.fadeOutSpec.set {
		length := h.src.Clip().Length
		start := max(length-h.fadeOutSpec.duration, 0)
		out = &Fade{Start: start, End: length, Curve: h.fadeOutSpec.curve}
	}
	return in, out
}

// Update advances the state machine; called once per tick by the pool
func (h *Handle) Update() {
	h.mu.Lock()

	switch h.state {
	case HandleStarting:
		if h.owner != nil && h.owner.State() == RefKilled {
			h.mu.Unlock()
			h.end(false)
			return
		}
		if !h.src.IsPlaying() {
			// Backends report playing from Play on, so the clip ran out between ticks
			h.mu.Unlock()
			h.end(true)
			return
		}
		if h.src.Time() <= 0 {
			h.mu.Unlock()
			return
		}
		h.state = HandlePlaying

	case HandlePlaying:

	default:
		h.mu.Unlock()
		return
	}

	if h.tracker != nil {
		h.position = h.tracker.Position()
		h.src.SetPosition(h.position)
	}

	if !h.src.IsPlaying() {
		h.mu.Unlock()
		h.end(true)
		return
	}

	t := h.src.Time()
	vol := h.target
	var cont func()
	finished := false

	if h.fadeIn != nil && t < h.fadeIn.End {
		vol = h.target * h.fadeIn.Curve.shape(h.fadeIn.progress(t))
	}
	if h.fadeOut != nil && t >= h.fadeOut.Start {
		if !h.fired {
			h.fired = true
			cont = h.continuation
		}
		r := h.fadeOut.progress(t)
		if r >= 1 {
			finished = true
			vol = 0
		} else {
			vol = min(vol, h.target*h.fadeOut.Curve.shape(1-r))
		}
	}
	h.src.SetVolume(vol)
	h.mu.Unlock()

	if cont != nil {
		cont()
	}
	if finished {
		h.end(false)
	}
}

// EndNow stops playback and finishes the cycle without firing the continuation
func (h *Handle) EndNow() {
	h.end(false)
}

// Stop is EndNow under the name references use
func (h *Handle) Stop() {
	h.end(false)
}

// end moves a live handle to Ended, then Idle or back to the pool
// A natural end fires a continuation the fade-out never reached
func (h *Handle) end(natural bool) {
	h.mu.Lock()
	if h.state != HandleStarting && h.state != HandlePlaying {
		h.mu.Unlock()
		return
	}

	h.src.Stop()
	h.state = HandleEnded
	h.cycles++

	onEnd := h.onEnd
	var cont func()
	if natural && !h.fired {
		h.fired = true
		cont = h.continuation
	}
	keep := h.keepAlive
	if keep {
		h.state = HandleIdle
	}
	h.mu.Unlock()

	if cont != nil {
		cont()
	}
	if onEnd != nil {
		onEnd()
	}
	if !keep {
		h.pool.Release(h)
	}
}

// Kill stops playback and returns the handle to the pool
func (h *Handle) Kill() {
	h.pool.Release(h)
}

// lease prepares a pooled handle for a new owner; caller holds the pool lock
func (h *Handle) lease() {
	h.mu.Lock()
	h.state = HandleIdle
	h.mu.Unlock()
}

// setOwner binds the owning reference
func (h *Handle) setOwner(ref *JobReference) {
	h.mu.Lock()
	h.owner = ref
	h.mu.Unlock()
}

// reset clears everything a previous owner configured; caller holds the pool lock
func (h *Handle) reset() {
	h.mu.Lock()
	h.src.Stop()
	h.state = HandleReleased
	h.owner = nil
	h.keepAlive = false
	h.target = 1
	h.fadeInSpec = fadeSpec{}
	h.fadeOutSpec = fadeSpec{}
	h.fadeIn = nil
	h.fadeOut = nil
	h.fired = false
	h.continuation = nil
	h.onEnd = nil
	h.tracker = nil
	h.position = core.Vec3{}
	h.mu.Unlock()
}

// destroy frees the backend voice; the handle is never leased again
func (h *Handle) destroy() {
	h.reset()
	h.src.Destroy()
}
