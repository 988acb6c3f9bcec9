package audio

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/spook/core"
)

// DefaultCrossfade is the overlap between consecutive loop slots
const DefaultCrossfade = 250 * time.Millisecond

// Player creates unstarted references; satisfied by Module
type Player interface {
	Unstarted(ctx context.Context, job Job) (*JobReference, error)
}

// LoopOptions configures a LoopingJob
// A zero Crossfade selects DefaultCrossfade; HardCut disables fades so each slot starts when the previous one ends
type LoopOptions struct {
	Tracked      Tracker
	Position     core.Vec3
	Crossfade    time.Duration
	HardCut      bool
	Cycle        int
	SpatialBlend float64
}

// LoopingJob loops a job seamlessly by crossfading a ring of references
// When slot i enters its fade-out, slot (i+1) mod N starts with a fade-in
type LoopingJob struct {
	player Player
	job    Job
	opts   LoopOptions
	log    zerolog.Logger

	mu      sync.Mutex
	slots   []*JobReference
	current int
	running bool
}

// NewLoopingJob creates an unset loop; call Setup before Start
// Slot failures are logged through player when it exposes a Logger
func NewLoopingJob(player Player, job Job, opts LoopOptions) *LoopingJob {
	if opts.HardCut {
		opts.Crossfade = 0
	} else if opts.Crossfade <= 0 {
		opts.Crossfade = DefaultCrossfade
	}
	if opts.Cycle < 2 {
		opts.Cycle = 2
	}
	log := zerolog.Nop()
	if lp, ok := player.(interface{ Logger() zerolog.Logger }); ok {
		log = lp.Logger()
	}
	name := ""
	if job.Definition != nil {
		name = job.Definition.Name()
	}
	return &LoopingJob{
		player: player,
		job:    job,
		opts:   opts,
		log:    log.With().Str("component", "audio.loop").Str("definition", name).Logger(),
	}
}

// Job returns the job being looped
func (l *LoopingJob) Job() Job { return l.job }

// Setup leases and configures every slot, optionally starting slot 0
// Calling Setup on a set-up loop is a no-op
func (l *LoopingJob) Setup(ctx context.Context, autostart bool) error {
	l.mu.Lock()
	if l.slots != nil {
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	// Each slot plays the clip once; looping comes from the ring
	job := l.job.With(func(o Options) Options {
		return o.WithLoop(false).WithSpatialBlend(l.opts.SpatialBlend)
	})

	slots := make([]*JobReference, 0, l.opts.Cycle)
	for i := range l.opts.Cycle {
		ref, err := l.player.Unstarted(ctx, job)
		if err != nil {
			for _, s := range slots {
				s.Dispose()
			}
			return eris.Wrapf(err, "loop slot %d", i)
		}
		h := ref.Handle()
		h.SetKeepAlive(true)
		if !l.opts.HardCut {
			h.SetFadeIn(l.opts.Crossfade, CurveLinear)
			h.SetFadeOut(l.opts.Crossfade, CurveLinear)
		}
		h.SetContinuation(func() { l.advance(i) })
		slots = append(slots, ref)
	}

	l.mu.Lock()
	if l.slots != nil {
		// Lost a concurrent Setup
		l.mu.Unlock()
		for _, s := range slots {
			s.Dispose()
		}
		return nil
	}
	l.slots = slots
	l.mu.Unlock()

	if autostart {
		return l.Start()
	}
	return nil
}

// Start plays slot 0; no-op when already running
// Returns ErrReleased once the pool has reclaimed any slot
func (l *LoopingJob) Start() error {
	l.mu.Lock()
	if l.slots == nil {
		l.mu.Unlock()
		return ErrNotSetUp
	}
	if !l.slotsValidLocked() {
		l.running = false
		l.mu.Unlock()
		return ErrReleased
	}
	if l.running {
		l.mu.Unlock()
		return nil
	}
	l.running = true
	l.current = 0
	ref := l.slots[0]
	l.mu.Unlock()

	if err := l.play(ref); err != nil {
		l.halt()
		return err
	}
	return nil
}

// advance starts the slot after i if i is still the current slot
func (l *LoopingJob) advance(i int) {
	l.mu.Lock()
	if !l.running || l.slots == nil || i != l.current {
		l.mu.Unlock()
		return
	}
	l.current = (i + 1) % len(l.slots)
	next := l.current
	ref := l.slots[next]
	l.mu.Unlock()

	if err := l.play(ref); err != nil {
		l.log.Error().Err(err).Int("slot", next).Msg("loop slot failed to start")
		l.halt()
	}
}

// halt marks the ring stopped without touching the slots
func (l *LoopingJob) halt() {
	l.mu.Lock()
	l.running = false
	l.mu.Unlock()
}

func (l *LoopingJob) slotsValidLocked() bool {
	for _, ref := range l.slots {
		if !ref.IsValid() {
			return false
		}
	}
	return true
}

func (l *LoopingJob) play(ref *JobReference) error {
	if l.opts.Tracked != nil {
		return ref.PlayTracked(l.opts.Tracked)
	}
	return ref.PlayAt(l.opts.Position)
}

// Stop halts every slot but keeps them leased for a later Start
func (l *LoopingJob) Stop() {
	l.mu.Lock()
	l.running = false
	slots := append([]*JobReference(nil), l.slots...)
	l.mu.Unlock()

	for _, ref := range slots {
		ref.Stop()
	}
}

// Dispose releases every slot; Setup is required before reuse
func (l *LoopingJob) Dispose() {
	l.mu.Lock()
	l.running = false
	slots := l.slots
	l.slots = nil
	l.current = 0
	l.mu.Unlock()

	for _, ref := range slots {
		ref.Dispose()
	}
}

// IsRunning reports whether the ring is cycling with every slot still leased
func (l *LoopingJob) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running && l.slotsValidLocked()
}

// IsSetUp reports whether slots are leased
func (l *LoopingJob) IsSetUp() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slots != nil
}

// Current returns the slot most recently started, nil before Setup
func (l *LoopingJob) Current() *JobReference {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.slots == nil {
		return nil
	}
	return l.slots[l.current]
}

// Slots returns the ring references in order
func (l *LoopingJob) Slots() []*JobReference {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*JobReference(nil), l.slots...)
}
