package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/spook/core"
	"github.com/lixenwraith/spook/event"
	"github.com/lixenwraith/spook/module"
)

// Ticker drives the per-frame host tick on a fixed interval
// Each tick raises module.TickEvt on the runtime's event manager
type Ticker struct {
	rt       *module.Runtime
	interval time.Duration

	frame atomic.Uint64

	// Control
	mu       sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  atomic.Bool

	statTicks *atomic.Int64
}

// NewTicker creates a ticker raising TickEvt every interval
func NewTicker(rt *module.Runtime, interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = rt.Config.TickInterval()
	}
	return &Ticker{
		rt:        rt,
		interval:  interval,
		statTicks: rt.Status.Ints.Get("engine.ticks"),
	}
}

// Frame returns the number of ticks raised so far
func (t *Ticker) Frame() uint64 { return t.frame.Load() }

// Running reports whether the loop is active
func (t *Ticker) Running() bool { return t.running.Load() }

// Start begins the tick loop; no-op when already running
func (t *Ticker) Start() {
	if !t.running.CompareAndSwap(false, true) {
		return
	}
	t.mu.Lock()
	t.stopChan = make(chan struct{})
	stop := t.stopChan
	t.mu.Unlock()

	t.wg.Add(1)
	core.Go(func() { t.loop(stop) })
}

// Stop halts the tick loop and waits for it to exit
// Must not be called from a TickEvt handler
func (t *Ticker) Stop() {
	if !t.running.CompareAndSwap(true, false) {
		return
	}
	t.mu.Lock()
	close(t.stopChan)
	t.mu.Unlock()
	t.wg.Wait()
}

// Step raises a single tick with the given delta
// Used by the loop and by hosts that drive frames manually
func (t *Ticker) Step(dt time.Duration) {
	frame := t.frame.Add(1)
	t.statTicks.Add(1)
	event.Raise(t.rt.Events, &module.TickEvt{Frame: frame, Delta: dt})
}

func (t *Ticker) loop(stop <-chan struct{}) {
	defer t.wg.Done()

	tk := time.NewTicker(t.interval)
	defer tk.Stop()

	last := time.Now()
	maxDelta := t.interval * 2

	for {
		select {
		case <-stop:
			return
		case now := <-tk.C:
			dt := now.Sub(last)
			last = now
			// Cap the delta after stalls so fades do not jump
			if dt > maxDelta {
				dt = maxDelta
			}
			t.Step(dt)
		}
	}
}
