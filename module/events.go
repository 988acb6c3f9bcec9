package module

import (
	"time"

	"github.com/lixenwraith/spook/event"
)

// GlobalStartEvt is raised once after every module has loaded
// Modules hook it with OnChain to run initialization that must finish before
// the host reports started
type GlobalStartEvt struct {
	event.Chain
}

// TickEvt is raised once per host frame
type TickEvt struct {
	event.Evt
	Frame uint64
	Delta time.Duration
}

// Seconds returns Delta in seconds
func (e *TickEvt) Seconds() float64 { return e.Delta.Seconds() }
