package event

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rotisserie/eris"
)

// Continuation is one asynchronous step of a chain event
type Continuation func(ctx context.Context) error

type link struct {
	name string
	fn   Continuation
}

// Chain is the embeddable base of async-chain events
// During the synchronous raise handlers append continuations with Then;
// RaiseChain then awaits them one after another in the order they were added
type Chain struct {
	Evt

	linkMu sync.Mutex
	links  []link
}

// Then appends a continuation to the chain
func (c *Chain) Then(name string, fn Continuation) {
	if fn == nil {
		return
	}
	c.linkMu.Lock()
	c.links = append(c.links, link{name: name, fn: fn})
	c.linkMu.Unlock()
}

// Pending returns the number of continuations not yet run
func (c *Chain) Pending() int {
	c.linkMu.Lock()
	defer c.linkMu.Unlock()
	return len(c.links)
}

func (c *Chain) chain() *Chain { return c }

// next pops the head continuation
func (c *Chain) next() (link, bool) {
	c.linkMu.Lock()
	defer c.linkMu.Unlock()
	if len(c.links) == 0 {
		return link{}, false
	}
	l := c.links[0]
	c.links[0] = link{}
	c.links = c.links[1:]
	return l, true
}

// ChainEvent is satisfied by any pointer to a struct embedding Chain
type ChainEvent interface {
	Event
	Then(name string, fn Continuation)
	chain() *Chain
}

// RaiseChain raises evt synchronously, then awaits each continuation in order
//
// A continuation that fails or panics is logged with the event and continuation
// name; the chain moves on to the next one. The returned error joins every
// failure, so a nil result means the whole chain succeeded. When ctx ends the
// chain stops before the next continuation and ErrChainCancelled is included.
func RaiseChain[T ChainEvent](ctx context.Context, m *Manager, evt T) error {
	r := Register[T](m)
	r.Raise(evt)

	c := evt.chain()
	var errs []error
	for {
		if err := ctx.Err(); err != nil {
			errs = append(errs, eris.Wrapf(ErrChainCancelled, "%s: %v", r.Name(), err))
			m.log.Warn().Str("event", r.Name()).Int("skipped", c.Pending()).Msg("chain cancelled")
			break
		}

		l, ok := c.next()
		if !ok {
			break
		}

		if err := runLink(ctx, l); err != nil {
			m.log.Error().Err(err).Str("event", r.Name()).Str("continuation", l.name).Msg("chain continuation failed")
			errs = append(errs, eris.Wrapf(err, "%s/%s", r.Name(), l.name))
		}
	}

	return errors.Join(errs...)
}

// runLink executes one continuation, converting a panic into an error
func runLink(ctx context.Context, l link) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return l.fn(ctx)
}
