package module

import (
	"context"

	"github.com/lixenwraith/spook/event"
)

// CallbackBuilder subscribes handlers on behalf of a module
// Every registration it creates is disposed when the module unloads
type CallbackBuilder[T event.Event] struct {
	owner    Owner
	priority int
	name     string
}

// On starts a subscription for event type T owned by owner
func On[T event.Event](owner Owner) CallbackBuilder[T] {
	return CallbackBuilder[T]{owner: owner}
}

// Priority sets the dispatch priority, lower runs first
func (b CallbackBuilder[T]) Priority(p int) CallbackBuilder[T] {
	b.priority = p
	return b
}

// Named overrides the function-derived debug name
func (b CallbackBuilder[T]) Named(name string) CallbackBuilder[T] {
	b.name = name
	return b
}

// Do subscribes h for every raise
func (b CallbackBuilder[T]) Do(h event.Handler[T]) *event.Registration[T] {
	reg := event.Subscribe(b.owner.Runtime().Events, h, b.priority, b.debugName(h))
	b.owner.DisposeOnUnload(reg)
	return reg
}

// DoOnce subscribes h for the next raise only
func (b CallbackBuilder[T]) DoOnce(h event.Handler[T]) *event.Registration[T] {
	reg := event.SubscribeOnce(b.owner.Runtime().Events, h, b.priority, b.debugName(h))
	b.owner.DisposeOnUnload(reg)
	return reg
}

// Stream subscribes h until it returns true
func (b CallbackBuilder[T]) Stream(h event.StreamHandler[T]) *event.Registration[T] {
	reg := event.SubscribeStream(b.owner.Runtime().Events, h, b.priority, b.debugName(h))
	b.owner.DisposeOnUnload(reg)
	return reg
}

func (b CallbackBuilder[T]) debugName(fn any) string {
	name := b.name
	if name == "" {
		name = event.FuncName(fn)
	}
	return "@" + b.owner.Label() + " " + name
}

// ChainBuilder adds continuations to async-chain events on behalf of a module
type ChainBuilder[T event.ChainEvent] struct {
	CallbackBuilder[T]
}

// OnChain starts a chain subscription for event type T owned by owner
func OnChain[T event.ChainEvent](owner Owner) ChainBuilder[T] {
	return ChainBuilder[T]{CallbackBuilder: On[T](owner)}
}

// Priority sets the dispatch priority, which also orders continuations
func (b ChainBuilder[T]) Priority(p int) ChainBuilder[T] {
	b.priority = p
	return b
}

// Named overrides the function-derived debug name
func (b ChainBuilder[T]) Named(name string) ChainBuilder[T] {
	b.name = name
	return b
}

// ChainDo appends fn to the chain of every raise
// fn runs after the synchronous handlers, in continuation order
func (b ChainBuilder[T]) ChainDo(fn func(T) error) *event.Registration[T] {
	name := b.debugName(fn)
	return b.Named(name).subscribe(func(evt T) {
		evt.Then(name, func(context.Context) error { return fn(evt) })
	})
}

// AsyncDo appends a context-aware continuation to the chain of every raise
func (b ChainBuilder[T]) AsyncDo(fn func(context.Context, T) error) *event.Registration[T] {
	name := b.debugName(fn)
	return b.Named(name).subscribe(func(evt T) {
		evt.Then(name, func(ctx context.Context) error { return fn(ctx, evt) })
	})
}

// subscribe registers h under the already-decorated debug name
func (b ChainBuilder[T]) subscribe(h event.Handler[T]) *event.Registration[T] {
	reg := event.Subscribe(b.owner.Runtime().Events, h, b.priority, b.name)
	b.owner.DisposeOnUnload(reg)
	return reg
}
