package event

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRegisterIsIdempotent verifies one reactor per event type
func TestRegisterIsIdempotent(t *testing.T) {
	m := newTestManager()

	a := Register[*pingEvt](m)
	b := Register[*pingEvt](m)
	c := Register[*pongEvt](m)

	assert.Same(t, a, b)
	assert.NotEqual(t, a.Type(), c.Type())
	assert.True(t, m.Has(reflect.TypeFor[*pingEvt]()))
}

// TestAdoptFirstWriterWins verifies adopting a reactor never replaces an existing one
func TestAdoptFirstWriterWins(t *testing.T) {
	m := newTestManager()
	first := Register[*pingEvt](m)

	got := Adopt(m, NewReactor[*pingEvt]())

	assert.Same(t, first, got)
}

// TestGetUnknown verifies lookups of unregistered types fail
func TestGetUnknown(t *testing.T) {
	m := newTestManager()

	_, err := Get[*pingEvt](m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownEvent))
}

// TestRaiseAnyAfterUnregister verifies strict raising fails once the reactor is dropped
func TestRaiseAnyAfterUnregister(t *testing.T) {
	m := newTestManager()
	calls := 0
	Subscribe(m, func(*pingEvt) { calls++ }, 0, "")

	require.NoError(t, m.RaiseAny(&pingEvt{}))
	assert.Equal(t, 1, calls)

	Unregister[*pingEvt](m)
	err := m.RaiseAny(&pingEvt{})
	assert.True(t, errors.Is(err, ErrUnknownEvent))
	assert.Equal(t, 1, calls)
}

// TestTypedRaiseRegistersLazily verifies the typed helpers create reactors on demand
func TestTypedRaiseRegistersLazily(t *testing.T) {
	m := newTestManager()
	Raise(m, &pingEvt{})

	r, err := Get[*pingEvt](m)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), r.Raised())

	calls := 0
	SubscribeOnce(m, func(*pingEvt) { calls++ }, 0, "")
	SubscribeStream(m, func(*pingEvt) bool { calls++; return false }, 0, "")
	Raise(m, &pingEvt{})
	Raise(m, &pingEvt{})
	assert.Equal(t, 3, calls)
}

// TestReactorsSortedByName verifies debug listing order
func TestReactorsSortedByName(t *testing.T) {
	m := newTestManager()
	Register[*pongEvt](m)
	Register[*pingEvt](m)

	infos := m.Reactors()
	require.Len(t, infos, 2)
	assert.Equal(t, "pingEvt", infos[0].Name)
	assert.Equal(t, "pongEvt", infos[1].Name)
}

type bootEvt struct {
	Chain
	Log []string
}

// TestRaiseChainSequential verifies continuations run in order after the sync handlers
func TestRaiseChainSequential(t *testing.T) {
	m := newTestManager()
	Subscribe(m, func(e *bootEvt) {
		e.Log = append(e.Log, "sync-a")
		e.Then("a", func(context.Context) error {
			e.Log = append(e.Log, "cont-a")
			return nil
		})
	}, 0, "")
	Subscribe(m, func(e *bootEvt) {
		e.Log = append(e.Log, "sync-b")
		e.Then("b", func(context.Context) error {
			e.Log = append(e.Log, "cont-b")
			return nil
		})
	}, 10, "")

	evt := &bootEvt{}
	require.NoError(t, RaiseChain(context.Background(), m, evt))

	assert.Equal(t, []string{"sync-a", "sync-b", "cont-a", "cont-b"}, evt.Log)
	assert.Equal(t, 0, evt.Pending())
}

// TestRaiseChainContinuesAfterFailure verifies a failing step does not stop later steps
func TestRaiseChainContinuesAfterFailure(t *testing.T) {
	m := newTestManager()
	failure := errors.New("disk gone")
	bRan := false

	Subscribe(m, func(e *bootEvt) {
		e.Then("a", func(context.Context) error { return failure })
		e.Then("panics", func(context.Context) error { panic("bad step") })
		e.Then("b", func(context.Context) error {
			bRan = true
			return nil
		})
	}, 0, "")

	err := RaiseChain(context.Background(), m, &bootEvt{})

	require.Error(t, err)
	assert.True(t, bRan)
	assert.True(t, errors.Is(err, failure))
	assert.Contains(t, err.Error(), "panic: bad step")
}

// TestRaiseChainCancelled verifies a cancelled context stops before the next continuation
func TestRaiseChainCancelled(t *testing.T) {
	m := newTestManager()
	ctx, cancel := context.WithCancel(context.Background())
	secondRan := false

	Subscribe(m, func(e *bootEvt) {
		e.Then("cancel", func(context.Context) error {
			cancel()
			return nil
		})
		e.Then("second", func(context.Context) error {
			secondRan = true
			return nil
		})
	}, 0, "")

	err := RaiseChain(ctx, m, &bootEvt{})

	assert.True(t, errors.Is(err, ErrChainCancelled))
	assert.False(t, secondRan)
}
