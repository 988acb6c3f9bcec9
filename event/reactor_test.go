package event

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingEvt struct {
	Evt
	Value int
}

type pongEvt struct {
	Evt
}

// TestRaisePriorityOrder verifies handlers run in ascending priority regardless of subscription order
func TestRaisePriorityOrder(t *testing.T) {
	r := NewReactor[*pingEvt]()
	var order []int

	r.Subscribe(func(*pingEvt) { order = append(order, 3) }, 30, "p3")
	r.Subscribe(func(*pingEvt) { order = append(order, 1) }, 10, "p1")
	r.Subscribe(func(*pingEvt) { order = append(order, 2) }, 20, "p2")

	r.Raise(&pingEvt{})

	assert.Equal(t, []int{1, 2, 3}, order)
}

// TestEqualPriorityKeepsSubscriptionOrder verifies stable ordering within a priority
func TestEqualPriorityKeepsSubscriptionOrder(t *testing.T) {
	r := NewReactor[*pingEvt]()
	var order []string

	r.Subscribe(func(*pingEvt) { order = append(order, "a") }, 0, "a")
	r.Subscribe(func(*pingEvt) { order = append(order, "b") }, 0, "b")
	r.Subscribe(func(*pingEvt) { order = append(order, "first") }, -1, "first")

	r.Raise(&pingEvt{})

	assert.Equal(t, []string{"first", "a", "b"}, order)
}

// TestHandlersMutatePayload verifies later handlers observe earlier mutations
func TestHandlersMutatePayload(t *testing.T) {
	r := NewReactor[*pingEvt]()
	r.Subscribe(func(e *pingEvt) { e.Value += 1 }, 0, "")
	r.Subscribe(func(e *pingEvt) { e.Value *= 10 }, 1, "")

	evt := &pingEvt{Value: 1}
	r.Raise(evt)

	assert.Equal(t, 20, evt.Value)
}

// TestSubscribeOnce verifies a once handler never fires on a second raise
func TestSubscribeOnce(t *testing.T) {
	r := NewReactor[*pingEvt]()
	calls := 0
	reg := r.SubscribeOnce(func(*pingEvt) { calls++ }, 0, "once")

	r.Raise(&pingEvt{})
	r.Raise(&pingEvt{})

	assert.Equal(t, 1, calls)
	assert.False(t, reg.Active())
	assert.Equal(t, 0, r.Len())
}

// TestSubscribeOnceReentrant verifies a once handler re-raising its own event is not invoked twice
func TestSubscribeOnceReentrant(t *testing.T) {
	r := NewReactor[*pingEvt]()
	calls := 0
	r.SubscribeOnce(func(*pingEvt) {
		calls++
		r.Raise(&pingEvt{})
	}, 0, "once")

	r.Raise(&pingEvt{})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, r.Len())
}

// TestSubscribeOnceDisposedAfterDispatch verifies the once registration stays listed until the raise finishes
func TestSubscribeOnceDisposedAfterDispatch(t *testing.T) {
	r := NewReactor[*pingEvt]()
	r.SubscribeOnce(func(*pingEvt) {}, 0, "once")

	var lenDuringDispatch int
	r.Subscribe(func(*pingEvt) { lenDuringDispatch = r.Len() }, 1, "observer")

	r.Raise(&pingEvt{})

	assert.Equal(t, 2, lenDuringDispatch)
	assert.Equal(t, 1, r.Len())
}

// TestSubscribeStream verifies a stream returning false N times then true runs N+1 times
func TestSubscribeStream(t *testing.T) {
	r := NewReactor[*pingEvt]()
	calls := 0
	reg := r.SubscribeStream(func(*pingEvt) bool {
		calls++
		return calls == 4
	}, 0, "stream")

	for i := 0; i < 10; i++ {
		r.Raise(&pingEvt{})
	}

	assert.Equal(t, 4, calls)
	assert.False(t, reg.Active())
	assert.Equal(t, 0, r.Len())
}

// TestUnsubscribeDuringDispatch verifies removal mid-raise neither skips nor double-invokes others
func TestUnsubscribeDuringDispatch(t *testing.T) {
	r := NewReactor[*pingEvt]()
	counts := make([]int, 4)

	var regs [4]*Registration[*pingEvt]
	regs[0] = r.Subscribe(func(*pingEvt) {
		counts[0]++
		regs[0].Dispose()
	}, 0, "self")
	regs[1] = r.Subscribe(func(*pingEvt) {
		counts[1]++
		r.Unsubscribe(regs[2])
	}, 1, "removes-next")
	regs[2] = r.Subscribe(func(*pingEvt) { counts[2]++ }, 2, "removed")
	regs[3] = r.Subscribe(func(*pingEvt) { counts[3]++ }, 3, "tail")

	r.Raise(&pingEvt{})
	assert.Equal(t, []int{1, 1, 0, 1}, counts)

	r.Raise(&pingEvt{})
	assert.Equal(t, []int{1, 2, 0, 2}, counts)
}

// TestSubscribeDuringDispatch verifies handlers added mid-raise join on the next raise
func TestSubscribeDuringDispatch(t *testing.T) {
	r := NewReactor[*pingEvt]()
	added := 0
	r.SubscribeOnce(func(*pingEvt) {
		r.Subscribe(func(*pingEvt) { added++ }, -10, "late")
	}, 0, "adder")

	r.Raise(&pingEvt{})
	assert.Equal(t, 0, added)

	r.Raise(&pingEvt{})
	assert.Equal(t, 1, added)
}

// TestFinalizersRunAfterHandlers verifies finalizers run after all handlers in insertion order
func TestFinalizersRunAfterHandlers(t *testing.T) {
	r := NewReactor[*pingEvt]()
	var order []string

	r.Subscribe(func(e *pingEvt) {
		order = append(order, "h1")
		e.AddFinalizer(func() { order = append(order, "f1") })
	}, 0, "")
	r.Subscribe(func(e *pingEvt) {
		order = append(order, "h2")
		e.AddFinalizer(func() { order = append(order, "f2") })
	}, 1, "")

	r.Raise(&pingEvt{})

	assert.Equal(t, []string{"h1", "h2", "f1", "f2"}, order)
}

// TestRecycledEventDoesNotReplayFinalizers verifies the finalizer chain is drained per raise
func TestRecycledEventDoesNotReplayFinalizers(t *testing.T) {
	r := NewReactor[*pingEvt]()
	runs := 0
	r.SubscribeOnce(func(e *pingEvt) {
		e.AddFinalizer(func() { runs++ })
	}, 0, "")

	evt := &pingEvt{}
	r.Raise(evt)
	r.Raise(evt)

	assert.Equal(t, 1, runs)
}

// TestHandlerPanicPropagates verifies handler panics reach the raiser
func TestHandlerPanicPropagates(t *testing.T) {
	r := NewReactor[*pingEvt]()
	r.Subscribe(func(*pingEvt) { panic("boom") }, 0, "")

	assert.PanicsWithValue(t, "boom", func() { r.Raise(&pingEvt{}) })
}

// TestRegistrationDisposeIdempotent verifies repeated dispose and unsubscribe are no-ops
func TestRegistrationDisposeIdempotent(t *testing.T) {
	r := NewReactor[*pingEvt]()
	reg := r.Subscribe(func(*pingEvt) {}, 0, "")
	keep := r.Subscribe(func(*pingEvt) {}, 0, "")

	reg.Dispose()
	reg.Dispose()
	r.Unsubscribe(reg)
	r.Unsubscribe(nil)

	assert.Equal(t, 1, r.Len())
	assert.True(t, keep.Active())
}

// TestUnsubscribeForeignRegistration verifies a reactor ignores registrations it does not own
func TestUnsubscribeForeignRegistration(t *testing.T) {
	a := NewReactor[*pingEvt]()
	b := NewReactor[*pingEvt]()
	reg := a.Subscribe(func(*pingEvt) {}, 0, "")

	b.Unsubscribe(reg)

	assert.True(t, reg.Active())
	assert.Equal(t, 1, a.Len())
}

// TestConcurrentSubscribeRaise exercises the reactor lock under the race detector
func TestConcurrentSubscribeRaise(t *testing.T) {
	r := NewReactor[*pingEvt]()
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			reg := r.Subscribe(func(*pingEvt) {
				mu.Lock()
				total++
				mu.Unlock()
			}, i, "")
			r.Raise(&pingEvt{})
			reg.Dispose()
		}()
		go func() {
			defer wg.Done()
			r.Raise(&pingEvt{})
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, r.Len())
	assert.Positive(t, total)
}

// TestReactorInfo verifies priority grouping and duplicate name collapsing
func TestReactorInfo(t *testing.T) {
	r := NewReactor[*pingEvt]()
	r.Subscribe(func(*pingEvt) {}, 5, "audio")
	r.Subscribe(func(*pingEvt) {}, 0, "save")
	r.Subscribe(func(*pingEvt) {}, 5, "audio")
	r.Subscribe(func(*pingEvt) {}, 5, "ui")
	r.Raise(&pingEvt{})

	info := r.Info()
	require.Len(t, info.Rows, 2)
	assert.Equal(t, "pingEvt", info.Name)
	assert.Equal(t, uint64(1), info.Raised)
	assert.Equal(t, 0, info.Rows[0].Priority)
	assert.Equal(t, []string{"save"}, info.Rows[0].Handlers)
	assert.Equal(t, 5, info.Rows[1].Priority)
	assert.Equal(t, []string{"audio (2)", "ui"}, info.Rows[1].Handlers)
	assert.Equal(t, 3, info.Handlers())
}

func namedHandler(*pingEvt) {}

// TestDerivedDebugName verifies empty debug names fall back to the function symbol
func TestDerivedDebugName(t *testing.T) {
	r := NewReactor[*pingEvt]()
	reg := r.Subscribe(namedHandler, 0, "")

	assert.Equal(t, "event.namedHandler", reg.DebugName())
	assert.Equal(t, "unknown", FuncName(nil))
}

func newTestManager() *Manager {
	return NewManager(zerolog.Nop())
}
