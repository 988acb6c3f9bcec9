package audio

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/spook/status"
)

// lengthLoader serves timing-only clips named by their reference
type lengthLoader map[string]time.Duration

func (l lengthLoader) LoadClip(_ context.Context, ref string) (*Clip, error) {
	d, ok := l[ref]
	if !ok {
		return nil, ErrNoClip
	}
	return &Clip{Name: ref, Length: d}, nil
}

func (l lengthLoader) ReleaseClip(*Clip) {}

// fixture wires a simulated backend, a pool and a one-second definition
type fixture struct {
	backend *SimBackend
	pool    *Pool
	status  *status.Registry
	def     *Definition
}

func newFixture(t *testing.T, softMax int) *fixture {
	t.Helper()
	reg := status.NewRegistry()
	backend := NewSimBackend()
	provider := NewRangeProvider(lengthLoader{"one": time.Second, "two": 2 * time.Second}, zerolog.Nop(), "one")
	require.NoError(t, provider.Load(context.Background()))

	return &fixture{
		backend: backend,
		pool:    NewPool(backend, softMax, zerolog.Nop(), reg),
		status:  reg,
		def:     NewDefinition("chime", provider),
	}
}

// lease returns a configured, bound reference for the fixture definition
func (f *fixture) lease(t *testing.T) *JobReference {
	t.Helper()
	job := f.def.Provider.CreateJob(f.def)
	ref := f.pool.Reserve(job)
	require.NoError(t, f.pool.Fulfil(ref, func(h *Handle) error {
		return f.def.Provider.Apply(h, job)
	}))
	return ref
}

// tick advances the pool n times by dt
func (f *fixture) tick(n int, dt time.Duration) {
	for range n {
		f.pool.Tick(dt)
	}
}

// Unstarted implements Player over the fixture pool
func (f *fixture) Unstarted(_ context.Context, job Job) (*JobReference, error) {
	ref := f.pool.Reserve(job)
	if err := f.pool.Fulfil(ref, func(h *Handle) error { return job.Definition.Provider.Apply(h, job) }); err != nil {
		return nil, err
	}
	return ref, nil
}
