package audio

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/spook/config"
	"github.com/lixenwraith/spook/core"
	"github.com/lixenwraith/spook/module"
	"github.com/lixenwraith/spook/registry"
)

// ModuleName is the host registration name of the audio module
const ModuleName = "audio"

// Module owns the handle pool and the definition registry
// The pool is ticked by TickEvt; definitions load during the global start chain
type Module struct {
	module.Base

	backend Backend
	locator registry.Locator[*Definition]
	label   string

	log     zerolog.Logger
	cfg     *config.Config
	pool    *Pool
	defs    *registry.Registry[*Definition]
	enabled bool

	readyOnce sync.Once
	ready     chan struct{}
}

// NewModule creates the audio module over backend
// locator may be nil when definitions are registered in code
func NewModule(backend Backend, locator registry.Locator[*Definition], label string) *Module {
	return &Module{
		backend: backend,
		locator: locator,
		label:   label,
		ready:   make(chan struct{}),
	}
}

// NewBackend builds the backend named by cfg
func NewBackend(cfg *config.Config) (Backend, error) {
	switch cfg.AudioBackend {
	case config.AudioBackendBeep:
		return NewBeepBackend(cfg.AudioSampleRate)
	default:
		return NewSimBackend(), nil
	}
}

// NewClipLoader builds the loader routing tone references to ToneLoader and the rest to WavLoader
func NewClipLoader(cfg *config.Config) ClipLoader {
	return &MultiLoader{
		Prefixes: map[string]ClipLoader{TonePrefix: NewToneLoader(cfg.AudioSampleRate)},
		Fallback: NewWavLoader(cfg.AudioClipDir, cfg.AudioSampleRate),
	}
}

// Logger returns the module logger
func (m *Module) Logger() zerolog.Logger { return m.log }

// Name implements module.Module
func (m *Module) Name() string { return ModuleName }

// Load implements module.Module
func (m *Module) Load(rt *module.Runtime) error {
	if m.backend == nil {
		return eris.New("audio backend not set")
	}
	m.Attach(rt, ModuleName)
	rt.Bind(m)

	m.cfg = rt.Config
	m.log = rt.Log.With().Str("module", ModuleName).Logger()
	m.enabled = rt.Config.AudioEnabled
	m.pool = NewPool(m.backend, rt.Config.AudioPoolMax, rt.Log, rt.Status)
	m.pool.SetMasterVolume(rt.Config.MasterVolume)
	m.defs = registry.New[*Definition](rt.Log)

	module.On[*module.TickEvt](m).Do(m.onTick)
	module.OnChain[*module.GlobalStartEvt](m).AsyncDo(m.onGlobalStart)
	m.DisposeOnUnload(core.DisposeFunc(m.shutdown))
	return nil
}

// Unload implements module.Module
func (m *Module) Unload() {
	m.Base.Unload()
	if rt := m.Runtime(); rt != nil {
		rt.Unbind(m)
	}
}

func (m *Module) onTick(evt *module.TickEvt) {
	m.pool.Tick(evt.Delta)
}

func (m *Module) onGlobalStart(ctx context.Context, _ *module.GlobalStartEvt) error {
	defer m.readyOnce.Do(func() { close(m.ready) })
	if m.locator == nil {
		return nil
	}
	if err := m.defs.Load(ctx, m.locator, m.label); err != nil {
		return eris.Wrap(err, "load audio definitions")
	}
	m.log.Info().Int("definitions", m.defs.Len()).Msg("audio definitions loaded")
	return nil
}

// shutdown clears the pool and releases every definition
func (m *Module) shutdown() {
	m.pool.Clear()
	m.defs.Dispose()
	if c, ok := m.backend.(interface{ Close() }); ok {
		c.Close()
	}
}

// Ready is closed once definitions finished loading
func (m *Module) Ready() <-chan struct{} { return m.ready }

// Registry returns the definition registry
func (m *Module) Registry() *registry.Registry[*Definition] { return m.defs }

// Pool returns the handle pool
func (m *Module) Pool() *Pool { return m.pool }

// Backend returns the backend sources are created on
func (m *Module) Backend() Backend { return m.backend }

// CreateJob picks a clip variant of def
func (m *Module) CreateJob(def *Definition) Job {
	if def == nil || def.Provider == nil {
		m.log.Error().Msg("create job: definition has no provider")
		return Job{}
	}
	return def.Provider.CreateJob(def)
}

// Resolve turns a serialized job back into a job through the registry
func (m *Module) Resolve(s SerializedJob) (Job, error) {
	return s.Resolve(m.defs.TryGetByGUID)
}

// Clip returns the clip a job would play
func (m *Module) Clip(ctx context.Context, job Job) (*Clip, error) {
	if job.IsZero() {
		return nil, ErrNoClip
	}
	p := job.Definition.Provider
	if !p.IsLoaded() {
		if err := p.Load(ctx); err != nil {
			return nil, err
		}
	}
	return p.Clip(job)
}

// Unstarted leases and configures a handle for job without starting it
func (m *Module) Unstarted(ctx context.Context, job Job) (*JobReference, error) {
	if !m.enabled {
		return nil, ErrDisabled
	}
	if job.IsZero() {
		m.log.Error().Msg("play: empty job")
		return nil, ErrNoClip
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := m.Clip(ctx, job); err != nil {
		m.log.Error().Err(err).Str("definition", job.Definition.Name()).Msg("play: no clip")
		return nil, err
	}

	ref := m.pool.Reserve(job)
	err := m.pool.Fulfil(ref, func(h *Handle) error {
		return job.Definition.Provider.Apply(h, job)
	})
	if err != nil {
		m.log.Error().Err(err).Str("definition", job.Definition.Name()).Msg("play: lease failed")
		return nil, err
	}
	return ref, nil
}

// Play starts job without a position
func (m *Module) Play(ctx context.Context, job Job) (*JobReference, error) {
	return m.playWith(ctx, job, func(r *JobReference) error { return r.Play() })
}

// PlayAt starts job at pos
func (m *Module) PlayAt(ctx context.Context, job Job, pos core.Vec3) (*JobReference, error) {
	return m.playWith(ctx, job, func(r *JobReference) error { return r.PlayAt(pos) })
}

// PlayTracked starts job following tracker
func (m *Module) PlayTracked(ctx context.Context, job Job, tracker Tracker) (*JobReference, error) {
	return m.playWith(ctx, job, func(r *JobReference) error { return r.PlayTracked(tracker) })
}

func (m *Module) playWith(ctx context.Context, job Job, start func(*JobReference) error) (*JobReference, error) {
	ref, err := m.Unstarted(ctx, job)
	if err != nil {
		return nil, err
	}
	if err := start(ref); err != nil {
		m.log.Error().Err(err).Str("definition", job.Definition.Name()).Msg("play: start failed")
		ref.Dispose()
		return nil, err
	}
	return ref, nil
}
