package main

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/spook/audio"
	"github.com/lixenwraith/spook/core"
	"github.com/lixenwraith/spook/module"
	"github.com/lixenwraith/spook/save"
)

const sceneName = "scene"

// listenerSetter is implemented by backends that attenuate by listener position
type listenerSetter interface {
	SetListener(pos core.Vec3)
}

// scene holds the sandbox state that survives save and load:
// the listener position and the jobs that were looping
type scene struct {
	module.Base

	audio *audio.Module
	log   zerolog.Logger

	mu       sync.Mutex
	listener core.Vec3
	loops    map[string]*audio.LoopingJob
	last     audio.Job
}

func newScene(a *audio.Module) *scene {
	return &scene{audio: a, loops: make(map[string]*audio.LoopingJob)}
}

func (s *scene) Name() string { return sceneName }

func (s *scene) Load(rt *module.Runtime) error {
	s.Attach(rt, sceneName)
	rt.Bind(s)
	s.log = rt.Log.With().Str("module", sceneName).Logger()

	module.On[*save.SaveEvt](s).Do(s.onSave)
	module.OnChain[*save.LoadEvt](s).AsyncDo(s.onLoad)
	s.DisposeOnUnload(core.DisposeFunc(s.stopAll))
	return nil
}

func (s *scene) Unload() {
	s.Base.Unload()
	if rt := s.Runtime(); rt != nil {
		rt.Unbind(s)
	}
}

// Listener returns the current listener position
func (s *scene) Listener() core.Vec3 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener
}

// MoveListener shifts the listener and pushes it to the backend
func (s *scene) MoveListener(d core.Vec3) {
	s.mu.Lock()
	s.listener = s.listener.Add(d)
	pos := s.listener
	s.mu.Unlock()
	s.applyListener(pos)
}

func (s *scene) applyListener(pos core.Vec3) {
	post := func() {
		if ls, ok := s.audio.Backend().(listenerSetter); ok {
			ls.SetListener(pos)
		}
	}
	s.audio.Pool().Post(post)
}

// Play starts one shot of def at pos
func (s *scene) Play(ctx context.Context, def *audio.Definition, pos core.Vec3) error {
	job := s.audio.CreateJob(def)
	if _, err := s.audio.PlayAt(ctx, job, pos); err != nil {
		return err
	}
	s.mu.Lock()
	s.last = job
	s.mu.Unlock()
	return nil
}

// ToggleLoop starts a crossfaded loop of def, or stops it when already looping
// Returns whether def is looping afterwards
func (s *scene) ToggleLoop(ctx context.Context, def *audio.Definition) (bool, error) {
	s.mu.Lock()
	l, ok := s.loops[def.Name()]
	if ok {
		delete(s.loops, def.Name())
	}
	s.mu.Unlock()

	if ok {
		l.Dispose()
		return false, nil
	}
	return true, s.startLoop(ctx, s.audio.CreateJob(def))
}

func (s *scene) startLoop(ctx context.Context, job audio.Job) error {
	if job.IsZero() {
		return audio.ErrNoClip
	}
	l := audio.NewLoopingJob(s.audio, job, audio.LoopOptions{
		Crossfade:    audio.DefaultCrossfade,
		SpatialBlend: job.Options.SpatialBlend,
	})
	if err := l.Setup(ctx, true); err != nil {
		l.Dispose()
		return err
	}

	s.mu.Lock()
	prev := s.loops[job.Definition.Name()]
	s.loops[job.Definition.Name()] = l
	s.mu.Unlock()
	if prev != nil {
		prev.Dispose()
	}
	return nil
}

// Looping lists the definitions currently looping
func (s *scene) Looping() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.loops))
	for name, l := range s.loops {
		out[name] = l.IsRunning()
	}
	return out
}

func (s *scene) stopAll() {
	s.mu.Lock()
	loops := s.loops
	s.loops = make(map[string]*audio.LoopingJob)
	s.mu.Unlock()
	for _, l := range loops {
		l.Dispose()
	}
}

func (s *scene) onSave(evt *save.SaveEvt) {
	s.mu.Lock()
	listener := s.listener
	last := s.last
	loops := make([]audio.SerializedJob, 0, len(s.loops))
	for _, l := range s.loops {
		if l.IsRunning() {
			loops = append(loops, l.Job().Serialize())
		}
	}
	s.mu.Unlock()

	ext := evt.WithExtension(sceneName)
	ext.Set("listener", save.Vec3Value(listener))
	ext.Set("loops", loops)
	if !last.IsZero() {
		evt.WriteData("last_job", last.Serialize())
	}
}

func (s *scene) onLoad(ctx context.Context, evt *save.LoadEvt) error {
	ext, ok := evt.Extension(sceneName)
	if !ok {
		s.log.Warn().Msg("save has no scene section")
		return nil
	}

	if pos, err := save.ReadVec3(ext, "listener"); err == nil {
		s.mu.Lock()
		s.listener = pos
		s.mu.Unlock()
		s.applyListener(pos)
	}

	if last, ok := save.TryRead[audio.SerializedJob](evt, "last_job"); ok {
		if job, err := s.audio.Resolve(last); err == nil {
			s.mu.Lock()
			s.last = job
			s.mu.Unlock()
		}
	}

	s.stopAll()
	loops, err := save.Read[[]audio.SerializedJob](ext, "loops")
	if err != nil {
		return nil
	}
	for _, sj := range loops {
		job, err := s.audio.Resolve(sj)
		if err != nil {
			s.log.Warn().Err(err).Str("guid", sj.GUID.String()).Msg("saved loop no longer resolves")
			continue
		}
		if err := s.startLoop(ctx, job); err != nil {
			s.log.Error().Err(err).Str("definition", job.Definition.Name()).Msg("restore loop")
		}
	}
	return nil
}
