package audio

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Provider supplies the clips behind a definition
type Provider interface {
	IsLoaded() bool
	// Load prepares every clip; calling it while loaded is a no-op
	Load(ctx context.Context) error
	// Unload releases every clip regardless of state
	Unload(ctx context.Context) error
	// Count is the number of clip variants
	Count() int
	CreateJob(def *Definition) Job
	Clip(job Job) (*Clip, error)
	// Apply assigns the job's clip and options to a leased handle
	Apply(h *Handle, job Job) error
}

// RangeProvider selects among a fixed list of clip references
type RangeProvider struct {
	refs   []string
	loader ClipLoader
	log    zerolog.Logger

	mu     sync.RWMutex
	clips  []*Clip
	loaded bool
}

// NewRangeProvider creates a provider over refs decoded by loader
func NewRangeProvider(loader ClipLoader, log zerolog.Logger, refs ...string) *RangeProvider {
	return &RangeProvider{
		refs:   refs,
		loader: loader,
		log:    log.With().Str("component", "audio.provider").Logger(),
	}
}

// Refs returns the clip references
func (p *RangeProvider) Refs() []string { return append([]string(nil), p.refs...) }

// IsLoaded implements Provider
func (p *RangeProvider) IsLoaded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loaded
}

// Count implements Provider
func (p *RangeProvider) Count() int { return len(p.refs) }

// Load implements Provider
// Clips that fail to load are logged and left empty; their variants play nothing
func (p *RangeProvider) Load(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loaded {
		p.log.Warn().Strs("clips", p.refs).Msg("provider already loaded")
		return nil
	}

	clips := make([]*Clip, len(p.refs))
	for i, ref := range p.refs {
		if err := ctx.Err(); err != nil {
			p.releaseLocked(clips)
			return eris.Wrap(err, "load provider")
		}
		clip, err := p.loader.LoadClip(ctx, ref)
		if err != nil {
			p.log.Error().Err(err).Str("clip", ref).Msg("clip load failed")
			continue
		}
		clips[i] = clip
	}
	p.clips = clips
	p.loaded = true
	return nil
}

// Unload implements Provider
func (p *RangeProvider) Unload(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked(p.clips)
	p.clips = nil
	p.loaded = false
	return nil
}

func (p *RangeProvider) releaseLocked(clips []*Clip) {
	for _, c := range clips {
		if c != nil {
			p.loader.ReleaseClip(c)
		}
	}
}

// CreateJob implements Provider
// One variant is picked deterministically, several uniformly at random; a
// provider without clips is a configuration error and yields the zero Job
func (p *RangeProvider) CreateJob(def *Definition) Job {
	if def == nil {
		p.log.Error().Strs("clips", p.refs).Msg("job requested without a definition")
		return Job{}
	}
	n := len(p.refs)
	switch {
	case n == 0:
		p.log.Error().Str("definition", def.Name()).Msg("definition has no clips")
		return Job{}
	case n == 1:
		return Job{Definition: def, Variant: 0, Options: def.Options}
	default:
		return Job{Definition: def, Variant: rand.IntN(n), Options: def.Options}
	}
}

// Clip implements Provider
func (p *RangeProvider) Clip(job Job) (*Clip, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.loaded {
		return nil, ErrNotSetUp
	}
	if job.Variant < 0 || job.Variant >= len(p.clips) || p.clips[job.Variant] == nil {
		return nil, eris.Wrapf(ErrNoClip, "variant %d", job.Variant)
	}
	return p.clips[job.Variant], nil
}

// Apply implements Provider
func (p *RangeProvider) Apply(h *Handle, job Job) error {
	clip, err := p.Clip(job)
	if err != nil {
		return err
	}
	h.Source().SetClip(clip)
	h.configure(job.Options)
	return nil
}
