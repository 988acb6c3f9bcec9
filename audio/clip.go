package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/rotisserie/eris"
)

// Clip is decoded audio ready to be assigned to a source
// Buffer is nil for clips that exist only as timing, as on the simulated backend
type Clip struct {
	Name   string
	Length time.Duration
	Buffer *beep.Buffer
}

// ClipLoader turns clip references into clips
type ClipLoader interface {
	LoadClip(ctx context.Context, ref string) (*Clip, error)
	ReleaseClip(clip *Clip)
}

// clipCache stores decoded clips by reference
type clipCache struct {
	mu    sync.Mutex
	store map[string]*Clip
	refs  map[string]int
}

func newClipCache() *clipCache {
	return &clipCache{
		store: make(map[string]*Clip),
		refs:  make(map[string]int),
	}
}

// get returns the cached clip or decodes it with load
func (c *clipCache) get(ref string, load func() (*Clip, error)) (*Clip, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if clip, ok := c.store[ref]; ok {
		c.refs[ref]++
		return clip, nil
	}

	clip, err := load()
	if err != nil {
		return nil, err
	}
	c.store[ref] = clip
	c.refs[ref] = 1
	return clip, nil
}

// release drops one reference, evicting the clip at zero
func (c *clipCache) release(clip *Clip) {
	if clip == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refs[clip.Name] <= 1 {
		delete(c.refs, clip.Name)
		delete(c.store, clip.Name)
		return
	}
	c.refs[clip.Name]--
}

func (c *clipCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.store)
}

// WavLoader decodes WAV files under Dir, resampled to SampleRate
type WavLoader struct {
	Dir        string
	SampleRate beep.SampleRate

	cache *clipCache
	once  sync.Once
}

// NewWavLoader creates a loader reading from dir
func NewWavLoader(dir string, rate int) *WavLoader {
	return &WavLoader{Dir: dir, SampleRate: beep.SampleRate(rate)}
}

// LoadClip implements ClipLoader
func (w *WavLoader) LoadClip(ctx context.Context, ref string) (*Clip, error) {
	w.once.Do(func() { w.cache = newClipCache() })
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return w.cache.get(ref, func() (*Clip, error) { return w.decode(ref) })
}

// ReleaseClip implements ClipLoader
func (w *WavLoader) ReleaseClip(clip *Clip) {
	w.once.Do(func() { w.cache = newClipCache() })
	w.cache.release(clip)
}

func (w *WavLoader) decode(ref string) (*Clip, error) {
	f, err := os.Open(filepath.Join(w.Dir, ref))
	if err != nil {
		return nil, eris.Wrapf(err, "open clip %q", ref)
	}
	defer f.Close()

	streamer, format, err := wav.Decode(f)
	if err != nil {
		return nil, eris.Wrapf(err, "decode clip %q", ref)
	}
	defer streamer.Close()

	target := format
	var src beep.Streamer = streamer
	if w.SampleRate > 0 && format.SampleRate != w.SampleRate {
		src = beep.Resample(4, format.SampleRate, w.SampleRate, streamer)
		target.SampleRate = w.SampleRate
	}

	buf := beep.NewBuffer(target)
	buf.Append(src)
	if err := streamer.Err(); err != nil {
		return nil, eris.Wrapf(err, "stream clip %q", ref)
	}

	return &Clip{
		Name:   ref,
		Length: target.SampleRate.D(buf.Len()),
		Buffer: buf,
	}, nil
}

// MultiLoader routes references to loaders by prefix, "tone:" for example
// References matching no prefix go to Fallback
type MultiLoader struct {
	Prefixes map[string]ClipLoader
	Fallback ClipLoader

	mu     sync.Mutex
	owners map[*Clip]*clipOwner
}

type clipOwner struct {
	loader ClipLoader
	n      int
}

// LoadClip implements ClipLoader
func (m *MultiLoader) LoadClip(ctx context.Context, ref string) (*Clip, error) {
	loader := m.Fallback
	for prefix, l := range m.Prefixes {
		if strings.HasPrefix(ref, prefix) {
			loader = l
			break
		}
	}
	if loader == nil {
		return nil, fmt.Errorf("no loader for clip %q", ref)
	}

	clip, err := loader.LoadClip(ctx, ref)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	if m.owners == nil {
		m.owners = make(map[*Clip]*clipOwner)
	}
	owner, ok := m.owners[clip]
	if !ok {
		owner = &clipOwner{loader: loader}
		m.owners[clip] = owner
	}
	owner.n++
	m.mu.Unlock()
	return clip, nil
}

// ReleaseClip implements ClipLoader
func (m *MultiLoader) ReleaseClip(clip *Clip) {
	m.mu.Lock()
	owner, ok := m.owners[clip]
	if ok {
		owner.n--
		if owner.n <= 0 {
			delete(m.owners, clip)
		}
	}
	m.mu.Unlock()
	if ok {
		owner.loader.ReleaseClip(clip)
	}
}
