package audio

import (
	"sync"
	"time"

	"github.com/lixenwraith/spook/core"
)

// SimBackend provides silent sources whose clock advances only through Advance
// Used by tests and headless hosts
type SimBackend struct {
	mu       sync.Mutex
	sources  []*SimSource
	listener core.Vec3
}

// NewSimBackend creates an empty simulated backend
func NewSimBackend() *SimBackend {
	return &SimBackend{}
}

// NewSource implements Backend
func (b *SimBackend) NewSource() Source {
	s := &SimSource{backend: b, volume: 1, pitch: 1}
	b.mu.Lock()
	b.sources = append(b.sources, s)
	b.mu.Unlock()
	return s
}

// SetListener moves the listener used for spatial gain
func (b *SimBackend) SetListener(pos core.Vec3) {
	b.mu.Lock()
	b.listener = pos
	b.mu.Unlock()
}

// Advance implements Advancer
func (b *SimBackend) Advance(dt time.Duration) {
	b.mu.Lock()
	sources := append([]*SimSource(nil), b.sources...)
	b.mu.Unlock()

	for _, s := range sources {
		s.advance(dt)
	}
}

// Live returns the number of sources not yet destroyed
func (b *SimBackend) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sources)
}

func (b *SimBackend) remove(s *SimSource) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, existing := range b.sources {
		if existing == s {
			b.sources = append(b.sources[:i], b.sources[i+1:]...)
			return
		}
	}
}

// SimSource is a simulated voice; a clip plays for exactly its Length divided by pitch
type SimSource struct {
	backend *SimBackend

	mu           sync.Mutex
	clip         *Clip
	playing      bool
	t            time.Duration
	volume       float64
	pitch        float64
	loop         bool
	spatialBlend float64
	minDist      float64
	maxDist      float64
	pos          core.Vec3
	destroyed    bool
	plays        int
}

func (s *SimSource) advance(dt time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing || s.clip == nil {
		return
	}

	s.t += time.Duration(float64(dt) * s.pitch)
	if s.t < s.clip.Length {
		return
	}
	if s.loop && s.clip.Length > 0 {
		s.t %= s.clip.Length
		return
	}
	s.playing = false
	s.t = 0
}

// Play implements Source
func (s *SimSource) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed || s.clip == nil {
		return
	}
	s.playing = true
	s.t = 0
	s.plays++
}

// Stop implements Source
func (s *SimSource) Stop() {
	s.mu.Lock()
	s.playing = false
	s.t = 0
	s.mu.Unlock()
}

// IsPlaying implements Source
func (s *SimSource) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Time implements Source
func (s *SimSource) Time() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t
}

// Volume implements Source
func (s *SimSource) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// SetVolume implements Source
func (s *SimSource) SetVolume(v float64) {
	s.mu.Lock()
	s.volume = v
	s.mu.Unlock()
}

// Pitch returns the playback rate
func (s *SimSource) Pitch() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pitch
}

// SetPitch implements Source
func (s *SimSource) SetPitch(p float64) {
	s.mu.Lock()
	s.pitch = p
	s.mu.Unlock()
}

// SetLoop implements Source
func (s *SimSource) SetLoop(loop bool) {
	s.mu.Lock()
	s.loop = loop
	s.mu.Unlock()
}

// SetClip implements Source
func (s *SimSource) SetClip(clip *Clip) {
	s.mu.Lock()
	s.clip = clip
	s.playing = false
	s.t = 0
	s.mu.Unlock()
}

// Clip implements Source
func (s *SimSource) Clip() *Clip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clip
}

// SetSpatialBlend implements Source
func (s *SimSource) SetSpatialBlend(b float64) {
	s.mu.Lock()
	s.spatialBlend = b
	s.mu.Unlock()
}

// SetDistance implements Source
func (s *SimSource) SetDistance(minDist, maxDist float64) {
	s.mu.Lock()
	s.minDist, s.maxDist = minDist, maxDist
	s.mu.Unlock()
}

// SetPosition implements Source
func (s *SimSource) SetPosition(pos core.Vec3) {
	s.mu.Lock()
	s.pos = pos
	s.mu.Unlock()
}

// Position returns the emitter position
func (s *SimSource) Position() core.Vec3 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

// Audible returns the volume after spatial attenuation
func (s *SimSource) Audible() float64 {
	s.backend.mu.Lock()
	listener := s.backend.listener
	s.backend.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume * spatialGain(s.spatialBlend, s.pos, listener, s.minDist, s.maxDist)
}

// Plays returns how many times Play started this source
func (s *SimSource) Plays() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plays
}

// Destroyed reports whether Destroy was called
func (s *SimSource) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// Destroy implements Source
func (s *SimSource) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	s.playing = false
	s.clip = nil
	s.mu.Unlock()
	s.backend.remove(s)
}
