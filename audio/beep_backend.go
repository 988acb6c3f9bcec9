package audio

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
	"github.com/rotisserie/eris"

	"github.com/lixenwraith/spook/core"
)

// resampleQuality is the beep resampler quality used for pitch shifting
const resampleQuality = 4

// BeepBackend mixes sources through a beep.Mixer
// With the speaker attached the mixer is pulled by the sound card; otherwise the
// host pulls samples through Mixer, as tests do
type BeepBackend struct {
	sampleRate beep.SampleRate
	mixer      *beep.Mixer

	lock   func()
	unlock func()
	ownMu  sync.Mutex

	listenerMu sync.RWMutex
	listener   core.Vec3
}

// NewBeepBackend initializes the speaker at rate and starts playing the mixer
func NewBeepBackend(rate int) (*BeepBackend, error) {
	sr := beep.SampleRate(rate)
	if err := speaker.Init(sr, sr.N(100*time.Millisecond)); err != nil {
		return nil, eris.Wrap(err, "init speaker")
	}
	b := &BeepBackend{
		sampleRate: sr,
		mixer:      &beep.Mixer{},
		lock:       speaker.Lock,
		unlock:     speaker.Unlock,
	}
	speaker.Play(b.mixer)
	return b, nil
}

// NewBeepMixerBackend creates a backend whose mixer is pulled by the caller
func NewBeepMixerBackend(rate int) *BeepBackend {
	b := &BeepBackend{
		sampleRate: beep.SampleRate(rate),
		mixer:      &beep.Mixer{},
	}
	b.lock = b.ownMu.Lock
	b.unlock = b.ownMu.Unlock
	return b
}

// Mixer returns the streamer all sources are mixed into
// When pulling it manually, Stream must go through Pull to hold the mixer lock
func (b *BeepBackend) Mixer() *beep.Mixer { return b.mixer }

// Pull streams n samples from the mixer under the backend lock
func (b *BeepBackend) Pull(n int) [][2]float64 {
	buf := make([][2]float64, n)
	b.lock()
	b.mixer.Stream(buf)
	b.unlock()
	return buf
}

// SampleRate returns the mixer sample rate
func (b *BeepBackend) SampleRate() int { return int(b.sampleRate) }

// SetListener moves the listener used for spatial gain
func (b *BeepBackend) SetListener(pos core.Vec3) {
	b.listenerMu.Lock()
	b.listener = pos
	b.listenerMu.Unlock()
}

func (b *BeepBackend) listenerPos() core.Vec3 {
	b.listenerMu.RLock()
	defer b.listenerMu.RUnlock()
	return b.listener
}

// Close clears the mixer
func (b *BeepBackend) Close() {
	b.lock()
	b.mixer.Clear()
	b.unlock()
}

// NewSource implements Backend
func (b *BeepBackend) NewSource() Source {
	return &beepSource{backend: b, volume: 1, pitch: 1, maxDist: 500, minDist: 1}
}

// beepSource is one voice in the mixer
// Streamer fields are touched only under the backend lock
type beepSource struct {
	backend *BeepBackend

	mu           sync.Mutex
	clip         *Clip
	volume       float64
	pitch        float64
	loop         bool
	spatialBlend float64
	minDist      float64
	maxDist      float64
	pos          core.Vec3
	destroyed    bool

	// Active voice chain, guarded by backend lock
	ctrl      *beep.Ctrl
	resampler *beep.Resampler
	vol       *effects.Volume
	ratio     float64
	consumed  float64 // clip samples played, output samples scaled by ratio
	clipLen   int

	playing atomic.Bool
}

// Play implements Source
func (s *beepSource) Play() {
	s.mu.Lock()
	if s.destroyed || s.clip == nil || s.clip.Buffer == nil {
		s.mu.Unlock()
		return
	}
	clip := s.clip
	loop := s.loop
	pitch := s.pitch
	gain := s.gainLocked()
	s.mu.Unlock()

	b := s.backend
	b.lock()
	defer b.unlock()

	s.stopLocked()

	seeker := clip.Buffer.Streamer(0, clip.Buffer.Len())
	var stream beep.Streamer = seeker
	if loop {
		stream = beep.Loop(-1, seeker)
	}
	resampler := beep.ResampleRatio(resampleQuality, pitch, stream)
	vol := &effects.Volume{Streamer: resampler, Base: 2}
	setGain(vol, gain)

	ctrl := &beep.Ctrl{}
	ctrl.Streamer = beep.Seq(&tally{s: vol, src: s}, beep.Callback(func() {
		// Only the voice still attached may clear the flag
		if s.ctrl == ctrl {
			s.playing.Store(false)
		}
	}))

	s.ctrl = ctrl
	s.resampler = resampler
	s.vol = vol
	s.ratio = pitch
	s.consumed = 0
	s.clipLen = clip.Buffer.Len()
	if !loop {
		s.clipLen = 0
	}
	s.playing.Store(true)
	b.mixer.Add(ctrl)
}

// stopLocked detaches the active voice; caller holds the backend lock
func (s *beepSource) stopLocked() {
	if s.ctrl != nil {
		s.ctrl.Paused = true
		s.ctrl.Streamer = nil
	}
	s.ctrl = nil
	s.resampler = nil
	s.vol = nil
	s.consumed = 0
	s.playing.Store(false)
}

// Stop implements Source
func (s *beepSource) Stop() {
	s.backend.lock()
	s.stopLocked()
	s.backend.unlock()
}

// IsPlaying implements Source
func (s *beepSource) IsPlaying() bool { return s.playing.Load() }

// Time implements Source
func (s *beepSource) Time() time.Duration {
	b := s.backend
	b.lock()
	defer b.unlock()
	if s.ctrl == nil {
		return 0
	}
	pos := int(s.consumed)
	if s.clipLen > 0 {
		pos %= s.clipLen
	}
	return b.sampleRate.D(pos)
}

// Volume implements Source
func (s *beepSource) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// SetVolume implements Source
func (s *beepSource) SetVolume(v float64) {
	s.mu.Lock()
	s.volume = v
	gain := s.gainLocked()
	s.mu.Unlock()
	s.applyGain(gain)
}

// SetPitch implements Source
func (s *beepSource) SetPitch(p float64) {
	s.mu.Lock()
	s.pitch = p
	s.mu.Unlock()

	s.backend.lock()
	if s.resampler != nil {
		s.resampler.SetRatio(p)
		s.ratio = p
	}
	s.backend.unlock()
}

// SetLoop implements Source; takes effect on the next Play
func (s *beepSource) SetLoop(loop bool) {
	s.mu.Lock()
	s.loop = loop
	s.mu.Unlock()
}

// SetClip implements Source
func (s *beepSource) SetClip(clip *Clip) {
	s.Stop()
	s.mu.Lock()
	s.clip = clip
	s.mu.Unlock()
}

// Clip implements Source
func (s *beepSource) Clip() *Clip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clip
}

// SetSpatialBlend implements Source
func (s *beepSource) SetSpatialBlend(blend float64) {
	s.mu.Lock()
	s.spatialBlend = blend
	gain := s.gainLocked()
	s.mu.Unlock()
	s.applyGain(gain)
}

// SetDistance implements Source
func (s *beepSource) SetDistance(minDist, maxDist float64) {
	s.mu.Lock()
	s.minDist, s.maxDist = minDist, maxDist
	gain := s.gainLocked()
	s.mu.Unlock()
	s.applyGain(gain)
}

// SetPosition implements Source
func (s *beepSource) SetPosition(pos core.Vec3) {
	s.mu.Lock()
	s.pos = pos
	gain := s.gainLocked()
	s.mu.Unlock()
	s.applyGain(gain)
}

// Destroy implements Source
func (s *beepSource) Destroy() {
	s.Stop()
	s.mu.Lock()
	s.destroyed = true
	s.clip = nil
	s.mu.Unlock()
}

// gainLocked returns linear output gain; caller holds s.mu
func (s *beepSource) gainLocked() float64 {
	return s.volume * spatialGain(s.spatialBlend, s.pos, s.backend.listenerPos(), s.minDist, s.maxDist)
}

func (s *beepSource) applyGain(gain float64) {
	s.backend.lock()
	if s.vol != nil {
		setGain(s.vol, gain)
	}
	s.backend.unlock()
}

// setGain converts linear gain to the exponent effects.Volume expects
// math.Log2(0) is -Inf, so zero gain is expressed as Silent
func setGain(v *effects.Volume, gain float64) {
	if gain <= 0 {
		v.Silent = true
		v.Volume = 0
		return
	}
	v.Silent = false
	v.Volume = math.Log2(gain)
}

// tally counts samples flowing out of a voice to derive its playback position
// The resampler reads ahead of its output, so the clip seeker cannot be used
type tally struct {
	s   beep.Streamer
	src *beepSource
}

func (t *tally) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = t.s.Stream(samples)
	t.src.consumed += float64(n) * t.src.ratio
	return n, ok
}

func (t *tally) Err() error { return t.s.Err() }
