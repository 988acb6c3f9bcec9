package audio

import (
	"time"

	"github.com/lixenwraith/spook/core"
)

// Source is one playable audio voice provided by a backend
type Source interface {
	Play()
	Stop()
	IsPlaying() bool
	// Time is the playback position within the clip
	Time() time.Duration

	Volume() float64
	SetVolume(v float64)
	SetPitch(p float64)
	SetLoop(loop bool)
	SetClip(clip *Clip)
	Clip() *Clip
	SetSpatialBlend(b float64)
	SetDistance(min, max float64)
	SetPosition(pos core.Vec3)

	// Destroy frees the voice; the source is unusable afterwards
	Destroy()
}

// Backend creates sources
type Backend interface {
	NewSource() Source
}

// Advancer is implemented by backends whose clock is driven by the host tick
type Advancer interface {
	Advance(dt time.Duration)
}

// Tracker supplies a position that follows a moving emitter
type Tracker interface {
	Position() core.Vec3
}

// TrackerFunc adapts a function to Tracker
type TrackerFunc func() core.Vec3

// Position implements Tracker
func (f TrackerFunc) Position() core.Vec3 { return f() }

// Attenuation returns the inverse-distance rolloff gain for an emitter at distance d
// Gain is 1 inside minDist and held at its maxDist value beyond maxDist
func Attenuation(d, minDist, maxDist float64) float64 {
	if minDist <= 0 {
		minDist = 1
	}
	if maxDist < minDist {
		maxDist = minDist
	}
	if d <= minDist {
		return 1
	}
	if d > maxDist {
		d = maxDist
	}
	return minDist / d
}

// spatialGain blends full volume with distance attenuation
func spatialGain(blend float64, pos, listener core.Vec3, minDist, maxDist float64) float64 {
	if blend <= 0 {
		return 1
	}
	blend = min(blend, 1)
	att := Attenuation(pos.Sub(listener).Len(), minDist, maxDist)
	return 1 - blend + blend*att
}
