package audio

import (
	"context"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/rotisserie/eris"
)

// TonePrefix marks clip references synthesized by ToneLoader
const TonePrefix = "tone:"

// WaveType selects the shape ToneLoader renders
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveSaw
	WaveNoise
)

var waveNames = map[string]WaveType{
	"sine":   WaveSine,
	"square": WaveSquare,
	"saw":    WaveSaw,
	"noise":  WaveNoise,
}

// ToneLoader synthesizes clips from references of the form
// "tone:<hz>:<seconds>[:sine|square|saw|noise]"
type ToneLoader struct {
	SampleRate beep.SampleRate

	cache *clipCache
	once  sync.Once
}

// NewToneLoader creates a loader rendering at rate
func NewToneLoader(rate int) *ToneLoader {
	return &ToneLoader{SampleRate: beep.SampleRate(rate)}
}

// LoadClip implements ClipLoader
func (t *ToneLoader) LoadClip(ctx context.Context, ref string) (*Clip, error) {
	t.once.Do(func() { t.cache = newClipCache() })
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.cache.get(ref, func() (*Clip, error) { return t.render(ref) })
}

// ReleaseClip implements ClipLoader
func (t *ToneLoader) ReleaseClip(clip *Clip) {
	t.once.Do(func() { t.cache = newClipCache() })
	t.cache.release(clip)
}

// ParseTone splits a tone reference into frequency, duration and wave
func ParseTone(ref string) (float64, time.Duration, WaveType, error) {
	parts := strings.Split(strings.TrimPrefix(ref, TonePrefix), ":")
	if !strings.HasPrefix(ref, TonePrefix) || len(parts) < 2 || len(parts) > 3 {
		return 0, 0, 0, eris.Errorf("malformed tone %q", ref)
	}

	freq, err := strconv.ParseFloat(parts[0], 64)
	if err != nil || freq <= 0 {
		return 0, 0, 0, eris.Errorf("bad tone frequency %q", ref)
	}
	secs, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || secs <= 0 {
		return 0, 0, 0, eris.Errorf("bad tone duration %q", ref)
	}

	wave := WaveSine
	if len(parts) == 3 {
		w, ok := waveNames[parts[2]]
		if !ok {
			return 0, 0, 0, eris.Errorf("unknown wave %q", parts[2])
		}
		wave = w
	}
	return freq, time.Duration(secs * float64(time.Second)), wave, nil
}

func (t *ToneLoader) render(ref string) (*Clip, error) {
	freq, dur, wave, err := ParseTone(ref)
	if err != nil {
		return nil, err
	}

	rate := t.SampleRate
	if rate <= 0 {
		rate = beep.SampleRate(48000)
	}

	var src beep.Streamer
	if wave == WaveSine {
		tone, err := generators.SineTone(rate, freq)
		if err != nil {
			return nil, eris.Wrapf(err, "sine tone %q", ref)
		}
		src = beep.Take(rate.N(dur), tone)
	} else {
		src = waveStreamer(freq, dur, wave, rate)
	}

	// Short ramps avoid clicks at the clip edges
	edge := min(5*time.Millisecond, dur/4)
	src = newEnvelope(src, dur, edge, edge, rate)

	buf := beep.NewBuffer(beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2})
	buf.Append(src)

	return &Clip{
		Name:   ref,
		Length: rate.D(buf.Len()),
		Buffer: buf,
	}, nil
}

// waveAt samples wave w at phase p in [0, 1)
func waveAt(w WaveType, p float64) float64 {
	switch w {
	case WaveSquare:
		if p < 0.5 {
			return 1
		}
		return -1
	case WaveSaw:
		return 2*p - 1
	case WaveNoise:
		return rand.Float64()*2 - 1
	default:
		return math.Sin(2 * math.Pi * p)
	}
}

// waveStreamer renders duration of w at freq, the same sample on both channels
func waveStreamer(freq float64, duration time.Duration, w WaveType, rate beep.SampleRate) beep.Streamer {
	step := freq / float64(rate)
	left := rate.N(duration)
	var phase float64

	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if left <= 0 {
			return 0, false
		}
		n := min(len(samples), left)
		for i := range n {
			v := waveAt(w, phase)
			samples[i] = [2]float64{v, v}
			_, phase = math.Modf(phase + step)
		}
		left -= n
		return n, true
	})
}

// envelope applies attack/release shaping to a stream
type envelope struct {
	streamer       beep.Streamer
	position       int
	attackSamples  int
	releaseSamples int
	totalSamples   int
}

func newEnvelope(s beep.Streamer, duration, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	return &envelope{
		streamer:       s,
		attackSamples:  rate.N(attack),
		releaseSamples: rate.N(release),
		totalSamples:   rate.N(duration),
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)

	for i := 0; i < n; i++ {
		vol := 1.0

		// Attack phase
		if e.position < e.attackSamples && e.attackSamples > 0 {
			vol = float64(e.position) / float64(e.attackSamples)
		}
		// Release phase
		if remaining := e.totalSamples - e.position; remaining < e.releaseSamples && e.releaseSamples > 0 {
			vol = max(float64(remaining)/float64(e.releaseSamples), 0)
		}

		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}

	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }
