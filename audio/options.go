package audio

// Options are the playback settings a job applies to its source
// Methods return modified copies; an Options value is never changed in place
type Options struct {
	Loop         bool    `cbor:"loop"`
	Volume       float64 `cbor:"volume"`
	Pitch        float64 `cbor:"pitch"`
	MinDistance  float64 `cbor:"min_distance"`
	MaxDistance  float64 `cbor:"max_distance"`
	SpatialBlend float64 `cbor:"spatial_blend"`
}

// DefaultOptions returns unity volume and pitch, non-looping, fully 2D
func DefaultOptions() Options {
	return Options{
		Volume:      1,
		Pitch:       1,
		MinDistance: 1,
		MaxDistance: 500,
	}
}

// WithVolume returns a copy with Volume set
func (o Options) WithVolume(v float64) Options {
	o.Volume = v
	return o
}

// WithLoop returns a copy with Loop set
func (o Options) WithLoop(loop bool) Options {
	o.Loop = loop
	return o
}

// WithPitch returns a copy with Pitch set
func (o Options) WithPitch(p float64) Options {
	o.Pitch = p
	return o
}

// WithMinDistance returns a copy with MinDistance set
func (o Options) WithMinDistance(d float64) Options {
	o.MinDistance = d
	return o
}

// WithMaxDistance returns a copy with MaxDistance set
func (o Options) WithMaxDistance(d float64) Options {
	o.MaxDistance = d
	return o
}

// WithSpatialBlend returns a copy with SpatialBlend set, 0 is 2D and 1 fully 3D
func (o Options) WithSpatialBlend(b float64) Options {
	o.SpatialBlend = b
	return o
}

// ApplyTo pushes every option except volume onto src
// Volume is owned by the handle, which scales it through fades
func (o Options) ApplyTo(src Source) {
	pitch := o.Pitch
	if pitch <= 0 {
		pitch = 1
	}
	src.SetLoop(o.Loop)
	src.SetPitch(pitch)
	src.SetSpatialBlend(o.SpatialBlend)
	src.SetDistance(o.MinDistance, o.MaxDistance)
}
