package save

import (
	"github.com/rotisserie/eris"

	"github.com/lixenwraith/spook/core"
)

// Vec3Value encodes v as [x, y, z]
func Vec3Value(v core.Vec3) []float64 {
	return []float64{v.X, v.Y, v.Z}
}

// ReadVec3 decodes a value written by Vec3Value
func ReadVec3(d *Document, key string) (core.Vec3, error) {
	f, err := readFloats(d, key, 3)
	if err != nil {
		return core.Vec3{}, err
	}
	return core.Vec3{X: f[0], Y: f[1], Z: f[2]}, nil
}

// QuatValue encodes q as [x, y, z, w]
func QuatValue(q core.Quat) []float64 {
	return []float64{q.X, q.Y, q.Z, q.W}
}

// ReadQuat decodes a value written by QuatValue
func ReadQuat(d *Document, key string) (core.Quat, error) {
	f, err := readFloats(d, key, 4)
	if err != nil {
		return core.IdentityQuat, err
	}
	return core.Quat{X: f[0], Y: f[1], Z: f[2], W: f[3]}, nil
}

func readFloats(d *Document, key string, n int) ([]float64, error) {
	f, err := Read[[]float64](d, key)
	if err != nil {
		return nil, err
	}
	if len(f) != n {
		return nil, eris.Wrapf(ErrMalformed, "key %q: want %d components, got %d", key, n, len(f))
	}
	return f, nil
}
