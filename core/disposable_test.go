package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDisposeAllOrder verifies entries are disposed in slice order and nils are skipped
func TestDisposeAllOrder(t *testing.T) {
	var order []int
	items := []Disposable{
		DisposeFunc(func() { order = append(order, 1) }),
		nil,
		DisposeFunc(func() { order = append(order, 2) }),
		DisposeFunc(nil),
	}

	DisposeAll(items)

	assert.Equal(t, []int{1, 2}, order)
}

// TestVec3Len verifies vector arithmetic helpers
func TestVec3Len(t *testing.T) {
	v := Vec3{X: 3, Y: 4}
	assert.InDelta(t, 5.0, v.Len(), 1e-9)
	assert.Equal(t, Vec3{X: 4, Y: 5, Z: 1}, v.Add(Vec3{1, 1, 1}))
	assert.Equal(t, Vec3{X: 2, Y: 3, Z: -1}, v.Sub(Vec3{1, 1, 1}))
}
