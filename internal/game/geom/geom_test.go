package geom

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestPlanarDistanceIgnoresHeight(t *testing.T) {
	a := mgl64.Vec3{0, 0, 0}
	b := mgl64.Vec3{3, 100, 4}
	assert.InDelta(t, 5.0, PlanarDistance(a, b), 1e-9)
}

func TestNormalizePlanar(t *testing.T) {
	v, ok := NormalizePlanar(mgl64.Vec3{3, 7, 4})
	assert.True(t, ok)
	assert.InDelta(t, 0.6, v.X(), 1e-9)
	assert.Zero(t, v.Y())
	assert.InDelta(t, 0.8, v.Z(), 1e-9)

	_, ok = NormalizePlanar(mgl64.Vec3{0, 5, 0})
	assert.False(t, ok, "pure vertical vector has no planar direction")
}

func TestFacing(t *testing.T) {
	dir, ok := Facing(mgl64.QuatIdent())
	assert.True(t, ok)
	assert.InDelta(t, 1.0, dir.X(), 1e-9)

	dir, ok = Facing(YawRotation(math.Pi))
	assert.True(t, ok)
	assert.InDelta(t, -1.0, dir.X(), 1e-9)
	assert.InDelta(t, 0.0, dir.Z(), 1e-9)
}

func TestLerp(t *testing.T) {
	got := Lerp(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{10, 0, -10}, 0.7)
	assert.InDelta(t, 7.0, got.X(), 1e-9)
	assert.InDelta(t, -7.0, got.Z(), 1e-9)
}
