// Package geom holds the vector helpers shared by the simulation packages.
// Everything on the pitch is measured in the horizontal (x, z) plane unless
// stated otherwise; y is up.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// epsilon below which a planar vector is treated as degenerate.
const epsilon = 1e-9

// Forward is the local facing axis of an entity with identity rotation.
var Forward = mgl64.Vec3{1, 0, 0}

// Point is a position as it appears in configuration files.
type Point struct {
	X float64 `mapstructure:"x"`
	Y float64 `mapstructure:"y"`
	Z float64 `mapstructure:"z"`
}

// Vec3 converts the point into a vector.
func (p Point) Vec3() mgl64.Vec3 {
	return mgl64.Vec3{p.X, p.Y, p.Z}
}

// FromVec3 converts a vector into a Point.
func FromVec3(v mgl64.Vec3) Point {
	return Point{X: v.X(), Y: v.Y(), Z: v.Z()}
}

// PlanarDistance is the distance between a and b ignoring the vertical axis.
func PlanarDistance(a, b mgl64.Vec3) float64 {
	return math.Hypot(a.X()-b.X(), a.Z()-b.Z())
}

// PlanarSpeed is the horizontal magnitude of a velocity.
func PlanarSpeed(v mgl64.Vec3) float64 {
	return math.Hypot(v.X(), v.Z())
}

// NormalizePlanar drops the vertical component and scales v to unit length.
// ok is false when the planar part is too small to have a direction.
func NormalizePlanar(v mgl64.Vec3) (mgl64.Vec3, bool) {
	l := math.Hypot(v.X(), v.Z())
	if l < epsilon {
		return mgl64.Vec3{}, false
	}
	return mgl64.Vec3{v.X() / l, 0, v.Z() / l}, true
}

// Facing returns the planar unit direction an orientation looks along.
func Facing(q mgl64.Quat) (mgl64.Vec3, bool) {
	return NormalizePlanar(q.Rotate(Forward))
}

// YawRotation builds an orientation turned by yaw radians around the up axis.
func YawRotation(yaw float64) mgl64.Quat {
	return mgl64.QuatRotate(yaw, mgl64.Vec3{0, 1, 0})
}

// Lerp blends from a toward b by t.
func Lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}
