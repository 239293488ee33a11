package types

import "math"

// A ray segment starting at Origin and covering distances [TMin, TMax]
// along Dir.
type Ray struct {
	Origin Vec3
	Dir    Vec3
	TMin   float32
	TMax   float32
}

// Create a ray with an unbounded extent.
func NewRay(origin, dir Vec3) Ray {
	return Ray{
		Origin: origin,
		Dir:    dir,
		TMin:   0,
		TMax:   math.MaxFloat32,
	}
}
