package types

import "math"

// An axis-aligned bounding box.
type BBox struct {
	Min Vec3
	Max Vec3
}

// Create an empty bbox. Extending an empty bbox with another bbox yields
// the other bbox.
func EmptyBBox() BBox {
	return BBox{
		Min: Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
}

// Create a bbox that tightly bounds the supplied points.
func BBoxFromPoints(points ...Vec3) BBox {
	b := EmptyBBox()
	for _, p := range points {
		b = b.ExtendPoint(p)
	}
	return b
}

// Return the union of this bbox and b2.
func (b BBox) Extend(b2 BBox) BBox {
	return BBox{
		Min: MinVec3(b.Min, b2.Min),
		Max: MaxVec3(b.Max, b2.Max),
	}
}

// Return a bbox that also contains p.
func (b BBox) ExtendPoint(p Vec3) BBox {
	return BBox{
		Min: MinVec3(b.Min, p),
		Max: MaxVec3(b.Max, p),
	}
}

// Returns true if the bbox does not contain any point.
func (b BBox) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Get the bbox center.
func (b BBox) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Get the bbox extent along each axis.
func (b BBox) Diagonal() Vec3 {
	return b.Max.Sub(b.Min)
}

// Get half of the bbox surface area.
func (b BBox) HalfArea() float32 {
	if b.IsEmpty() {
		return 0
	}
	d := b.Diagonal()
	return d[0]*d[1] + d[1]*d[2] + d[0]*d[2]
}

// Test the ray against the bbox slabs. If the ray overlaps the bbox within
// [ray.TMin, ray.TMax] this method returns the entry and exit distances
// along the ray and true.
func (b BBox) Intersect(ray Ray, invDir Vec3) (tEntry, tExit float32, hit bool) {
	tEntry = ray.TMin
	tExit = ray.TMax
	for axis := 0; axis < 3; axis++ {
		t1 := (b.Min[axis] - ray.Origin[axis]) * invDir[axis]
		t2 := (b.Max[axis] - ray.Origin[axis]) * invDir[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}

		// NaN values (origin on a slab plane with a zero direction
		// component) fail both comparisons and leave the interval intact.
		if t1 > tEntry {
			tEntry = t1
		}
		if t2 < tExit {
			tExit = t2
		}
		if tEntry > tExit {
			return 0, 0, false
		}
	}
	return tEntry, tExit, true
}
