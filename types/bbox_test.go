package types

import (
	"math"
	"testing"
)

func TestBBoxExtend(t *testing.T) {
	b1 := BBox{Min: XYZ(0, 0, 0), Max: XYZ(1, 1, 1)}
	b2 := BBox{Min: XYZ(-1, 0.5, 2), Max: XYZ(0.5, 3, 4)}

	exp := BBox{Min: XYZ(-1, 0, 0), Max: XYZ(1, 3, 4)}
	if got := b1.Extend(b2); got != exp {
		t.Fatalf("expected %v; got %v", exp, got)
	}
	if got := b2.Extend(b1); got != exp {
		t.Fatalf("expected extend to be commutative; got %v", got)
	}

	if got := EmptyBBox().Extend(b1); got != b1 {
		t.Fatalf("expected extending an empty bbox to yield %v; got %v", b1, got)
	}
	if !EmptyBBox().IsEmpty() {
		t.Fatal("expected EmptyBBox() to be empty")
	}
	if EmptyBBox().HalfArea() != 0 {
		t.Fatal("expected empty bbox to have no area")
	}
}

func TestBBoxFromPoints(t *testing.T) {
	b := BBoxFromPoints(XYZ(1, 2, 3), XYZ(-1, 5, 0), XYZ(0, 0, 0))
	exp := BBox{Min: XYZ(-1, 0, 0), Max: XYZ(1, 5, 3)}
	if b != exp {
		t.Fatalf("expected %v; got %v", exp, b)
	}
	if c := b.Center(); c != XYZ(0, 2.5, 1.5) {
		t.Fatalf("expected center (0, 2.5, 1.5); got %v", c)
	}
	if a := b.HalfArea(); a != 2*5+5*3+2*3 {
		t.Fatalf("expected half area 31; got %f", a)
	}
}

func TestBBoxIntersect(t *testing.T) {
	b := BBox{Min: XYZ(0, 0, 0), Max: XYZ(1, 1, 1)}

	type spec struct {
		ray      Ray
		expHit   bool
		expEntry float32
	}
	specs := []spec{
		{NewRay(XYZ(0.5, 0.5, -1), XYZ(0, 0, 1)), true, 1},
		{NewRay(XYZ(0.5, 0.5, -1), XYZ(0, 0, -1)), false, 0},
		{NewRay(XYZ(2, 0.5, -1), XYZ(0, 0, 1)), false, 0},
		{NewRay(XYZ(0.5, 0.5, 0.5), XYZ(1, 0, 0)), true, 0},
		{Ray{Origin: XYZ(0.5, 0.5, -10), Dir: XYZ(0, 0, 1), TMax: 5}, false, 0},
		// Origin on a slab plane with a zero direction component
		{NewRay(XYZ(0, 0.5, -1), XYZ(0, 0, 1)), true, 1},
		{NewRay(XYZ(-1, -1, -1), XYZ(1, 1, 1).Normalize()), true, float32(math.Sqrt(3))},
	}

	for index, s := range specs {
		entry, _, hit := b.Intersect(s.ray, s.ray.Dir.Inv())
		if hit != s.expHit {
			t.Fatalf("[spec %d] expected hit to be %t", index, s.expHit)
		}
		if hit && math.Abs(float64(entry-s.expEntry)) > 1e-4 {
			t.Fatalf("[spec %d] expected entry distance %f; got %f", index, s.expEntry, entry)
		}
	}
}
