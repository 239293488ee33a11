// Package morton computes 63-bit Morton codes for primitive centers and
// sorts primitives along the resulting space filling curve.
package morton

import (
	"sort"

	"github.com/achilleasa/lbvh/parallel"
	"github.com/achilleasa/lbvh/types"
)

const (
	// Number of bits used for each axis.
	BitsPerAxis = 21

	// Number of meaningful bits in a code.
	CodeBits = 3 * BitsPerAxis

	gridDim = 1 << BitsPerAxis
)

// Spread the low 21 bits of v so that there are two zero bits between
// each pair of consecutive input bits.
func expand3(v uint64) uint64 {
	v &= 0x1fffff
	v = (v | v<<32) & 0x1f00000000ffff
	v = (v | v<<16) & 0x1f0000ff0000ff
	v = (v | v<<8) & 0x100f00f00f00f00f
	v = (v | v<<4) & 0x10c30c30c30c30c3
	v = (v | v<<2) & 0x1249249249249249
	return v
}

// Interleave three 21-bit grid coordinates. X occupies bit 0.
func Interleave(x, y, z uint32) uint64 {
	return expand3(uint64(x)) | expand3(uint64(y))<<1 | expand3(uint64(z))<<2
}

// Quantize p into the 2^21 grid spanning bounds and return its Morton code.
// Points outside bounds are clamped.
func Encode(p types.Vec3, bounds types.BBox) uint64 {
	var cell [3]uint32
	extent := bounds.Diagonal()
	for axis := 0; axis < 3; axis++ {
		if extent[axis] <= 0 {
			continue
		}
		f := (p[axis] - bounds.Min[axis]) / extent[axis] * gridDim
		switch {
		case f <= 0:
			cell[axis] = 0
		case f >= gridDim-1:
			cell[axis] = gridDim - 1
		default:
			cell[axis] = uint32(f)
		}
	}
	return Interleave(cell[0], cell[1], cell[2])
}

// Sort primitives by the Morton code of their centers. It returns a
// permutation of [0, len(centers)) ordered by ascending code together with
// the codes in the same order. Primitives with identical codes keep their
// original relative order.
func Sort(ex parallel.Executor, centers []types.Vec3) (perm []uint32, codes []uint64) {
	count := len(centers)
	bounds := types.EmptyBBox()
	for _, c := range centers {
		bounds = bounds.ExtendPoint(c)
	}

	unsorted := make([]uint64, count)
	ex.For(0, count, func(i int) {
		unsorted[i] = Encode(centers[i], bounds)
	})

	perm = make([]uint32, count)
	for i := range perm {
		perm[i] = uint32(i)
	}
	sort.SliceStable(perm, func(a, b int) bool {
		return unsorted[perm[a]] < unsorted[perm[b]]
	})

	codes = make([]uint64, count)
	ex.For(0, count, func(i int) {
		codes[i] = unsorted[perm[i]]
	})
	return perm, codes
}
