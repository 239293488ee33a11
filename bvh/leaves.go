package bvh

import (
	"math/bits"

	"github.com/achilleasa/lbvh/types"
)

// Write one leaf per primitive into nodes[begin:begin+len(perm)]. Leaf i
// covers the primitive stored at perm[i].
func (b *builder) initLeaves(nodes []Node, begin int, bboxes []types.BBox, perm []uint32) {
	leaves := nodes[begin : begin+len(perm)]
	b.ex.For(0, len(leaves), func(i int) {
		leaves[i] = Node{
			BBox:                  bboxes[perm[i]],
			IsLeaf:                true,
			PrimitiveCount:        1,
			FirstChildOrPrimitive: uint32(i),
		}
	})
}

// Set levels[begin+i] to the common prefix length of codes i and i+1. The
// level of the last leaf is left for the orchestrator to reset before each
// round.
func (b *builder) deriveLevels(levels []Level, begin int, codes []uint64) {
	out := levels[begin : begin+len(codes)]
	b.ex.For(0, len(codes)-1, func(i int) {
		out[i] = Level(bits.LeadingZeros64(codes[i] ^ codes[i+1]))
	})
}
