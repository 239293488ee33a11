package bvh

import "github.com/achilleasa/lbvh/types"

// Level is the length of the common Morton code prefix shared by two
// neighboring nodes. It only exists while the hierarchy is being built.
type Level uint8

// A hierarchy node. Leaves and internal nodes share the same layout:
//
// - for leaves, FirstChildOrPrimitive indexes the hierarchy permutation
// and PrimitiveCount is 1
// - for internal nodes, FirstChildOrPrimitive is the index of the left
// child; the right child is always stored right after it.
type Node struct {
	BBox                  types.BBox
	IsLeaf                bool
	PrimitiveCount        uint32
	FirstChildOrPrimitive uint32
}

// Get the indices of an internal node's children.
func (n *Node) Children() (left, right uint32) {
	return n.FirstChildOrPrimitive, n.FirstChildOrPrimitive + 1
}
