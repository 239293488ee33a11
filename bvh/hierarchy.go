package bvh

import (
	"fmt"

	"github.com/achilleasa/lbvh/types"
)

// Hierarchy is a finished BVH. Nodes[0] is the root. Leaves reference the
// primitive at PrimitiveIndices[leaf.FirstChildOrPrimitive]; the stored
// value is the primitive's index in the slices passed to Build.
type Hierarchy struct {
	Nodes            []Node
	PrimitiveIndices []uint32

	// Number of merge rounds needed to build the hierarchy.
	Rounds int

	// Number of workers available to the parallel build phases.
	Workers int
}

// Statistics about the shape of a hierarchy.
type Stats struct {
	Nodes    int
	Leaves   int
	Internal int
	MaxDepth int

	// Surface area heuristic cost of the tree with unit traversal and
	// intersection costs, relative to the root area.
	SAHCost float32
}

// Get the root node.
func (h *Hierarchy) Root() *Node {
	return &h.Nodes[0]
}

// Map a leaf to the index of the primitive it covers.
func (h *Hierarchy) LeafPrimitive(leaf *Node) uint32 {
	return h.PrimitiveIndices[leaf.FirstChildOrPrimitive]
}

// Visit the primitives whose bounding boxes are hit by the ray. Primitive
// indices are reported in input order. If visit returns true the traversal
// stops early.
func (h *Hierarchy) Intersect(ray types.Ray, visit func(prim uint32) bool) {
	if len(h.Nodes) == 0 {
		return
	}

	invDir := ray.Dir.Inv()
	stack := make([]uint32, 1, 64)
	stack[0] = 0
	for len(stack) > 0 {
		node := &h.Nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]

		if _, _, hit := node.BBox.Intersect(ray, invDir); !hit {
			continue
		}

		if node.IsLeaf {
			if visit(h.LeafPrimitive(node)) {
				return
			}
			continue
		}

		left, right := node.Children()
		stack = append(stack, right, left)
	}
}

// Collect shape statistics.
func (h *Hierarchy) Stats() Stats {
	stats := Stats{Nodes: len(h.Nodes)}
	if len(h.Nodes) == 0 {
		return stats
	}

	rootArea := h.Nodes[0].BBox.HalfArea()
	type entry struct {
		index uint32
		depth int
	}
	stack := []entry{{0, 0}}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &h.Nodes[e.index]

		if e.depth > stats.MaxDepth {
			stats.MaxDepth = e.depth
		}

		relArea := float32(1)
		if rootArea > 0 {
			relArea = node.BBox.HalfArea() / rootArea
		}

		if node.IsLeaf {
			stats.Leaves++
			stats.SAHCost += relArea * float32(node.PrimitiveCount)
			continue
		}

		stats.Internal++
		stats.SAHCost += relArea
		left, right := node.Children()
		stack = append(stack, entry{left, e.depth + 1}, entry{right, e.depth + 1})
	}
	return stats
}

// Check the structural invariants of the hierarchy: node count, child
// adjacency, tight parent boxes, leaf primitive coverage and that the
// permutation is a bijection.
func (h *Hierarchy) Validate() error {
	primitiveCount := len(h.PrimitiveIndices)
	if primitiveCount == 0 {
		return fmt.Errorf("%w: no primitives", ErrInvalidHierarchy)
	}
	if expCount := 2*primitiveCount - 1; len(h.Nodes) != expCount {
		return fmt.Errorf("%w: expected %d nodes; got %d", ErrInvalidHierarchy, expCount, len(h.Nodes))
	}

	seenPrim := make([]bool, primitiveCount)
	for _, prim := range h.PrimitiveIndices {
		if int(prim) >= primitiveCount || seenPrim[prim] {
			return fmt.Errorf("%w: primitive indices are not a permutation", ErrInvalidHierarchy)
		}
		seenPrim[prim] = true
	}

	seenNode := make([]bool, len(h.Nodes))
	seenLeaf := make([]bool, primitiveCount)
	stack := []uint32{0}
	for len(stack) > 0 {
		index := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seenNode[index] {
			return fmt.Errorf("%w: node %d is reachable more than once", ErrInvalidHierarchy, index)
		}
		seenNode[index] = true

		node := &h.Nodes[index]
		if node.IsLeaf {
			if node.PrimitiveCount != 1 {
				return fmt.Errorf("%w: leaf %d covers %d primitives", ErrInvalidHierarchy, index, node.PrimitiveCount)
			}
			slot := node.FirstChildOrPrimitive
			if int(slot) >= primitiveCount || seenLeaf[slot] {
				return fmt.Errorf("%w: leaf %d references invalid or shared slot %d", ErrInvalidHierarchy, index, slot)
			}
			seenLeaf[slot] = true
			continue
		}

		left, right := node.Children()
		if left == 0 || int(right) >= len(h.Nodes) {
			return fmt.Errorf("%w: node %d has out of range children %d, %d", ErrInvalidHierarchy, index, left, right)
		}
		if union := h.Nodes[left].BBox.Extend(h.Nodes[right].BBox); union != node.BBox {
			return fmt.Errorf("%w: bbox of node %d is not the union of its children", ErrInvalidHierarchy, index)
		}
		stack = append(stack, left, right)
	}

	for index, seen := range seenNode {
		if !seen {
			return fmt.Errorf("%w: node %d is unreachable", ErrInvalidHierarchy, index)
		}
	}
	return nil
}
