package bvh

import "fmt"

// Run a single agglomeration round over the active range [begin, end) of
// in and write the result to out.
//
// Each round decides which neighboring nodes merge, pushes both children of
// every merge to the tail of the active range and compacts the merged and
// unmerged nodes in front of them. The nodes in [end, previousEnd) are
// finished subtrees from earlier rounds and are copied verbatim.
//
// The method returns the active range for the next round. All writes in a
// phase target distinct slots so the phases can run in parallel without
// locking; in and out must never alias.
func (b *builder) merge(
	in, out []Node,
	inLevels, outLevels []Level,
	mergedIndex, needsMerge []int,
	begin, end, previousEnd int,
) (nextBegin, nextEnd int, err error) {
	mergedIndex[end-1] = 0
	needsMerge[end-1] = 0

	// A node merges with its right neighbor if its level is a local
	// maximum when looking left and not smaller than its right neighbor.
	b.ex.For(begin, end-1, func(i int) {
		if inLevels[i] >= inLevels[i+1] && (i == begin || inLevels[i] >= inLevels[i-1]) {
			needsMerge[i] = 1
		} else {
			needsMerge[i] = 0
		}
	})

	// Break chains of consecutive merge requests. The first pass only
	// writes even offsets and the second one odd offsets so each pass
	// reads slots that it does not write.
	resolve := func(first int) {
		pairs := (end - first) / 2
		b.ex.For(0, pairs, func(k int) {
			i := first + 2*k
			if needsMerge[i] == 1 && needsMerge[i+1] == 1 {
				needsMerge[i] = 0
			}
		})
	}
	resolve(begin)
	resolve(begin + 1)

	var childrenBegin, unmergedBegin int
	b.ex.Single(func() {
		sum := 0
		for i := begin; i < end; i++ {
			sum += needsMerge[i]
			mergedIndex[i] = sum
		}

		mergedCount := sum
		unmergedCount := end - begin - mergedCount
		childrenCount := mergedCount * 2
		childrenBegin = end - childrenCount
		unmergedBegin = end - (childrenCount + unmergedCount)
		if mergedCount == 0 {
			err = fmt.Errorf("%w (active range [%d, %d))", ErrDegenerateRound, begin, end)
		}
	})
	if err != nil {
		return 0, 0, err
	}

	b.ex.For(begin, end, func(i int) {
		if needsMerge[i] == 1 {
			// mergedIndex[i]-1 merges and 2*(mergedIndex[i]-1) of their
			// slots precede this node.
			unmergedIndex := unmergedBegin + i + 1 - begin - mergedIndex[i]
			firstChild := childrenBegin + (mergedIndex[i]-1)*2
			out[unmergedIndex] = Node{
				BBox:                  in[i].BBox.Extend(in[i+1].BBox),
				IsLeaf:                false,
				FirstChildOrPrimitive: uint32(firstChild),
			}
			out[firstChild] = in[i]
			out[firstChild+1] = in[i+1]
			outLevels[unmergedIndex] = inLevels[i+1]
		} else if i == begin || needsMerge[i-1] == 0 {
			unmergedIndex := unmergedBegin + i - begin - mergedIndex[i]
			out[unmergedIndex] = in[i]
			outLevels[unmergedIndex] = inLevels[i]
		}
	})

	b.ex.For(end, previousEnd, func(i int) {
		out[i] = in[i]
	})

	return unmergedBegin, childrenBegin, nil
}
