// Package bvh builds binary bounding volume hierarchies bottom-up by
// repeatedly merging neighboring primitives along a Morton curve.
//
// Construction runs in rounds. Every round looks at the nodes that still
// lack a parent (the active range), merges neighbors whose Morton codes
// share the longest prefix and moves the children of each merge out of the
// active range. The process ends when a single node, the root, remains.
package bvh

import (
	"time"

	"github.com/achilleasa/lbvh/bvh/morton"
	"github.com/achilleasa/lbvh/log"
	"github.com/achilleasa/lbvh/parallel"
	"github.com/achilleasa/lbvh/types"
)

// Builder options.
type Options struct {
	// The executor used for the parallel phases. If nil, a pool executor
	// is created from Workers and LoopParallelThreshold.
	Executor parallel.Executor

	// Max number of goroutines; <= 0 selects GOMAXPROCS.
	Workers int

	// Loops over at most this many elements run on a single goroutine. A
	// value of 0 runs every loop in parallel; a negative value selects
	// parallel.DefaultThreshold.
	LoopParallelThreshold int
}

// Get the default builder options.
func DefaultOptions() Options {
	return Options{
		LoopParallelThreshold: parallel.DefaultThreshold,
	}
}

const loggerModule = "lbvh builder"

type builder struct {
	logger log.Logger
	ex     parallel.Executor

	rounds int
}

// Build a hierarchy for a set of primitives given their bounding boxes and
// centers. Both slices are indexed by the original primitive index.
//
// The returned hierarchy contains 2*len(bboxes)-1 nodes with the root at
// index 0. Leaves reference primitives through Hierarchy.PrimitiveIndices.
func Build(bboxes []types.BBox, centers []types.Vec3, opts Options) (*Hierarchy, error) {
	if len(bboxes) == 0 {
		return nil, ErrNoPrimitives
	}
	if len(bboxes) != len(centers) {
		return nil, ErrCenterCountMismatch
	}

	b := &builder{
		logger: log.New(loggerModule),
		ex:     opts.executor(),
	}

	// Timing is only collected when debug output is enabled.
	timed := log.IsEnabled(log.Debug, loggerModule)
	var start time.Time
	var sortTime time.Duration
	if timed {
		start = time.Now()
	}

	perm, codes := morton.Sort(b.ex, centers)
	if timed {
		sortTime = time.Since(start)
	}

	h, err := b.build(bboxes, perm, codes)
	if err != nil {
		b.logger.Errorf("build failed after %d rounds: %v", b.rounds, err)
		return nil, err
	}

	if timed {
		b.logger.Debugf(
			"BVH build time: %d ms (sort: %d ms), primitives: %d, nodes: %d, rounds: %d, workers: %d",
			time.Since(start).Nanoseconds()/1e6, sortTime.Nanoseconds()/1e6,
			len(perm), len(h.Nodes), b.rounds, h.Workers,
		)
	}
	return h, nil
}

// Get the configured executor or create a pool executor from the options.
func (opts Options) executor() parallel.Executor {
	if opts.Executor != nil {
		return opts.Executor
	}
	return parallel.New(parallel.Options{
		Workers:   opts.Workers,
		Threshold: opts.LoopParallelThreshold,
	})
}

// Build the hierarchy from primitives already sorted by Morton code.
func (b *builder) build(bboxes []types.BBox, perm []uint32, codes []uint64) (*Hierarchy, error) {
	primitiveCount := len(perm)
	nodeCount := 2*primitiveCount - 1

	nodes := make([]Node, nodeCount)
	nodesCopy := make([]Node, nodeCount)
	auxiliaryData := make([]int, nodeCount*2)
	levelData := make([]Level, nodeCount*2)

	begin := nodeCount - primitiveCount
	end := nodeCount
	previousEnd := end

	inLevels := levelData[:nodeCount]
	outLevels := levelData[nodeCount:]
	mergedIndex := auxiliaryData[:nodeCount]
	needsMerge := auxiliaryData[nodeCount:]

	b.initLeaves(nodes, begin, bboxes, perm)
	b.deriveLevels(inLevels, begin, codes)

	b.rounds = 0
	for end-begin > 1 {
		inLevels[end-1] = 0

		nextBegin, nextEnd, err := b.merge(
			nodes, nodesCopy,
			inLevels, outLevels,
			mergedIndex, needsMerge,
			begin, end,
			previousEnd,
		)
		if err != nil {
			return nil, err
		}
		b.rounds++

		nodes, nodesCopy = nodesCopy, nodes
		inLevels, outLevels = outLevels, inLevels

		previousEnd = end
		begin = nextBegin
		end = nextEnd
	}

	// With a single primitive there is nothing to merge and the only
	// leaf is the root.
	if primitiveCount > 1 {
		nodes[0].IsLeaf = false
		nodes[0].FirstChildOrPrimitive = 1
	}

	return &Hierarchy{
		Nodes:            nodes,
		PrimitiveIndices: perm,
		Rounds:           b.rounds,
		Workers:          b.ex.Workers(),
	}, nil
}
