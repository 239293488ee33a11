// Package parallel provides the data-parallel primitives used by the BVH
// builder: a blocking "parallel for" over an index range and a way to run
// a closure on a single worker between two parallel phases.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultThreshold is the range length at or below which For runs inline.
const DefaultThreshold = 256

// The Executor interface is implemented by all work schedulers.
type Executor interface {
	// Run fn for every index in [begin, end). Work items must be
	// independent. For returns once every item has completed.
	For(begin, end int, fn func(i int))

	// Run fn exactly once while no other work of this executor is in
	// flight.
	Single(fn func())

	// The number of workers used for parallel ranges.
	Workers() int
}

// Options for the pool executor.
type Options struct {
	// Max number of goroutines used for a parallel range. If <= 0 then
	// runtime.GOMAXPROCS(0) is used.
	Workers int

	// Ranges with at most this many elements run on the calling
	// goroutine. If < 0 then DefaultThreshold is used.
	Threshold int
}

type poolExecutor struct {
	workers   int
	threshold int
}

// Create an executor that splits ranges into contiguous chunks and
// processes them with a bounded number of goroutines.
func New(opts Options) Executor {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Threshold < 0 {
		opts.Threshold = DefaultThreshold
	}
	return &poolExecutor{
		workers:   opts.Workers,
		threshold: opts.Threshold,
	}
}

// Create an executor that runs everything on the calling goroutine.
func Sequential() Executor {
	return sequentialExecutor{}
}

func (ex *poolExecutor) Workers() int {
	return ex.workers
}

func (ex *poolExecutor) For(begin, end int, fn func(i int)) {
	count := end - begin
	if count <= 0 {
		return
	}
	if count <= ex.threshold || ex.workers == 1 {
		for i := begin; i < end; i++ {
			fn(i)
		}
		return
	}

	chunks := ex.workers
	if chunks > count {
		chunks = count
	}
	chunkSize := (count + chunks - 1) / chunks

	var g errgroup.Group
	g.SetLimit(ex.workers)
	for chunkBegin := begin; chunkBegin < end; chunkBegin += chunkSize {
		chunkBegin := chunkBegin
		chunkEnd := chunkBegin + chunkSize
		if chunkEnd > end {
			chunkEnd = end
		}
		g.Go(func() error {
			for i := chunkBegin; i < chunkEnd; i++ {
				fn(i)
			}
			return nil
		})
	}
	g.Wait()
}

// Single runs on the caller. For always returns after its workers finish so
// nothing else of this executor can be in flight at this point.
func (ex *poolExecutor) Single(fn func()) {
	fn()
}

type sequentialExecutor struct{}

func (sequentialExecutor) Workers() int { return 1 }

func (sequentialExecutor) For(begin, end int, fn func(i int)) {
	for i := begin; i < end; i++ {
		fn(i)
	}
}

func (sequentialExecutor) Single(fn func()) {
	fn()
}
