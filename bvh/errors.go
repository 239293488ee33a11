package bvh

import "errors"

var (
	ErrNoPrimitives        = errors.New("bvh: at least one primitive is required")
	ErrCenterCountMismatch = errors.New("bvh: bbox and center counts differ")
	ErrDegenerateRound     = errors.New("bvh: merge round did not merge any nodes")
	ErrInvalidHierarchy    = errors.New("bvh: invalid hierarchy")
)
