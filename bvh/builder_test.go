package bvh

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"math/rand"
	"reflect"
	"testing"

	"github.com/achilleasa/lbvh/log"
	"github.com/achilleasa/lbvh/parallel"
	"github.com/achilleasa/lbvh/types"
)

func boxInput(mins ...types.Vec3) ([]types.BBox, []types.Vec3) {
	bboxes := make([]types.BBox, len(mins))
	centers := make([]types.Vec3, len(mins))
	for i, min := range mins {
		bboxes[i] = types.BBox{Min: min, Max: min.Add(types.XYZ(1, 1, 1))}
		centers[i] = bboxes[i].Center()
	}
	return bboxes, centers
}

func randomInput(rng *rand.Rand, count int) ([]types.BBox, []types.Vec3) {
	bboxes := make([]types.BBox, count)
	centers := make([]types.Vec3, count)
	for i := 0; i < count; i++ {
		min := types.XYZ(rng.Float32()*100, rng.Float32()*100, rng.Float32()*100)
		size := types.XYZ(rng.Float32()*3, rng.Float32()*3, rng.Float32()*3)
		bboxes[i] = types.BBox{Min: min, Max: min.Add(size)}
		centers[i] = bboxes[i].Center()
	}
	return bboxes, centers
}

func TestBuildInputErrors(t *testing.T) {
	_, err := Build(nil, nil, DefaultOptions())
	if err != ErrNoPrimitives {
		t.Fatalf("expected to get ErrNoPrimitives; got %v", err)
	}

	bboxes, centers := boxInput(types.XYZ(0, 0, 0), types.XYZ(1, 1, 1))
	_, err = Build(bboxes, centers[:1], DefaultOptions())
	if err != ErrCenterCountMismatch {
		t.Fatalf("expected to get ErrCenterCountMismatch; got %v", err)
	}
}

func TestBuildSinglePrimitive(t *testing.T) {
	bboxes, centers := boxInput(types.XYZ(3, 4, 5))
	h, err := Build(bboxes, centers, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	if len(h.Nodes) != 1 {
		t.Fatalf("expected 1 node; got %d", len(h.Nodes))
	}
	if h.Rounds != 0 {
		t.Fatalf("expected no merge rounds; got %d", h.Rounds)
	}
	root := h.Root()
	if !root.IsLeaf || root.PrimitiveCount != 1 || h.LeafPrimitive(root) != 0 {
		t.Fatalf("expected root to be a leaf covering primitive 0; got %+v", *root)
	}
	if root.BBox != bboxes[0] {
		t.Fatalf("expected root bbox %v; got %v", bboxes[0], root.BBox)
	}
	if err = h.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestBuildTwoSeparatedBoxes(t *testing.T) {
	bboxes, centers := boxInput(types.XYZ(0, 0, 0), types.XYZ(100, 100, 100))
	h, err := Build(bboxes, centers, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	if len(h.Nodes) != 3 {
		t.Fatalf("expected 3 nodes; got %d", len(h.Nodes))
	}
	if err = h.Validate(); err != nil {
		t.Fatal(err)
	}

	expBBox := types.BBox{Min: types.XYZ(0, 0, 0), Max: types.XYZ(101, 101, 101)}
	if h.Root().BBox != expBBox {
		t.Fatalf("expected root bbox %v; got %v", expBBox, h.Root().BBox)
	}

	ray := types.Ray{
		Origin: types.XYZ(100.5, 100.5, 0),
		Dir:    types.XYZ(0, 0, 1),
		TMin:   0,
		TMax:   1000,
	}
	var hits []uint32
	h.Intersect(ray, func(prim uint32) bool {
		hits = append(hits, prim)
		return false
	})
	if !reflect.DeepEqual(hits, []uint32{1}) {
		t.Fatalf("expected ray to hit primitive 1 only; got %v", hits)
	}
}

func TestBuildTwoClusters(t *testing.T) {
	bboxes, centers := boxInput(
		types.XYZ(100, 100, 100),
		types.XYZ(0, 0, 0),
		types.XYZ(101.5, 100, 100),
		types.XYZ(1.5, 0, 0),
	)
	clusters := []types.BBox{
		bboxes[1].Extend(bboxes[3]),
		bboxes[0].Extend(bboxes[2]),
	}

	h, err := Build(bboxes, centers, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(h.Nodes) != 7 {
		t.Fatalf("expected 7 nodes; got %d", len(h.Nodes))
	}
	if err = h.Validate(); err != nil {
		t.Fatal(err)
	}

	left, right := h.Root().Children()
	got := []types.BBox{h.Nodes[left].BBox, h.Nodes[right].BBox}
	if !reflect.DeepEqual(got, clusters) {
		t.Fatalf("expected root children to bound the clusters %v; got %v", clusters, got)
	}
	for _, child := range []uint32{left, right} {
		if h.Nodes[child].IsLeaf {
			t.Fatalf("expected root child %d to be an internal node", child)
		}
	}
}

func TestBuildRandomInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, count := range []int{1, 2, 3, 4, 5, 7, 16, 33, 100, 257, 1000, 4099} {
		bboxes, centers := randomInput(rng, count)

		h, err := Build(bboxes, centers, Options{Workers: 4, LoopParallelThreshold: 16})
		if err != nil {
			t.Fatalf("[count %d] unexpected error: %v", count, err)
		}
		if len(h.Nodes) != 2*count-1 {
			t.Fatalf("[count %d] expected %d nodes; got %d", count, 2*count-1, len(h.Nodes))
		}
		if err = h.Validate(); err != nil {
			t.Fatalf("[count %d] %v", count, err)
		}

		// Every primitive must be reported by a ray through its center.
		for prim := 0; prim < count; prim += 1 + count/50 {
			ray := types.Ray{
				Origin: centers[prim].Sub(types.XYZ(0, 0, 200)),
				Dir:    types.XYZ(0, 0, 1),
				TMax:   1000,
			}
			found := false
			h.Intersect(ray, func(hit uint32) bool {
				found = hit == uint32(prim)
				return found
			})
			if !found {
				t.Fatalf("[count %d] expected ray to hit primitive %d", count, prim)
			}
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	bboxes, centers := randomInput(rng, 2000)

	// Add a few primitives sharing the same center
	for i := 0; i < 10; i++ {
		bboxes = append(bboxes, bboxes[0])
		centers = append(centers, centers[0])
	}

	var ref *Hierarchy
	for index, ex := range testExecutors() {
		for run := 0; run < 2; run++ {
			h, err := Build(bboxes, centers, Options{Executor: ex})
			if err != nil {
				t.Fatal(err)
			}
			if ref == nil {
				ref = h
				continue
			}
			if !reflect.DeepEqual(ref.Nodes, h.Nodes) || !reflect.DeepEqual(ref.PrimitiveIndices, h.PrimitiveIndices) {
				t.Fatalf("[executor %d, run %d] expected identical hierarchies", index, run)
			}
		}
	}
}

func TestBuildDuplicateCenters(t *testing.T) {
	for _, count := range []int{2, 3, 8, 31} {
		mins := make([]types.Vec3, count)
		for i := range mins {
			mins[i] = types.XYZ(5, 5, 5)
		}
		bboxes, centers := boxInput(mins...)

		h, err := Build(bboxes, centers, DefaultOptions())
		if err != nil {
			if errors.Is(err, ErrDegenerateRound) {
				t.Fatalf("[count %d] duplicate codes triggered a degenerate round", count)
			}
			t.Fatal(err)
		}
		if err = h.Validate(); err != nil {
			t.Fatalf("[count %d] %v", count, err)
		}
	}
}

func TestBuildOptions(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	bboxes, centers := randomInput(rng, 600)

	type spec struct {
		opts       Options
		expWorkers int
	}
	specs := []spec{
		{Options{Workers: 3, LoopParallelThreshold: 0}, 3},
		{Options{Workers: 2, LoopParallelThreshold: -1}, 2},
		{Options{Workers: 5, LoopParallelThreshold: 1 << 20}, 5},
		{Options{Executor: parallel.Sequential(), Workers: 8}, 1},
	}

	for index, s := range specs {
		h, err := Build(bboxes, centers, s.opts)
		if err != nil {
			t.Fatalf("[spec %d] unexpected error: %v", index, err)
		}
		if err = h.Validate(); err != nil {
			t.Fatalf("[spec %d] %v", index, err)
		}
		if h.Workers != s.expWorkers {
			t.Fatalf("[spec %d] expected %d workers; got %d", index, s.expWorkers, h.Workers)
		}
	}
}

func TestBuildTimingLog(t *testing.T) {
	var buf bytes.Buffer
	log.SetSink(&buf)
	defer func() {
		log.SetSink(os.Stderr)
		log.SetLevel(log.Notice)
	}()

	bboxes, centers := boxInput(types.XYZ(0, 0, 0), types.XYZ(100, 100, 100))

	log.SetLevel(log.Notice)
	if _, err := Build(bboxes, centers, Options{Workers: 2}); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no build timing output at notice level; got %q", buf.String())
	}

	log.SetLevel(log.Debug)
	if _, err := Build(bboxes, centers, Options{Workers: 2}); err != nil {
		t.Fatal(err)
	}
	if out := buf.String(); !strings.Contains(out, "rounds: 1, workers: 2") {
		t.Fatalf("expected build timing output with round and worker counts; got %q", out)
	}
}
