package reader

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/lbvh/asset"
	"github.com/achilleasa/lbvh/log"
	"github.com/achilleasa/lbvh/types"
)

// A named group of consecutive primitives.
type Mesh struct {
	Name  string
	First int
	Count int
}

// The primitives parsed from a scene. Each triangle contributes one bbox
// and one center; both slices share the same indexing.
type Primitives struct {
	BBoxes  []types.BBox
	Centers []types.Vec3
	Meshes  []Mesh
}

// Get the number of parsed primitives.
func (p *Primitives) Len() int {
	return len(p.BBoxes)
}

// Get the bbox that encloses all primitives.
func (p *Primitives) Bounds() types.BBox {
	bounds := types.EmptyBBox()
	for _, b := range p.BBoxes {
		bounds = bounds.Extend(b)
	}
	return bounds
}

type wavefrontReader struct {
	logger log.Logger

	prims *Primitives

	vertexList []types.Vec3

	// An error stack that provides additional error information when
	// scene files include other files.
	errStack []string
}

// Read the triangles of a wavefront object file.
func ReadPrimitives(filename string) (*Primitives, error) {
	if !strings.HasSuffix(filename, ".obj") {
		return nil, fmt.Errorf("reader: unsupported file format for %q", filename)
	}

	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return newWavefrontReader().Read(res)
}

func newWavefrontReader() *wavefrontReader {
	return &wavefrontReader{
		logger:     log.New("wavefront reader"),
		prims:      &Primitives{},
		vertexList: make([]types.Vec3, 0),
		errStack:   make([]string, 0),
	}
}

// Parse the resource and any files it calls.
func (r *wavefrontReader) Read(res *asset.Resource) (*Primitives, error) {
	r.logger.Noticef(`parsing primitives from "%s"`, res.Path())
	start := time.Now()

	if err := r.parse(res); err != nil {
		return nil, err
	}
	r.closeMesh()

	if r.prims.Len() == 0 {
		return nil, r.emitError(res.Path(), 0, "no faces defined")
	}

	r.logger.Noticef(
		"parsed %d primitives in %d mesh(es) in %d ms",
		r.prims.Len(), len(r.prims.Meshes), time.Since(start).Nanoseconds()/1e6,
	)
	return r.prims, nil
}

func (r *wavefrontReader) parse(res *asset.Resource) error {
	var lineNum int = 0

	// Included files use 1-based indices relative to the vertices defined
	// before the include.
	relVertexOffset := len(r.vertexList)

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "call"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [call]", res.Path(), lineNum))
			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			err = r.parse(incRes)
			incRes.Close()
			if err != nil {
				return err
			}
			r.popFrame()
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.vertexList = append(r.vertexList, v)
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1)
			}
			r.closeMesh()
			r.prims.Meshes = append(r.prims.Meshes, Mesh{Name: lineTokens[1], First: r.prims.Len()})
		case "f":
			if err := r.parseFace(lineTokens, relVertexOffset); err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		default:
			// Normals, uvs and materials do not affect primitive bounds.
		}
	}

	if err := scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, "%s", err.Error())
	}
	return nil
}

// Update the primitive count of the last mesh and drop it if it is empty.
func (r *wavefrontReader) closeMesh() {
	meshCount := len(r.prims.Meshes)
	if meshCount == 0 {
		return
	}

	last := &r.prims.Meshes[meshCount-1]
	last.Count = r.prims.Len() - last.First
	if last.Count == 0 {
		r.logger.Warningf("skipping empty mesh %q", last.Name)
		r.prims.Meshes = r.prims.Meshes[:meshCount-1]
	}
}

// Parse a triangle or quad face and append its triangles.
func (r *wavefrontReader) parseFace(lineTokens []string, relVertexOffset int) error {
	if len(lineTokens) < 4 || len(lineTokens) > 5 {
		return fmt.Errorf(`unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got %d. Select the triangulation option in your exporter`, len(lineTokens)-1)
	}

	// Faces that precede any group definition go to a default mesh.
	if len(r.prims.Meshes) == 0 {
		r.prims.Meshes = append(r.prims.Meshes, Mesh{Name: "default", First: r.prims.Len()})
	}

	var vertices [4]types.Vec3
	for arg := 0; arg < len(lineTokens)-1; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")
		if vTokens[0] == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vOffset, err := selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset)
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		vertices[arg] = r.vertexList[vOffset]
	}

	indiceList := [][3]int{{0, 1, 2}}
	if len(lineTokens) == 5 {
		indiceList = append(indiceList, [3]int{0, 2, 3})
	}

	for _, indices := range indiceList {
		v0, v1, v2 := vertices[indices[0]], vertices[indices[1]], vertices[indices[2]]
		r.prims.BBoxes = append(r.prims.BBoxes, types.BBoxFromPoints(v0, v1, v2))
		r.prims.Centers = append(r.prims.Centers, v0.Add(v1).Add(v2).Mul(1.0/3.0))
	}
	return nil
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)

	var errMsg string
	if file != "" {
		errMsg = strings.Trim(
			fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	} else {
		errMsg = strings.Trim(
			fmt.Sprintf("error: %s\n%s", msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	}

	return fmt.Errorf("%s", errMsg)
}

// Push a frame to the error stack.
func (r *wavefrontReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Given an index for a vertex calculate the proper offset into the vertex
// list. Wavefront format can also use negative indices to reference
// elements from the end of the list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int = 0
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
