package mesh

import (
	"voxelgrid/internal/engine/block"
	"voxelgrid/internal/engine/chunk"
)

// faceCorner holds the four corner offsets of each face in block units,
// wound CCW viewed from outside. Triangulation is (0,1,2),(2,3,0).
var faceCorner = [6][4][3]uint8{
	{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}}, // -y
	{{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}}, // +y
	{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}}, // -z
	{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}}, // +z
	{{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}}, // -x
	{{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}}, // +x
}

// faceNormal is the snorm-quantized outward normal per face.
var faceNormal = [6][3]int8{
	{0, -128, 0},
	{0, 127, 0},
	{0, 0, -128},
	{0, 0, 127},
	{-128, 0, 0},
	{127, 0, 0},
}

// uvCorner maps corner index to the face-parametric UV square.
var uvCorner = [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

// Neighborhood is a chunk and its six axis neighbors, indexed by face.
// Absent or unloaded neighbors may be nil.
type Neighborhood struct {
	Center    *chunk.Chunk
	Neighbors [6]*chunk.Chunk
}

// Extractor emits visible faces from a neighborhood. It carries no state
// yet; the type keeps one extractor per worker, matching the other
// per-worker scratch holders.
type Extractor struct{}

func NewExtractor() *Extractor { return &Extractor{} }

// Extract appends every visible face of the center chunk into out. A face
// is emitted iff its block is solid and the adjacent block is non-opaque.
// Absent neighbor chunks read as transparent when addBorderWalls is set and
// opaque otherwise.
func (e *Extractor) Extract(n Neighborhood, reg *block.Registry, addBorderWalls bool, out *Buffer) {
	c := n.Center
	if c == nil || !c.Loaded() {
		return
	}

	if t, ok := c.Uniform(); ok {
		if !reg.IsSolid(t) || t == block.Air {
			return
		}
		e.extractUniform(n, t, reg, addBorderWalls, out)
		return
	}

	for y := 0; y < chunk.Size; y++ {
		for z := 0; z < chunk.Size; z++ {
			for x := 0; x < chunk.Size; x++ {
				t := c.Get(x, y, z)
				if t == block.Air || !reg.IsSolid(t) {
					continue
				}
				for f := 0; f < 6; f++ {
					d := chunk.FaceDir[f]
					if !e.neighborOpaque(n, reg, addBorderWalls, x+d.X, y+d.Y, z+d.Z) {
						emitFace(out, reg, t, f, x, y, z)
					}
				}
			}
		}
	}
}

// extractUniform walks only the six boundary slabs of a uniform opaque
// chunk; interior faces are all hidden.
func (e *Extractor) extractUniform(n Neighborhood, t block.Type, reg *block.Registry, addBorderWalls bool, out *Buffer) {
	for f := 0; f < 6; f++ {
		d := chunk.FaceDir[f]
		for u := 0; u < chunk.Size; u++ {
			for v := 0; v < chunk.Size; v++ {
				x, y, z := boundaryCell(f, u, v)
				if !e.neighborOpaque(n, reg, addBorderWalls, x+d.X, y+d.Y, z+d.Z) {
					emitFace(out, reg, t, f, x, y, z)
				}
			}
		}
	}
}

// boundaryCell maps (face, u, v) to the local coordinates of a boundary
// slab cell.
func boundaryCell(f, u, v int) (x, y, z int) {
	switch f {
	case chunk.FaceNegY:
		return u, 0, v
	case chunk.FacePosY:
		return u, chunk.Size - 1, v
	case chunk.FaceNegZ:
		return u, v, 0
	case chunk.FacePosZ:
		return u, v, chunk.Size - 1
	case chunk.FaceNegX:
		return 0, u, v
	default:
		return chunk.Size - 1, u, v
	}
}

// neighborOpaque resolves a possibly out-of-chunk local coordinate through
// the face neighbors.
func (e *Extractor) neighborOpaque(n Neighborhood, reg *block.Registry, addBorderWalls bool, x, y, z int) bool {
	f := -1
	switch {
	case y < 0:
		f, y = chunk.FaceNegY, y+chunk.Size
	case y >= chunk.Size:
		f, y = chunk.FacePosY, y-chunk.Size
	case z < 0:
		f, z = chunk.FaceNegZ, z+chunk.Size
	case z >= chunk.Size:
		f, z = chunk.FacePosZ, z-chunk.Size
	case x < 0:
		f, x = chunk.FaceNegX, x+chunk.Size
	case x >= chunk.Size:
		f, x = chunk.FacePosX, x-chunk.Size
	}
	if f < 0 {
		return reg.IsOpaque(n.Center.Get(x, y, z))
	}
	nb := n.Neighbors[f]
	if nb == nil || !nb.Loaded() {
		return !addBorderWalls
	}
	return reg.IsOpaque(nb.Get(x, y, z))
}

func emitFace(out *Buffer, reg *block.Registry, t block.Type, f, x, y, z int) {
	atlas := reg.Atlas(t)
	nrm := faceNormal[f]
	for k := 0; k < 4; k++ {
		c := faceCorner[f][k]
		px := uint8((x + int(c[0])) * PosUnitsPerBlock)
		py := uint8((y + int(c[1])) * PosUnitsPerBlock)
		pz := uint8((z + int(c[2])) * PosUnitsPerBlock)
		u := atlas.U0 + uvCorner[k][0]*(atlas.U1-atlas.U0)
		v := atlas.V0 + uvCorner[k][1]*(atlas.V1-atlas.V0)
		out.appendVertex(px, py, pz, nrm[0], nrm[1], nrm[2], u, v)
	}
	out.appendQuad()
}
