// Package mesh extracts renderable surface geometry from chunks.
package mesh

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// VertexStride is the byte size of one vertex: position 4 x u8 unorm,
// normal 4 x i8 snorm, UV 2 x f32.
const VertexStride = 16

// PosUnitsPerBlock scales block corners into the unorm position channel:
// Size block edges span 128 units, so a chunk occupies [0, 128/255]^3.
const PosUnitsPerBlock = 8

// Buffer is a writable vertex/index stream plus its bounding box in
// unit-cube normalized coordinates.
type Buffer struct {
	Verts   []byte
	Indices []byte

	Min, Max mgl32.Vec3

	hasBounds bool
}

func (b *Buffer) Reset() {
	b.Verts = b.Verts[:0]
	b.Indices = b.Indices[:0]
	b.Min = mgl32.Vec3{}
	b.Max = mgl32.Vec3{}
	b.hasBounds = false
}

func (b *Buffer) VertexCount() int { return len(b.Verts) / VertexStride }

func (b *Buffer) IndexCount() int { return len(b.Indices) / 2 }

func (b *Buffer) Empty() bool { return len(b.Verts) == 0 }

// appendVertex writes one vertex. px, py, pz are quantized block-corner
// units in [0, 128]; nx, ny, nz are snorm axis components.
func (b *Buffer) appendVertex(px, py, pz uint8, nx, ny, nz int8, u, v float32) {
	b.Verts = append(b.Verts, px, py, pz, 0)
	b.Verts = append(b.Verts, byte(nx), byte(ny), byte(nz), 0)
	var f [8]byte
	binary.LittleEndian.PutUint32(f[0:], math.Float32bits(u))
	binary.LittleEndian.PutUint32(f[4:], math.Float32bits(v))
	b.Verts = append(b.Verts, f[:]...)

	p := mgl32.Vec3{float32(px) / 255, float32(py) / 255, float32(pz) / 255}
	if !b.hasBounds {
		b.Min, b.Max = p, p
		b.hasBounds = true
		return
	}
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// appendQuad emits the two triangles (0,1,2) and (2,3,0) over the last four
// vertices appended.
func (b *Buffer) appendQuad() {
	base := uint16(b.VertexCount() - 4)
	var idx [12]byte
	order := [6]uint16{0, 1, 2, 2, 3, 0}
	for i, o := range order {
		binary.LittleEndian.PutUint16(idx[i*2:], base+o)
	}
	b.Indices = append(b.Indices, idx[:]...)
}
