// Package conn computes the 15-bit face-pair connectivity of a chunk by
// flood-filling its non-opaque cells.
package conn

import (
	"github.com/gammazero/deque"

	"voxelgrid/internal/engine/block"
	"voxelgrid/internal/engine/chunk"
)

// Analyzer carries per-worker flood-fill scratch, reused across chunks
// assigned to that worker.
type Analyzer struct {
	visited [chunk.Volume]bool
	opaque  [chunk.Volume]bool
	queue   deque.Deque[int]
}

func NewAnalyzer() *Analyzer { return &Analyzer{} }

// Compute returns the connectivity mask of c. Uniform chunks short-circuit:
// all-air is fully connected, all-opaque is fully sealed.
func (a *Analyzer) Compute(c *chunk.Chunk, reg *block.Registry) uint16 {
	if t, ok := c.Uniform(); ok {
		if reg.IsOpaque(t) {
			return 0
		}
		return chunk.AllConnected
	}

	for i := range a.visited {
		a.visited[i] = false
	}
	for i, b := range c.Blocks {
		a.opaque[i] = reg.IsOpaque(c.Palette[b])
	}

	var mask uint16
	seed := func(x, y, z int) {
		i := chunk.Linear(x, y, z)
		if a.visited[i] || a.opaque[i] {
			return
		}
		mask |= chunk.PairMaskForSet(a.fill(i))
	}

	// Seed from every non-opaque cell on each of the six faces. Interior
	// pockets never link faces, so they are never filled.
	for u := 0; u < chunk.Size; u++ {
		for v := 0; v < chunk.Size; v++ {
			seed(u, 0, v)
			seed(u, chunk.Size-1, v)
			seed(u, v, 0)
			seed(u, v, chunk.Size-1)
			seed(0, u, v)
			seed(chunk.Size-1, u, v)
		}
	}
	return mask
}

// fill runs one BFS over a connected non-opaque region starting at linear
// index start and returns the 6-bit set of chunk faces the region touches.
func (a *Analyzer) fill(start int) uint8 {
	a.queue.Clear()
	a.queue.PushBack(start)
	a.visited[start] = true

	var faces uint8
	for a.queue.Len() > 0 {
		i := a.queue.PopFront()
		x := i % chunk.Size
		z := (i / chunk.Size) % chunk.Size
		y := i / chunk.Area

		if y == 0 {
			faces |= 1 << chunk.FaceNegY
		}
		if y == chunk.Size-1 {
			faces |= 1 << chunk.FacePosY
		}
		if z == 0 {
			faces |= 1 << chunk.FaceNegZ
		}
		if z == chunk.Size-1 {
			faces |= 1 << chunk.FacePosZ
		}
		if x == 0 {
			faces |= 1 << chunk.FaceNegX
		}
		if x == chunk.Size-1 {
			faces |= 1 << chunk.FacePosX
		}

		if x > 0 {
			a.push(i - 1)
		}
		if x < chunk.Size-1 {
			a.push(i + 1)
		}
		if z > 0 {
			a.push(i - chunk.Size)
		}
		if z < chunk.Size-1 {
			a.push(i + chunk.Size)
		}
		if y > 0 {
			a.push(i - chunk.Area)
		}
		if y < chunk.Size-1 {
			a.push(i + chunk.Area)
		}
	}
	return faces
}

func (a *Analyzer) push(i int) {
	if a.visited[i] || a.opaque[i] {
		return
	}
	a.visited[i] = true
	a.queue.PushBack(i)
}
