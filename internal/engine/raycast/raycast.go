// Package raycast walks rays through the sparse chunk grid with an
// Amanatides-Woo DDA, consuming whole chunks in one step where the palette
// allows it.
package raycast

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelgrid/internal/engine/block"
	"voxelgrid/internal/engine/chunk"
	"voxelgrid/internal/engine/mathx"
)

// maxSteps caps traversal; a ray that survives this many cells is a miss.
const maxSteps = 1024

// Hit describes the first solid block along the ray.
type Hit struct {
	Type     block.Type
	Distance float32
	Pos      mgl32.Vec3
	Normal   mathx.Vec3i
}

// Cast traces from origin along unit direction dir up to maxDist. Absent or
// unloaded chunks read as air and are skipped in one step, as are uniform
// single-palette chunks.
func Cast(store *chunk.Store, reg *block.Registry, origin, dir mgl32.Vec3, maxDist float32) (Hit, bool) {
	t := float32(0)
	cell := floorVec(origin)
	var normal mathx.Vec3i

	// AABB of the previous cell, for the boundary clamp on hit.
	prevMin := cell
	prevSize := 1

	for step := 0; step < maxSteps; step++ {
		cp := chunk.PosOf(cell)
		c, ok := store.Get(cp)

		cellMin := cell
		size := 1
		bt := block.Air
		switch {
		case !ok || !c.Loaded():
			cellMin = chunk.Origin(cp)
			size = chunk.Size
		default:
			if u, uniform := c.Uniform(); uniform {
				cellMin = chunk.Origin(cp)
				size = chunk.Size
				bt = u
			} else {
				l := chunk.LocalOf(cell, cp)
				bt = c.Get(l.X, l.Y, l.Z)
			}
		}

		if reg.IsSolid(bt) {
			if t > maxDist {
				return Hit{}, false
			}
			pos := origin.Add(dir.Mul(t))
			clampInto(&pos, prevMin, prevSize)
			return Hit{Type: bt, Distance: t, Pos: pos, Normal: normal}, true
		}

		exit, axis := exitDistance(origin, dir, cellMin, size)
		if axis < 0 {
			// Direction parallel to every remaining boundary; nothing
			// ahead can change.
			return Hit{}, false
		}
		t = exit
		if t > maxDist {
			return Hit{}, false
		}

		prevMin, prevSize = cellMin, size
		cell = advance(origin, dir, t, cellMin, size, axis)
		normal = mathx.Vec3i{}
		if dir[axis] > 0 {
			setAxis(&normal, axis, -1)
		} else {
			setAxis(&normal, axis, 1)
		}
	}
	return Hit{}, false
}

// exitDistance returns the ray parameter at which the current cell AABB is
// exited, and the exit axis.
func exitDistance(origin, dir mgl32.Vec3, cellMin mathx.Vec3i, size int) (float32, int) {
	best := float32(math.Inf(1))
	axis := -1
	for i := 0; i < 3; i++ {
		d := dir[i]
		if d == 0 {
			continue
		}
		bound := float32(axisOf(cellMin, i))
		if d > 0 {
			bound += float32(size)
		}
		tx := (bound - origin[i]) / d
		if tx < best {
			best = tx
			axis = i
		}
	}
	return best, axis
}

// advance computes the cell entered after crossing the exit face. The
// stepped axis is set exactly; the others re-derive from the ray position,
// clamped into the exited cell's extent to absorb float error.
func advance(origin, dir mgl32.Vec3, t float32, cellMin mathx.Vec3i, size, axis int) mathx.Vec3i {
	p := origin.Add(dir.Mul(t))
	var out mathx.Vec3i
	for i := 0; i < 3; i++ {
		if i == axis {
			if dir[i] > 0 {
				setAxis(&out, i, axisOf(cellMin, i)+size)
			} else {
				setAxis(&out, i, axisOf(cellMin, i)-1)
			}
			continue
		}
		v := int(floor32(p[i]))
		lo := axisOf(cellMin, i)
		if v < lo {
			v = lo
		} else if v > lo+size-1 {
			v = lo + size - 1
		}
		setAxis(&out, i, v)
	}
	return out
}

// clampInto nudges pos strictly inside the AABB [min, min+size)^3 using
// next-representable floats, so the reported hit position never leaks
// across the cell boundary.
func clampInto(pos *mgl32.Vec3, min mathx.Vec3i, size int) {
	for i := 0; i < 3; i++ {
		lo := float32(axisOf(min, i))
		hi := lo + float32(size)
		if pos[i] <= lo {
			pos[i] = math.Nextafter32(lo, hi)
		} else if pos[i] >= hi {
			pos[i] = math.Nextafter32(hi, lo)
		}
	}
}

func floorVec(v mgl32.Vec3) mathx.Vec3i {
	return mathx.Vec3i{
		X: int(floor32(v[0])),
		Y: int(floor32(v[1])),
		Z: int(floor32(v[2])),
	}
}

func floor32(v float32) float32 { return float32(math.Floor(float64(v))) }

func axisOf(v mathx.Vec3i, i int) int {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func setAxis(v *mathx.Vec3i, i, val int) {
	switch i {
	case 0:
		v.X = val
	case 1:
		v.Y = val
	default:
		v.Z = val
	}
}
