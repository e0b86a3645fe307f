package stream

import (
	"context"
	"fmt"

	"voxelgrid/internal/engine/block"
	"voxelgrid/internal/engine/chunk"
	"voxelgrid/internal/engine/mathx"
)

// SetBlocks writes t into the axis-aligned box [boxMin, boxMin+boxSize).
// Unloaded chunks in the span are logged and skipped; the edit is partial
// but coherent. The return value reports whether any chunk changed.
// Overlapping calls serialize.
func (e *Engine) SetBlocks(ctx context.Context, boxMin, boxSize mathx.Vec3i, t block.Type) (bool, error) {
	e.editMu.Lock()
	defer e.editMu.Unlock()

	if boxSize.X < 0 || boxSize.Y < 0 || boxSize.Z < 0 {
		return false, fmt.Errorf("negative box size %+v", boxSize)
	}
	if boxSize.X == 0 || boxSize.Y == 0 || boxSize.Z == 0 {
		return false, nil
	}
	boxMax := boxMin.Add(boxSize)

	cmin := chunk.PosOf(boxMin)
	cmax := chunk.CeilPosOf(boxMax)

	type edited struct {
		c          *chunk.Chunk
		lmin, lmax mathx.Vec3i // clamped local extents, max exclusive
	}
	var mods []edited

	for cy := cmin.Y; cy < cmax.Y; cy++ {
		for cz := cmin.Z; cz < cmax.Z; cz++ {
			for cx := cmin.X; cx < cmax.X; cx++ {
				cp := mathx.Vec3i{X: cx, Y: cy, Z: cz}
				c, ok := e.store.Get(cp)
				if !ok || !c.Loaded() {
					e.log.Warn("edit skips unloaded chunk", "chunk", cp)
					continue
				}
				origin := chunk.Origin(cp)
				lmin := boxMin.Sub(origin).Max(mathx.Vec3i{})
				lmax := boxMax.Sub(origin).Min(mathx.Vec3i{X: chunk.Size, Y: chunk.Size, Z: chunk.Size})

				if !e.writeBox(c, lmin, lmax, t) {
					continue
				}
				mods = append(mods, edited{c: c, lmin: lmin, lmax: lmax})
			}
		}
	}
	if len(mods) == 0 {
		return false, nil
	}

	for _, m := range mods {
		if e.cfg.CullChunks {
			m.c.ConnectedFaces = e.workers[0].analyzer.Compute(m.c, e.reg)
		} else {
			m.c.ConnectedFaces = chunk.ConnStale
		}
	}

	remesh := map[mathx.Vec3i]struct{}{}
	for _, m := range mods {
		remesh[m.c.Pos] = struct{}{}
		for f := 0; f < 6; f++ {
			if !boxTouchesFace(m.lmin, m.lmax, f) {
				continue
			}
			np := m.c.Pos.Add(chunk.FaceDir[f])
			if n, ok := e.store.Get(np); ok && n.Loaded() {
				remesh[np] = struct{}{}
			}
		}
	}
	if err := e.meshChunks(ctx, sortedKeys(remesh)); err != nil {
		return true, err
	}
	return true, nil
}

// writeBox applies one chunk's clamped sub-box and reports whether contents
// changed. A box covering the whole chunk collapses it to a single-entry
// palette.
func (e *Engine) writeBox(c *chunk.Chunk, lmin, lmax mathx.Vec3i, t block.Type) bool {
	full := lmin == (mathx.Vec3i{}) &&
		lmax == (mathx.Vec3i{X: chunk.Size, Y: chunk.Size, Z: chunk.Size})
	if full {
		if u, ok := c.Uniform(); ok && u == t {
			return false
		}
		c.SetSinglePalette(t)
		return true
	}

	if u, ok := c.Uniform(); ok {
		if u == t {
			return false
		}
		c.EnsureDense()
	}
	idx := c.AddToPalette(t)

	changed := false
	for y := lmin.Y; y < lmax.Y; y++ {
		for z := lmin.Z; z < lmax.Z; z++ {
			row := c.Blocks[chunk.Linear(lmin.X, y, z):chunk.Linear(lmax.X, y, z)]
			for i := range row {
				if row[i] != idx {
					row[i] = idx
					changed = true
				}
			}
		}
	}
	if changed {
		c.Compact()
	}
	return changed
}

// boxTouchesFace reports whether the clamped local box reaches the chunk
// boundary behind face f, which forces the neighbor to re-mesh.
func boxTouchesFace(lmin, lmax mathx.Vec3i, f int) bool {
	switch f {
	case chunk.FaceNegY:
		return lmin.Y == 0
	case chunk.FacePosY:
		return lmax.Y == chunk.Size
	case chunk.FaceNegZ:
		return lmin.Z == 0
	case chunk.FacePosZ:
		return lmax.Z == chunk.Size
	case chunk.FaceNegX:
		return lmin.X == 0
	default:
		return lmax.X == chunk.Size
	}
}
