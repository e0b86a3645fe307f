// Package gen fills chunks from a parameterized terrain generator, on the
// CPU or through a batched compute dispatcher.
package gen

import (
	"fmt"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"

	"voxelgrid/internal/engine/block"
	"voxelgrid/internal/engine/chunk"
)

// Variant selects the terrain function.
type Variant uint8

const (
	Flat Variant = iota
	Plane
	Simplex2D
	Perlin2D
	Simplex3D
	Perlin3D
	CustomTerrain
)

var variantNames = map[Variant]string{
	Flat:          "flat",
	Plane:         "plane",
	Simplex2D:     "simplex2d",
	Perlin2D:      "perlin2d",
	Simplex3D:     "simplex3d",
	Perlin3D:      "perlin3d",
	CustomTerrain: "custom_terrain",
}

func (v Variant) String() string {
	if s, ok := variantNames[v]; ok {
		return s
	}
	return fmt.Sprintf("variant(%d)", uint8(v))
}

func ParseVariant(s string) (Variant, error) {
	for v, name := range variantNames {
		if name == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown generator variant %q", s)
}

// KernelName is the compute-kernel selector for a variant.
func (v Variant) KernelName() string { return "terrain_" + v.String() }

// CPUSupported reports whether the variant has a CPU implementation.
// CustomTerrain is an opaque GPU-only kernel.
func (v Variant) CPUSupported() bool { return v != CustomTerrain }

// GPUSupported reports whether the variant may be batched to the dispatcher.
func (v Variant) GPUSupported() bool { return true }

// Params are the shared generator factors. Offset and Scale transform the
// sample position; Offset2 and Scale2 shape the height response of the
// noise variants.
type Params struct {
	Variant Variant
	Offset  [3]float64
	Scale   [3]float64
	Offset2 float64
	Scale2  float64
	Seed    int64
}

// Generator evaluates the terrain predicate. It is immutable after New and
// safe for concurrent use by workers.
type Generator struct {
	params  Params
	simplex opensimplex.Noise
	perlin  *perlin.Perlin
}

func New(params Params) (*Generator, error) {
	if _, ok := variantNames[params.Variant]; !ok {
		return nil, fmt.Errorf("unknown generator variant %d", params.Variant)
	}
	g := &Generator{params: params}
	switch params.Variant {
	case Simplex2D, Simplex3D:
		g.simplex = opensimplex.New(params.Seed)
	case Perlin2D, Perlin3D:
		g.perlin = perlin.NewPerlin(2, 2, 3, params.Seed)
	}
	return g, nil
}

func (g *Generator) Params() Params { return g.params }

// SolidAt evaluates the terrain predicate at a world block coordinate.
// Position-stable: the same input yields the same output on every thread
// and every run.
func (g *Generator) SolidAt(x, y, z int) bool {
	p := &g.params
	fx := (float64(x) + p.Offset[0]) * p.Scale[0]
	fy := (float64(y) + p.Offset[1]) * p.Scale[1]
	fz := (float64(z) + p.Offset[2]) * p.Scale[2]

	switch p.Variant {
	case Flat:
		return float64(y)+p.Offset[1]*p.Scale[1] < 0
	case Plane:
		return fx+fz > fy
	case Simplex2D:
		return (g.simplex.Eval2(fx, fz)+p.Offset2)*p.Scale2 > float64(y)
	case Perlin2D:
		return (g.perlin.Noise2D(fx, fz)+p.Offset2)*p.Scale2 > float64(y)
	case Simplex3D:
		return (g.simplex.Eval3(fx, fy, fz)+p.Offset2)*p.Scale2 > float64(y)
	case Perlin3D:
		return (g.perlin.Noise3D(fx, fy, fz)+p.Offset2)*p.Scale2 > float64(y)
	default:
		return false
	}
}

// Fill writes c's palette and blocks from the generator. scratch must hold
// chunk.Volume bytes; it is worker-owned and reused across chunks.
func (g *Generator) Fill(c *chunk.Chunk, scratch []byte) error {
	if !g.params.Variant.CPUSupported() {
		return fmt.Errorf("variant %s has no CPU kernel", g.params.Variant)
	}
	if len(scratch) < chunk.Volume {
		return fmt.Errorf("scratch too small: %d < %d", len(scratch), chunk.Volume)
	}
	origin := chunk.Origin(c.Pos)
	solid := 0
	for y := 0; y < chunk.Size; y++ {
		for z := 0; z < chunk.Size; z++ {
			for x := 0; x < chunk.Size; x++ {
				i := chunk.Linear(x, y, z)
				if g.SolidAt(origin.X+x, origin.Y+y, origin.Z+z) {
					scratch[i] = 1
					solid++
				} else {
					scratch[i] = 0
				}
			}
		}
	}
	packCounted(c, scratch[:chunk.Volume], solid)
	return nil
}

// PackDense applies the output contract to a dense air/stone byte array:
// one used slot collapses to a single-entry palette, both slots copy the
// dense array under an [air, stone] palette. The palette is recomputed from
// the actual bytes, whatever produced them.
func PackDense(c *chunk.Chunk, dense []byte) {
	solid := 0
	for _, b := range dense {
		if b != 0 {
			solid++
		}
	}
	packCounted(c, dense, solid)
}

func packCounted(c *chunk.Chunk, dense []byte, solid int) {
	switch solid {
	case 0:
		c.SetSinglePalette(block.Air)
	case chunk.Volume:
		c.SetSinglePalette(block.Stone)
	default:
		c.Palette = append(c.Palette[:0], block.Air, block.Stone)
		if len(c.Blocks) != chunk.Volume {
			c.Blocks = make([]uint8, chunk.Volume)
		}
		copy(c.Blocks, dense)
	}
}
