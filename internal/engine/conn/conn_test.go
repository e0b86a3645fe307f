package conn

import (
	"testing"

	"voxelgrid/internal/engine/block"
	"voxelgrid/internal/engine/chunk"
)

func uniformChunk(t block.Type) *chunk.Chunk {
	var c chunk.Chunk
	c.SetSinglePalette(t)
	return &c
}

func denseChunk() *chunk.Chunk {
	var c chunk.Chunk
	c.SetSinglePalette(block.Air)
	c.EnsureDense()
	c.AddToPalette(block.Stone)
	return &c
}

func TestUniformChunks(t *testing.T) {
	a := NewAnalyzer()
	reg := block.DefaultRegistry()
	if got := a.Compute(uniformChunk(block.Air), reg); got != chunk.AllConnected {
		t.Fatalf("uniform air = %04x, want %04x", got, chunk.AllConnected)
	}
	if got := a.Compute(uniformChunk(block.Stone), reg); got != 0 {
		t.Fatalf("uniform stone = %04x, want 0", got)
	}
}

func TestMostlyAirSingleRegion(t *testing.T) {
	c := denseChunk()
	c.Blocks[chunk.Linear(8, 8, 8)] = 1
	got := NewAnalyzer().Compute(c, block.DefaultRegistry())
	if got != chunk.AllConnected {
		t.Fatalf("single interior block = %04x, want %04x", got, chunk.AllConnected)
	}
}

// A 14^3 solid cube at (1,1,1) leaves a one-block air shell linking all six
// faces.
func TestHollowShell(t *testing.T) {
	c := denseChunk()
	for y := 1; y <= 14; y++ {
		for z := 1; z <= 14; z++ {
			for x := 1; x <= 14; x++ {
				c.Blocks[chunk.Linear(x, y, z)] = 1
			}
		}
	}
	got := NewAnalyzer().Compute(c, block.DefaultRegistry())
	if got != chunk.AllConnected {
		t.Fatalf("shell mask = %04x, want %04x", got, chunk.AllConnected)
	}
}

// A solid plane at y=8 separates -y from +y; every other pair stays linked.
func TestBisectingPlane(t *testing.T) {
	c := denseChunk()
	for z := 0; z < chunk.Size; z++ {
		for x := 0; x < chunk.Size; x++ {
			c.Blocks[chunk.Linear(x, 8, z)] = 1
		}
	}
	got := NewAnalyzer().Compute(c, block.DefaultRegistry())
	want := chunk.AllConnected &^ (1 << uint(chunk.PairIndex(chunk.FaceNegY, chunk.FacePosY)))
	if got != want {
		t.Fatalf("bisected mask = %04x, want %04x", got, want)
	}
}

// A sealed box with an interior pocket: the pocket is never seeded, the
// opaque boundary yields no pairs.
func TestSealedPocket(t *testing.T) {
	c := denseChunk()
	for i := range c.Blocks {
		c.Blocks[i] = 1
	}
	c.Blocks[chunk.Linear(8, 8, 8)] = 0
	got := NewAnalyzer().Compute(c, block.DefaultRegistry())
	if got != 0 {
		t.Fatalf("sealed pocket mask = %04x, want 0", got)
	}
}

// Scratch reuse across chunks must not leak state between computations.
func TestAnalyzerReuse(t *testing.T) {
	a := NewAnalyzer()
	reg := block.DefaultRegistry()

	solid := denseChunk()
	for i := range solid.Blocks {
		solid.Blocks[i] = 1
	}
	solid.Blocks[0] = 0

	open := denseChunk()

	first := a.Compute(open, reg)
	_ = a.Compute(solid, reg)
	if again := a.Compute(open, reg); again != first {
		t.Fatalf("reused analyzer drifted: %04x vs %04x", again, first)
	}
}
