package raycast

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"voxelgrid/internal/engine/block"
	"voxelgrid/internal/engine/chunk"
	"voxelgrid/internal/engine/mathx"
)

// world with a single stone block at the world origin; everything else air.
func originBlockWorld() *chunk.Store {
	s := chunk.NewStore()
	c := s.GetOrCreate(mathx.Vec3i{})
	c.SetSinglePalette(block.Air)
	c.EnsureDense()
	c.Blocks[chunk.Linear(0, 0, 0)] = c.AddToPalette(block.Stone)
	return s
}

func TestStraightDownHit(t *testing.T) {
	s := originBlockWorld()
	hit, ok := Cast(s, block.DefaultRegistry(), mgl32.Vec3{0.5, 10, 0.5}, mgl32.Vec3{0, -1, 0}, 100)
	if !ok {
		t.Fatal("expected a hit")
	}
	if hit.Type != block.Stone {
		t.Fatalf("type = %d", hit.Type)
	}
	if d := hit.Distance; d < 8.999 || d > 9.001 {
		t.Fatalf("distance = %v, want ~9", d)
	}
	if hit.Normal != (mathx.Vec3i{Y: 1}) {
		t.Fatalf("normal = %+v, want +y", hit.Normal)
	}
	if y := hit.Pos.Y(); y < 1.0 || y > 1.001 {
		t.Fatalf("pos.y = %v, want just above 1", y)
	}
}

func TestMissBeyondRange(t *testing.T) {
	s := originBlockWorld()
	if _, ok := Cast(s, block.DefaultRegistry(), mgl32.Vec3{0.5, 10, 0.5}, mgl32.Vec3{0, -1, 0}, 5); ok {
		t.Fatal("hit beyond max distance")
	}
}

func TestMissOpenWorld(t *testing.T) {
	s := chunk.NewStore()
	if _, ok := Cast(s, block.DefaultRegistry(), mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, 50); ok {
		t.Fatal("hit in empty world")
	}
}

// Absent and uniform chunks are consumed whole; the ray still lands on the
// correct entry face of a distant solid chunk.
func TestChunkFastForward(t *testing.T) {
	s := chunk.NewStore()
	s.GetOrCreate(mathx.Vec3i{}).SetSinglePalette(block.Air)
	// chunk at z in [-32,-16) is solid; the chunk between is absent.
	s.GetOrCreate(mathx.Vec3i{Z: -2}).SetSinglePalette(block.Stone)

	hit, ok := Cast(s, block.DefaultRegistry(), mgl32.Vec3{8, 8, 8}, mgl32.Vec3{0, 0, -1}, 100)
	if !ok {
		t.Fatal("expected a hit")
	}
	if d := hit.Distance; d < 23.999 || d > 24.001 {
		t.Fatalf("distance = %v, want ~24", d)
	}
	if hit.Normal != (mathx.Vec3i{Z: 1}) {
		t.Fatalf("normal = %+v, want +z", hit.Normal)
	}
	if hit.Type != block.Stone {
		t.Fatalf("type = %d", hit.Type)
	}
}

func TestStartInsideSolid(t *testing.T) {
	s := chunk.NewStore()
	s.GetOrCreate(mathx.Vec3i{}).SetSinglePalette(block.Stone)
	hit, ok := Cast(s, block.DefaultRegistry(), mgl32.Vec3{8, 8, 8}, mgl32.Vec3{0, 1, 0}, 10)
	if !ok {
		t.Fatal("expected an immediate hit")
	}
	if hit.Distance != 0 {
		t.Fatalf("distance = %v, want 0", hit.Distance)
	}
	if hit.Normal != (mathx.Vec3i{}) {
		t.Fatalf("normal = %+v, want zero for interior start", hit.Normal)
	}
}

func TestDiagonalHit(t *testing.T) {
	s := originBlockWorld()
	dir := mgl32.Vec3{1, 1, 1}.Normalize().Mul(-1)
	origin := mgl32.Vec3{5.5, 5.5, 5.5}
	hit, ok := Cast(s, block.DefaultRegistry(), origin, dir, 100)
	if !ok {
		t.Fatal("expected a hit")
	}
	if hit.Type != block.Stone {
		t.Fatalf("type = %d", hit.Type)
	}
	for i := 0; i < 3; i++ {
		if p := hit.Pos[i]; p < 0.999 || p > 1.001 {
			t.Fatalf("pos[%d] = %v, want ~1", i, p)
		}
	}
}
