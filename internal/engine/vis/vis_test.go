package vis

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"voxelgrid/internal/engine/chunk"
	"voxelgrid/internal/engine/mathx"
)

// fakeWorld maps chunk coordinates to (hasMesh, connectivity); untracked
// coordinates fall back to the default pair.
type fakeWorld struct {
	state map[mathx.Vec3i]fakeChunk
}

type fakeChunk struct {
	mesh bool
	conn uint16
}

func (w fakeWorld) ChunkState(p mathx.Vec3i) (bool, uint16, bool) {
	c, ok := w.state[p]
	if !ok {
		return false, chunk.AllConnected, false
	}
	return c.mesh, c.conn, true
}

// wideFrustum accepts everything: zero-normal planes are skipped by the
// AABB test.
var wideFrustum Frustum

func TestValidDirsDirectionFilter(t *testing.T) {
	// fov 90: threshold cos(150 deg). Looking down -z forbids only +z.
	valid := ValidDirs(mgl32.Vec3{0, 0, -1}, 90)
	for f := 0; f < 6; f++ {
		want := f != chunk.FacePosZ
		if valid[f] != want {
			t.Fatalf("face %d: valid=%v, want %v", f, valid[f], want)
		}
	}
}

func TestValidDirsWideFOV(t *testing.T) {
	// 90 + 2/3*135 = 180: every direction is allowed.
	valid := ValidDirs(mgl32.Vec3{0, 0, -1}, 135)
	for f := 0; f < 6; f++ {
		if !valid[f] {
			t.Fatalf("face %d must be valid at fov 135", f)
		}
	}
}

// In a world of sealed chunks the traversal cannot leave the camera chunk.
func TestUniformOpaqueWorldEmitsOnlyCamera(t *testing.T) {
	w := fakeWorld{state: map[mathx.Vec3i]fakeChunk{}}
	for x := -2; x < 2; x++ {
		for y := -2; y < 2; y++ {
			for z := -2; z < 2; z++ {
				w.state[mathx.Vec3i{X: x, Y: y, Z: z}] = fakeChunk{mesh: true, conn: 0}
			}
		}
	}
	got := NewTraverser().Traverse(w, mgl32.Vec3{8, 8, 8}, mgl32.Vec3{0, 0, -1}, 70, wideFrustum, 2)
	if len(got) != 1 {
		t.Fatalf("emitted %d chunks, want 1", len(got))
	}
	if got[0].Pos != (mathx.Vec3i{}) || got[0].EnteredVia != -1 {
		t.Fatalf("camera emission = %+v", got[0])
	}
}

// Open air world: BFS reaches every meshed chunk the direction filter
// allows, camera first.
func TestOpenWorldBFS(t *testing.T) {
	w := fakeWorld{state: map[mathx.Vec3i]fakeChunk{}}
	for x := -2; x < 2; x++ {
		for y := -2; y < 2; y++ {
			for z := -2; z < 2; z++ {
				w.state[mathx.Vec3i{X: x, Y: y, Z: z}] = fakeChunk{mesh: true, conn: chunk.AllConnected}
			}
		}
	}
	got := NewTraverser().Traverse(w, mgl32.Vec3{8, 8, 8}, mgl32.Vec3{0, 0, -1}, 135, wideFrustum, 2)
	if len(got) != 64 {
		t.Fatalf("emitted %d chunks, want 64", len(got))
	}
	if got[0].Pos != (mathx.Vec3i{}) {
		t.Fatalf("first emission must be the camera chunk, got %+v", got[0])
	}
	seen := map[mathx.Vec3i]bool{}
	for _, r := range got {
		if seen[r.Pos] {
			t.Fatalf("chunk %+v emitted twice", r.Pos)
		}
		seen[r.Pos] = true
	}
}

// The direction filter prunes chunks strictly behind the viewer.
func TestDirectionFilterPrunesBehind(t *testing.T) {
	w := fakeWorld{state: map[mathx.Vec3i]fakeChunk{}}
	for z := -2; z < 2; z++ {
		w.state[mathx.Vec3i{Z: z}] = fakeChunk{mesh: true, conn: chunk.AllConnected}
	}
	got := NewTraverser().Traverse(w, mgl32.Vec3{8, 8, 8}, mgl32.Vec3{0, 0, -1}, 90, wideFrustum, 2)
	for _, r := range got {
		if r.Pos.Z > 0 {
			t.Fatalf("chunk %+v behind the viewer was emitted", r.Pos)
		}
	}
	if len(got) != 3 {
		t.Fatalf("emitted %d chunks, want 3 (z in [-2,0])", len(got))
	}
}

// A bisected chunk ahead of the camera stops traversal across its sealed
// pair.
func TestConnectivityBlocksTraversal(t *testing.T) {
	sealed := chunk.AllConnected &^ (1 << uint(chunk.PairIndex(chunk.FaceNegZ, chunk.FacePosZ)))
	w := fakeWorld{state: map[mathx.Vec3i]fakeChunk{}}
	// Everything off the z column is sealed rock, so there is no way
	// around the bisected chunk.
	for x := -2; x < 2; x++ {
		for y := -2; y < 2; y++ {
			for z := -2; z < 2; z++ {
				w.state[mathx.Vec3i{X: x, Y: y, Z: z}] = fakeChunk{mesh: false, conn: 0}
			}
		}
	}
	w.state[mathx.Vec3i{Z: 0}] = fakeChunk{mesh: true, conn: chunk.AllConnected}
	w.state[mathx.Vec3i{Z: -1}] = fakeChunk{mesh: true, conn: sealed}
	w.state[mathx.Vec3i{Z: -2}] = fakeChunk{mesh: true, conn: chunk.AllConnected}
	got := NewTraverser().Traverse(w, mgl32.Vec3{8, 8, 8}, mgl32.Vec3{0, 0, -1}, 90, wideFrustum, 2)
	for _, r := range got {
		if r.Pos == (mathx.Vec3i{Z: -2}) {
			t.Fatal("traversal crossed a sealed face pair")
		}
	}
}

func TestFrustumCullsNeighbors(t *testing.T) {
	w := fakeWorld{state: map[mathx.Vec3i]fakeChunk{}}
	for z := -2; z < 2; z++ {
		w.state[mathx.Vec3i{Z: z}] = fakeChunk{mesh: true, conn: chunk.AllConnected}
	}
	// A single plane z <= 0 in world units: a chunk fails only when its
	// whole AABB lies at z > 0.
	var f Frustum
	f[0] = Plane{N: mgl32.Vec3{0, 0, -1}, D: 0}
	got := NewTraverser().Traverse(w, mgl32.Vec3{8, 8, 8}, mgl32.Vec3{0, 0, -1}, 90, f, 2)
	// Camera chunk is emitted unconditionally; neighbors at z<0 pass the
	// plane, deeper ones too, but nothing at z>0 would.
	for _, r := range got {
		if r.Pos.Z > 0 {
			t.Fatalf("chunk %+v outside the frustum was emitted", r.Pos)
		}
	}
}

func TestFrustumAABB(t *testing.T) {
	m := mgl32.Perspective(mgl32.DegToRad(70), 1, 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	f := FrustumFromMatrix(m.Mul4(view))

	if !f.IntersectsAABB(mgl32.Vec3{-1, -1, -10}, mgl32.Vec3{1, 1, -9}) {
		t.Fatal("box straight ahead must intersect")
	}
	if f.IntersectsAABB(mgl32.Vec3{-1, -1, 9}, mgl32.Vec3{1, 1, 10}) {
		t.Fatal("box behind the camera must not intersect")
	}
	if f.IntersectsAABB(mgl32.Vec3{-1, -1, -200}, mgl32.Vec3{1, 1, -150}) {
		t.Fatal("box beyond the far plane must not intersect")
	}
}
