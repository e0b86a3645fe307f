package vis

import (
	"math"

	"github.com/gammazero/deque"
	"github.com/go-gl/mathgl/mgl32"

	"voxelgrid/internal/engine/chunk"
	"voxelgrid/internal/engine/mathx"
)

// Status byte layout per grid cell.
const (
	statusEmitted = 1 << 0
	statusFrustum = 1 << 1
	// bits 2..7: traversed via face f
)

// iterCap bounds a single traversal regardless of view distance.
const iterCap = 64 * 64 * 64

// Result is one visible chunk and the face through which the traversal
// entered it (-1 for the camera chunk). Returned in BFS order.
type Result struct {
	Pos        mathx.Vec3i
	EnteredVia int
}

// World is the read-only view the traversal needs: whether a chunk has a
// renderable mesh and its connectivity mask. Untracked chunks report
// tracked=false and are treated as fully connected and meshless.
type World interface {
	ChunkState(p mathx.Vec3i) (hasMesh bool, connected uint16, tracked bool)
}

type entry struct {
	pos      mathx.Vec3i
	cameFrom int
}

// Traverser runs the chunk visibility BFS. Scratch (status grid, queue,
// result buffer) is retained across frames.
type Traverser struct {
	status  []uint8
	side    int
	center  mathx.Vec3i
	queue   deque.Deque[entry]
	results []Result
}

func NewTraverser() *Traverser { return &Traverser{} }

// ValidDirs computes the set of traversal faces permitted by the view
// direction: faces whose outward normal n satisfies
// n . forward >= cos(min(90 + 2/3*fov, 180) degrees).
func ValidDirs(forward mgl32.Vec3, fovDeg float32) [6]bool {
	ang := 90 + fovDeg*2/3
	if ang > 180 {
		ang = 180
	}
	threshold := float32(math.Cos(float64(ang) * math.Pi / 180))
	var out [6]bool
	for f := 0; f < 6; f++ {
		d := chunk.FaceDir[f]
		n := mgl32.Vec3{float32(d.X), float32(d.Y), float32(d.Z)}
		out[f] = n.Dot(forward) >= threshold
	}
	return out
}

// Traverse emits the chunks to draw this frame, in BFS order from the
// camera chunk. viewDist is the per-axis radius in chunks; the status grid
// spans (2*viewDist)^3 cells centered on the camera chunk.
func (t *Traverser) Traverse(w World, eye, forward mgl32.Vec3, fovDeg float32, frustum Frustum, viewDist int) []Result {
	side := 2 * viewDist
	if len(t.status) != side*side*side {
		t.status = make([]uint8, side*side*side)
	} else {
		for i := range t.status {
			t.status[i] = 0
		}
	}
	t.side = side
	t.center = mathx.Vec3i{
		X: mathx.FloorDiv(int(floor32(eye[0])), chunk.Size),
		Y: mathx.FloorDiv(int(floor32(eye[1])), chunk.Size),
		Z: mathx.FloorDiv(int(floor32(eye[2])), chunk.Size),
	}
	t.results = t.results[:0]
	t.queue.Clear()

	valid := ValidDirs(forward, fovDeg)
	capacity := side * side * side

	t.queue.PushBack(entry{pos: t.center, cameFrom: -1})

	for iter := 0; iter < iterCap && t.queue.Len() > 0; iter++ {
		e := t.queue.PopFront()
		si, ok := t.statusIndex(e.pos)
		if !ok {
			continue
		}

		hasMesh, connected, tracked := w.ChunkState(e.pos)
		if !tracked {
			connected = chunk.AllConnected
		}

		if t.status[si]&statusEmitted == 0 && hasMesh {
			t.results = append(t.results, Result{Pos: e.pos, EnteredVia: e.cameFrom})
			t.status[si] |= statusEmitted
			if len(t.results) >= capacity {
				break
			}
		}

		for f := 0; f < 6; f++ {
			if !valid[f] {
				continue
			}
			if e.cameFrom >= 0 {
				if !chunk.FacesConnected(connected, e.cameFrom, f) {
					continue
				}
			} else if connected&chunk.PairMaskForFace(f) == 0 {
				// Seed chunk: face f is unreachable from inside, so
				// nothing beyond it can be seen from here.
				continue
			}
			np := e.pos.Add(chunk.FaceDir[f])
			ni, ok := t.statusIndex(np)
			if !ok {
				continue
			}
			travBit := uint8(1 << uint(2+f))
			if t.status[ni]&travBit != 0 {
				continue
			}
			if t.status[ni]&statusFrustum == 0 {
				min, max := chunkAABB(np)
				if !frustum.IntersectsAABB(min, max) {
					continue
				}
				t.status[ni] |= statusFrustum
			}
			t.status[ni] |= travBit
			t.queue.PushBack(entry{pos: np, cameFrom: chunk.OppositeFace(f)})
		}
	}
	return t.results
}

// statusIndex maps a chunk coordinate into the centered grid; ok=false
// terminates the branch outside the window.
func (t *Traverser) statusIndex(p mathx.Vec3i) (int, bool) {
	v := viewHalf(t.side)
	d := p.Sub(t.center)
	if d.X < -v || d.X >= v || d.Y < -v || d.Y >= v || d.Z < -v || d.Z >= v {
		return 0, false
	}
	return (d.Y+v)*t.side*t.side + (d.Z+v)*t.side + (d.X + v), true
}

func viewHalf(side int) int { return side / 2 }

func chunkAABB(p mathx.Vec3i) (mgl32.Vec3, mgl32.Vec3) {
	o := chunk.Origin(p)
	min := mgl32.Vec3{float32(o.X), float32(o.Y), float32(o.Z)}
	return min, min.Add(mgl32.Vec3{chunk.Size, chunk.Size, chunk.Size})
}

func floor32(v float32) float32 { return float32(math.Floor(float64(v))) }
