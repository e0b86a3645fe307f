// Package stream drives the chunk lifecycle around a moving viewpoint:
// loading, generation, connectivity, meshing, publication and unloading.
package stream

import (
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"voxelgrid/internal/engine/block"
	"voxelgrid/internal/engine/chunk"
	"voxelgrid/internal/engine/config"
	"voxelgrid/internal/engine/conn"
	"voxelgrid/internal/engine/gen"
	"voxelgrid/internal/engine/mathx"
	"voxelgrid/internal/engine/mesh"
	"voxelgrid/internal/engine/raycast"
	"voxelgrid/internal/engine/vis"
)

// RenderScale maps the unit-cube mesh back to world block units: positions
// are quantized so Size block edges span 128 of 255 unorm steps.
const RenderScale = chunk.Size * 255.0 / 128.0

// RenderRecord is one published chunk mesh: the owned buffer, the
// object-to-world transform, and the connectivity snapshot taken at
// publication.
type RenderRecord struct {
	Mesh      *mesh.Buffer
	Transform mgl32.Mat4
	Connected uint16
}

// Stats is a snapshot of engine counters.
type Stats struct {
	Passes         uint64
	ChunksLoaded   uint64
	ChunksUnloaded uint64
	MeshesBuilt    uint64
	MeshesRecycled uint64
	GenBatches     uint64
	Dispatches     uint64
}

// workerState is scratch owned by one worker slot and reused across the
// chunks assigned to it.
type workerState struct {
	dense     []byte
	analyzer  *conn.Analyzer
	extractor *mesh.Extractor
}

// Engine is the streaming orchestrator. All exported methods must be called
// from a single goroutine (the main context); the engine fans work out to
// its own workers and merges results before returning.
type Engine struct {
	cfg  config.Config
	reg  *block.Registry
	gen  *gen.Generator
	disp gen.Dispatcher
	log  *slog.Logger

	store  *chunk.Store
	render map[mathx.Vec3i]*RenderRecord
	pool   *mesh.Pool

	workers []*workerState

	viewChunk mathx.Vec3i
	hasView   bool

	trav *vis.Traverser

	editMu      sync.Mutex
	closed      atomic.Bool
	outstanding atomic.Int64

	stats Stats
}

// New builds an engine from a validated configuration. disp may be nil when
// use_gpu_compute is off; logger nil falls back to slog.Default.
func New(cfg config.Config, reg *block.Registry, disp gen.Dispatcher, logger *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.UseGPUCompute && disp == nil {
		return nil, fmt.Errorf("use_gpu_compute set but no dispatcher provided")
	}
	params, err := cfg.GenParams()
	if err != nil {
		return nil, err
	}
	g, err := gen.New(params)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	n := cfg.Workers
	if n <= 0 {
		n = mathx.MaxInt(1, runtime.NumCPU()-1)
	}
	workers := make([]*workerState, n)
	for i := range workers {
		workers[i] = &workerState{
			dense:     make([]byte, chunk.Volume),
			analyzer:  conn.NewAnalyzer(),
			extractor: mesh.NewExtractor(),
		}
	}
	return &Engine{
		cfg:     cfg,
		reg:     reg,
		gen:     g,
		disp:    disp,
		log:     logger,
		store:   chunk.NewStore(),
		render:  map[mathx.Vec3i]*RenderRecord{},
		pool:    mesh.NewPool(),
		workers: workers,
		trav:    vis.NewTraverser(),
	}, nil
}

func (e *Engine) Store() *chunk.Store { return e.store }

func (e *Engine) Registry() *block.Registry { return e.reg }

func (e *Engine) Stats() Stats { return e.stats }

func (e *Engine) RenderCount() int { return len(e.render) }

func (e *Engine) Render(p mathx.Vec3i) (*RenderRecord, bool) {
	r, ok := e.render[p]
	return r, ok
}

// Raycast traces through the current chunk store.
func (e *Engine) Raycast(origin, dir mgl32.Vec3, maxDist float32) (raycast.Hit, bool) {
	return raycast.Cast(e.store, e.reg, origin, dir, maxDist)
}

// ChunkState implements vis.World over the render map and chunk store. A
// published chunk reports its cached connectivity snapshot; loaded but
// unpublished chunks report live connectivity; everything else reads as
// fully connected.
func (e *Engine) ChunkState(p mathx.Vec3i) (bool, uint16, bool) {
	if rec, ok := e.render[p]; ok {
		return true, normalizeConn(rec.Connected, e.cfg.CullChunks), true
	}
	if c, ok := e.store.Get(p); ok && c.Loaded() {
		return false, normalizeConn(c.ConnectedFaces, e.cfg.CullChunks), true
	}
	return false, chunk.AllConnected, false
}

func normalizeConn(mask uint16, cull bool) uint16 {
	if !cull || mask == chunk.ConnStale {
		return chunk.AllConnected
	}
	return mask
}

// VisibleChunks selects the chunks to submit this frame. With culling off
// it returns every published chunk in key order; otherwise it runs the
// visibility BFS.
func (e *Engine) VisibleChunks(eye, forward mgl32.Vec3, fovDeg float32, frustum vis.Frustum) []vis.Result {
	if !e.cfg.CullChunks {
		out := make([]vis.Result, 0, len(e.render))
		for _, k := range e.store.Keys() {
			if _, ok := e.render[k]; ok {
				out = append(out, vis.Result{Pos: k, EnteredVia: -1})
			}
		}
		return out
	}
	return e.trav.Traverse(e, eye, forward, fovDeg, frustum, e.cfg.ViewDistance)
}

// Unload cancels the current pass, quiesces the workers, and tears every
// resource down. The engine is unusable afterwards.
func (e *Engine) Unload() {
	e.closed.Store(true)
	for e.outstanding.Load() > 0 {
		runtime.Gosched()
	}
	e.store.Range(func(_ mathx.Vec3i, c *chunk.Chunk) bool {
		c.Dispose()
		return true
	})
	e.store = chunk.NewStore()
	e.render = map[mathx.Vec3i]*RenderRecord{}
	e.pool = mesh.NewPool()
	e.hasView = false
}

func (e *Engine) transformFor(p mathx.Vec3i) mgl32.Mat4 {
	o := chunk.Origin(p)
	return mgl32.Translate3D(float32(o.X), float32(o.Y), float32(o.Z)).
		Mul4(mgl32.Scale3D(RenderScale, RenderScale, RenderScale))
}

func floorVec(v mgl32.Vec3) mathx.Vec3i {
	return mathx.Vec3i{
		X: int(math.Floor(float64(v[0]))),
		Y: int(math.Floor(float64(v[1]))),
		Z: int(math.Floor(float64(v[2]))),
	}
}
