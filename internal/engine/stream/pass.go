package stream

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"voxelgrid/internal/engine/chunk"
	"voxelgrid/internal/engine/gen"
	"voxelgrid/internal/engine/mathx"
	"voxelgrid/internal/engine/mesh"
)

// SetViewpoint updates the viewer position and, when the viewer crossed a
// chunk boundary, runs a full streaming pass: window update, unload,
// generation, connectivity, meshing, publication.
func (e *Engine) SetViewpoint(ctx context.Context, eye mgl32.Vec3) error {
	vc := floorVec(eye).FloorDiv(chunk.Size)
	if e.hasView && vc == e.viewChunk {
		return nil
	}
	e.viewChunk = vc
	e.hasView = true
	return e.streamPass(ctx)
}

func (e *Engine) streamPass(ctx context.Context) error {
	v := e.cfg.ViewDistance

	e.store.Range(func(_ mathx.Vec3i, c *chunk.Chunk) bool {
		c.InViewDistance = false
		return true
	})

	var load []*chunk.Chunk
	remesh := map[mathx.Vec3i]struct{}{}
	for dy := -v; dy < v; dy++ {
		for dz := -v; dz < v; dz++ {
			for dx := -v; dx < v; dx++ {
				p := e.viewChunk.Add(mathx.Vec3i{X: dx, Y: dy, Z: dz})
				c := e.store.GetOrCreate(p)
				c.InViewDistance = true
				if c.Loaded() {
					continue
				}
				// A chunk left pending by a cancelled pass is
				// regenerated here.
				c.PendingUpdate = true
				load = append(load, c)
				for f := 0; f < 6; f++ {
					if n, ok := e.store.Get(p.Add(chunk.FaceDir[f])); ok && n.Loaded() {
						remesh[n.Pos] = struct{}{}
					}
				}
			}
		}
	}

	// Two-phase unload: collect, then delete, so iteration never races
	// its own mutation.
	var dead []mathx.Vec3i
	e.store.Range(func(p mathx.Vec3i, c *chunk.Chunk) bool {
		if !c.InViewDistance {
			dead = append(dead, p)
		}
		return true
	})
	for _, p := range dead {
		c, _ := e.store.Get(p)
		c.Dispose()
		e.store.Remove(p)
		if rec, ok := e.render[p]; ok {
			delete(e.render, p)
			e.pool.Put(rec.Mesh)
			e.stats.MeshesRecycled++
		}
		delete(remesh, p)
		e.stats.ChunksUnloaded++
	}

	if len(load) > 0 {
		var err error
		if e.cfg.UseGPUCompute && e.gen.Params().Variant.GPUSupported() {
			err = e.generateGPU(ctx, load)
		} else {
			err = e.generateCPU(ctx, load)
		}
		if err != nil {
			// Pending chunks stay pending; the next pass regenerates.
			return err
		}
	}

	for _, c := range load {
		c.PendingUpdate = false
		e.stats.ChunksLoaded++
		remesh[c.Pos] = struct{}{}
	}

	if err := e.meshChunks(ctx, sortedKeys(remesh)); err != nil {
		return err
	}
	e.stats.Passes++
	return nil
}

// generateCPU fills chunks on the worker pool. Each worker receives a
// contiguous sub-range and owns its chunks exclusively for the batch.
func (e *Engine) generateCPU(ctx context.Context, load []*chunk.Chunk) error {
	e.stats.GenBatches++
	return e.forEachWorker(len(load), func(w *workerState, lo, hi int) error {
		for _, c := range load[lo:hi] {
			if err := e.stepErr(ctx); err != nil {
				return err
			}
			if err := e.gen.Fill(c, w.dense); err != nil {
				return err
			}
			if e.cfg.CullChunks {
				c.ConnectedFaces = w.analyzer.Compute(c, e.reg)
			} else {
				c.ConnectedFaces = chunk.ConnStale
			}
		}
		return nil
	})
}

// generateGPU batches chunks through the dispatcher. Connectivity of each
// batch is computed while the next dispatch is in flight.
func (e *Engine) generateGPU(ctx context.Context, load []*chunk.Chunk) error {
	e.stats.GenBatches++

	type readback struct {
		raw []byte
		err error
	}
	var prev []*chunk.Chunk
	for lo := 0; lo < len(load); lo += gen.MaxChunksPerDispatch {
		hi := mathx.MinInt(lo+gen.MaxChunksPerDispatch, len(load))
		batch := load[lo:hi]

		origins := make([]mathx.Vec3i, len(batch))
		for i, c := range batch {
			origins[i] = c.Pos
		}
		req := e.gen.Request(origins)

		ch := make(chan readback, 1)
		e.outstanding.Add(1)
		go func() {
			defer e.outstanding.Add(-1)
			raw, err := e.disp.Dispatch(ctx, req)
			ch <- readback{raw: raw, err: err}
		}()
		e.stats.Dispatches++

		if prev != nil {
			if err := e.connectivityBatch(ctx, prev); err != nil {
				<-ch
				return err
			}
		}

		rb := <-ch
		if rb.err != nil {
			return fmt.Errorf("dispatch: %w", rb.err)
		}
		if err := gen.UnpackReadback(rb.raw, batch); err != nil {
			return err
		}
		prev = batch
	}
	if prev != nil {
		return e.connectivityBatch(ctx, prev)
	}
	return nil
}

func (e *Engine) connectivityBatch(ctx context.Context, batch []*chunk.Chunk) error {
	if !e.cfg.CullChunks {
		for _, c := range batch {
			c.ConnectedFaces = chunk.ConnStale
		}
		return nil
	}
	return e.forEachWorker(len(batch), func(w *workerState, lo, hi int) error {
		for _, c := range batch[lo:hi] {
			if err := e.stepErr(ctx); err != nil {
				return err
			}
			c.ConnectedFaces = w.analyzer.Compute(c, e.reg)
		}
		return nil
	})
}

// meshChunks re-extracts and publishes meshes for the given chunk
// coordinates. Batches of max(8, n/8) run concurrently on workers; the
// pool and render map are touched only on the calling goroutine, before the
// batches start and after every batch completes.
func (e *Engine) meshChunks(ctx context.Context, positions []mathx.Vec3i) error {
	type item struct {
		pos  mathx.Vec3i
		hood mesh.Neighborhood
		buf  *mesh.Buffer
	}

	var items []item
	for _, p := range positions {
		c, ok := e.store.Get(p)
		if !ok || !c.Loaded() || !c.InViewDistance {
			continue
		}
		hood := mesh.Neighborhood{Center: c}
		for f := 0; f < 6; f++ {
			if n, ok := e.store.Get(p.Add(chunk.FaceDir[f])); ok {
				hood.Neighbors[f] = n
			}
		}
		hint := 0
		if old, ok := e.render[p]; ok {
			hint = cap(old.Mesh.Verts)
		}
		items = append(items, item{pos: p, hood: hood, buf: e.pool.Get(hint)})
	}
	if len(items) == 0 {
		return nil
	}

	batchSize := mathx.MaxInt(8, len(items)/8)
	var batches [][]item
	for lo := 0; lo < len(items); lo += batchSize {
		batches = append(batches, items[lo:mathx.MinInt(lo+batchSize, len(items))])
	}

	errs := make([]error, len(batches))
	var wg sync.WaitGroup
	next := make(chan int, len(batches))
	for i := range batches {
		next <- i
	}
	close(next)
	for wi := 0; wi < mathx.MinInt(len(e.workers), len(batches)); wi++ {
		w := e.workers[wi]
		wg.Add(1)
		e.outstanding.Add(1)
		go func() {
			defer wg.Done()
			defer e.outstanding.Add(-1)
			for bi := range next {
				for _, it := range batches[bi] {
					if err := e.stepErr(ctx); err != nil {
						errs[bi] = err
						break
					}
					w.extractor.Extract(it.hood, e.reg, e.cfg.AddBorderWalls, it.buf)
				}
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			// Publication is all-or-nothing per pass; recycle the
			// partial buffers.
			for _, it := range items {
				e.pool.Put(it.buf)
			}
			return err
		}
	}

	for _, it := range items {
		old, had := e.render[it.pos]
		if it.buf.Empty() {
			if had {
				delete(e.render, it.pos)
				e.pool.Put(old.Mesh)
				e.stats.MeshesRecycled++
			}
			e.pool.Put(it.buf)
			continue
		}
		c, _ := e.store.Get(it.pos)
		e.render[it.pos] = &RenderRecord{
			Mesh:      it.buf,
			Transform: e.transformFor(it.pos),
			Connected: c.ConnectedFaces,
		}
		e.stats.MeshesBuilt++
		if had {
			e.pool.Put(old.Mesh)
			e.stats.MeshesRecycled++
		}
	}
	return nil
}

// forEachWorker splits n jobs into contiguous sub-ranges across the worker
// pool and waits for all of them. The first error wins.
func (e *Engine) forEachWorker(n int, fn func(w *workerState, lo, hi int) error) error {
	workers := mathx.MinInt(len(e.workers), n)
	per := (n + workers - 1) / workers
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for wi := 0; wi < workers; wi++ {
		lo := wi * per
		hi := mathx.MinInt(lo+per, n)
		if lo >= hi {
			break
		}
		w := e.workers[wi]
		wg.Add(1)
		e.outstanding.Add(1)
		go func(wi, lo, hi int) {
			defer wg.Done()
			defer e.outstanding.Add(-1)
			errs[wi] = fn(w, lo, hi)
		}(wi, lo, hi)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// stepErr is the shared cancellation check on worker fast paths.
func (e *Engine) stepErr(ctx context.Context) error {
	if e.closed.Load() {
		return context.Canceled
	}
	return ctx.Err()
}

func sortedKeys(m map[mathx.Vec3i]struct{}) []mathx.Vec3i {
	keys := make([]mathx.Vec3i, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return keys
}
