package gen

import (
	"context"
	"fmt"

	"voxelgrid/internal/engine/chunk"
	"voxelgrid/internal/engine/mathx"
)

// MaxChunksPerDispatch caps the number of chunks batched into a single
// kernel dispatch.
const MaxChunksPerDispatch = 4096

// DispatchRequest describes one batched kernel invocation: the uniform
// factors, one origin per work-group, and the kernel selector.
type DispatchRequest struct {
	Kernel  string
	Offset  [3]float64
	Scale   [3]float64
	Offset2 float64
	Scale2  float64
	Seed    int64
	Origins []mathx.Vec3i
}

// Dispatcher is the asynchronous compute collaborator. Dispatch blocks until
// readback and returns len(Origins)*chunk.Volume bytes, chunk.Volume per
// origin in order. A cancelled context aborts the readback; partial results
// are discarded.
type Dispatcher interface {
	Dispatch(ctx context.Context, req DispatchRequest) ([]byte, error)
}

// Request builds the dispatch request for a batch of chunk origins.
func (g *Generator) Request(origins []mathx.Vec3i) DispatchRequest {
	p := g.params
	return DispatchRequest{
		Kernel:  p.Variant.KernelName(),
		Offset:  p.Offset,
		Scale:   p.Scale,
		Offset2: p.Offset2,
		Scale2:  p.Scale2,
		Seed:    p.Seed,
		Origins: origins,
	}
}

// UnpackReadback splits a readback buffer into the batch's chunks, applying
// the output contract per chunk.
func UnpackReadback(raw []byte, chunks []*chunk.Chunk) error {
	if len(raw) != len(chunks)*chunk.Volume {
		return fmt.Errorf("readback size %d, want %d", len(raw), len(chunks)*chunk.Volume)
	}
	for i, c := range chunks {
		PackDense(c, raw[i*chunk.Volume:(i+1)*chunk.Volume])
	}
	return nil
}
