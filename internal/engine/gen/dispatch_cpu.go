package gen

import (
	"context"
	"fmt"
	"strings"

	"voxelgrid/internal/engine/chunk"
)

// CPUDispatcher is the reference executor for the dispatch contract. It runs
// the same kernels as the CPU filler, so the batched path (upload, dispatch,
// readback, palette recompute) is exercised without a device.
type CPUDispatcher struct{}

func (CPUDispatcher) Dispatch(ctx context.Context, req DispatchRequest) ([]byte, error) {
	variant, err := ParseVariant(strings.TrimPrefix(req.Kernel, "terrain_"))
	if err != nil {
		return nil, fmt.Errorf("kernel %q: %w", req.Kernel, err)
	}
	if !variant.CPUSupported() {
		return nil, fmt.Errorf("kernel %q: no CPU implementation", req.Kernel)
	}
	g, err := New(Params{
		Variant: variant,
		Offset:  req.Offset,
		Scale:   req.Scale,
		Offset2: req.Offset2,
		Scale2:  req.Scale2,
		Seed:    req.Seed,
	})
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(req.Origins)*chunk.Volume)
	for n, cp := range req.Origins {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		origin := chunk.Origin(cp)
		base := n * chunk.Volume
		for y := 0; y < chunk.Size; y++ {
			for z := 0; z < chunk.Size; z++ {
				for x := 0; x < chunk.Size; x++ {
					if g.SolidAt(origin.X+x, origin.Y+y, origin.Z+z) {
						out[base+chunk.Linear(x, y, z)] = 1
					}
				}
			}
		}
	}
	return out, nil
}
