package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-gl/mathgl/mgl32"

	"voxelgrid/internal/engine/block"
	"voxelgrid/internal/engine/config"
	"voxelgrid/internal/engine/gen"
	"voxelgrid/internal/engine/io/chunkcodec"
	"voxelgrid/internal/engine/stream"
	"voxelgrid/internal/engine/vis"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to engine.yaml (empty: defaults)")
		steps      = flag.Int("steps", 32, "viewpoint steps to simulate")
		speed      = flag.Float64("speed", 4, "blocks moved per step along +x")
		fov        = flag.Float64("fov", 70, "horizontal field of view, degrees")
		dumpPath   = flag.String("dump", "", "write a compressed chunk dump on exit")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[voxelgrid] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	var disp gen.Dispatcher
	if cfg.UseGPUCompute {
		// Reference executor; a real device dispatcher plugs in here.
		disp = gen.CPUDispatcher{}
	}
	eng, err := stream.New(cfg, block.DefaultRegistry(), disp, nil)
	if err != nil {
		logger.Fatalf("new engine: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eye := mgl32.Vec3{0.5, 8.5, 0.5}
	forward := mgl32.Vec3{1, 0, 0}
	proj := mgl32.Perspective(mgl32.DegToRad(float32(*fov)), 16.0/9.0, 0.1, float32(cfg.ViewDistance*16*4))

	for i := 0; i < *steps; i++ {
		if ctx.Err() != nil {
			logger.Printf("interrupted at step %d", i)
			break
		}
		if err := eng.SetViewpoint(ctx, eye); err != nil {
			logger.Fatalf("step %d: %v", i, err)
		}
		view := mgl32.LookAtV(eye, eye.Add(forward), mgl32.Vec3{0, 1, 0})
		frustum := vis.FrustumFromMatrix(proj.Mul4(view))
		visible := eng.VisibleChunks(eye, forward, float32(*fov), frustum)

		st := eng.Stats()
		logger.Printf("step %d eye=(%.1f,%.1f,%.1f) chunks=%d meshes=%d visible=%d loaded=%d unloaded=%d",
			i, eye.X(), eye.Y(), eye.Z(), eng.Store().Len(), eng.RenderCount(), len(visible),
			st.ChunksLoaded, st.ChunksUnloaded)

		eye = eye.Add(mgl32.Vec3{float32(*speed), 0, 0})
	}

	if *dumpPath != "" {
		if err := writeDump(*dumpPath, eng); err != nil {
			logger.Printf("dump: %v", err)
		} else {
			logger.Printf("dump written to %s", *dumpPath)
		}
	}

	eng.Unload()
	logger.Printf("done: %+v", eng.Stats())
}

func writeDump(path string, eng *stream.Engine) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := chunkcodec.EncodeStore(f, eng.Store()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}
