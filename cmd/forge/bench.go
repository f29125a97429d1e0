package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/argus-labs/forge/pkg/ecs"
	"github.com/argus-labs/forge/pkg/engine"
	"github.com/argus-labs/forge/pkg/job"
	"github.com/argus-labs/forge/pkg/scene"
	"github.com/argus-labs/forge/pkg/telemetry"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

// velocity is the per-entity movement applied by movementSystem.
type velocity struct {
	Value scene.Vec3
}

func (velocity) Name() string { return "velocity" }

// movementSystem integrates velocity into local position.
type movementSystem struct {
	ecs.BaseSystem
	parallel bool
	view     ecs.View2[scene.TransformComponent, velocity]
	err      error
}

func (s *movementSystem) OnCreate() {
	s.view = ecs.NewView2[scene.TransformComponent, velocity](s.Viewer())
}

func (s *movementSystem) OnUpdate(ctx context.Context, dt float64) {
	move := func(_ ecs.Entity, t *scene.TransformComponent, v *velocity) {
		t.SetLocalPosition(t.LocalPosition().Add(v.Value.Scale(dt)))
	}
	if !s.parallel {
		s.view.Each(move)
		return
	}
	if err := s.view.EachParallel(ctx, move); err != nil && s.err == nil {
		s.err = err
	}
}

type benchReport struct {
	Entities   int       `json:"entities"`
	Frames     int       `json:"frames"`
	Workers    int       `json:"workers"`
	Parallel   bool      `json:"parallel"`
	Total      string    `json:"total"`
	FrameAvgUs float64   `json:"frame_avg_us"`
	Rendered   int       `json:"rendered"`
	Jobs       job.Stats `json:"jobs"`
}

func newBenchCmd() *cobra.Command {
	var (
		entities    int
		frames      int
		workers     int
		parallel    bool
		asJSON      bool
		profileMode string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Move entities through a scene for a number of frames",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stop, err := startProfile(profileMode)
			if err != nil {
				return err
			}
			defer stop()

			report, err := runBench(cmd.Context(), entities, frames, workers, parallel)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), asJSON, report, func(w io.Writer) {
				fmt.Fprintf(w, "entities:   %d\n", report.Entities)
				fmt.Fprintf(w, "frames:     %d\n", report.Frames)
				fmt.Fprintf(w, "workers:    %d (parallel=%t)\n", report.Workers, report.Parallel)
				fmt.Fprintf(w, "total:      %s\n", report.Total)
				fmt.Fprintf(w, "frame avg:  %.1fµs\n", report.FrameAvgUs)
				fmt.Fprintf(w, "rendered:   %d\n", report.Rendered)
				fmt.Fprintf(w, "jobs:       %d scheduled, %d stolen\n", report.Jobs.Scheduled, report.Jobs.Stolen)
			})
		},
	}

	cmd.Flags().IntVarP(&entities, "entities", "n", 10_000, "number of entities to spawn")
	cmd.Flags().IntVarP(&frames, "frames", "f", 600, "number of frames to run")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "job workers (0 uses FORGE_WORKERS or NumCPU-1)")
	cmd.Flags().BoolVarP(&parallel, "parallel", "p", false, "move entities with a parallel view")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().StringVar(&profileMode, "profile", "", "write a 'cpu' or 'mem' profile to the working directory")

	return cmd
}

func runBench(ctx context.Context, entities, frames, workers int, parallel bool) (benchReport, error) {
	if entities <= 0 || frames <= 0 {
		return benchReport{}, eris.New("entities and frames must be positive")
	}

	eng, err := engine.New(engine.Options{
		Workers:     workers,
		MaxEntities: entities,
		Telemetry:   telemetry.Options{ServiceName: "forge-bench"},
	})
	if err != nil {
		return benchReport{}, eris.Wrap(err, "failed to create engine")
	}
	defer func() { _ = eng.Shutdown(context.Background()) }()

	s, err := eng.Scenes().CreateScene("bench")
	if err != nil {
		return benchReport{}, eris.Wrap(err, "failed to create scene")
	}
	for i := range entities {
		e := s.CreateEntity(fmt.Sprintf("entity-%d", i))
		ecs.AddComponent[scene.TransformComponent](e)
		ecs.AddComponent[velocity](e).Value = scene.Vec3{X: 1, Y: float64(i % 7)}
		mr := ecs.AddComponent[scene.MeshRendererComponent](e)
		mr.Mesh, mr.Enabled = "cube", true
	}
	movement := ecs.RegisterSystem(s.Systems(), &movementSystem{parallel: parallel})

	const dt = 1.0 / 60
	start := time.Now()
	for range frames {
		if err := ctx.Err(); err != nil {
			return benchReport{}, eris.Wrap(err, "benchmark interrupted")
		}
		s.Frame(ctx, dt)
	}
	elapsed := time.Since(start)

	if movement.err != nil {
		return benchReport{}, eris.Wrap(movement.err, "movement system failed")
	}

	return benchReport{
		Entities:   entities,
		Frames:     frames,
		Workers:    eng.Jobs().WorkerCount(),
		Parallel:   parallel,
		Total:      elapsed.String(),
		FrameAvgUs: float64(elapsed.Microseconds()) / float64(frames),
		Rendered:   len(s.RenderObjects()),
		Jobs:       eng.Jobs().Stats(),
	}, nil
}
