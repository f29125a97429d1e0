// Package engine wires the process-wide services together: telemetry, the component registry, the
// job system and the scene manager. Services are built in that order and shut down in reverse.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/argus-labs/forge/pkg/ecs"
	"github.com/argus-labs/forge/pkg/job"
	"github.com/argus-labs/forge/pkg/scene"
	"github.com/argus-labs/forge/pkg/telemetry"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Engine owns the services every scene depends on.
type Engine struct {
	options  Options
	tel      telemetry.Telemetry // Telemetry for logging and tracing
	log      zerolog.Logger
	registry *ecs.Registry
	jobs     *job.System
	scenes   *scene.Manager

	frames uint64
	closed bool
}

// New creates an engine from the environment, overridden by opts.
func New(opts Options) (*Engine, error) {
	// Load and validate options.
	cfg, err := loadEngineConfig()
	if err != nil {
		return nil, eris.Wrap(err, "failed to load engine config")
	}
	options := newDefaultOptions()
	cfg.applyToOptions(&options)
	options.apply(opts)
	if err := options.validate(); err != nil {
		return nil, eris.Wrap(err, "invalid engine options")
	}

	tel, err := telemetry.New(options.Telemetry)
	if err != nil {
		return nil, eris.Wrap(err, "failed to initialize telemetry")
	}
	log := tel.GetLogger("engine")

	registry := ecs.NewRegistry()

	jobLog := tel.GetLogger("job")
	jobs, err := job.New(job.Options{Workers: options.workerCount(), Logger: &jobLog})
	if err != nil {
		return nil, eris.Wrap(err, "failed to start job system")
	}

	sceneLog := tel.GetLogger("scene")
	scenes := scene.NewManager(scene.Options{
		Registry:      registry,
		Jobs:          jobs,
		MaxEntities:   options.MaxEntities,
		FixedTimestep: options.FixedTimestep,
		MaxFixedSteps: options.MaxFixedSteps,
		Logger:        &sceneLog,
		Tracer:        tel.Tracer,
	})

	log.Info().
		Int("workers", jobs.WorkerCount()).
		Int("max_entities", options.MaxEntities).
		Dur("fixed_timestep", options.FixedTimestep).
		Int("target_fps", options.TargetFPS).
		Msg("engine initialized")

	return &Engine{
		options:  options,
		tel:      tel,
		log:      log,
		registry: registry,
		jobs:     jobs,
		scenes:   scenes,
	}, nil
}

// Registry returns the component registry shared by all scenes.
func (e *Engine) Registry() *ecs.Registry { return e.registry }

// Jobs returns the job system.
func (e *Engine) Jobs() *job.System { return e.jobs }

// Scenes returns the scene manager.
func (e *Engine) Scenes() *scene.Manager { return e.scenes }

// Logger returns a logger for the given component.
func (e *Engine) Logger(component string) zerolog.Logger { return e.tel.GetLogger(component) }

// Frames returns the number of frames Run has completed.
func (e *Engine) Frames() uint64 { return e.frames }

// Run drives the active scene at the target frame rate until ctx is done or maxFrames frames have
// run. maxFrames 0 means no limit. Frames without an active scene are skipped but still paced.
func (e *Engine) Run(ctx context.Context, maxFrames uint64) error {
	if e.closed {
		return eris.New("engine is shut down")
	}

	ticker := time.NewTicker(e.options.frameTime())
	defer ticker.Stop()

	last := time.Now()
	for maxFrames == 0 || e.frames < maxFrames {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return eris.Wrap(ctx.Err(), "engine run stopped")
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if s := e.scenes.ActiveScene(); s != nil {
				s.Frame(ctx, dt)
			}
			e.frames++
		}
	}
	return nil
}

// Shutdown closes every scene, drains and joins the job workers, then flushes telemetry.
func (e *Engine) Shutdown(ctx context.Context) error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.log.Info().Msg("shutting down engine")

	e.scenes.Close()

	var errs []error
	if err := e.jobs.Terminate(); err != nil {
		errs = append(errs, eris.Wrap(err, "job system shutdown"))
	}
	if err := e.tel.Shutdown(ctx); err != nil {
		errs = append(errs, eris.Wrap(err, "telemetry shutdown"))
	}

	e.log.Info().Uint64("frames", e.frames).Msg("engine shutdown complete")
	return errors.Join(errs...)
}
