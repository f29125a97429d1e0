package engine

import (
	"runtime"
	"time"

	"github.com/argus-labs/forge/pkg/telemetry"
	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
)

// engineConfig holds the configuration for an Engine instance.
// Configuration can be set via environment variables with the specified defaults.
type engineConfig struct {
	// Number of job workers. 0 picks NumCPU-1, at least 1.
	Workers int `env:"FORGE_WORKERS" envDefault:"0"`

	// Maximum number of live entities per scene.
	MaxEntities int `env:"FORGE_MAX_ENTITIES" envDefault:"65536"`

	// Length of one FixedUpdate step.
	FixedTimestep time.Duration `env:"FORGE_FIXED_TIMESTEP" envDefault:"20ms"`

	// Frames per second Run aims for.
	TargetFPS int `env:"FORGE_TARGET_FPS" envDefault:"60"`

	// Maximum FixedUpdate steps per frame before the backlog is dropped.
	MaxFixedSteps int `env:"FORGE_MAX_FIXED_STEPS" envDefault:"5"`
}

// loadEngineConfig loads the engine configuration from environment variables.
func loadEngineConfig() (engineConfig, error) {
	cfg := engineConfig{}

	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse engine config")
	}

	if err := cfg.validate(); err != nil {
		return cfg, eris.Wrap(err, "failed to validate config")
	}

	return cfg, nil
}

// validate performs validation on the loaded configuration.
func (cfg *engineConfig) validate() error {
	if cfg.Workers < 0 {
		return eris.New("workers cannot be negative")
	}
	if cfg.MaxEntities <= 0 {
		return eris.New("max entities must be positive")
	}
	if cfg.FixedTimestep <= 0 {
		return eris.New("fixed timestep must be positive")
	}
	if cfg.TargetFPS <= 0 {
		return eris.New("target fps must be positive")
	}
	if cfg.MaxFixedSteps <= 0 {
		return eris.New("max fixed steps must be positive")
	}
	return nil
}

// applyToOptions applies the configuration values to the given Options.
func (cfg *engineConfig) applyToOptions(opt *Options) {
	opt.Workers = cfg.Workers
	opt.MaxEntities = cfg.MaxEntities
	opt.FixedTimestep = cfg.FixedTimestep
	opt.TargetFPS = cfg.TargetFPS
	opt.MaxFixedSteps = cfg.MaxFixedSteps
}

// Options configures an Engine. Non-zero fields override the environment.
type Options struct {
	Workers       int               // Number of job workers, 0 picks NumCPU-1
	MaxEntities   int               // Maximum live entities per scene
	FixedTimestep time.Duration     // Length of one FixedUpdate step
	TargetFPS     int               // Frames per second Run aims for
	MaxFixedSteps int               // Cap on FixedUpdate steps per frame
	Telemetry     telemetry.Options // Logger and tracer settings
}

// newDefaultOptions creates Options with invalid values so the env or the caller must set them.
func newDefaultOptions() Options {
	return Options{
		Workers:       0,
		MaxEntities:   0,
		FixedTimestep: 0,
		TargetFPS:     0,
		MaxFixedSteps: 0,
		Telemetry:     telemetry.Options{ServiceName: "forge"},
	}
}

// apply merges the given options into the current options, overriding non-zero values.
func (opt *Options) apply(newOpt Options) {
	if newOpt.Workers != 0 {
		opt.Workers = newOpt.Workers
	}
	if newOpt.MaxEntities != 0 {
		opt.MaxEntities = newOpt.MaxEntities
	}
	if newOpt.FixedTimestep != 0 {
		opt.FixedTimestep = newOpt.FixedTimestep
	}
	if newOpt.TargetFPS != 0 {
		opt.TargetFPS = newOpt.TargetFPS
	}
	if newOpt.MaxFixedSteps != 0 {
		opt.MaxFixedSteps = newOpt.MaxFixedSteps
	}
	if newOpt.Telemetry.ServiceName != "" {
		opt.Telemetry.ServiceName = newOpt.Telemetry.ServiceName
	}
	if newOpt.Telemetry.LogLevel != "" {
		opt.Telemetry.LogLevel = newOpt.Telemetry.LogLevel
	}
	if newOpt.Telemetry.LogFormat != telemetry.LogFormatUndefined {
		opt.Telemetry.LogFormat = newOpt.Telemetry.LogFormat
	}
	if newOpt.Telemetry.Output != nil {
		opt.Telemetry.Output = newOpt.Telemetry.Output
	}
	if newOpt.Telemetry.TraceEnabled {
		opt.Telemetry.TraceEnabled = true
	}
}

// validate checks that all required options are set and valid.
func (opt *Options) validate() error {
	if opt.Workers < 0 {
		return eris.New("workers cannot be negative")
	}
	if opt.MaxEntities <= 0 {
		return eris.New("max entities must be positive")
	}
	if opt.FixedTimestep <= 0 {
		return eris.New("fixed timestep must be positive")
	}
	if opt.TargetFPS <= 0 {
		return eris.New("target fps must be positive")
	}
	if opt.MaxFixedSteps <= 0 {
		return eris.New("max fixed steps must be positive")
	}
	return nil
}

// workerCount resolves Workers, where 0 means one worker per CPU minus the simulation goroutine.
func (opt *Options) workerCount() int {
	if opt.Workers > 0 {
		return opt.Workers
	}
	return max(1, runtime.NumCPU()-1)
}

// frameTime is the target duration of one frame.
func (opt *Options) frameTime() time.Duration {
	return time.Second / time.Duration(opt.TargetFPS)
}
