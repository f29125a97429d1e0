// Package telemetry sets up the structured logger and tracer shared by the engine services.
package telemetry

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Telemetry struct {
	Logger      zerolog.Logger
	Tracer      trace.Tracer
	serviceName string
}

// New loads the telemetry config from the environment, overrides it with opts and builds the
// logger and tracer.
func New(opts Options) (Telemetry, error) {
	config, err := loadConfig()
	if err != nil {
		return Telemetry{}, eris.Wrap(err, "failed to load telemetry config")
	}

	options := newDefaultOptions()
	config.applyToOptions(&options)
	options.apply(opts)
	if err := options.validate(); err != nil {
		return Telemetry{}, eris.Wrap(err, "invalid telemetry options")
	}

	return Telemetry{
		Logger:      newLogger(options),
		Tracer:      newTracer(options),
		serviceName: options.ServiceName,
	}, nil
}

// Nop returns a Telemetry that discards logs and spans.
func Nop() Telemetry {
	return Telemetry{
		Logger:      zerolog.Nop(),
		Tracer:      noop.NewTracerProvider().Tracer("nop"),
		serviceName: "nop",
	}
}

// Shutdown flushes telemetry. The tracer provider is owned by whoever installed it globally, so
// there is nothing to release here yet beyond honoring the context.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "telemetry shutdown cancelled")
	}
	return nil
}

// GetLogger returns a component-specific logger.
func (t *Telemetry) GetLogger(component string) zerolog.Logger {
	return t.Logger.With().Str("component", t.serviceName+"."+component).Logger()
}
