package telemetry

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// newLogger creates the root logger with the specified format.
func newLogger(opts Options) zerolog.Logger {
	level, err := zerolog.ParseLevel(opts.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var writer io.Writer = out
	if opts.LogFormat == LogFormatPretty {
		writer = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// newTracer returns a tracer backed by the global provider when tracing is enabled. Installing an
// exporter is left to the embedding application through otel.SetTracerProvider.
func newTracer(opts Options) trace.Tracer {
	if !opts.TraceEnabled {
		return noop.NewTracerProvider().Tracer(opts.ServiceName)
	}
	return otel.GetTracerProvider().Tracer(opts.ServiceName)
}
