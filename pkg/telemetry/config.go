package telemetry

import (
	"io"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Config is the environment-driven telemetry configuration.
type Config struct {
	// Log level ("debug", "info", "warn", "error").
	LogLevel string `env:"FORGE_LOG_LEVEL" envDefault:"info"`

	// Log format ("json", "pretty").
	LogFormat string `env:"FORGE_LOG_FORMAT" envDefault:"json"`

	// TraceEnabled routes spans to the global OpenTelemetry tracer provider instead of a noop one.
	TraceEnabled bool `env:"FORGE_TRACE_ENABLED" envDefault:"false"`
}

// loadConfig loads the configuration from environment variables.
func loadConfig() (Config, error) {
	cfg := Config{}

	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse telemetry config")
	}

	if err := cfg.validate(); err != nil {
		return cfg, eris.Wrap(err, "failed to validate telemetry config")
	}

	return cfg, nil
}

// validate performs validation on the loaded configuration.
func (cfg *Config) validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err != nil {
		return eris.Errorf("invalid log level: %s (must be 'debug', 'info', 'warn', or 'error')", cfg.LogLevel)
	}
	if ParseLogFormat(cfg.LogFormat) == LogFormatUndefined {
		return eris.Errorf("invalid log format: %s (must be 'json' or 'pretty')", cfg.LogFormat)
	}
	return nil
}

func (cfg *Config) applyToOptions(opt *Options) {
	opt.LogLevel = strings.ToLower(cfg.LogLevel)
	opt.LogFormat = ParseLogFormat(cfg.LogFormat)
	opt.TraceEnabled = cfg.TraceEnabled
}

// Options configures a Telemetry instance. Non-zero fields override the environment.
type Options struct {
	ServiceName  string    // Name used as the component prefix and tracer name
	LogLevel     string    // Minimum level to log
	LogFormat    LogFormat // Log output format
	Output       io.Writer // Log destination, stdout when nil
	TraceEnabled bool      // Use the global tracer provider
}

func newDefaultOptions() Options {
	// Set these to invalid values to force the env or the caller to provide them.
	return Options{
		ServiceName: "",
		LogLevel:    "",
		LogFormat:   LogFormatUndefined,
	}
}

// apply merges the given options into the current options, overriding non-zero values.
func (opt *Options) apply(newOpt Options) {
	if newOpt.ServiceName != "" {
		opt.ServiceName = newOpt.ServiceName
	}
	if newOpt.LogLevel != "" {
		opt.LogLevel = strings.ToLower(newOpt.LogLevel)
	}
	if newOpt.LogFormat != LogFormatUndefined {
		opt.LogFormat = newOpt.LogFormat
	}
	if newOpt.Output != nil {
		opt.Output = newOpt.Output
	}
	if newOpt.TraceEnabled {
		opt.TraceEnabled = true
	}
}

// validate checks that all required options are set and valid.
func (opt *Options) validate() error {
	if opt.ServiceName == "" {
		return eris.New("service name cannot be empty")
	}
	if _, err := zerolog.ParseLevel(opt.LogLevel); err != nil {
		return eris.Errorf("invalid log level: %s (must be 'debug', 'info', 'warn', or 'error')", opt.LogLevel)
	}
	if opt.LogFormat == LogFormatUndefined {
		return eris.New("log format must be specified")
	}
	return nil
}

// LogFormat represents the log output format.
type LogFormat uint8

const (
	LogFormatUndefined LogFormat = iota // Used as the zero value
	LogFormatJSON                       // Outputs structured JSON logs
	LogFormatPretty                     // Outputs human-readable console logs
)

func (f LogFormat) String() string {
	switch f {
	case LogFormatJSON:
		return "json"
	case LogFormatPretty:
		return "pretty"
	case LogFormatUndefined:
		return "undefined"
	default:
		return "undefined"
	}
}

// ParseLogFormat converts a string to LogFormat enum.
func ParseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	case "pretty":
		return LogFormatPretty
	default:
		return LogFormatUndefined
	}
}
