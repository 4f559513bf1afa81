package otel

import (
	"context"

	"github.com/bravo68web/ghcrm/internal/config"
	"github.com/bravo68web/ghcrm/pkg/logger"
)

// LoggerConfig maps the logging section onto pkg/logger settings
func LoggerConfig(cfg *config.Config) *logger.Config {
	lc := logger.DefaultConfig()
	if cfg.Logging.Level != "" {
		lc.Level = cfg.Logging.Level
	}
	if cfg.Logging.Output != "" {
		lc.Output = logger.OutputType(cfg.Logging.Output)
	}
	if cfg.Logging.Format != "" {
		lc.Format = cfg.Logging.Format
	}
	if cfg.Logging.FilePath != "" {
		lc.FilePath = cfg.Logging.FilePath
	}
	lc.Development = cfg.IsDevelopment()
	return lc
}

// NewLogger builds the process logger. With telemetry enabled, stdout is
// teed into the OTLP exporter and closing the logger flushes it.
func NewLogger(ctx context.Context, cfg *config.Config) (*logger.Logger, error) {
	lc := LoggerConfig(cfg)

	if !cfg.Telemetry.Enabled && lc.Output != logger.OutputOTEL {
		return logger.New(lc)
	}

	provider, err := NewProvider(ctx, ConfigFrom(cfg))
	if err != nil {
		return nil, err
	}

	level := logger.ParseLevel(lc.Level)
	local := logger.CreateConsoleCore(lc, level, logger.EncoderConfig(lc))

	return logger.NewWithCore(lc, NewCombinedCore(local, provider, level), provider), nil
}
