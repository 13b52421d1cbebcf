package app

import (
	"log/slog"
	"os"
)

// NewLogger returns the process logger. Production deployments log JSON;
// a terminal running in development gets readable text output. The logger
// is also installed as the slog default so library code picks it up.
func NewLogger(cfg *Config) *slog.Logger {
	var handler slog.Handler
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{AddSource: true})
	}

	logger := slog.New(handler).With(slog.String("service", "kateringpro"))
	slog.SetDefault(logger)
	return logger
}
