// Package log provides an application-level convenience constructor for a
// quill.Logger configured with sensible defaults per environment.
//
// This package creates and starts loggers with appropriate settings based on
// the environment (production or non-production) and service name. It offers
// a simplified entry point rather than requiring every caller to assemble
// Config, sinks and the encoder registry by hand:
//
// - In non-production environments: a colorized console sink, development
//   queue sizing.
// - In production environments: an uncolorized, JSON-encoded console sink,
//   production queue sizing and drop_and_count under sustained overload.
//
// Usage:
//
//	logger, err := log.NewWithDefaults(ctx, "development", "user-service")
//	if err != nil {
//		panic(err)
//	}
//	defer logger.Stop()
package log

import (
	"context"
	"os"

	"github.com/hyp3rd/ewrap"

	"github.com/hal177/quill"
	"github.com/hal177/quill/internal/constants"
	"github.com/hal177/quill/sink"
)

// NewWithDefaults creates, configures and starts a quill.Logger for service
// running in environment. The returned logger is already accepting
// producers; callers are responsible for calling Stop during shutdown.
func NewWithDefaults(_ context.Context, environment, service string) (*quill.Logger, error) {
	var cfg quill.Config

	var consoleMode sink.ColorMode

	if environment == constants.NonProductionEnvironment {
		cfg = quill.DevelopmentConfig()
		consoleMode = sink.ColorAuto
	} else {
		cfg = quill.ProductionConfig()
		consoleMode = sink.ColorNever
	}

	cfg.BackendThreadName = "quill-backend-" + service

	logger, err := quill.New(cfg)
	if err != nil {
		return nil, ewrap.Wrap(err, "failed to create logger")
	}

	console := sink.NewConsole(sink.ConsoleConfig{
		Output: os.Stdout,
		Mode:   consoleMode,
	})

	logger.AddSink(console)

	if environment != constants.NonProductionEnvironment {
		if encoder, ok := sink.DefaultEncoders().Get("json"); ok {
			logger.SetEncoder(encoder)
		}
	}

	logger.Start()

	return logger, nil
}
