// Package cmd holds the startup plumbing shared by tracker commands.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/config"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/otel"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/timeouts"
)

// Service names reported as the telemetry resource.
const (
	ServiceTracker = "tracker"
	ServiceSeed    = "tracker-seed"
)

// ParseConfig loads TRACKER_-prefixed environment values into cfg.
// Commands register their flags afterwards so flags override env.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnvPrefixed(config.Prefix, cfg)
}

// ParseArgs parses command-line flags. A nil args slice parses nothing.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry installs tracing for service, executes run and flushes
// spans before returning. Cancellation of ctx is a clean exit.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return errors.New("service name is required")
	}
	if run == nil {
		return errors.New("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer flush(service, shutdown)

	started := time.Now()
	slog.Debug("command started", "service", service)
	err = run(ctx)
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		err = nil
	}
	slog.Debug("command finished", "service", service, "elapsed", time.Since(started), "error", err)
	return err
}

func flush(service string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		slog.Error("otel shutdown", "service", service, "error", err)
	}
}
