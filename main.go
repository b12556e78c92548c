// Command twitch-recorder watches one Twitch channel and records every live
// session to a Matroska file.
// It:
//   - Loads configuration from the environment (optionally a .env file) and
//     applies command-line overrides.
//   - Fetches a Twitch app access token and polls Helix for the channel.
//   - Pipes streamlink into ffmpeg while the channel is live.
//   - Optionally exposes /healthz, /status and /metrics on METRICS_ADDR.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/onnwee/twitch-recorder/config"
	"github.com/onnwee/twitch-recorder/recorder"
	"github.com/onnwee/twitch-recorder/server"
	"github.com/onnwee/twitch-recorder/telemetry"
)

const (
	serviceName    = "twitch-recorder"
	serviceVersion = "1.0.0"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run is main without the process exit, returning the exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}

	applied, err := config.ParseFlags(args, cfg, stdout)
	if err != nil {
		return config.ExitCode(err)
	}

	lvl, err := telemetry.ParseLevel(cfg.LogLevel)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}
	var level slog.LevelVar
	level.Set(lvl)
	slog.SetDefault(slog.New(telemetry.NewHandler(stdout, cfg.LogFormat, &level)))
	if applied.LogLevel {
		slog.Info("logging configured to " + telemetry.LevelName(lvl))
	}
	if applied.ChannelFolder {
		slog.Info("output file will be recorded in channel folder")
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("err", err))
		return 1
	}

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing(serviceName, serviceVersion)
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		return 1
	}
	defer shutdown()

	rec := recorder.New(*cfg)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := server.Start(ctx, cfg.MetricsAddr, rec); err != nil {
				slog.Error("http server exited with error", slog.Any("err", err))
			}
		}()
	}

	if err := rec.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("shutting down")
			return 0
		}
		slog.Log(context.Background(), telemetry.LevelCritical, "recorder stopped", slog.Any("err", err))
		return 1
	}
	return 0
}
