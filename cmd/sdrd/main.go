// Command sdrd runs the SDR front end: it configures the codec, serves the
// control API and optionally streams IQ samples.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/radio-control/sdrfe/internal/api"
	"github.com/radio-control/sdrfe/internal/audit"
	"github.com/radio-control/sdrfe/internal/auth"
	"github.com/radio-control/sdrfe/internal/board"
	"github.com/radio-control/sdrfe/internal/codec"
	"github.com/radio-control/sdrfe/internal/command"
	"github.com/radio-control/sdrfe/internal/config"
	"github.com/radio-control/sdrfe/internal/logging"
	"github.com/radio-control/sdrfe/internal/stream"
	"github.com/radio-control/sdrfe/internal/telemetry"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "config file (.yaml, .yml or .toml); defaults to $"+config.EnvConfigPath)
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("sdrd: %v", err)
	}
}

func run(configPath string) error {
	// Step 1: configuration and logging
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logFile := logging.Setup(cfg.Log)
	defer logFile.Close()
	log.Printf("Starting sdrd v%s", api.Version)

	auditLogger, err := audit.NewLogger(cfg.Log.AuditDir, audit.Rotation{
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		return err
	}
	defer auditLogger.Close()
	log.Printf("Audit log at %s", auditLogger.GetFilePath())

	// Step 2: hardware
	parts := board.Radio | board.Codec
	if cfg.Stream.Enabled {
		parts |= board.FIFO
	}
	hw, err := board.Open(cfg, parts)
	if err != nil {
		return err
	}
	defer func() {
		if err := hw.Close(); err != nil {
			log.Printf("Error closing register windows: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Codec.ConfigureOnStart {
		ran, err := hw.Codec.EnsureConfigured(ctx)
		if err != nil {
			return err
		}
		if ran {
			log.Println("Codec configured")
		} else {
			log.Println("Codec already active, configuration skipped")
		}
	}
	if cfg.Codec.Volume >= codec.MinVolume && cfg.Codec.Volume <= codec.MaxVolume {
		if err := hw.Codec.SetVolume(cfg.Codec.Volume); err != nil {
			return err
		}
		log.Printf("Codec volume set to %d/%d", cfg.Codec.Volume, codec.MaxVolume)
	}

	// Step 3: stream pipeline
	hub := telemetry.NewHub(cfg.Telemetry)
	opts := []command.Option{
		command.WithTelemetry(hub),
		command.WithAudit(auditLogger),
		command.WithCommandTimeout(cfg.API.CommandTimeout),
	}

	var pipeline *stream.Pipeline
	var orch *command.Orchestrator
	if cfg.Stream.Enabled {
		settings, err := cfg.StreamSettings()
		if err != nil {
			return err
		}
		pipeline, err = stream.New(hw.FIFO, settings, stream.WithObserver(func(s stream.Stats, overflow uint32) {
			orch.ObserveStream(s, overflow)
		}))
		if err != nil {
			return err
		}
		opts = append(opts, command.WithStream(pipeline))
	}

	// Step 4: orchestrator and API
	orch = command.NewOrchestrator(hw.Radio, hw.Codec, opts...)
	hub.SetSnapshot(orch.Snapshot)

	verifier, err := auth.NewVerifierFromConfig(cfg.Auth)
	if err != nil {
		return err
	}
	middleware := auth.NewMiddleware(verifier)
	if !middleware.Enabled() {
		log.Println("Authentication disabled, all requests run with full scopes")
	}
	server := api.NewServer(orch, hub, middleware, cfg.API)

	// Step 5: run until signalled or a worker fails
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("API listening on %s", cfg.API.Listen)
		return server.Start()
	})
	if pipeline != nil {
		g.Go(func() error {
			return runStream(gctx, pipeline, cfg.Stream.Destination)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down")

		// Open SSE streams hold Shutdown until the hub releases them.
		hub.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Println("sdrd shutdown complete")
	return nil
}

func runStream(ctx context.Context, p *stream.Pipeline, dest string) error {
	sink, err := stream.OpenSink(dest)
	if err != nil {
		return err
	}
	defer sink.Close()

	cfg := p.Config()
	if cfg.Wrap == stream.CompatWrap {
		log.Printf("Streaming to %s, sequence wraps at %d (compatibility mode, 65535 is never sent)", sink, cfg.Wrap)
	} else {
		log.Printf("Streaming to %s, sequence wraps at %d", sink, cfg.Wrap)
	}
	if cfg.PollTimeout == 0 {
		log.Println("Stream poll timeout is unbounded, shutdown waits for the packet in flight")
	}

	s, err := p.Run(ctx, sink)
	log.Printf("Stream stopped after %d packets, %d samples, %d overflows", s.Packets, s.Samples, s.Overflows)
	if err != nil {
		return err
	}
	if ctx.Err() == nil {
		log.Printf("Stream reached its configured length of %d samples", cfg.Length)
	}
	return nil
}
