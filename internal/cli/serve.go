package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/flatblog/internal/server"
	"github.com/yourusername/flatblog/internal/telemetry"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the blog HTTP server",
		Long:  `Loads the posts file and serves the blog until interrupted. A corrupt posts file aborts startup.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *globalOptions) error {
	cfg, logger, err := setup(cmd, opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled() {
		shutdown, err := telemetry.InitTracing(ctx, telemetry.TracingConfig{
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: cfg.Tracing.ServiceName,
			Environment: cfg.Tracing.Environment,
			SampleRatio: *cfg.Tracing.SampleRatio,
		})
		if err != nil {
			return err
		}
		defer func() {
			c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(c)
		}()
		logger.Info("Tracing enabled", "endpoint", cfg.Tracing.Endpoint)
	}

	metrics := telemetry.NewMetrics()

	store, err := openStore(cfg, logger, metrics)
	if err != nil {
		logger.Error("Cannot start with unreadable posts file", "path", cfg.Storage.PostsFile, "error", err)
		return err
	}

	srvOpts := server.Options{
		PublicDir: cfg.Storage.PublicDir,
		Logger:    logger,
		Metrics:   metrics,
	}
	if cfg.RateLimitEnabled() {
		srvOpts.RequestsPerSecond = cfg.Server.RateLimit.RequestsPerSecond
		srvOpts.Burst = cfg.Server.RateLimit.Burst
	}

	srv := server.New(store, srvOpts)

	return srv.Run(ctx, server.ListenConfig{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	})
}
