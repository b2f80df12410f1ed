package main

import (
	"context"
	"errors"
	"loanapproval/internal/api"
	"loanapproval/internal/api/handler/v1handler"
	"loanapproval/internal/config"
	"loanapproval/internal/pipeline"
	"loanapproval/internal/serving"
	"loanapproval/internal/trainer"
	"loanapproval/internal/worker"
	"loanapproval/pkg/logger"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func setupServer(ctx context.Context, cfg *config.Config, deps api.Deps) func(ctx context.Context) {
	if cfg.JWT.PublicKey == "" {
		logger.Warn(ctx, "no JWT public key configured, v1 API is not authenticated")
	}
	server, err := api.NewServer(deps, api.NewOptions(cfg))
	if err != nil {
		logger.Fatal(ctx, "could not create webserver", zap.Error(err))
	}

	go func() {
		logger.Info(ctx, "starting webserver...", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "could not start webserver", zap.Error(err))
			}
		}
	}()

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping webserver...")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not stop webserver", zap.Error(err))
		}
	}
}

// serveCommand constructs the 'serve' subcommand. It serves predictions with
// the latest artifact, polls for newer ones and, with the postgres backend,
// processes queued training runs.
func serveCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts API server and background workers",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			b := getBackend(ctx, cfg)
			defer b.close()

			pipe := pipeline.New(pipeline.NewOptions(cfg))
			predictor := serving.New(pipe, b.artifacts)
			if _, err := predictor.Reload(ctx); err != nil {
				logger.Error(ctx, "could not load artifact, serving nothing until one is published", zap.Error(err))
			}
			go serving.Refresh(ctx, predictor, cfg.Artifact.RefreshInterval)

			tr := trainer.New(trainer.NewOptions(cfg), pipe, b.artifacts, b.jobs)
			deps := v1handler.Deps{Predictor: predictor, Dataset: cfg.Worker.Dataset}
			if b.jobs != nil {
				deps.Trainer = tr
			}

			var stopWorker func(context.Context)
			if b.pgsql != nil {
				riverClient, err := worker.Start(ctx, b.pgsql.Pool, cfg.Worker.MaxWorkers, tr, predictor)
				if err != nil {
					logger.Fatal(ctx, "could not start training worker", zap.Error(err))
				}
				stopWorker = func(ctx context.Context) {
					logger.Info(ctx, "stopping training worker...")
					if err := riverClient.Stop(ctx); err != nil {
						logger.Error(ctx, "could not stop training worker", zap.Error(err))
					}
				}
			}

			stopWebserver := setupServer(ctx, cfg, api.Deps{Deps: deps})

			// wait for interrupt
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
			defer cancel()

			stopWebserver(shutdownCtx)
			if stopWorker != nil {
				stopWorker(shutdownCtx)
			}
		},
	}

	return cmd
}
