// Package main provides the CLI entrypoint for the loan approval service.
// It wires subcommands (train, evaluate, predict, serve, migrate, jwt), loads
// configuration, and initializes logging.
package main

import (
	"context"
	"flag"
	"io"
	"loanapproval/internal/config"
	"loanapproval/pkg/logger"
	"loanapproval/pkg/storage"
	"loanapproval/pkg/storage/file"
	"loanapproval/pkg/storage/postgres"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// getPostgres creates a PostgreSQL client using configuration values and returns it
// along with a cleanup function to close the connection pool.
func getPostgres(ctx context.Context, cfg *config.Config) (*postgres.PgSQL, func()) {
	pgsql, err := postgres.New(ctx, postgres.Options{
		Username:           cfg.Database.Username,
		Password:           cfg.Database.Password,
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		Database:           cfg.Database.DatabaseName,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime:    cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		MaxOpenConnections: cfg.Database.MaxOpenConnections,
		MaxIdleConnections: cfg.Database.MaxIdleConnections,
		SslMode:            cfg.Database.SslMode,
		ApplicationName:    "loanapproval",
	})
	if err != nil {
		logger.Fatal(ctx, "could not create postgres storage", zap.Error(err))
	}

	return pgsql, func() {
		logger.Info(ctx, "closing postgres client...")
		if err = pgsql.Close(); err != nil {
			logger.Warn(ctx, "could not close postgres connection", zap.Error(err))
		}
	}
}

// backend is the artifact storage selected by the configuration. pgsql and
// jobs are nil for the file backend.
type backend struct {
	artifacts storage.ArtifactStorage
	jobs      storage.JobStorage
	pgsql     *postgres.PgSQL
	close     func()
}

// getBackend opens the configured artifact storage.
func getBackend(ctx context.Context, cfg *config.Config) backend {
	if cfg.Artifact.Backend == config.ArtifactBackendPostgres {
		pgsql, closePgsql := getPostgres(ctx, cfg)

		return backend{artifacts: pgsql, jobs: pgsql, pgsql: pgsql, close: closePgsql}
	}

	store, err := file.New(cfg.Artifact.Path)
	if err != nil {
		logger.Fatal(ctx, "could not create file artifact storage", zap.Error(err))
	}

	return backend{artifacts: store, close: func() {}}
}

// main sets up the root Cobra command, loads configuration and logging, and
// registers subcommands before executing the CLI.
func main() {
	rootCmd := &cobra.Command{
		Use:   "loanapproval",
		Short: "Trains and serves the gig worker loan approval classifier",
	}

	// there is no way to access flags before command execution in cobra.
	// configPath here is parsed using the standard flags package.
	// following line is just added to prevent errors when Cobra is parsing the flags.
	rootCmd.PersistentFlags().StringP("config", "c", "config.yml", "Config File Path")

	flags := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	configPath := flags.String("c", "config.yml", "The config file path")
	_ = flags.Parse(configArgs(os.Args[1:]))

	log.Println("loading config ...")
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("could not load config file: ", err)
	}

	logger.Setup(cfg.Environment, cfg.LogLevel)

	ctx := context.Background()

	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "captured panic, exiting...", zap.Any("panic", p))
			_ = logger.Get(ctx).Sync()

			panic(p)
		}
	}()

	rootCmd.AddCommand(
		migrateCommand(cfg),
		trainCommand(cfg),
		evaluateCommand(cfg),
		predictCommand(cfg),
		serveCommand(cfg),
		JWTCommand(cfg),
	)

	err = rootCmd.Execute()
	_ = logger.Get(ctx).Sync()
	if err != nil {
		os.Exit(1) //nolint: gocritic
	}
}

// configArgs keeps only the -c/--config flag of args, so subcommand flags do
// not stop the standard flag parser.
func configArgs(args []string) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "-c" || a == "--config" {
			if i+1 < len(args) {
				out = append(out, "-c", args[i+1])
				i++
			}

			continue
		}
		for _, prefix := range []string{"-c=", "--config="} {
			if path, ok := strings.CutPrefix(a, prefix); ok {
				out = append(out, "-c", path)
			}
		}
	}

	return out
}
