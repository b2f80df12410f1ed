package main

import (
	"context"
	"database/sql"
	root "loanapproval"
	"loanapproval/internal/config"
	"loanapproval/pkg/logger"

	"github.com/pressly/goose/v3"
	"github.com/riverqueue/river/riverdriver/riverdatabasesql"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// migrateCommand constructs the 'migrate' subcommand that applies the artifact
// table migrations with goose and the river job queue migrations.
func migrateCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrates the postgres artifact store and job queue to the latest version",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := logger.Named(cmd.Context(), "migrate")

			strg, closeStrg := getPostgres(ctx, cfg)
			defer closeStrg()
			db, ok := strg.DB.(*sql.DB)
			if !ok {
				logger.Fatal(ctx, "postgres storage is not backed by *sql.DB")
			}

			goose.SetBaseFS(root.Migrations)
			if err := goose.SetDialect("postgres"); err != nil {
				logger.Fatal(ctx, "could not set goose dialect to postgres", zap.Error(err))
			}
			if err := goose.UpContext(ctx, db, "migrations"); err != nil {
				logger.Fatal(ctx, "could not migrate pgsql", zap.Error(err))
			}

			if err := migrateRiver(ctx, db); err != nil {
				logger.Fatal(ctx, "could not migrate river queue", zap.Error(err))
			}
			logger.Info(ctx, "database is up to date")
		},
	}

	return cmd
}

// migrateRiver brings the river queue tables to the latest version.
func migrateRiver(ctx context.Context, db *sql.DB) error {
	migrator, err := rivermigrate.New(riverdatabasesql.New(db), nil)
	if err != nil {
		return err //nolint: wrapcheck
	}

	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
	if err != nil {
		return err //nolint: wrapcheck
	}
	for _, v := range res.Versions {
		logger.Info(ctx, "applied river migration", zap.Int("version", v.Version), zap.Duration("duration", v.Duration))
	}

	return nil
}
