package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/smartflow"
	"github.com/meikuraledutech/smartflow/internal/config"
	"github.com/meikuraledutech/smartflow/internal/logging"
	"github.com/meikuraledutech/smartflow/postgres"
	"github.com/meikuraledutech/smartflow/sqlite"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "smartflow",
		Short:         "Build, validate and simulate conditional routing flows",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "config file (YAML)")

	root.AddCommand(
		serveCmd(),
		validateCmd(),
		simulateCmd(),
		flowsCmd(),
	)
	return root
}

func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	return cfg, logger, nil
}

// openStore opens the configured saved-flow store and makes sure its schema
// exists. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config) (smartflow.Store, func(), error) {
	var (
		store   smartflow.Store
		closeFn = func() {}
	)
	switch cfg.Store.Driver {
	case config.DriverMemory:
		store = smartflow.NewMemoryStore()
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store, closeFn = s, func() { s.Close() }
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect: %w", err)
		}
		store, closeFn = postgres.New(pool), pool.Close
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err := store.CreateSchema(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("schema: %w", err)
	}
	return store, closeFn, nil
}

func readSnapshot(path string) (smartflow.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return smartflow.Snapshot{}, err
	}
	return smartflow.DecodeSnapshot(data)
}
