package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/llocg/internal/config"
	db "github.com/JonMunkholm/llocg/internal/database"
	"github.com/JonMunkholm/llocg/internal/logging"
)

var (
	envFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:          "cardctl",
	Short:        "Manage the card catalog database",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file (ignored when missing)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL")
}

// setup loads configuration, configures logging and opens the pool.
// migrate controls whether the schema is applied on connect.
func setup(ctx context.Context, migrate bool) (*config.Config, *pgxpool.Pool, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	logging.Setup(level, cfg.Logging.Format)

	dbCfg := cfg.Database
	dbCfg.AutoMigrate = migrate
	dbCfg.MinConns = 0
	pool, err := db.Connect(ctx, dbCfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}
