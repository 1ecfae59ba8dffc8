package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/godilite/krishi-gateway/internal/app"
	"github.com/godilite/krishi-gateway/internal/config"
)

const (
	Version = "0.1.0"
	appName = "krishi-gateway"
)

func main() {
	_ = godotenv.Load(".env")

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Agricultural advisory gateway",
		Long:          "Serves crop recommendation, disease detection, farmer accounts and feedback analytics over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_FILE"), "YAML config file; environment variables override it")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API and gRPC health server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create the database schema and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(cmd.Context(), configPath, func(context.Context, *config.Config, *zap.Logger, *sql.DB) error {
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Print feedback analytics as JSON",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(cmd.Context(), configPath, func(ctx context.Context, cfg *config.Config, logger *zap.Logger, db *sql.DB) error {
					fs, err := app.NewFeedbackService(cfg, db, logger)
					if err != nil {
						return err
					}
					stats, err := fs.Analytics(ctx)
					if err != nil {
						return err
					}
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(stats)
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)

	return cmd
}

func setup(configPath string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}

func serve(ctx context.Context, configPath string) error {
	cfg, logger, err := setup(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", zap.Error(err))
		return err
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("Application exited with error", zap.Error(err))
		return err
	}
	return nil
}

// withStore opens and migrates the database, runs fn, then closes it.
func withStore(ctx context.Context, configPath string, fn func(context.Context, *config.Config, *zap.Logger, *sql.DB) error) error {
	cfg, logger, err := setup(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if ctx == nil {
		ctx = context.Background()
	}
	db, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(ctx, cfg, logger, db)
}
