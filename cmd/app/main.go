package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"freightdispatch/cmd"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

func main() {
	root := &cobra.Command{
		Use:           "freightdispatch",
		Short:         "Sequential carrier dispatch for freight orders",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCommand(), migrateCommand(), importLanesCommand())

	if err := root.Execute(); err != nil {
		log.Fatalf("freightdispatch: %v", err)
	}
}

func serveCommand() *cobra.Command {
	var skipMigrate bool
	c := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background jobs",
		RunE: func(c *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			configs, err := cmd.LoadConfig()
			if err != nil {
				return err
			}
			if err := configs.Validate(); err != nil {
				return err
			}
			logger := cmd.NewLogger(configs)

			return withDatabase(configs, func(db *gorm.DB) error {
				if !skipMigrate {
					if err := cmd.MigrateDatabase(db); err != nil {
						return err
					}
				}
				if configs.LaneFile != "" {
					n, err := cmd.ImportLanes(ctx, db, configs.LaneFile, logger)
					if err != nil {
						return err
					}
					logger.InfoContext(ctx, "lanes imported", "file", configs.LaneFile, "count", n)
				}
				return serve(ctx, configs, db, logger)
			})
		},
	}
	c.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not migrate the schema at start-up")
	return c
}

func serve(ctx context.Context, configs cmd.Config, db *gorm.DB, logger *slog.Logger) error {
	app, err := cmd.NewCompositionRoot(ctx, configs, db, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("close adapters", "error", err)
		}
	}()

	e, err := app.CreateHTTPRouter()
	if err != nil {
		return err
	}

	jobManager := app.CreateJobManager()
	if err := jobManager.StartAll(); err != nil {
		return err
	}
	defer jobManager.StopAll()

	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "http server listening", "port", configs.HTTPPort)
		errCh <- e.Start(fmt.Sprintf("0.0.0.0:%s", configs.HTTPPort))
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(_ *cobra.Command, _ []string) error {
			configs, err := cmd.LoadConfig()
			if err != nil {
				return err
			}
			return withDatabase(configs, cmd.MigrateDatabase)
		},
	}
}

func importLanesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import-lanes <file>",
		Short: "Validate a YAML or JSON lane file and upsert its route profiles",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			configs, err := cmd.LoadConfig()
			if err != nil {
				return err
			}
			logger := cmd.NewLogger(configs)

			return withDatabase(configs, func(db *gorm.DB) error {
				n, err := cmd.ImportLanes(c.Context(), db, args[0], logger)
				if err != nil {
					return err
				}
				c.Printf("imported %d route profiles from %s\n", n, args[0])
				return nil
			})
		},
	}
}

func withDatabase(configs cmd.Config, fn func(db *gorm.DB) error) error {
	db, err := cmd.OpenDatabase(configs)
	if err != nil {
		return err
	}
	defer func() {
		if err := cmd.CloseDatabase(db); err != nil {
			log.Errorf("close database: %v", err)
		}
	}()
	return fn(db)
}
