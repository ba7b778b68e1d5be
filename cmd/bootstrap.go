package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"freightdispatch/internal/adapters/out/postgres"
	"freightdispatch/internal/lanes"

	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewLogger is a JSON logger on stdout, or a text logger in dev.
func NewLogger(cfg Config) *slog.Logger {
	if cfg.AppEnv == "dev" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func OpenDatabase(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(pgdriver.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres %s:%s: %w", cfg.DBHost, cfg.DBPort, err)
	}
	return db, nil
}

func CloseDatabase(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func MigrateDatabase(db *gorm.DB) error {
	if err := postgres.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// ImportLanes loads the lane file and upserts its route profiles.
func ImportLanes(ctx context.Context, db *gorm.DB, path string, logger *slog.Logger) (int, error) {
	profiles, err := lanes.Load(path)
	if err != nil {
		return 0, fmt.Errorf("lane file %s: %w", path, err)
	}
	handler := NewImportRouteProfilesCommandHandler(postgres.NewGormUnitOfWorkFactory(db), logger)
	return handler.Handle(ctx, profiles)
}
