package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bomalloc/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/bomalloc/internal/health"
	"github.com/vladislavdragonenkov/bomalloc/internal/storage/memory"
	"github.com/vladislavdragonenkov/bomalloc/internal/storage/postgres"
	"github.com/vladislavdragonenkov/bomalloc/internal/storage/seed"
)

// runtimeDependencies содержит хранилище справочников и его проверку здоровья.
type runtimeDependencies struct {
	catalog        domain.CatalogRepository
	storageChecker healthcheck.Checker
	closeFn        func() error
}

func (d runtimeDependencies) close() error {
	if d.closeFn == nil {
		return nil
	}
	return d.closeFn()
}

// initRuntimeDependencies открывает выбранное хранилище и загружает seed-файл, если он задан.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (runtimeDependencies, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory, "":
		return initMemoryStorage(cfg, logger)
	case StorageDriverPostgres:
		return initPostgresStorage(ctx, cfg, logger)
	default:
		return runtimeDependencies{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

func initMemoryStorage(cfg Config, logger *log.Entry) (runtimeDependencies, error) {
	repo := memory.NewCatalogRepository()
	if cfg.SeedFile != "" {
		if err := repo.LoadSeedFile(cfg.SeedFile); err != nil {
			return runtimeDependencies{}, fmt.Errorf("load seed into memory storage: %w", err)
		}
		logger.WithField("seed_file", cfg.SeedFile).Info("memory catalog seeded")
	}

	return runtimeDependencies{
		catalog: repo,
		storageChecker: healthcheck.NewFuncChecker("storage", func(context.Context) error {
			return nil
		}),
	}, nil
}

func initPostgresStorage(ctx context.Context, cfg Config, logger *log.Entry) (runtimeDependencies, error) {
	if cfg.PostgresDSN == "" {
		return runtimeDependencies{}, fmt.Errorf("postgres dsn is required for storage driver %q", StorageDriverPostgres)
	}

	store, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return runtimeDependencies{}, err
	}

	if cfg.PostgresAutoMigrate {
		if err := store.MigrateUp(ctx, 0); err != nil {
			_ = store.Close()
			return runtimeDependencies{}, fmt.Errorf("apply postgres migrations: %w", err)
		}
		version, count, err := store.MigrationStatus(ctx)
		if err == nil {
			logger.WithFields(log.Fields{"version": version, "applied": count}).Info("postgres schema is up to date")
		}
	}

	repo := postgres.NewCatalogRepository(store)
	if cfg.SeedFile != "" {
		catalog, err := seed.LoadFile(cfg.SeedFile)
		if err != nil {
			_ = store.Close()
			return runtimeDependencies{}, err
		}
		if err := repo.Apply(ctx, catalog); err != nil {
			_ = store.Close()
			return runtimeDependencies{}, fmt.Errorf("load seed into postgres: %w", err)
		}
		logger.WithField("seed_file", cfg.SeedFile).Info("postgres catalog seeded")
	}

	return runtimeDependencies{
		catalog:        repo,
		storageChecker: healthcheck.NewFuncChecker("storage", store.Ping),
		closeFn:        store.Close,
	}, nil
}
