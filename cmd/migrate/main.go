package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/bomalloc/internal/storage/postgres"
	"github.com/vladislavdragonenkov/bomalloc/internal/storage/seed"
)

const (
	defaultTimeout = 30 * time.Second
)

func main() {
	var (
		direction string
		steps     int
		dsn       string
		seedFile  string
	)

	flag.StringVar(&direction, "direction", "up", "migration direction: up|down|status")
	flag.IntVar(&steps, "steps", 0, "number of migrations to apply/rollback (0=all for up, 1 for down)")
	flag.StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: BOM_POSTGRES_DSN)")
	flag.StringVar(&seedFile, "seed", "", "JSON catalog snapshot to load after migrate up")
	flag.Parse()

	if strings.TrimSpace(dsn) == "" {
		dsn = strings.TrimSpace(os.Getenv("BOM_POSTGRES_DSN"))
	}
	if dsn == "" {
		fail("BOM_POSTGRES_DSN (or -dsn) is required")
	}

	direction = strings.ToLower(strings.TrimSpace(direction))
	if seedFile != "" && direction != "up" {
		fail("-seed can only be used with -direction=up")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		fail("open postgres store: %v", err)
	}
	defer store.Close()

	switch direction {
	case "up":
		if err := store.MigrateUp(ctx, steps); err != nil {
			fail("migrate up failed: %v", err)
		}
		version, count, err := store.MigrationStatus(ctx)
		if err != nil {
			fail("migration status failed: %v", err)
		}
		fmt.Printf("migrate up ok: version=%d applied=%d\n", version, count)

		if seedFile != "" {
			if err := applySeed(ctx, store, seedFile); err != nil {
				fail("seed failed: %v", err)
			}
			fmt.Printf("seed ok: %s\n", seedFile)
		}
	case "down":
		if steps <= 0 {
			steps = 1
		}
		if err := store.MigrateDown(ctx, steps); err != nil {
			fail("migrate down failed: %v", err)
		}
		version, count, err := store.MigrationStatus(ctx)
		if err != nil {
			fail("migration status failed: %v", err)
		}
		fmt.Printf("migrate down ok: version=%d applied=%d\n", version, count)
	case "status":
		version, count, err := store.MigrationStatus(ctx)
		if err != nil {
			fail("migration status failed: %v", err)
		}
		fmt.Printf("migration status: version=%d applied=%d\n", version, count)
	default:
		fail("unsupported direction: %s (use up|down|status)", direction)
	}
}

// applySeed загружает справочники из файла поверх текущих данных.
func applySeed(ctx context.Context, store *postgres.Store, path string) error {
	catalog, err := seed.LoadFile(path)
	if err != nil {
		return err
	}
	return postgres.NewCatalogRepository(store).Apply(ctx, catalog)
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
