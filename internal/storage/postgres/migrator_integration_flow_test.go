package postgres

import (
	"context"
	"testing"
	"time"
)

func requireMigrationStatus(t *testing.T, store *Store, wantVersion int64, wantCount int) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	version, count, err := store.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("migration status: %v", err)
	}
	if version != wantVersion || count != wantCount {
		t.Fatalf("unexpected migration status: version=%d count=%d, want version=%d count=%d",
			version, count, wantVersion, wantCount)
	}
}

func TestMigrator_PostgresLifecycle(t *testing.T) {
	store := openRawPostgresStoreForIntegrationTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := store.MigrateDown(ctx, 100); err != nil {
		t.Fatalf("rollback everything: %v", err)
	}
	requireMigrationStatus(t, store, 0, 0)

	if err := store.MigrateUp(ctx, 1); err != nil {
		t.Fatalf("migrate up one step: %v", err)
	}
	requireMigrationStatus(t, store, 1, 1)

	if err := store.MigrateUp(ctx, 0); err != nil {
		t.Fatalf("migrate up rest: %v", err)
	}
	requireMigrationStatus(t, store, 2, 2)

	if err := store.MigrateUp(ctx, 0); err != nil {
		t.Fatalf("repeated migrate up: %v", err)
	}
	requireMigrationStatus(t, store, 2, 2)

	if err := store.MigrateDown(ctx, 0); err != nil {
		t.Fatalf("migrate down default step: %v", err)
	}
	requireMigrationStatus(t, store, 1, 1)

	if err := store.MigrateDown(ctx, 5); err != nil {
		t.Fatalf("migrate down past the start: %v", err)
	}
	requireMigrationStatus(t, store, 0, 0)

	if err := store.MigrateDown(ctx, 1); err != nil {
		t.Fatalf("rollback on empty schema must be a no-op: %v", err)
	}

	// Оставляем схему в рабочем состоянии для остальных тестов пакета.
	if err := store.MigrateUp(ctx, 0); err != nil {
		t.Fatalf("restore schema: %v", err)
	}
}
