package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/bomalloc/internal/storage/seed"
)

func testCatalog() seed.Catalog {
	return seed.Catalog{
		Products: []seed.Product{
			{ID: 1, Name: "Shirt", Code: "SH-1"},
			{ID: 2, Name: "Trousers", Code: "TR-1"},
		},
		Materials: []seed.Material{
			{ID: 7, Name: "fabric"},
			{ID: 8, Name: "button"},
		},
		ProductMaterials: []seed.ProductMaterial{
			{Product: 1, Material: 8, Quantity: decimal.NewFromInt(5)},
			{Product: 1, Material: 7, Quantity: decimal.RequireFromString("0.8")},
			{Product: 2, Material: 7, Quantity: decimal.RequireFromString("1.4")},
		},
		Warehouses: []seed.Warehouse{
			{ID: 3, Material: 7, Remainder: decimal.NewFromInt(12), Price: decimal.NewFromInt(1500)},
			{ID: 1, Material: 7, Remainder: decimal.NewFromInt(10), Price: decimal.NewFromInt(1500)},
			{ID: 2, Material: 7, Remainder: decimal.RequireFromString("5.5"), Price: decimal.NewFromInt(1000)},
			{ID: 4, Material: 8, Remainder: decimal.NewFromInt(150), Price: decimal.NewFromInt(100)},
		},
	}
}

func TestCatalogRepository_PostgresQueries(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewCatalogRepository(store)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, repo.Apply(ctx, testCatalog()))

	products, err := repo.FindProductsByIDs(ctx, []int64{1, 2, 404})
	require.NoError(t, err)
	require.Len(t, products, 2)
	require.Equal(t, "Trousers", products[2].Name)

	lines, err := repo.FindBOMLines(ctx, []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, lines, 3)
	require.Equal(t, int64(7), lines[0].Material.ID)
	require.Equal(t, "fabric", lines[0].Material.Name)
	require.True(t, lines[0].PerUnitQty.Equal(decimal.RequireFromString("0.8")))
	require.Equal(t, int64(8), lines[1].Material.ID)
	require.Equal(t, int64(2), lines[2].ProductID)

	lots, err := repo.FindStockLots(ctx, []int64{7})
	require.NoError(t, err)
	require.Len(t, lots, 3)
	require.Equal(t, int64(2), lots[0].ID)
	require.True(t, lots[0].Remainder.Equal(decimal.RequireFromString("5.5")))
	require.Equal(t, int64(1), lots[1].ID)
	require.Equal(t, int64(3), lots[2].ID)
}

func TestCatalogRepository_PostgresEmptyInputs(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewCatalogRepository(store)
	ctx := context.Background()

	products, err := repo.FindProductsByIDs(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, products)

	lines, err := repo.FindBOMLines(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, lines)

	lots, err := repo.FindStockLots(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, lots)
}

func TestCatalogRepository_PostgresApplyRejectsDanglingMaterial(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewCatalogRepository(store)

	err := repo.Apply(context.Background(), seed.Catalog{
		Warehouses: []seed.Warehouse{{ID: 1, Material: 99, Remainder: decimal.NewFromInt(1), Price: decimal.NewFromInt(1)}},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "referenced row does not exist")
}
