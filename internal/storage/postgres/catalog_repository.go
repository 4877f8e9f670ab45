package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/bomalloc/internal/domain"
	"github.com/vladislavdragonenkov/bomalloc/internal/storage/seed"
)

const (
	opTimeout = 5 * time.Second

	pgForeignKeyViolation = "23503"
)

// CatalogRepository читает изделия, спецификации и складские партии из PostgreSQL.
type CatalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository создаёт PostgreSQL-реализацию CatalogRepository.
func NewCatalogRepository(store *Store) *CatalogRepository {
	return &CatalogRepository{db: store.DB()}
}

func (r *CatalogRepository) FindProductsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	result := make(map[int64]domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, code
		FROM products
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Code); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		result[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return result, nil
}

func (r *CatalogRepository) FindBOMLines(ctx context.Context, productIDs []int64) ([]domain.BOMLine, error) {
	if len(productIDs) == 0 {
		return []domain.BOMLine{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT pm.product_id, m.id, m.name, pm.quantity::text
		FROM product_materials pm
		JOIN materials m ON m.id = pm.material_id
		WHERE pm.product_id = ANY($1)
		ORDER BY pm.product_id, pm.material_id
	`, productIDs)
	if err != nil {
		return nil, fmt.Errorf("query product materials: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.BOMLine, 0)
	for rows.Next() {
		var (
			line domain.BOMLine
			qty  string
		)
		if err := rows.Scan(&line.ProductID, &line.Material.ID, &line.Material.Name, &qty); err != nil {
			return nil, fmt.Errorf("scan product material: %w", err)
		}
		if line.PerUnitQty, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("parse product material quantity %q: %w", qty, err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product materials: %w", err)
	}

	return lines, nil
}

func (r *CatalogRepository) FindStockLots(ctx context.Context, materialIDs []int64) ([]domain.StockLot, error) {
	if len(materialIDs) == 0 {
		return []domain.StockLot{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT w.id, m.id, m.name, w.remainder::text, w.price::text
		FROM warehouses w
		JOIN materials m ON m.id = w.material_id
		WHERE w.material_id = ANY($1)
		ORDER BY w.price, w.id
	`, materialIDs)
	if err != nil {
		return nil, fmt.Errorf("query warehouses: %w", err)
	}
	defer rows.Close()

	lots := make([]domain.StockLot, 0)
	for rows.Next() {
		var (
			lot              domain.StockLot
			remainder, price string
		)
		if err := rows.Scan(&lot.ID, &lot.Material.ID, &lot.Material.Name, &remainder, &price); err != nil {
			return nil, fmt.Errorf("scan warehouse: %w", err)
		}
		if lot.Remainder, err = decimal.NewFromString(remainder); err != nil {
			return nil, fmt.Errorf("parse warehouse %d remainder: %w", lot.ID, err)
		}
		if lot.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse warehouse %d price: %w", lot.ID, err)
		}
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate warehouses: %w", err)
	}

	return lots, nil
}

// Apply загружает снимок справочников одной транзакцией (upsert по id).
func (r *CatalogRepository) Apply(ctx context.Context, c seed.Catalog) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, p := range c.Products {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO products (id, name, code) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, code = EXCLUDED.code
		`, p.ID, p.Name, p.Code); err != nil {
			return fmt.Errorf("upsert product %d: %w", p.ID, err)
		}
	}

	for _, m := range c.Materials {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO materials (id, name) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
		`, m.ID, m.Name); err != nil {
			return fmt.Errorf("upsert material %d: %w", m.ID, err)
		}
	}

	for _, pm := range c.ProductMaterials {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO product_materials (product_id, material_id, quantity) VALUES ($1, $2, $3)
			ON CONFLICT (product_id, material_id) DO UPDATE SET quantity = EXCLUDED.quantity
		`, pm.Product, pm.Material, pm.Quantity.String()); err != nil {
			return wrapReferenceError(fmt.Sprintf("upsert product material %d/%d", pm.Product, pm.Material), err)
		}
	}

	for _, w := range c.Warehouses {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO warehouses (id, material_id, remainder, price) VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE
			SET material_id = EXCLUDED.material_id, remainder = EXCLUDED.remainder, price = EXCLUDED.price
		`, w.ID, w.Material, w.Remainder.String(), w.Price.String()); err != nil {
			return wrapReferenceError(fmt.Sprintf("upsert warehouse %d", w.ID), err)
		}
	}

	// Ключи заданы явно, поэтому сдвигаем последовательности за максимальный id.
	for _, table := range []string{"products", "materials", "warehouses"} {
		if _, err = tx.ExecContext(ctx, fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)`,
			table,
		)); err != nil {
			return fmt.Errorf("reset %s sequence: %w", table, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}

func wrapReferenceError(op string, err error) error {
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%s: referenced row does not exist: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	return false
}

var _ domain.CatalogRepository = (*CatalogRepository)(nil)
