package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/bomalloc/internal/domain"
)

type stockLotRecord struct {
	materialID int64
	remainder  decimal.Decimal
	price      decimal.Decimal
}

// CatalogRepository реализует domain.CatalogRepository в памяти для локального запуска и тестов.
type CatalogRepository struct {
	mu        sync.RWMutex
	products  map[int64]domain.Product
	materials map[int64]domain.Material
	// bom: product id -> material id -> расход на единицу.
	bom  map[int64]map[int64]decimal.Decimal
	lots map[int64]stockLotRecord
}

// NewCatalogRepository возвращает пустой репозиторий.
func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{
		products:  make(map[int64]domain.Product),
		materials: make(map[int64]domain.Material),
		bom:       make(map[int64]map[int64]decimal.Decimal),
		lots:      make(map[int64]stockLotRecord),
	}
}

// UpsertProduct добавляет или заменяет изделие.
func (r *CatalogRepository) UpsertProduct(p domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
}

// UpsertMaterial добавляет или заменяет материал.
func (r *CatalogRepository) UpsertMaterial(m domain.Material) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.materials[m.ID] = m
}

// SetBOMLine задаёт расход материала на единицу изделия. Пара (изделие, материал) уникальна,
// повторный вызов перезаписывает значение.
func (r *CatalogRepository) SetBOMLine(productID, materialID int64, perUnit decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[productID]; !ok {
		return fmt.Errorf("product %d is not registered", productID)
	}
	if _, ok := r.materials[materialID]; !ok {
		return fmt.Errorf("material %d is not registered", materialID)
	}

	lines, ok := r.bom[productID]
	if !ok {
		lines = make(map[int64]decimal.Decimal)
		r.bom[productID] = lines
	}
	lines[materialID] = perUnit
	return nil
}

// UpsertStockLot добавляет или заменяет складскую партию.
func (r *CatalogRepository) UpsertStockLot(id, materialID int64, remainder, price decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.materials[materialID]; !ok {
		return fmt.Errorf("material %d is not registered", materialID)
	}
	r.lots[id] = stockLotRecord{materialID: materialID, remainder: remainder, price: price}
	return nil
}

// FindProductsByIDs возвращает найденные изделия.
func (r *CatalogRepository) FindProductsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[int64]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

// FindBOMLines возвращает строки спецификаций, упорядоченные по (product id, material id).
func (r *CatalogRepository) FindBOMLines(ctx context.Context, productIDs []int64) ([]domain.BOMLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.BOMLine, 0)
	for _, productID := range uniqueIDs(productIDs) {
		for materialID, perUnit := range r.bom[productID] {
			result = append(result, domain.BOMLine{
				ProductID:  productID,
				Material:   r.materials[materialID],
				PerUnitQty: perUnit,
			})
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ProductID != result[j].ProductID {
			return result[i].ProductID < result[j].ProductID
		}
		return result[i].Material.ID < result[j].Material.ID
	})
	return result, nil
}

// FindStockLots возвращает копии партий, упорядоченные по цене, затем по id.
// Вызывающая сторона может менять остатки копий, не затрагивая хранилище.
func (r *CatalogRepository) FindStockLots(ctx context.Context, materialIDs []int64) ([]domain.StockLot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wanted := make(map[int64]struct{}, len(materialIDs))
	for _, id := range materialIDs {
		wanted[id] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.StockLot, 0)
	for id, rec := range r.lots {
		if _, ok := wanted[rec.materialID]; !ok {
			continue
		}
		result = append(result, domain.StockLot{
			ID:        id,
			Material:  r.materials[rec.materialID],
			Remainder: rec.remainder,
			Price:     rec.price,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Price.Equal(result[j].Price) {
			return result[i].Price.LessThan(result[j].Price)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

var _ domain.CatalogRepository = (*CatalogRepository)(nil)
