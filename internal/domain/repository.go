package domain

import "context"

// CatalogRepository описывает доступ к справочникам изделий, спецификаций и склада.
// Все данные читаются один раз до начала прохода распределения.
type CatalogRepository interface {
	// FindProductsByIDs возвращает найденные изделия; отсутствующие id просто не попадают в результат.
	FindProductsByIDs(ctx context.Context, ids []int64) (map[int64]Product, error)
	// FindBOMLines возвращает строки спецификаций, упорядоченные по (product id, material id).
	FindBOMLines(ctx context.Context, productIDs []int64) ([]BOMLine, error)
	// FindStockLots возвращает партии материалов, упорядоченные по возрастанию цены, затем по id.
	FindStockLots(ctx context.Context, materialIDs []int64) ([]StockLot, error)
}
