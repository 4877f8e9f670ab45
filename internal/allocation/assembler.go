package allocation

import (
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/bomalloc/internal/domain"
)

// Pass содержит результат одного прохода распределения.
type Pass struct {
	Results    []domain.ProductResult
	Depletion  []domain.LotDepletion
	Shortfalls []domain.MaterialShortfall
	// UnknownProducts перечисляет id из запроса, которых нет в справочнике (без повторов).
	UnknownProducts []int64
}

// Assemble распределяет строки потребности позиция за позицией в порядке запроса.
// Позиции с неизвестным изделием пропускаются без ошибки и склад не трогают.
// Порядок обхода определяет, кто забирает дефицитную партию первым.
func Assemble(
	demands []domain.Demand,
	products map[int64]domain.Product,
	exp *Expansion,
	stock *StockIndex,
) []domain.ProductResult {
	results := make([]domain.ProductResult, 0, len(demands))

	for i, d := range demands {
		product, ok := products[d.ProductID]
		if !ok {
			continue
		}

		lines := make([]domain.AllocationLine, 0)
		for _, md := range exp.ForDemand(i) {
			lines = append(lines, stock.Allocate(md.Material, md.Quantity)...)
		}

		results = append(results, domain.ProductResult{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    d.Quantity,
			Lines:       lines,
		})
	}

	return results
}

// Execute выполняет сборку результата и подводит итоги прохода по реестру.
func Execute(
	demands []domain.Demand,
	products map[int64]domain.Product,
	exp *Expansion,
	stock *StockIndex,
) Pass {
	results := Assemble(demands, products, exp, stock)

	return Pass{
		Results:         results,
		Depletion:       stock.Depletion(),
		Shortfalls:      Shortfalls(results),
		UnknownProducts: unknownProducts(demands, products),
	}
}

// Shortfalls суммирует строки нехватки по материалу в порядке первого появления.
func Shortfalls(results []domain.ProductResult) []domain.MaterialShortfall {
	var (
		order  []int64
		names  = make(map[int64]string)
		totals = make(map[int64]decimal.Decimal)
	)

	for _, r := range results {
		for _, line := range r.Lines {
			if !line.IsShortfall() {
				continue
			}
			if _, ok := totals[line.MaterialID]; !ok {
				order = append(order, line.MaterialID)
				names[line.MaterialID] = line.Material
				totals[line.MaterialID] = decimal.Zero
			}
			totals[line.MaterialID] = totals[line.MaterialID].Add(line.Quantity)
		}
	}

	out := make([]domain.MaterialShortfall, 0, len(order))
	for _, id := range order {
		out = append(out, domain.MaterialShortfall{
			MaterialID: id,
			Material:   names[id],
			Quantity:   totals[id],
		})
	}
	return out
}

func unknownProducts(demands []domain.Demand, products map[int64]domain.Product) []int64 {
	var unknown []int64
	for _, id := range domain.ProductIDs(demands) {
		if _, ok := products[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	return unknown
}
