package allocation

import (
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/bomalloc/internal/domain"
)

// Allocate покрывает потребность в материале партиями реестра по возрастанию цены.
//
// Остатки партий уменьшаются на месте, поэтому следующий вызов по тому же
// материалу видит уже уменьшенный склад. Сумма количеств в результате всегда
// равна needed; строка нехватки, если есть, одна и стоит последней.
func (s *StockIndex) Allocate(material domain.Material, needed decimal.Decimal) []domain.AllocationLine {
	lots, ok := s.byMaterial[material.ID]
	if !ok {
		return []domain.AllocationLine{domain.NewShortfallLine(material, needed)}
	}

	lines := make([]domain.AllocationLine, 0, 2)
	for _, lot := range lots {
		// Партия исчерпана предыдущими строками прохода или пришла пустой.
		if !lot.Remainder.IsPositive() {
			continue
		}

		draw := decimal.Min(lot.Remainder, needed)
		lines = append(lines, domain.NewLotLine(lot.ID, material, draw, lot.Price))

		lot.Remainder = lot.Remainder.Sub(draw)
		needed = needed.Sub(draw)

		if !needed.IsPositive() {
			break
		}
	}

	if needed.IsPositive() {
		lines = append(lines, domain.NewShortfallLine(material, needed))
	}

	return lines
}
