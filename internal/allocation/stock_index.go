package allocation

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/bomalloc/internal/domain"
)

// ledgerLot хранит копию партии, принадлежащую одному проходу.
type ledgerLot struct {
	domain.StockLot
	initial decimal.Decimal
}

// StockIndex ведёт реестр остатков одного прохода распределения.
// Партии сгруппированы по id материала и упорядочены по возрастанию цены.
// Индекс не потокобезопасен: проход выполняется последовательно.
type StockIndex struct {
	byMaterial  map[int64][]*ledgerLot
	materialIDs []int64
}

// NewStockIndex копирует партии в новый реестр. Исходный срез не изменяется.
// При равной цене сохраняется порядок, в котором партии пришли из хранилища.
func NewStockIndex(lots []domain.StockLot) *StockIndex {
	idx := &StockIndex{
		byMaterial: make(map[int64][]*ledgerLot),
	}

	for _, lot := range lots {
		materialID := lot.Material.ID
		if _, ok := idx.byMaterial[materialID]; !ok {
			idx.materialIDs = append(idx.materialIDs, materialID)
		}
		idx.byMaterial[materialID] = append(idx.byMaterial[materialID], &ledgerLot{
			StockLot: lot,
			initial:  lot.Remainder,
		})
	}

	for _, group := range idx.byMaterial {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Price.LessThan(group[j].Price)
		})
	}

	return idx
}

// Has сообщает, есть ли у материала хотя бы одна партия.
func (s *StockIndex) Has(materialID int64) bool {
	_, ok := s.byMaterial[materialID]
	return ok
}

// Lots возвращает снимок партий материала в порядке распределения.
func (s *StockIndex) Lots(materialID int64) []domain.StockLot {
	group := s.byMaterial[materialID]
	out := make([]domain.StockLot, 0, len(group))
	for _, lot := range group {
		out = append(out, lot.StockLot)
	}
	return out
}

// Remainder возвращает текущий остаток партии.
func (s *StockIndex) Remainder(lotID int64) (decimal.Decimal, bool) {
	for _, materialID := range s.materialIDs {
		for _, lot := range s.byMaterial[materialID] {
			if lot.ID == lotID {
				return lot.Remainder, true
			}
		}
	}
	return decimal.Zero, false
}

// Depletion возвращает партии, из которых что-то списано за проход.
func (s *StockIndex) Depletion() []domain.LotDepletion {
	var out []domain.LotDepletion
	for _, materialID := range s.materialIDs {
		for _, lot := range s.byMaterial[materialID] {
			drawn := lot.initial.Sub(lot.Remainder)
			if !drawn.IsPositive() {
				continue
			}
			out = append(out, domain.LotDepletion{
				LotID:      lot.ID,
				MaterialID: materialID,
				Drawn:      drawn,
				Remainder:  lot.Remainder,
			})
		}
	}
	return out
}
