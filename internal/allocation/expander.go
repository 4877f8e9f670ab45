// Package allocation раскрывает спецификации изделий в потребность по материалам
// и распределяет её по складским партиям, начиная с самых дешёвых.
//
// Пакет не выполняет ввода-вывода: все справочники загружаются заранее,
// а один проход распределения работает над собственным реестром остатков.
package allocation

import (
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/bomalloc/internal/domain"
)

// Expansion содержит результат раскрытия спецификаций.
// Каждая пара (позиция запроса, материал) хранится отдельной строкой.
type Expansion struct {
	lines       []domain.MaterialDemand
	byDemand    map[int][]int
	byMaterial  map[int64][]int
	materialIDs []int64
}

// Expand умножает расход на единицу на запрошенное количество для каждой
// строки спецификации запрошенных изделий. Порядок строк: позиции запроса
// по порядку, а внутри позиции в порядке, в котором пришли строки спецификации.
// Изделие без спецификации ничего не добавляет.
func Expand(demands []domain.Demand, bom []domain.BOMLine) *Expansion {
	byProduct := make(map[int64][]domain.BOMLine)
	for _, line := range bom {
		byProduct[line.ProductID] = append(byProduct[line.ProductID], line)
	}

	exp := &Expansion{
		lines:      make([]domain.MaterialDemand, 0, len(bom)),
		byDemand:   make(map[int][]int, len(demands)),
		byMaterial: make(map[int64][]int),
	}

	for i, d := range demands {
		for _, line := range byProduct[d.ProductID] {
			md := domain.MaterialDemand{
				DemandIndex: i,
				ProductID:   d.ProductID,
				Material:    line.Material,
				Quantity:    line.PerUnitQty.Mul(d.Quantity),
			}

			pos := len(exp.lines)
			exp.lines = append(exp.lines, md)
			exp.byDemand[i] = append(exp.byDemand[i], pos)

			// Группируем строго по id материала, а не по значению записи.
			materialID := md.Material.ID
			if _, ok := exp.byMaterial[materialID]; !ok {
				exp.materialIDs = append(exp.materialIDs, materialID)
			}
			exp.byMaterial[materialID] = append(exp.byMaterial[materialID], pos)
		}
	}

	return exp
}

// Len возвращает общее число строк потребности.
func (e *Expansion) Len() int {
	return len(e.lines)
}

// ForDemand возвращает строки потребности одной позиции запроса в порядке раскрытия.
func (e *Expansion) ForDemand(index int) []domain.MaterialDemand {
	return e.collect(e.byDemand[index])
}

// ByMaterial возвращает все строки потребности по материалу.
func (e *Expansion) ByMaterial(materialID int64) []domain.MaterialDemand {
	return e.collect(e.byMaterial[materialID])
}

// MaterialIDs возвращает id материалов в порядке первого появления.
func (e *Expansion) MaterialIDs() []int64 {
	ids := make([]int64, len(e.materialIDs))
	copy(ids, e.materialIDs)
	return ids
}

// Totals суммирует потребность по материалу. Используется только для отчётности:
// распределение всегда идёт по отдельным строкам.
func (e *Expansion) Totals() map[int64]decimal.Decimal {
	totals := make(map[int64]decimal.Decimal, len(e.byMaterial))
	for materialID, positions := range e.byMaterial {
		sum := decimal.Zero
		for _, pos := range positions {
			sum = sum.Add(e.lines[pos].Quantity)
		}
		totals[materialID] = sum
	}
	return totals
}

func (e *Expansion) collect(positions []int) []domain.MaterialDemand {
	out := make([]domain.MaterialDemand, 0, len(positions))
	for _, pos := range positions {
		out = append(out, e.lines[pos])
	}
	return out
}
