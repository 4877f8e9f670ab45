package domain

import "github.com/shopspring/decimal"

// MaterialDemand описывает потребность в материале, порождённую одной позицией запроса.
// Строки не суммируются между изделиями: каждая относится к своему DemandIndex.
type MaterialDemand struct {
	DemandIndex int
	ProductID   int64
	Material    Material
	Quantity    decimal.Decimal
}

// AllocationLine представляет одну строку списания материала.
// LotID == nil и невалидная Price означают нехватку на складе.
type AllocationLine struct {
	LotID      *int64
	MaterialID int64
	Material   string
	Quantity   decimal.Decimal
	Price      decimal.NullDecimal
}

// NewLotLine создаёт строку списания из конкретной партии.
func NewLotLine(lotID int64, material Material, qty, price decimal.Decimal) AllocationLine {
	id := lotID
	return AllocationLine{
		LotID:      &id,
		MaterialID: material.ID,
		Material:   material.Name,
		Quantity:   qty,
		Price:      decimal.NewNullDecimal(price),
	}
}

// NewShortfallLine создаёт строку непокрытой потребности.
func NewShortfallLine(material Material, qty decimal.Decimal) AllocationLine {
	return AllocationLine{
		MaterialID: material.ID,
		Material:   material.Name,
		Quantity:   qty,
	}
}

// IsShortfall сообщает, что строка не покрыта складом.
func (l AllocationLine) IsShortfall() bool {
	return l.LotID == nil
}

// Cost возвращает стоимость строки; для нехватки стоимость нулевая.
func (l AllocationLine) Cost() decimal.Decimal {
	if !l.Price.Valid {
		return decimal.Zero
	}
	return l.Quantity.Mul(l.Price.Decimal)
}

// ProductResult содержит итог распределения для одной позиции запроса.
type ProductResult struct {
	ProductID   int64
	ProductName string
	Quantity    decimal.Decimal
	Lines       []AllocationLine
}

// Cost суммирует стоимость всех покрытых складом строк.
func (r ProductResult) Cost() decimal.Decimal {
	total := decimal.Zero
	for _, line := range r.Lines {
		total = total.Add(line.Cost())
	}
	return total
}

// Shortfall суммирует непокрытое количество по всем материалам.
func (r ProductResult) Shortfall() decimal.Decimal {
	total := decimal.Zero
	for _, line := range r.Lines {
		if line.IsShortfall() {
			total = total.Add(line.Quantity)
		}
	}
	return total
}

// LotDepletion показывает чистый итог прохода по одной партии.
// Вызывающая сторона решает, сохранять его или отбросить.
type LotDepletion struct {
	LotID      int64
	MaterialID int64
	Drawn      decimal.Decimal
	Remainder  decimal.Decimal
}
