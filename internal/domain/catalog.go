package domain

import "github.com/shopspring/decimal"

// Product описывает справочную запись изделия, которое можно заказать.
type Product struct {
	ID   int64
	Name string
	// Code хранит уникальный артикул изделия.
	Code string
}

// Material описывает справочную запись сырья.
type Material struct {
	ID   int64
	Name string
}

// BOMLine описывает расход одного материала на единицу изделия.
// Пара (ProductID, Material.ID) уникальна.
type BOMLine struct {
	ProductID  int64
	Material   Material
	PerUnitQty decimal.Decimal
}

// StockLot описывает партию материала на складе по фиксированной цене.
type StockLot struct {
	ID       int64
	Material Material
	// Remainder уменьшается в ходе одного прохода распределения и никогда не уходит ниже нуля.
	Remainder decimal.Decimal
	Price     decimal.Decimal
}

// Demand содержит запрошенное клиентом количество изделия.
type Demand struct {
	ProductID int64
	Quantity  decimal.Decimal
}

// Validate проверяет инварианты запроса: положительный идентификатор и количество.
func (d Demand) Validate() []error {
	var errs []error

	if d.ProductID <= 0 {
		errs = append(errs, ErrProductIDInvalid)
	}
	if !d.Quantity.IsPositive() {
		errs = append(errs, ErrQuantityInvalid)
	}

	return errs
}

// ProductIDs возвращает идентификаторы изделий в порядке запроса без повторов.
func ProductIDs(demands []Demand) []int64 {
	seen := make(map[int64]struct{}, len(demands))
	ids := make([]int64, 0, len(demands))
	for _, d := range demands {
		if _, ok := seen[d.ProductID]; ok {
			continue
		}
		seen[d.ProductID] = struct{}{}
		ids = append(ids, d.ProductID)
	}
	return ids
}
