package contract

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/bomalloc/internal/domain"
)

// Response описывает тело успешного ответа расчёта.
type Response struct {
	Result []ProductResponse `json:"result"`
}

// ProductResponse содержит распределение материалов для одной позиции запроса.
type ProductResponse struct {
	ProductName      string         `json:"product_name"`
	ProductQty       json.Number    `json:"product_qty"`
	ProductMaterials []MaterialLine `json:"product_materials"`
}

// MaterialLine представляет строку списания. WarehouseID и Price равны null, если материала не хватило.
type MaterialLine struct {
	WarehouseID *int64       `json:"warehouse_id"`
	Material    string       `json:"material"`
	Qty         json.Number  `json:"qty"`
	Price       *json.Number `json:"price"`
}

// ErrorResponse описывает тело ответа с ошибкой валидации или сервера.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewResponse переводит результаты ядра во внешний формат без потери точности:
// количества и цены сериализуются как JSON-числа из десятичного представления.
func NewResponse(results []domain.ProductResult) Response {
	out := Response{Result: make([]ProductResponse, 0, len(results))}
	for _, r := range results {
		product := ProductResponse{
			ProductName:      r.ProductName,
			ProductQty:       number(r.Quantity),
			ProductMaterials: make([]MaterialLine, 0, len(r.Lines)),
		}
		for _, line := range r.Lines {
			product.ProductMaterials = append(product.ProductMaterials, newMaterialLine(line))
		}
		out.Result = append(out.Result, product)
	}
	return out
}

func newMaterialLine(line domain.AllocationLine) MaterialLine {
	ml := MaterialLine{
		Material: line.Material,
		Qty:      number(line.Quantity),
	}
	if line.LotID != nil {
		id := *line.LotID
		ml.WarehouseID = &id
	}
	if line.Price.Valid {
		price := number(line.Price.Decimal)
		ml.Price = &price
	}
	return ml
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
