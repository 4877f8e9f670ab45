package contract

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/bomalloc/internal/domain"
)

func TestNewResponse_JSONShape(t *testing.T) {
	fabric := domain.Material{ID: 7, Name: "fabric"}
	results := []domain.ProductResult{
		{
			ProductID:   1,
			ProductName: "Shirt",
			Quantity:    decimal.NewFromInt(2),
			Lines: []domain.AllocationLine{
				domain.NewLotLine(12, fabric, decimal.NewFromInt(2), decimal.NewFromInt(10)),
				domain.NewShortfallLine(fabric, decimal.RequireFromString("1.0")),
			},
		},
	}

	body, err := json.Marshal(NewResponse(results))
	require.NoError(t, err)
	require.JSONEq(t, `{
		"result": [{
			"product_name": "Shirt",
			"product_qty": 2,
			"product_materials": [
				{"warehouse_id": 12, "material": "fabric", "qty": 2, "price": 10},
				{"warehouse_id": null, "material": "fabric", "qty": 1, "price": null}
			]
		}]
	}`, string(body))
}

func TestNewResponse_KeepsDecimalPrecision(t *testing.T) {
	qty := decimal.RequireFromString("0.1").Add(decimal.RequireFromString("0.2"))
	results := []domain.ProductResult{{
		ProductName: "Button pack",
		Quantity:    decimal.RequireFromString("0.3"),
		Lines: []domain.AllocationLine{
			domain.NewLotLine(1, domain.Material{ID: 8, Name: "button"}, qty, decimal.RequireFromString("12.3456")),
		},
	}}

	body, err := json.Marshal(NewResponse(results))
	require.NoError(t, err)
	require.Contains(t, string(body), `"qty":0.3`)
	require.Contains(t, string(body), `"price":12.3456`)
}

func TestNewResponse_Empty(t *testing.T) {
	body, err := json.Marshal(NewResponse(nil))
	require.NoError(t, err)
	require.JSONEq(t, `{"result": []}`, string(body))

	body, err = json.Marshal(NewResponse([]domain.ProductResult{{ProductName: "Bare", Quantity: decimal.NewFromInt(1)}}))
	require.NoError(t, err)
	require.JSONEq(t, `{"result": [{"product_name": "Bare", "product_qty": 1, "product_materials": []}]}`, string(body))
}
