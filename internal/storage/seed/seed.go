// Package seed описывает файл начальных данных справочников.
// Имена полей повторяют таблицы products, materials, product_materials и warehouses.
package seed

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type Material struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductMaterial задаёт расход материала на единицу изделия.
type ProductMaterial struct {
	Product  int64           `json:"product"`
	Material int64           `json:"material"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Warehouse описывает складскую партию материала.
type Warehouse struct {
	ID        int64           `json:"id"`
	Material  int64           `json:"material"`
	Remainder decimal.Decimal `json:"remainder"`
	Price     decimal.Decimal `json:"price"`
}

// Catalog содержит полный снимок справочников.
type Catalog struct {
	Products         []Product         `json:"products"`
	Materials        []Material        `json:"materials"`
	ProductMaterials []ProductMaterial `json:"product_materials"`
	Warehouses       []Warehouse       `json:"warehouses"`
}

// Decode читает снимок из JSON. Числа принимаются как в виде чисел, так и строк.
func Decode(src io.Reader) (Catalog, error) {
	var c Catalog
	if err := json.NewDecoder(src).Decode(&c); err != nil {
		return Catalog{}, fmt.Errorf("decode seed: %w", err)
	}
	return c, nil
}

// LoadFile читает снимок из файла.
func LoadFile(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}
