package memory

import (
	"fmt"
	"io"

	"github.com/vladislavdragonenkov/bomalloc/internal/domain"
	"github.com/vladislavdragonenkov/bomalloc/internal/storage/seed"
)

// Apply загружает снимок в репозиторий. Материалы и изделия заводятся раньше связей.
func (r *CatalogRepository) Apply(c seed.Catalog) error {
	for _, p := range c.Products {
		r.UpsertProduct(domain.Product{ID: p.ID, Name: p.Name, Code: p.Code})
	}
	for _, m := range c.Materials {
		r.UpsertMaterial(domain.Material{ID: m.ID, Name: m.Name})
	}
	for _, pm := range c.ProductMaterials {
		if err := r.SetBOMLine(pm.Product, pm.Material, pm.Quantity); err != nil {
			return fmt.Errorf("seed product material %d/%d: %w", pm.Product, pm.Material, err)
		}
	}
	for _, w := range c.Warehouses {
		if err := r.UpsertStockLot(w.ID, w.Material, w.Remainder, w.Price); err != nil {
			return fmt.Errorf("seed warehouse %d: %w", w.ID, err)
		}
	}
	return nil
}

// LoadSeedJSON читает снимок из JSON и применяет его.
func (r *CatalogRepository) LoadSeedJSON(src io.Reader) error {
	c, err := seed.Decode(src)
	if err != nil {
		return err
	}
	return r.Apply(c)
}

// LoadSeedFile читает снимок из файла и применяет его.
func (r *CatalogRepository) LoadSeedFile(path string) error {
	c, err := seed.LoadFile(path)
	if err != nil {
		return err
	}
	return r.Apply(c)
}
