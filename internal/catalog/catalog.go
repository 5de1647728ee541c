// Package catalog holds the static product list. Products are loaded once
// at boot and never mutated at runtime.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Price           decimal.Decimal  `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discounted_price,omitempty"`
	Stock           int              `json:"stock"`
	Category        string           `json:"category"`
	DownloadURL     string           `json:"download_url"`
}

// EffectivePrice is the discounted price when one is set, the base price
// otherwise.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.DiscountedPrice != nil {
		return *p.DiscountedPrice
	}
	return p.Price
}

// Purchasable reports whether the product can be bought at all.
func (p *Product) Purchasable() bool {
	return p.Stock > 0
}

type catalogFile struct {
	Products []Product `json:"products"`
}

type Catalog struct {
	byID  map[string]*Product
	order []string
}

func New(products []Product) *Catalog {
	c := &Catalog{byID: make(map[string]*Product, len(products))}
	for i := range products {
		p := products[i]
		if _, dup := c.byID[p.ID]; dup {
			continue
		}
		c.byID[p.ID] = &p
		c.order = append(c.order, p.ID)
	}
	return c
}

func LoadFromFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	return New(file.Products), nil
}

func (c *Catalog) Product(id string) (*Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Products returns the catalog in file order.
func (c *Catalog) Products() []*Product {
	out := make([]*Product, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// ByCategory returns the products of one category, in file order.
func (c *Catalog) ByCategory(category string) []*Product {
	var out []*Product
	for _, id := range c.order {
		if c.byID[id].Category == category {
			out = append(out, c.byID[id])
		}
	}
	return out
}

func (c *Catalog) Len() int {
	return len(c.byID)
}
