package models

import (
	"github.com/shopspring/decimal"

	"gofalre.io/storefront/models/enum"
)

// Product is a catalog entry. Each size is sold at its own price.
type Product struct {
	Slug        string        `json:"slug"`
	Name        string        `json:"name"`
	Origin      string        `json:"origin"`
	Notes       []string      `json:"notes"`
	Roast       enum.Roast    `json:"roast"`
	RoastLabel  string        `json:"roastLabel"`
	Sizes       []ProductSize `json:"sizes"`
	Description string        `json:"description"`
	Image       string        `json:"image"`
	Altitude    string        `json:"altitude"`
	Process     string        `json:"process"`
}

type ProductSize struct {
	Weight string          `json:"weight"`
	Price  decimal.Decimal `json:"price"`
}

// Size looks up a size by its label.
func (p *Product) Size(weight string) (ProductSize, bool) {
	for _, s := range p.Sizes {
		if s.Weight == weight {
			return s, true
		}
	}
	return ProductSize{}, false
}
