// Package catalog holds the products the storefront sells and turns a
// (slug, size) choice into a priced cart line.
package catalog

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"gofalre.io/storefront/cart"
	"gofalre.io/storefront/models"
	"gofalre.io/storefront/models/enum"
)

var (
	ErrProductNotFound = errors.New("catalog: product not found")
	ErrSizeNotFound    = errors.New("catalog: size not available")
)

var _ Catalog = (*catalog)(nil)

type Catalog interface {
	List() []models.Product
	Get(slug string) (models.Product, error)
	ByRoast(roast enum.Roast) []models.Product
	// Line resolves slug and size into a cart line at the catalog price.
	Line(slug, size string, quantity int) (cart.Line, error)
}

type catalog struct {
	products []models.Product
	bySlug   map[string]int
}

// New indexes products by slug. Later duplicates are ignored.
func New(products []models.Product) Catalog {
	c := &catalog{bySlug: make(map[string]int, len(products))}
	for _, p := range products {
		if _, dup := c.bySlug[p.Slug]; dup {
			continue
		}
		c.bySlug[p.Slug] = len(c.products)
		c.products = append(c.products, p)
	}
	return c
}

// Default returns the house catalog.
func Default() Catalog {
	return New(Products())
}

func (c *catalog) List() []models.Product {
	out := make([]models.Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *catalog) Get(slug string) (models.Product, error) {
	idx, ok := c.bySlug[slug]
	if !ok {
		return models.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, slug)
	}
	return c.products[idx], nil
}

func (c *catalog) ByRoast(roast enum.Roast) []models.Product {
	var out []models.Product
	for _, p := range c.products {
		if p.Roast == roast {
			out = append(out, p)
		}
	}
	return out
}

func (c *catalog) Line(slug, size string, quantity int) (cart.Line, error) {
	p, err := c.Get(slug)
	if err != nil {
		return cart.Line{}, err
	}
	s, ok := p.Size(size)
	if !ok {
		return cart.Line{}, fmt.Errorf("%w: %s %s", ErrSizeNotFound, slug, size)
	}
	return cart.Line{
		ProductSlug: p.Slug,
		Name:        p.Name,
		Image:       p.Image,
		Size:        s.Weight,
		Price:       s.Price.InexactFloat64(),
		Quantity:    quantity,
		Origin:      p.Origin,
	}, nil
}

// Products returns a fresh copy of the house coffees.
func Products() []models.Product {
	return []models.Product{
		{
			Slug:       "aurora-alba",
			Name:       "Aurora Alba",
			Origin:     "Etiopía",
			Notes:      []string{"jazmín", "cítricos", "miel"},
			Roast:      enum.RoastLight,
			RoastLabel: "Tueste claro",
			Sizes: []models.ProductSize{
				{Weight: "250g", Price: decimal.NewFromInt(14)},
				{Weight: "1kg", Price: decimal.NewFromInt(45)},
			},
			Description: "Un café etíope de altura que despierta los sentidos con sus notas florales de jazmín, seguidas de cítricos brillantes y un final dulce a miel. Ideal para métodos de filtrado como V60 o Chemex.",
			Image:       "/products/aurora-alba.png",
			Altitude:    "1800-2200 msnm",
			Process:     "Lavado",
		},
		{
			Slug:       "medianoche",
			Name:       "Medianoche",
			Origin:     "Guatemala",
			Notes:      []string{"cacao", "caramelo", "avellana"},
			Roast:      enum.RoastMedium,
			RoastLabel: "Tueste medio",
			Sizes: []models.ProductSize{
				{Weight: "250g", Price: decimal.NewFromInt(12)},
				{Weight: "1kg", Price: decimal.NewFromInt(38)},
			},
			Description: "Un clásico guatemalteco con cuerpo balanceado y dulzura natural. Las notas de cacao oscuro se entrelazan con caramelo y avellana tostada. Perfecto para espresso o prensa francesa.",
			Image:       "/products/medianoche.png",
			Altitude:    "1400-1700 msnm",
			Process:     "Honey",
		},
		{
			Slug:       "bruma",
			Name:       "Bruma",
			Origin:     "Colombia",
			Notes:      []string{"panela", "ciruela", "canela"},
			Roast:      enum.RoastMediumDark,
			RoastLabel: "Tueste medio-oscuro",
			Sizes: []models.ProductSize{
				{Weight: "250g", Price: decimal.NewFromInt(13)},
				{Weight: "1kg", Price: decimal.NewFromInt(42)},
			},
			Description: "Café colombiano de las montañas de Huila. Con cuerpo redondo y dulzor profundo a panela, acompañado de notas de ciruela madura y un toque especiado de canela. Excelente para moka o café con leche.",
			Image:       "/products/bruma.png",
			Altitude:    "1600-1900 msnm",
			Process:     "Natural",
		},
	}
}
