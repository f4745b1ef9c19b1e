package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Cart is the persisted cart snapshot. TotalItems and Subtotal are derived
// from Items and are rebuilt by Recalculate after every change.
type Cart struct {
	Items      []CartLine `json:"items"`
	TotalItems int        `json:"totalItems"`
	Subtotal   float64    `json:"subtotal"`
}

// CartLine is one distinct (product, size) variant in the cart.
type CartLine struct {
	ID          string  `json:"id"`
	ProductSlug string  `json:"productSlug"`
	Name        string  `json:"name"`
	Image       string  `json:"image"`
	Size        string  `json:"size"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Origin      string  `json:"origin"`
}

func NewCart() *Cart {
	return &Cart{Items: []CartLine{}}
}

// LineID builds the composite key of a cart line.
func LineID(productSlug, size string) string {
	return fmt.Sprintf("%s-%s", productSlug, size)
}

// Recalculate rebuilds TotalItems and Subtotal from the current lines.
func (c *Cart) Recalculate() {
	totalItems := 0
	subtotal := decimal.Zero
	for _, line := range c.Items {
		totalItems += line.Quantity
		subtotal = subtotal.Add(line.LineTotal())
	}
	c.TotalItems = totalItems
	c.Subtotal, _ = subtotal.Float64()
}

// Index returns the position of the line with the given id, or -1.
func (c *Cart) Index(id string) int {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy safe to hand to subscribers.
func (c *Cart) Clone() Cart {
	items := make([]CartLine, len(c.Items))
	copy(items, c.Items)
	return Cart{
		Items:      items,
		TotalItems: c.TotalItems,
		Subtotal:   c.Subtotal,
	}
}

func (l CartLine) LineTotal() decimal.Decimal {
	return decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity)))
}
