// Package domain holds the operations model behind the admin pages:
// products, locations, tracking numbers and their activities.
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Dimensions of a product.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   string  `json:"unit"`
}

// Weight of a product.
type Weight struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Pricing is the base shipping cost of a product.
type Pricing struct {
	BaseCost decimal.Decimal `json:"baseCost"`
	Currency string          `json:"currency"`
}

// ErrSKUTaken is returned when another product already uses the SKU.
var ErrSKUTaken = errors.New("sku already in use")

// Product is a shippable item type identified by its SKU.
type Product struct {
	ID          string     `json:"id"`
	SKU         string     `json:"sku"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category"`
	Dimensions  Dimensions `json:"dimensions"`
	Weight      Weight     `json:"weight"`
	Pricing     Pricing    `json:"pricing"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CreatedBy   string     `json:"createdBy,omitempty"`
}

// ProductPatch is a partial product update; nil fields are left untouched.
type ProductPatch struct {
	SKU         *string     `json:"sku,omitempty"`
	Name        *string     `json:"name,omitempty"`
	Description *string     `json:"description,omitempty"`
	Category    *string     `json:"category,omitempty"`
	Dimensions  *Dimensions `json:"dimensions,omitempty"`
	Weight      *Weight     `json:"weight,omitempty"`
	Pricing     *Pricing    `json:"pricing,omitempty"`
	IsActive    *bool       `json:"isActive,omitempty"`
}

// Apply merges the patch into p.
func (patch ProductPatch) Apply(p *Product) {
	setIf(&p.SKU, patch.SKU)
	setIf(&p.Name, patch.Name)
	setIf(&p.Description, patch.Description)
	setIf(&p.Category, patch.Category)
	setIf(&p.Dimensions, patch.Dimensions)
	setIf(&p.Weight, patch.Weight)
	setIf(&p.Pricing, patch.Pricing)
	setIf(&p.IsActive, patch.IsActive)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
