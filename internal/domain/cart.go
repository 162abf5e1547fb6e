package domain

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one line in a user's cart. Name, Price, Image and Dimensions
// are snapshots copied from the product at write time; they are never
// re-derived from the catalog, so the cart stays displayable even after the
// product record changes or disappears.
type CartItem struct {
	UserID     uuid.UUID `json:"-" db:"user_id"`
	ProductID  uuid.UUID `json:"product_id" db:"product_id"`
	Quantity   int       `json:"quantity" db:"quantity"`
	Name       string    `json:"name" db:"name"`
	Price      float64   `json:"price" db:"price"`
	Image      string    `json:"image" db:"image"`
	Dimensions string    `json:"dimensions" db:"dimensions"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`

	// Product carries live catalog data for display. Nil when the product
	// has since been removed from the catalog.
	Product *ProductRef `json:"product,omitempty" db:"-"`
}

// ProductRef is the live display subset of a product, resolved at read time.
type ProductRef struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	Image      string    `json:"image,omitempty"`
	Dimensions string    `json:"dimensions,omitempty"`
}

// LineTotal returns the snapshot price times quantity.
func (i *CartItem) LineTotal() float64 {
	return i.Price * float64(i.Quantity)
}
