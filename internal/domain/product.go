package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a product in the catalog
type Product struct {
	ID             uuid.UUID         `json:"id" db:"id"`
	Name           string            `json:"name" db:"name"`
	Description    string            `json:"description" db:"description"`
	Price          float64           `json:"price" db:"price"`
	Category       string            `json:"category" db:"category"`
	Images         []string          `json:"images" db:"images"`
	Stock          int               `json:"stock" db:"stock"`
	IsActive       bool              `json:"is_active" db:"is_active"`
	Dimensions     string            `json:"dimensions" db:"dimensions"`
	Specifications map[string]string `json:"specifications,omitempty" db:"specifications"`
	AverageRating  float64           `json:"average_rating" db:"average_rating"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at" db:"updated_at"`
}

// Review is a single user's rating of a product. A user may review a given
// product at most once; the average is recomputed whenever a review lands.
type Review struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
