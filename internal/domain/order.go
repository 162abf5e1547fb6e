package domain

import (
	"time"

	"github.com/google/uuid"
)

// Order status values. Orders are immutable apart from the Placed->Cancelled
// transition; everything else about a placed order is frozen at creation.
const (
	OrderStatusPlaced    = "Placed"
	OrderStatusCancelled = "Cancelled"
)

// PaymentMethod is one of a fixed set of accepted payment options.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "Cash on Delivery"
	PaymentUPI            PaymentMethod = "UPI"
	PaymentCard           PaymentMethod = "Credit/Debit Card"
)

// IsValidPaymentMethod reports whether s is an accepted payment method.
func IsValidPaymentMethod(s string) bool {
	switch PaymentMethod(s) {
	case PaymentCashOnDelivery, PaymentUPI, PaymentCard:
		return true
	}
	return false
}

// ShippingAddress is the delivery address captured on an order. All fields
// are required at creation.
type ShippingAddress struct {
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Street   string `json:"street" validate:"required"`
	City     string `json:"city" validate:"required"`
	State    string `json:"state" validate:"required"`
	Pincode  string `json:"pincode" validate:"required"`
}

// OrderItem is a line item on an order. Price is a snapshot taken at order
// time, independent of the live catalog price. ProductName and ProductImage
// are resolved from the catalog at read time for display.
type OrderItem struct {
	ProductID    uuid.UUID `json:"product_id" db:"product_id"`
	Price        float64   `json:"price" db:"price"`
	Quantity     int       `json:"quantity" db:"quantity"`
	ProductName  string    `json:"product_name,omitempty" db:"-"`
	ProductImage string    `json:"product_image,omitempty" db:"-"`
}

// Order is an immutable record of a completed checkout. OrderID is the
// human-readable identifier (ORD-<integer>) assigned exactly once before
// first persistence; external operations address orders by it, not by ID.
type Order struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	OrderID       string          `json:"order_id" db:"order_id"`
	UserID        uuid.UUID       `json:"user_id" db:"user_id"`
	Status        string          `json:"status" db:"status"`
	Items         []OrderItem     `json:"products" db:"-"`
	Address       ShippingAddress `json:"address" db:"-"`
	PaymentMethod PaymentMethod   `json:"payment_method" db:"payment_method"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`

	// UserName and UserEmail are resolved for admin listings.
	UserName  string `json:"user_name,omitempty" db:"-"`
	UserEmail string `json:"user_email,omitempty" db:"-"`
}

// TotalAmount sums the snapshot line totals.
func (o *Order) TotalAmount() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}
