package domain

import (
	"time"

	"github.com/google/uuid"
)

// Priority is a message's urgency level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValidPriority reports whether p is a known priority.
func IsValidPriority(p Priority) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Message is a customer-to-admin message with optional attachments and a
// read/unread flag. Sender and Recipient are optional; Customer always
// references the originating customer account.
type Message struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	CustomerID  uuid.UUID  `json:"customer_id" db:"customer_id"`
	SenderID    *uuid.UUID `json:"sender_id,omitempty" db:"sender_id"`
	RecipientID *uuid.UUID `json:"recipient_id,omitempty" db:"recipient_id"`
	Subject     string     `json:"subject" db:"subject"`
	Content     string     `json:"content" db:"content"`
	IsRead      bool       `json:"is_read" db:"is_read"`
	Priority    Priority   `json:"priority" db:"priority"`
	Attachments []string   `json:"attachments" db:"attachments"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`

	// CustomerName and CustomerEmail are resolved for admin listings.
	CustomerName  string `json:"customer_name,omitempty" db:"-"`
	CustomerEmail string `json:"customer_email,omitempty" db:"-"`
}
