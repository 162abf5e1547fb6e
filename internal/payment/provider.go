// Package payment abstracts the online payment gateway. Cash on
// delivery bypasses the gateway entirely; UPI and card payments go
// through a Provider.
package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrIntentNotFound = errors.New("payment intent not found")
	ErrAmountInvalid  = errors.New("payment amount must be positive")
)

// IntentStatus is the lifecycle state of a payment intent.
type IntentStatus string

const (
	IntentCreated   IntentStatus = "created"
	IntentCaptured  IntentStatus = "captured"
	IntentFailed    IntentStatus = "failed"
	IntentCancelled IntentStatus = "cancelled"
)

// Intent is a pending or settled payment at the gateway.
type Intent struct {
	ID        string       `json:"id"`
	OrderID   string       `json:"order_id"`
	Amount    float64      `json:"amount"`
	Currency  string       `json:"currency"`
	Status    IntentStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// Provider is the gateway contract.
type Provider interface {
	CreateIntent(ctx context.Context, orderID string, amount float64, currency string) (*Intent, error)
	Capture(ctx context.Context, intentID string) (*Intent, error)
	Cancel(ctx context.Context, intentID string) (*Intent, error)
}

// mockProvider is an in-memory gateway used in development and tests.
type mockProvider struct {
	mu      sync.Mutex
	intents map[string]*Intent
}

// NewMockProvider creates a Provider that settles every capture
// immediately without talking to a real gateway.
func NewMockProvider() Provider {
	return &mockProvider{intents: make(map[string]*Intent)}
}

func (p *mockProvider) CreateIntent(ctx context.Context, orderID string, amount float64, currency string) (*Intent, error) {
	if amount <= 0 {
		return nil, ErrAmountInvalid
	}

	intent := &Intent{
		ID:        "pi_" + uuid.New().String(),
		OrderID:   orderID,
		Amount:    amount,
		Currency:  currency,
		Status:    IntentCreated,
		CreatedAt: time.Now(),
	}

	p.mu.Lock()
	p.intents[intent.ID] = intent
	p.mu.Unlock()

	return intent, nil
}

func (p *mockProvider) Capture(ctx context.Context, intentID string) (*Intent, error) {
	return p.transition(intentID, IntentCreated, IntentCaptured)
}

func (p *mockProvider) Cancel(ctx context.Context, intentID string) (*Intent, error) {
	return p.transition(intentID, IntentCreated, IntentCancelled)
}

func (p *mockProvider) transition(intentID string, from, to IntentStatus) (*Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	intent, ok := p.intents[intentID]
	if !ok {
		return nil, ErrIntentNotFound
	}
	if intent.Status != from {
		return nil, fmt.Errorf("intent %s is %s, expected %s", intentID, intent.Status, from)
	}

	intent.Status = to
	copied := *intent
	return &copied, nil
}
