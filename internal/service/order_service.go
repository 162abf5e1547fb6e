package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"farmmart/internal/domain"
	"farmmart/internal/payment"
	"farmmart/internal/repository"

	"github.com/google/uuid"
)

const orderIDAttempts = 3

var (
	ErrEmptyOrder           = errors.New("order has no items")
	ErrOrderNotOwned        = errors.New("order does not belong to user")
	ErrAlreadyCancelled     = errors.New("order is already cancelled")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)

// OrderItemInput is one line of a new order.
type OrderItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// CreateOrderInput carries everything needed to place an order.
type CreateOrderInput struct {
	Items         []OrderItemInput
	Address       domain.ShippingAddress
	PaymentMethod domain.PaymentMethod
}

// PlacedOrder is the result of placing an order. Intent is set only for
// gateway payment methods.
type PlacedOrder struct {
	Order  *domain.Order   `json:"order"`
	Intent *payment.Intent `json:"payment_intent,omitempty"`
}

// OrderService defines the interface for order business logic
type OrderService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*PlacedOrder, error)
	GetByOrderID(ctx context.Context, orderID string) (*domain.Order, error)
	ListAll(ctx context.Context) ([]*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	CancelOrder(ctx context.Context, orderID string) (*domain.Order, error)
	DeleteOrder(ctx context.Context, orderID string) error
}

type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	userRepo    repository.UserRepository
	provider    payment.Provider
	now         func() time.Time
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	cartRepo repository.CartRepository,
	userRepo repository.UserRepository,
	provider payment.Provider,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		userRepo:    userRepo,
		provider:    provider,
		now:         time.Now,
	}
}

// CreateOrder places an order. Prices are snapshotted from the catalog
// at placement time, the human-readable order ID is generated from the
// current timestamp, and the user's cart is cleared once the order is
// stored. Online payment methods additionally open a gateway intent.
func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*PlacedOrder, error) {
	if len(input.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if !domain.IsValidPaymentMethod(string(input.PaymentMethod)) {
		return nil, ErrInvalidPaymentMethod
	}

	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	// Lines naming the same product are merged, summing quantities, so
	// one catalog lookup and one row per product.
	items := make([]domain.OrderItem, 0, len(input.Items))
	lineIndex := make(map[uuid.UUID]int, len(input.Items))
	for _, line := range input.Items {
		if line.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		if i, seen := lineIndex[line.ProductID]; seen {
			items[i].Quantity += line.Quantity
			continue
		}
		product, err := s.productRepo.FindByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		lineIndex[line.ProductID] = len(items)
		items = append(items, domain.OrderItem{
			ProductID: product.ID,
			Price:     product.Price,
			Quantity:  line.Quantity,
		})
	}

	now := s.now()
	order := &domain.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Status:        domain.OrderStatusPlaced,
		Items:         items,
		Address:       input.Address,
		PaymentMethod: input.PaymentMethod,
		CreatedAt:     now,
	}

	if err := s.createWithUniqueOrderID(ctx, order, now); err != nil {
		return nil, err
	}

	if err := s.cartRepo.ClearByUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	placed := &PlacedOrder{Order: order}
	if input.PaymentMethod != domain.PaymentCashOnDelivery {
		intent, err := s.provider.CreateIntent(ctx, order.OrderID, order.TotalAmount(), "INR")
		if err != nil {
			return nil, fmt.Errorf("failed to create payment intent: %w", err)
		}
		placed.Intent = intent
	}

	return placed, nil
}

// createWithUniqueOrderID inserts the order, regenerating the readable
// ID when two orders land on the same millisecond.
func (s *orderService) createWithUniqueOrderID(ctx context.Context, order *domain.Order, now time.Time) error {
	for attempt := 0; attempt < orderIDAttempts; attempt++ {
		order.OrderID = generateOrderID(now, attempt)
		err := s.orderRepo.Create(ctx, order)
		if err == nil {
			return nil
		}
		if err != repository.ErrOrderIDTaken {
			return fmt.Errorf("failed to create order: %w", err)
		}
	}
	return fmt.Errorf("failed to create order: could not allocate order id after %d attempts", orderIDAttempts)
}

// generateOrderID builds the readable order ID. The first attempt uses
// the bare millisecond timestamp; retries append random digits so the
// ID still matches the ORD-<digits> shape.
func generateOrderID(now time.Time, attempt int) string {
	if attempt == 0 {
		return fmt.Sprintf("ORD-%d", now.UnixMilli())
	}
	return fmt.Sprintf("ORD-%d%03d", now.UnixMilli(), rand.Intn(1000))
}

// GetByOrderID returns an order by its readable ID.
func (s *orderService) GetByOrderID(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orderRepo.FindByOrderID(ctx, orderID)
}

// ListAll returns every order for the admin panel, newest first.
func (s *orderService) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return s.orderRepo.ListAll(ctx)
}

// ListByUser returns the user's orders, newest first.
func (s *orderService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}

// CancelOrder marks an order cancelled, keeping its record.
func (s *orderService) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orderRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == domain.OrderStatusCancelled {
		return nil, ErrAlreadyCancelled
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, domain.OrderStatusCancelled); err != nil {
		return nil, err
	}

	order.Status = domain.OrderStatusCancelled
	return order, nil
}

// DeleteOrder removes an order entirely.
func (s *orderService) DeleteOrder(ctx context.Context, orderID string) error {
	return s.orderRepo.DeleteByOrderID(ctx, orderID)
}
