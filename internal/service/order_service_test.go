package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"farmmart/internal/domain"
	"farmmart/internal/payment"
	"farmmart/internal/repository"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockOrderRepository struct {
	orders map[string]*domain.Order
	// conflicts forces the next N creates to fail with ErrOrderIDTaken.
	conflicts int
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[string]*domain.Order)}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if m.conflicts > 0 {
		m.conflicts--
		return repository.ErrOrderIDTaken
	}
	if _, exists := m.orders[order.OrderID]; exists {
		return repository.ErrOrderIDTaken
	}
	m.orders[order.OrderID] = order
	return nil
}

func (m *mockOrderRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Order, error) {
	order, exists := m.orders[orderID]
	if !exists {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (m *mockOrderRepository) ListAll(ctx context.Context) ([]*domain.Order, error) {
	orders := []*domain.Order{}
	for _, order := range m.orders {
		orders = append(orders, order)
	}
	return orders, nil
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	orders := []*domain.Order{}
	for _, order := range m.orders {
		if order.UserID == userID {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, orderID, status string) error {
	order, exists := m.orders[orderID]
	if !exists {
		return repository.ErrOrderNotFound
	}
	order.Status = status
	return nil
}

func (m *mockOrderRepository) DeleteByOrderID(ctx context.Context, orderID string) error {
	if _, exists := m.orders[orderID]; !exists {
		return repository.ErrOrderNotFound
	}
	delete(m.orders, orderID)
	return nil
}

type orderServiceFixture struct {
	service   OrderService
	orderRepo *mockOrderRepository
	cartRepo  *mockCartRepository
	user      *domain.User
	product   *domain.Product
}

func newOrderServiceFixture(t *testing.T) *orderServiceFixture {
	t.Helper()
	ctx := context.Background()

	userRepo := newMockUserRepository()
	cartRepo := newMockCartRepository()
	productRepo := newMockProductRepository()
	orderRepo := newMockOrderRepository()

	user := &domain.User{ID: uuid.New(), Name: "Asha", Email: "asha@example.com", Role: domain.RoleCustomer, IsActive: true}
	require.NoError(t, userRepo.Create(ctx, user))

	product := &domain.Product{ID: uuid.New(), Name: "Mango Box", Price: 299, Category: "fruit"}
	require.NoError(t, productRepo.Create(ctx, product))

	return &orderServiceFixture{
		service:   NewOrderService(orderRepo, productRepo, cartRepo, userRepo, payment.NewMockProvider()),
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		user:      user,
		product:   product,
	}
}

func testShippingAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		FullName: "Asha Patil",
		Phone:    "9800000000",
		Street:   "12 MG Road",
		City:     "Pune",
		State:    "MH",
		Pincode:  "411001",
	}
}

var orderIDPattern = regexp.MustCompile(`^ORD-\d+$`)

// Feature: storefront-platform, Property 3: Order IDs are timestamp-shaped
func TestProperty_OrderIDsMatchReadableShape(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every placed order gets an ORD-<digits> id", prop.ForAll(
		func(quantity int) bool {
			f := newOrderServiceFixture(t)

			placed, err := f.service.CreateOrder(context.Background(), f.user.ID, CreateOrderInput{
				Items:         []OrderItemInput{{ProductID: f.product.ID, Quantity: quantity}},
				Address:       testShippingAddress(),
				PaymentMethod: domain.PaymentCashOnDelivery,
			})
			if err != nil {
				t.Logf("FAIL: CreateOrder failed: %v", err)
				return false
			}

			if !orderIDPattern.MatchString(placed.Order.OrderID) {
				t.Logf("FAIL: order id %q does not match ORD-<digits>", placed.Order.OrderID)
				return false
			}

			return true
		},
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestOrderService_RetriesOnOrderIDCollision(t *testing.T) {
	f := newOrderServiceFixture(t)
	f.orderRepo.conflicts = 2

	placed, err := f.service.CreateOrder(context.Background(), f.user.ID, CreateOrderInput{
		Items:         []OrderItemInput{{ProductID: f.product.ID, Quantity: 1}},
		Address:       testShippingAddress(),
		PaymentMethod: domain.PaymentCashOnDelivery,
	})
	require.NoError(t, err)
	assert.Regexp(t, orderIDPattern, placed.Order.OrderID)
	assert.Len(t, f.orderRepo.orders, 1)
}

func TestOrderService_GivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newOrderServiceFixture(t)
	f.orderRepo.conflicts = orderIDAttempts

	_, err := f.service.CreateOrder(context.Background(), f.user.ID, CreateOrderInput{
		Items:         []OrderItemInput{{ProductID: f.product.ID, Quantity: 1}},
		Address:       testShippingAddress(),
		PaymentMethod: domain.PaymentCashOnDelivery,
	})
	assert.Error(t, err)
	assert.Empty(t, f.orderRepo.orders)
}

func TestOrderService_RejectsEmptyOrder(t *testing.T) {
	f := newOrderServiceFixture(t)

	_, err := f.service.CreateOrder(context.Background(), f.user.ID, CreateOrderInput{
		Address:       testShippingAddress(),
		PaymentMethod: domain.PaymentCashOnDelivery,
	})
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestOrderService_RejectsUnknownPaymentMethod(t *testing.T) {
	f := newOrderServiceFixture(t)

	_, err := f.service.CreateOrder(context.Background(), f.user.ID, CreateOrderInput{
		Items:         []OrderItemInput{{ProductID: f.product.ID, Quantity: 1}},
		Address:       testShippingAddress(),
		PaymentMethod: domain.PaymentMethod("Barter"),
	})
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestOrderService_MergesDuplicateProductLines(t *testing.T) {
	f := newOrderServiceFixture(t)

	placed, err := f.service.CreateOrder(context.Background(), f.user.ID, CreateOrderInput{
		Items: []OrderItemInput{
			{ProductID: f.product.ID, Quantity: 2},
			{ProductID: f.product.ID, Quantity: 3},
		},
		Address:       testShippingAddress(),
		PaymentMethod: domain.PaymentCashOnDelivery,
	})
	require.NoError(t, err)

	require.Len(t, placed.Order.Items, 1)
	assert.Equal(t, f.product.ID, placed.Order.Items[0].ProductID)
	assert.Equal(t, 5, placed.Order.Items[0].Quantity)
	assert.InDelta(t, 299*5, placed.Order.TotalAmount(), 0.001)
}

func TestOrderService_SnapshotsCatalogPrices(t *testing.T) {
	f := newOrderServiceFixture(t)

	placed, err := f.service.CreateOrder(context.Background(), f.user.ID, CreateOrderInput{
		Items:         []OrderItemInput{{ProductID: f.product.ID, Quantity: 3}},
		Address:       testShippingAddress(),
		PaymentMethod: domain.PaymentCashOnDelivery,
	})
	require.NoError(t, err)

	require.Len(t, placed.Order.Items, 1)
	assert.Equal(t, 299.0, placed.Order.Items[0].Price)
	assert.Equal(t, 897.0, placed.Order.TotalAmount())

	// Catalog changes after placement do not touch the order.
	f.product.Price = 999

	found, err := f.service.GetByOrderID(context.Background(), placed.Order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, 299.0, found.Items[0].Price)
}

func TestOrderService_ClearsCartOnPlacement(t *testing.T) {
	f := newOrderServiceFixture(t)
	ctx := context.Background()

	require.NoError(t, f.cartRepo.UpsertItem(ctx, &domain.CartItem{
		UserID: f.user.ID, ProductID: f.product.ID, Quantity: 2, Name: f.product.Name, Price: f.product.Price,
	}))

	_, err := f.service.CreateOrder(ctx, f.user.ID, CreateOrderInput{
		Items:         []OrderItemInput{{ProductID: f.product.ID, Quantity: 2}},
		Address:       testShippingAddress(),
		PaymentMethod: domain.PaymentCashOnDelivery,
	})
	require.NoError(t, err)

	cart, err := f.cartRepo.ListByUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart)
}

func TestOrderService_OpensIntentForOnlinePayments(t *testing.T) {
	f := newOrderServiceFixture(t)
	ctx := context.Background()

	cod, err := f.service.CreateOrder(ctx, f.user.ID, CreateOrderInput{
		Items:         []OrderItemInput{{ProductID: f.product.ID, Quantity: 1}},
		Address:       testShippingAddress(),
		PaymentMethod: domain.PaymentCashOnDelivery,
	})
	require.NoError(t, err)
	assert.Nil(t, cod.Intent)

	upi, err := f.service.CreateOrder(ctx, f.user.ID, CreateOrderInput{
		Items:         []OrderItemInput{{ProductID: f.product.ID, Quantity: 2}},
		Address:       testShippingAddress(),
		PaymentMethod: domain.PaymentUPI,
	})
	require.NoError(t, err)
	require.NotNil(t, upi.Intent)
	assert.Equal(t, upi.Order.OrderID, upi.Intent.OrderID)
	assert.Equal(t, upi.Order.TotalAmount(), upi.Intent.Amount)
	assert.Equal(t, payment.IntentCreated, upi.Intent.Status)
}

func TestOrderService_CancelTransitionsOnce(t *testing.T) {
	f := newOrderServiceFixture(t)
	ctx := context.Background()

	placed, err := f.service.CreateOrder(ctx, f.user.ID, CreateOrderInput{
		Items:         []OrderItemInput{{ProductID: f.product.ID, Quantity: 1}},
		Address:       testShippingAddress(),
		PaymentMethod: domain.PaymentCashOnDelivery,
	})
	require.NoError(t, err)

	cancelled, err := f.service.CancelOrder(ctx, placed.Order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)

	_, err = f.service.CancelOrder(ctx, placed.Order.OrderID)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)

	_, err = f.service.CancelOrder(ctx, "ORD-0")
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestOrderService_DeleteRemovesRecord(t *testing.T) {
	f := newOrderServiceFixture(t)
	ctx := context.Background()

	placed, err := f.service.CreateOrder(ctx, f.user.ID, CreateOrderInput{
		Items:         []OrderItemInput{{ProductID: f.product.ID, Quantity: 1}},
		Address:       testShippingAddress(),
		PaymentMethod: domain.PaymentCashOnDelivery,
	})
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteOrder(ctx, placed.Order.OrderID))

	_, err = f.service.GetByOrderID(ctx, placed.Order.OrderID)
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)

	orders, err := f.service.ListByUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

// Orders placed in the same millisecond still get distinct ids because the
// service retries with extra digits on a unique-index conflict.
func TestOrderService_SameMillisecondOrdersGetDistinctIDs(t *testing.T) {
	f := newOrderServiceFixture(t)
	ctx := context.Background()

	fixed := time.Now()
	svc := f.service.(*orderService)
	svc.now = func() time.Time { return fixed }

	input := CreateOrderInput{
		Items:         []OrderItemInput{{ProductID: f.product.ID, Quantity: 1}},
		Address:       testShippingAddress(),
		PaymentMethod: domain.PaymentCashOnDelivery,
	}

	first, err := f.service.CreateOrder(ctx, f.user.ID, input)
	require.NoError(t, err)
	second, err := f.service.CreateOrder(ctx, f.user.ID, input)
	require.NoError(t, err)

	assert.NotEqual(t, first.Order.OrderID, second.Order.OrderID)
	assert.Regexp(t, orderIDPattern, second.Order.OrderID)
}
