package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"farmmart/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrOrderIDTaken  = errors.New("order id already taken")
)

// OrderRepository defines the interface for order data access. External
// operations address orders by the human-readable order_id, never the
// internal primary key.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByOrderID(ctx context.Context, orderID string) (*domain.Order, error)
	ListAll(ctx context.Context) ([]*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID, status string) error
	DeleteByOrderID(ctx context.Context, orderID string) error
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create inserts the order and its line items in one transaction. A clash on
// the order_id unique index maps to ErrOrderIDTaken so the caller can
// regenerate and retry.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, order_id, user_id, status, payment_method,
			full_name, phone, street, city, state, pincode, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		order.ID,
		order.OrderID,
		order.UserID,
		order.Status,
		order.PaymentMethod,
		order.Address.FullName,
		order.Address.Phone,
		order.Address.Street,
		order.Address.City,
		order.Address.State,
		order.Address.Pincode,
		order.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "orders_order_id_key") {
			return ErrOrderIDTaken
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range order.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, price, quantity)
			VALUES ($1, $2, $3, $4)
		`, order.ID, item.ProductID, item.Price, item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	return nil
}

const orderColumns = `o.id, o.order_id, o.user_id, o.status, o.payment_method,
	o.full_name, o.phone, o.street, o.city, o.state, o.pincode, o.created_at`

// FindByOrderID retrieves a single order with its line items expanded.
func (r *orderRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.order_id = $1`

	order, err := scanOrderFrom(r.db.QueryRowContext(ctx, query, orderID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	if err := r.loadItems(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

// ListAll returns every order with user references expanded. Intended for
// admin listings.
func (r *orderRepository) ListAll(ctx context.Context) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `, u.name, u.email
		FROM orders o
		JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order := &domain.Order{}
		err := rows.Scan(
			&order.ID,
			&order.OrderID,
			&order.UserID,
			&order.Status,
			&order.PaymentMethod,
			&order.Address.FullName,
			&order.Address.Phone,
			&order.Address.Street,
			&order.Address.City,
			&order.Address.State,
			&order.Address.Pincode,
			&order.CreatedAt,
			&order.UserName,
			&order.UserEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// ListByUser returns the user's orders, newest first.
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.user_id = $1 ORDER BY o.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrderFrom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// UpdateStatus transitions an order's status, addressed by order_id.
func (r *orderRepository) UpdateStatus(ctx context.Context, orderID, status string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $2 WHERE order_id = $1`, orderID, status)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// DeleteByOrderID hard-deletes an order by its human-readable identifier.
// Line items cascade.
func (r *orderRepository) DeleteByOrderID(ctx context.Context, orderID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// loadItems fetches line items for the given orders in one query, resolving
// live product name/image for display. Snapshot prices come from the line
// item row, never the joined product.
func (r *orderRepository) loadItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Order, len(orders))
	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	query := `
		SELECT i.order_id, i.product_id, i.price, i.quantity, p.name, p.images
		FROM order_items i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.order_id = ANY($1)
	`

	rows, err := r.db.QueryContext(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID uuid.UUID
			item    domain.OrderItem
			name    sql.NullString
			images  []byte
		)
		if err := rows.Scan(&orderID, &item.ProductID, &item.Price, &item.Quantity, &name, &images); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		item.ProductName = name.String
		item.ProductImage = firstImage(images)

		if order, ok := byID[orderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}

	return nil
}

func scanOrderFrom(s rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	err := s.Scan(
		&order.ID,
		&order.OrderID,
		&order.UserID,
		&order.Status,
		&order.PaymentMethod,
		&order.Address.FullName,
		&order.Address.Phone,
		&order.Address.Street,
		&order.Address.City,
		&order.Address.State,
		&order.Address.Pincode,
		&order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}
