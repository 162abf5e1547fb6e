package repository

import (
	"context"
	"database/sql"
	"fmt"

	"farmmart/internal/domain"

	"github.com/google/uuid"
)

// CartRepository defines the interface for cart line item access. Line items
// are keyed by (user, product); a write for an existing key replaces the
// quantity and refreshes the snapshot in a single upsert, so concurrent
// writes for the same user cannot lose each other's rows.
type CartRepository interface {
	UpsertItem(ctx context.Context, item *domain.CartItem) error
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error)
	ClearByUser(ctx context.Context, userID uuid.UUID) error
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

// UpsertItem writes a cart line item. Last write wins: an existing line for
// the same product gets its quantity replaced, not incremented, and its
// snapshot fields overwritten.
func (r *cartRepository) UpsertItem(ctx context.Context, item *domain.CartItem) error {
	query := `
		INSERT INTO cart_items (user_id, product_id, quantity, name, price, image, dimensions, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, product_id) DO UPDATE
		SET quantity = EXCLUDED.quantity,
		    name = EXCLUDED.name,
		    price = EXCLUDED.price,
		    image = EXCLUDED.image,
		    dimensions = EXCLUDED.dimensions,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		item.UserID,
		item.ProductID,
		item.Quantity,
		item.Name,
		item.Price,
		item.Image,
		item.Dimensions,
		item.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}

	return nil
}

// RemoveItem deletes a cart line item. Removing an absent item is not an
// error.
func (r *cartRepository) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}

	return nil
}

// ListByUser returns the user's cart with live product display data joined
// in. The snapshot columns are returned as stored; the joined product may be
// absent if it was deleted from the catalog since the item was added.
func (r *cartRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error) {
	query := `
		SELECT c.user_id, c.product_id, c.quantity, c.name, c.price, c.image, c.dimensions, c.updated_at,
		       p.id, p.name, p.price, p.images, p.dimensions
		FROM cart_items c
		LEFT JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.updated_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	items := []*domain.CartItem{}
	for rows.Next() {
		item := &domain.CartItem{}
		var (
			refID         sql.Null[uuid.UUID]
			refName       sql.NullString
			refPrice      sql.NullFloat64
			refImages     []byte
			refDimensions sql.NullString
		)

		err := rows.Scan(
			&item.UserID,
			&item.ProductID,
			&item.Quantity,
			&item.Name,
			&item.Price,
			&item.Image,
			&item.Dimensions,
			&item.UpdatedAt,
			&refID,
			&refName,
			&refPrice,
			&refImages,
			&refDimensions,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}

		if refID.Valid {
			item.Product = &domain.ProductRef{
				ID:         refID.V,
				Name:       refName.String,
				Price:      refPrice.Float64,
				Image:      firstImage(refImages),
				Dimensions: refDimensions.String,
			}
		}

		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}

// ClearByUser removes every line item in the user's cart.
func (r *cartRepository) ClearByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
