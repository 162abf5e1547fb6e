package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"farmmart/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateReview = errors.New("product already reviewed by this user")
)

// ProductRepository defines the interface for product data access, including
// review aggregation.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Search(ctx context.Context, keyword string, page, pageSize int) ([]*domain.Product, int, error)
	ListByCategory(ctx context.Context, category string) ([]*domain.Product, error)
	AddReview(ctx context.Context, review *domain.Review) (*domain.Product, error)
	ListReviews(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, description, price, category, images, stock, is_active, dimensions, specifications, average_rating, created_at, updated_at`

// Create inserts a new product into the database using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	images, specs, err := marshalProductJSON(product)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (id, name, description, price, category, images, stock, is_active, dimensions, specifications, average_rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.Category,
		images,
		product.Stock,
		product.IsActive,
		product.Dimensions,
		specs,
		product.AverageRating,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update updates an existing product in the database using parameterized queries
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	images, specs, err := marshalProductJSON(product)
	if err != nil {
		return err
	}

	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, category = $5, images = $6,
		    stock = $7, is_active = $8, dimensions = $9, specifications = $10, updated_at = $11
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.Category,
		images,
		product.Stock,
		product.IsActive,
		product.Dimensions,
		specs,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Delete removes a product from the database using parameterized queries.
// Reviews cascade; cart and order line items keep their snapshots.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProductFrom(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// Search retrieves products matching the keyword (case-insensitive, against
// name) with pagination. An empty keyword returns the whole catalog.
func (r *productRepository) Search(ctx context.Context, keyword string, page, pageSize int) ([]*domain.Product, int, error) {
	whereClause := ""
	args := []interface{}{}
	argIndex := 1

	if strings.TrimSpace(keyword) != "" {
		whereClause = fmt.Sprintf("WHERE name ILIKE $%d", argIndex)
		args = append(args, "%"+keyword+"%")
		argIndex++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, productColumns, whereClause, argIndex, argIndex+1)

	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search products: %w", err)
	}
	defer rows.Close()

	products, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// ListByCategory retrieves all products in a category.
func (r *productRepository) ListByCategory(ctx context.Context, category string) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE category = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list products by category: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// AddReview inserts a review and recomputes the product's average rating in
// the same transaction. A second review by the same user hits the unique
// index and maps to ErrDuplicateReview, leaving the average untouched.
func (r *productRepository) AddReview(ctx context.Context, review *domain.Review) (*domain.Product, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO product_reviews (id, product_id, user_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, review.ID, review.ProductID, review.UserID, review.Rating, review.Comment, review.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "product_reviews_one_per_user") {
			return nil, ErrDuplicateReview
		}
		return nil, fmt.Errorf("failed to insert review: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE products
		SET average_rating = (
			SELECT AVG(rating) FROM product_reviews WHERE product_id = $1
		), updated_at = NOW()
		WHERE id = $1
	`, review.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to recompute average rating: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrProductNotFound
	}

	product, err := scanProductFrom(tx.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, review.ProductID))
	if err != nil {
		return nil, fmt.Errorf("failed to reload product: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit review: %w", err)
	}

	return product, nil
}

// ListReviews returns all reviews for a product, newest first.
func (r *productRepository) ListReviews(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	query := `
		SELECT id, product_id, user_id, rating, comment, created_at
		FROM product_reviews
		WHERE product_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*domain.Review{}
	for rows.Next() {
		review := &domain.Review{}
		err := rows.Scan(
			&review.ID,
			&review.ProductID,
			&review.UserID,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}

func marshalProductJSON(product *domain.Product) (images, specs []byte, err error) {
	if product.Images == nil {
		product.Images = []string{}
	}
	images, err = json.Marshal(product.Images)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode images: %w", err)
	}

	if product.Specifications != nil {
		specs, err = json.Marshal(product.Specifications)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode specifications: %w", err)
		}
	}

	return images, specs, nil
}

func scanProductFrom(s rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	var images, specs []byte

	err := s.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Category,
		&images,
		&product.Stock,
		&product.IsActive,
		&product.Dimensions,
		&specs,
		&product.AverageRating,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(images, &product.Images); err != nil {
		return nil, fmt.Errorf("failed to decode images: %w", err)
	}
	if len(specs) > 0 {
		if err := json.Unmarshal(specs, &product.Specifications); err != nil {
			return nil, fmt.Errorf("failed to decode specifications: %w", err)
		}
	}

	return product, nil
}

func collectProducts(rows *sql.Rows) ([]*domain.Product, error) {
	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProductFrom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}
