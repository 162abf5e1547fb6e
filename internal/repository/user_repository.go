package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"farmmart/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user with this email already exists")
	ErrEmailInUse        = errors.New("email already in use by another account")
)

// UserRepository defines the interface for user data access. The wishlist
// lives here because it is owned by the user record, like the cart.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	ReplaceWishlist(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) error
	ListWishlist(ctx context.Context, userID uuid.UUID) ([]*domain.ProductRef, error)
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, password_hash, role, is_active, phone_number, address, created_at, updated_at`

// Create inserts a new user into the database using parameterized queries
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	address, err := marshalAddress(user.Address)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO users (id, name, email, password_hash, role, is_active, phone_number, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.IsActive,
		user.PhoneNumber,
		address,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// FindByEmail retrieves a user by email using parameterized queries
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

// FindByID retrieves a user by ID using parameterized queries
func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// List retrieves all users, newest first.
func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := r.scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// Update writes the mutable fields of a user record.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	address, err := marshalAddress(user.Address)
	if err != nil {
		return err
	}

	query := `
		UPDATE users
		SET name = $2, email = $3, role = $4, is_active = $5,
		    phone_number = $6, address = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Name,
		user.Email,
		user.Role,
		user.IsActive,
		user.PhoneNumber,
		address,
		user.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return ErrEmailInUse
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// Delete removes a user. Cart and wishlist rows cascade.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// ReplaceWishlist replaces the user's wishlist wholesale with the given
// product ids.
func (r *userRepository) ReplaceWishlist(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM wishlist_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear wishlist: %w", err)
	}

	for _, productID := range productIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO wishlist_items (user_id, product_id, added_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (user_id, product_id) DO NOTHING
		`, userID, productID)
		if err != nil {
			return fmt.Errorf("failed to add wishlist item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit wishlist: %w", err)
	}

	return nil
}

// ListWishlist returns live product display data for the user's wishlist.
// Products that have been removed from the catalog are skipped.
func (r *userRepository) ListWishlist(ctx context.Context, userID uuid.UUID) ([]*domain.ProductRef, error) {
	query := `
		SELECT p.id, p.name, p.price, p.images
		FROM wishlist_items w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1
		ORDER BY w.added_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist: %w", err)
	}
	defer rows.Close()

	refs := []*domain.ProductRef{}
	for rows.Next() {
		ref := &domain.ProductRef{}
		var images []byte
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.Price, &images); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist item: %w", err)
		}
		ref.Image = firstImage(images)
		refs = append(refs, ref)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wishlist: %w", err)
	}

	return refs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *userRepository) scanUser(row *sql.Row) (*domain.User, error) {
	user, err := scanUserFrom(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func (r *userRepository) scanUserRow(rows *sql.Rows) (*domain.User, error) {
	user, err := scanUserFrom(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}

func scanUserFrom(s rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var address []byte

	err := s.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.IsActive,
		&user.PhoneNumber,
		&address,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(address) > 0 {
		user.Address = &domain.Address{}
		if err := json.Unmarshal(address, user.Address); err != nil {
			return nil, fmt.Errorf("failed to decode address: %w", err)
		}
	}

	return user, nil
}

func marshalAddress(a *domain.Address) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode address: %w", err)
	}
	return b, nil
}

// firstImage decodes a JSONB string array and returns its first element.
func firstImage(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var images []string
	if err := json.Unmarshal(raw, &images); err != nil || len(images) == 0 {
		return ""
	}
	return images[0]
}
