package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"farmmart/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestUser(email string) *domain.User {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.User{
		ID:           uuid.New(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: "$2a$10$examplehashexamplehashexamplehashexampleha",
		Role:         domain.RoleCustomer,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@example.com", prefix, uuid.New().String()[:8])
}

// Feature: storefront-platform, Property 1: Stored credentials are never plaintext
func TestProperty_StoredPasswordsAreHashed(t *testing.T) {
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	properties := gopter.NewProperties(nil)

	properties.Property("round-tripped password hashes verify and differ from plaintext", prop.ForAll(
		func(password string) bool {
			hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return false
			}

			user := newTestUser(uniqueEmail("hash"))
			user.PasswordHash = string(hashed)

			if err := repo.Create(ctx, user); err != nil {
				t.Logf("failed to create user: %v", err)
				return false
			}

			found, err := repo.FindByEmail(ctx, user.Email)
			if err != nil {
				return false
			}

			if found.PasswordHash == password {
				return false
			}
			return bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password)) == nil
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) >= 8 && len(s) <= 60 }),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	user := newTestUser(uniqueEmail("create"))
	user.PhoneNumber = "5550100"
	user.Address = &domain.Address{
		Address:    "12 Main St",
		City:       "Pune",
		PostalCode: "411001",
		Country:    "India",
	}
	require.NoError(t, repo.Create(ctx, user))

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, found.Email)
	assert.Equal(t, domain.RoleCustomer, found.Role)
	require.NotNil(t, found.Address)
	assert.Equal(t, "Pune", found.Address.City)

	byEmail, err := repo.FindByEmail(ctx, strings.ToLower(user.Email))
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
}

func TestUserRepository_FindMissingReturnsNotFound(t *testing.T) {
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	_, err := repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = repo.FindByEmail(ctx, uniqueEmail("missing"))
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_DuplicateEmailRejected(t *testing.T) {
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	email := uniqueEmail("dup")
	require.NoError(t, repo.Create(ctx, newTestUser(email)))

	err := repo.Create(ctx, newTestUser(email))
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestUserRepository_UpdateEmailConflict(t *testing.T) {
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	first := newTestUser(uniqueEmail("first"))
	second := newTestUser(uniqueEmail("second"))
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	second.Email = first.Email
	err := repo.Update(ctx, second)
	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestUserRepository_Wishlist(t *testing.T) {
	userRepo := NewUserRepository(testDB)
	productRepo := NewProductRepository(testDB)
	ctx := context.Background()

	user := newTestUser(uniqueEmail("wishlist"))
	require.NoError(t, userRepo.Create(ctx, user))

	first := newTestProduct("Wishlist Apple")
	second := newTestProduct("Wishlist Mango")
	require.NoError(t, productRepo.Create(ctx, first))
	require.NoError(t, productRepo.Create(ctx, second))

	// Replace with both products
	require.NoError(t, userRepo.ReplaceWishlist(ctx, user.ID, []uuid.UUID{first.ID, second.ID}))

	wishlist, err := userRepo.ListWishlist(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, wishlist, 2)

	// Replacing again drops what is no longer listed
	require.NoError(t, userRepo.ReplaceWishlist(ctx, user.ID, []uuid.UUID{second.ID}))

	wishlist, err = userRepo.ListWishlist(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, wishlist, 1)
	assert.Equal(t, second.ID, wishlist[0].ID)

	// Empty replacement clears the wishlist
	require.NoError(t, userRepo.ReplaceWishlist(ctx, user.ID, nil))

	wishlist, err = userRepo.ListWishlist(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, wishlist)
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	userRepo := NewUserRepository(testDB)
	cartRepo := NewCartRepository(testDB)
	productRepo := NewProductRepository(testDB)
	ctx := context.Background()

	user := newTestUser(uniqueEmail("delete"))
	require.NoError(t, userRepo.Create(ctx, user))

	product := newTestProduct("Delete Cascade Pear")
	require.NoError(t, productRepo.Create(ctx, product))

	require.NoError(t, cartRepo.UpsertItem(ctx, &domain.CartItem{
		UserID:    user.ID,
		ProductID: product.ID,
		Quantity:  2,
		Name:      product.Name,
		Price:     product.Price,
		UpdatedAt: time.Now(),
	}))

	require.NoError(t, userRepo.Delete(ctx, user.ID))

	_, err := userRepo.FindByID(ctx, user.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	cart, err := cartRepo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart)

	assert.ErrorIs(t, userRepo.Delete(ctx, user.ID), ErrUserNotFound)
}
