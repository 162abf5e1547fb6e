package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"farmmart/internal/domain"
	"farmmart/internal/repository"

	"github.com/google/uuid"
)

var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// CartService defines the interface for cart business logic
type CartService interface {
	AddOrUpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) ([]*domain.CartItem, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) ([]*domain.CartItem, error)
	GetCart(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(
	cartRepo repository.CartRepository,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		userRepo:    userRepo,
		productRepo: productRepo,
	}
}

// AddOrUpdateItem sets the quantity of a product in the user's cart. The
// write replaces any prior quantity rather than incrementing it, and
// captures a snapshot of the product's name, price and image at the time
// of the write. Returns the full cart after the change.
func (s *cartService) AddOrUpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) ([]*domain.CartItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	item := &domain.CartItem{
		UserID:     userID,
		ProductID:  productID,
		Quantity:   quantity,
		Name:       product.Name,
		Price:      product.Price,
		Dimensions: product.Dimensions,
		UpdatedAt:  time.Now(),
	}
	if len(product.Images) > 0 {
		item.Image = product.Images[0]
	}

	if err := s.cartRepo.UpsertItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to upsert cart item: %w", err)
	}

	return s.cartRepo.ListByUser(ctx, userID)
}

// RemoveItem deletes a product from the user's cart. Removing a product
// that is not in the cart is not an error. Returns the remaining cart.
func (s *cartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) ([]*domain.CartItem, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.cartRepo.RemoveItem(ctx, userID, productID); err != nil {
		return nil, fmt.Errorf("failed to remove cart item: %w", err)
	}

	return s.cartRepo.ListByUser(ctx, userID)
}

// GetCart returns the user's cart items.
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error) {
	return s.cartRepo.ListByUser(ctx, userID)
}
