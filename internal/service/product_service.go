package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"farmmart/internal/ai"
	"farmmart/internal/domain"
	"farmmart/internal/images"
	"farmmart/internal/repository"

	"github.com/google/uuid"
)

// ProductPageSize is the number of products returned per search page.
const ProductPageSize = 10

var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// ImageUpload is one image file received from a multipart form.
type ImageUpload struct {
	Filename string
	Reader   io.Reader
}

// CreateProductInput carries the fields of a new product.
type CreateProductInput struct {
	Name           string
	Description    string
	Price          float64
	Category       string
	Stock          int
	Dimensions     string
	Specifications map[string]string
	Images         []ImageUpload
}

// UpdateProductInput carries a partial product update. Nil pointers
// leave the current value untouched.
type UpdateProductInput struct {
	Name           *string
	Description    *string
	Price          *float64
	Category       *string
	Stock          *int
	IsActive       *bool
	Dimensions     *string
	Specifications map[string]string
	AddImages      []ImageUpload
	RemoveImages   []string
}

// ProductPage is one page of search results.
type ProductPage struct {
	Products   []*domain.Product `json:"products"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	TotalPages int               `json:"total_pages"`
}

// ProductService defines the interface for catalog business logic
type ProductService interface {
	Search(ctx context.Context, query string, page int) (*ProductPage, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListByCategory(ctx context.Context, category string) ([]*domain.Product, error)
	Create(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddReview(ctx context.Context, productID, userID uuid.UUID, rating int, comment string) (*domain.Product, error)
	ListReviews(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error)
	GenerateDescription(ctx context.Context, id uuid.UUID) (string, error)
}

type productService struct {
	productRepo repository.ProductRepository
	imageStore  images.Store
	summarizer  ai.Summarizer
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	productRepo repository.ProductRepository,
	imageStore images.Store,
	summarizer ai.Summarizer,
) ProductService {
	return &productService{
		productRepo: productRepo,
		imageStore:  imageStore,
		summarizer:  summarizer,
	}
}

// Search returns a page of products matching the query, newest first.
// An empty query matches everything.
func (s *productService) Search(ctx context.Context, query string, page int) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}

	products, total, err := s.productRepo.Search(ctx, query, page, ProductPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	totalPages := (total + ProductPageSize - 1) / ProductPageSize
	return &ProductPage{
		Products:   products,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	}, nil
}

// GetByID returns a single product.
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// ListByCategory returns the products of a category. A category with no
// products reports not found.
func (s *productService) ListByCategory(ctx context.Context, category string) ([]*domain.Product, error) {
	products, err := s.productRepo.ListByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list category: %w", err)
	}
	if len(products) == 0 {
		return nil, repository.ErrProductNotFound
	}
	return products, nil
}

// Create stores the product images and inserts the product.
func (s *productService) Create(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if len(input.Images) > images.MaxImagesPerProduct {
		return nil, images.ErrTooManyImages
	}
	if input.Price <= 0 {
		return nil, errors.New("price must be positive")
	}

	urls, err := s.saveImages(ctx, input.Images)
	if err != nil {
		return nil, err
	}

	specifications := input.Specifications
	if specifications == nil {
		specifications = map[string]string{}
	}

	now := time.Now()
	product := &domain.Product{
		ID:             uuid.New(),
		Name:           input.Name,
		Description:    input.Description,
		Price:          input.Price,
		Category:       input.Category,
		Images:         urls,
		Stock:          input.Stock,
		IsActive:       true,
		Dimensions:     input.Dimensions,
		Specifications: specifications,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		s.removeImages(ctx, urls)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// Update applies a partial update, adding and removing images as asked.
func (s *productService) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		if *input.Price <= 0 {
			return nil, errors.New("price must be positive")
		}
		product.Price = *input.Price
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.Dimensions != nil {
		product.Dimensions = *input.Dimensions
	}
	if input.Specifications != nil {
		product.Specifications = input.Specifications
	}

	for _, url := range input.RemoveImages {
		product.Images = removeString(product.Images, url)
		if err := s.imageStore.Remove(ctx, url); err != nil {
			return nil, err
		}
	}

	if len(product.Images)+len(input.AddImages) > images.MaxImagesPerProduct {
		return nil, images.ErrTooManyImages
	}

	added, err := s.saveImages(ctx, input.AddImages)
	if err != nil {
		return nil, err
	}
	product.Images = append(product.Images, added...)
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		s.removeImages(ctx, added)
		return nil, err
	}

	return product, nil
}

// Delete removes the product and its stored images.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.removeImages(ctx, product.Images)
	return nil
}

// AddReview records a review and returns the product with its refreshed
// average rating. Each user may review a product once.
func (s *productService) AddReview(ctx context.Context, productID, userID uuid.UUID, rating int, comment string) (*domain.Product, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	review := &domain.Review{
		ID:        uuid.New(),
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now(),
	}

	return s.productRepo.AddReview(ctx, review)
}

// ListReviews returns all reviews of a product.
func (s *productService) ListReviews(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.productRepo.ListReviews(ctx, productID)
}

// GenerateDescription asks the model for storefront copy for a product.
func (s *productService) GenerateDescription(ctx context.Context, id uuid.UUID) (string, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.summarizer.Describe(ctx, product.Name, product.Category, product.Specifications)
}

func (s *productService) saveImages(ctx context.Context, uploads []ImageUpload) ([]string, error) {
	urls := []string{}
	for _, upload := range uploads {
		url, err := s.imageStore.Save(ctx, upload.Filename, upload.Reader)
		if err != nil {
			s.removeImages(ctx, urls)
			return nil, fmt.Errorf("failed to save image %s: %w", upload.Filename, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (s *productService) removeImages(ctx context.Context, urls []string) {
	for _, url := range urls {
		_ = s.imageStore.Remove(ctx, url)
	}
}

func removeString(list []string, value string) []string {
	out := list[:0]
	for _, v := range list {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}
