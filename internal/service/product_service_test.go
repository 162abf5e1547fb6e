package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"farmmart/internal/domain"
	"farmmart/internal/images"
	"farmmart/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeImageStore records saved and removed urls without touching disk.
type fakeImageStore struct {
	saved   []string
	removed []string
}

func (f *fakeImageStore) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	url := "/uploads/" + filename
	f.saved = append(f.saved, url)
	return url, nil
}

func (f *fakeImageStore) Remove(ctx context.Context, url string) error {
	f.removed = append(f.removed, url)
	return nil
}

type fakeSummarizer struct {
	err error
}

func (f *fakeSummarizer) Describe(ctx context.Context, name, category string, specifications map[string]string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "Fresh " + name + " from the " + category + " aisle.", nil
}

type productServiceFixture struct {
	service ProductService
	repo    *mockProductRepository
	store   *fakeImageStore
}

func newProductServiceFixture(t *testing.T) *productServiceFixture {
	t.Helper()
	repo := newMockProductRepository()
	store := &fakeImageStore{}
	return &productServiceFixture{
		service: NewProductService(repo, store, &fakeSummarizer{}),
		repo:    repo,
		store:   store,
	}
}

func upload(filename string) ImageUpload {
	return ImageUpload{Filename: filename, Reader: strings.NewReader("fake image bytes")}
}

func TestProductService_CreateStoresImages(t *testing.T) {
	f := newProductServiceFixture(t)

	product, err := f.service.Create(context.Background(), CreateProductInput{
		Name:     "Mango Box",
		Price:    299,
		Category: "fruit",
		Stock:    10,
		Images:   []ImageUpload{upload("a.jpg"), upload("b.jpg")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/uploads/a.jpg", "/uploads/b.jpg"}, product.Images)
	assert.True(t, product.IsActive)
	assert.NotNil(t, product.Specifications)
}

func TestProductService_CreateRejectsTooManyImages(t *testing.T) {
	f := newProductServiceFixture(t)

	_, err := f.service.Create(context.Background(), CreateProductInput{
		Name:     "Mango Box",
		Price:    299,
		Category: "fruit",
		Images:   []ImageUpload{upload("a.jpg"), upload("b.jpg"), upload("c.jpg"), upload("d.jpg")},
	})
	assert.ErrorIs(t, err, images.ErrTooManyImages)
	assert.Empty(t, f.store.saved)
}

func TestProductService_CreateRejectsNonPositivePrice(t *testing.T) {
	f := newProductServiceFixture(t)

	_, err := f.service.Create(context.Background(), CreateProductInput{Name: "Free Mango", Price: 0, Category: "fruit"})
	assert.Error(t, err)
}

func TestProductService_UpdateSwapsImages(t *testing.T) {
	f := newProductServiceFixture(t)
	ctx := context.Background()

	product, err := f.service.Create(ctx, CreateProductInput{
		Name:     "Mango Box",
		Price:    299,
		Category: "fruit",
		Images:   []ImageUpload{upload("a.jpg"), upload("b.jpg"), upload("c.jpg")},
	})
	require.NoError(t, err)

	// Full at three images: adding without removing fails.
	_, err = f.service.Update(ctx, product.ID, UpdateProductInput{
		AddImages: []ImageUpload{upload("d.jpg")},
	})
	assert.ErrorIs(t, err, images.ErrTooManyImages)

	updated, err := f.service.Update(ctx, product.ID, UpdateProductInput{
		AddImages:    []ImageUpload{upload("d.jpg")},
		RemoveImages: []string{"/uploads/a.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/uploads/b.jpg", "/uploads/c.jpg", "/uploads/d.jpg"}, updated.Images)
	assert.Contains(t, f.store.removed, "/uploads/a.jpg")
}

func TestProductService_DeleteRemovesStoredImages(t *testing.T) {
	f := newProductServiceFixture(t)
	ctx := context.Background()

	product, err := f.service.Create(ctx, CreateProductInput{
		Name:     "Mango Box",
		Price:    299,
		Category: "fruit",
		Images:   []ImageUpload{upload("a.jpg")},
	})
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(ctx, product.ID))
	assert.Contains(t, f.store.removed, "/uploads/a.jpg")

	_, err = f.service.GetByID(ctx, product.ID)
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}

func TestProductService_ListByCategoryEmptyIsNotFound(t *testing.T) {
	f := newProductServiceFixture(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, CreateProductInput{Name: "Mango Box", Price: 299, Category: "fruit"})
	require.NoError(t, err)

	products, err := f.service.ListByCategory(ctx, "fruit")
	require.NoError(t, err)
	assert.Len(t, products, 1)

	_, err = f.service.ListByCategory(ctx, "electronics")
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}

func TestProductService_AddReviewBoundsRating(t *testing.T) {
	f := newProductServiceFixture(t)
	ctx := context.Background()

	product, err := f.service.Create(ctx, CreateProductInput{Name: "Mango Box", Price: 299, Category: "fruit"})
	require.NoError(t, err)

	for _, rating := range []int{0, 6, -1} {
		_, err := f.service.AddReview(ctx, product.ID, uuid.New(), rating, "nope")
		assert.ErrorIs(t, err, ErrInvalidRating, fmt.Sprintf("rating %d", rating))
	}

	userID := uuid.New()
	reviewed, err := f.service.AddReview(ctx, product.ID, userID, 4, "good mangoes")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, reviewed.AverageRating, 0.001)

	_, err = f.service.AddReview(ctx, product.ID, userID, 5, "changed my mind")
	assert.ErrorIs(t, err, repository.ErrDuplicateReview)
}

func TestProductService_GenerateDescription(t *testing.T) {
	repo := newMockProductRepository()
	service := NewProductService(repo, &fakeImageStore{}, &fakeSummarizer{})
	ctx := context.Background()

	product := &domain.Product{ID: uuid.New(), Name: "Mango Box", Price: 299, Category: "fruit"}
	require.NoError(t, repo.Create(ctx, product))

	text, err := service.GenerateDescription(ctx, product.ID)
	require.NoError(t, err)
	assert.Contains(t, text, "Mango Box")

	_, err = service.GenerateDescription(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}
