package transport

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"

	"farmmart/internal/images"
	"farmmart/internal/middleware"
	"farmmart/internal/repository"
	"farmmart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxUploadBytes caps a product create/update form at 16 MB total.
const maxUploadBytes = 16 << 20

// ReviewRequest represents a product review payload
type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment"`
}

// ProductHandler handles HTTP requests for catalog operations
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all catalog routes
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware, adminOnly func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		// Public routes
		r.Get("/", h.Search)
		r.Get("/{id}", h.GetProduct)
		r.Get("/category/{category}", h.ListByCategory)
		r.Get("/{id}/reviews", h.ListReviews)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/{id}/reviews", h.AddReview)
		})

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware, adminOnly)
			r.Post("/", h.CreateProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
			r.Post("/{id}/description", h.GenerateDescription)
		})
	})
}

// Search returns a page of products matching the search query.
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("search")
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid page number")
			return
		}
		page = parsed
	}

	result, err := h.productService.Search(r.Context(), query, page)
	if err != nil {
		h.logger.Error("Product search failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to search products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// GetProduct returns a single product.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, err := h.productService.GetByID(r.Context(), id)
	if err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to get product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// ListByCategory returns the products of a category. An unknown or
// empty category reports not found.
func (h *ProductHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")

	products, err := h.productService.ListByCategory(r.Context(), category)
	if err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "no products in this category")
			return
		}
		h.logger.Error("Failed to list category", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

// CreateProduct creates a product from a multipart form. Images are
// uploaded under the "images" field, up to three per product.
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeProductForm(w, r)
	if !ok {
		return
	}

	product, err := h.productService.Create(r.Context(), *input)
	if err != nil {
		h.logger.Error("Failed to create product", zap.Error(err))

		switch err {
		case images.ErrTooManyImages:
			middleware.RespondWithError(w, http.StatusBadRequest, "a product may have at most 3 images")
		case images.ErrUnsupportedImage:
			middleware.RespondWithError(w, http.StatusBadRequest, "unsupported image type")
		default:
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		}
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// UpdateProduct applies a partial update from a multipart form. New
// images go under "images"; URLs to delete go under "remove_images".
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	input := service.UpdateProductInput{}
	form := r.MultipartForm

	if v, ok := formValue(form, "name"); ok {
		input.Name = &v
	}
	if v, ok := formValue(form, "description"); ok {
		input.Description = &v
	}
	if v, ok := formValue(form, "category"); ok {
		input.Category = &v
	}
	if v, ok := formValue(form, "dimensions"); ok {
		input.Dimensions = &v
	}
	if v, ok := formValue(form, "price"); ok {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid price")
			return
		}
		input.Price = &price
	}
	if v, ok := formValue(form, "stock"); ok {
		stock, err := strconv.Atoi(v)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid stock")
			return
		}
		input.Stock = &stock
	}
	if v, ok := formValue(form, "is_active"); ok {
		active, err := strconv.ParseBool(v)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid is_active")
			return
		}
		input.IsActive = &active
	}
	if v, ok := formValue(form, "specifications"); ok {
		if err := json.Unmarshal([]byte(v), &input.Specifications); err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid specifications")
			return
		}
	}
	input.RemoveImages = form.Value["remove_images"]

	uploads, ok := h.openUploads(w, r)
	if !ok {
		return
	}
	input.AddImages = uploads

	product, err := h.productService.Update(r.Context(), id, input)
	if err != nil {
		h.logger.Error("Failed to update product", zap.Error(err))

		switch err {
		case repository.ErrProductNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		case images.ErrTooManyImages:
			middleware.RespondWithError(w, http.StatusBadRequest, "a product may have at most 3 images")
		case images.ErrUnsupportedImage:
			middleware.RespondWithError(w, http.StatusBadRequest, "unsupported image type")
		default:
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update product")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct removes a product and its images.
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to delete product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// AddReview records the authenticated user's review of a product and
// returns the product with its refreshed average rating.
func (h *ProductHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(w, r, h.logger)
	if !ok {
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req ReviewRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.productService.AddReview(r.Context(), productID, userID, req.Rating, req.Comment)
	if err != nil {
		switch err {
		case repository.ErrProductNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		case repository.ErrDuplicateReview:
			middleware.RespondWithError(w, http.StatusConflict, "you have already reviewed this product")
		case service.ErrInvalidRating:
			middleware.RespondWithError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		default:
			h.logger.Error("Failed to add review", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to add review")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// ListReviews returns all reviews of a product.
func (h *ProductHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	reviews, err := h.productService.ListReviews(r.Context(), productID)
	if err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to list reviews", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list reviews")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"reviews": reviews})
}

// GenerateDescription returns model-written storefront copy for a
// product.
func (h *ProductHandler) GenerateDescription(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	description, err := h.productService.GenerateDescription(r.Context(), id)
	if err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to generate description", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to generate description")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"description": description})
}

// decodeProductForm parses the multipart create form.
func (h *ProductHandler) decodeProductForm(w http.ResponseWriter, r *http.Request) (*service.CreateProductInput, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return nil, false
	}

	form := r.MultipartForm
	input := &service.CreateProductInput{}

	name, ok := formValue(form, "name")
	if !ok || name == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "name is required")
		return nil, false
	}
	input.Name = name

	rawPrice, ok := formValue(form, "price")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "price is required")
		return nil, false
	}
	price, err := strconv.ParseFloat(rawPrice, 64)
	if err != nil || price <= 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid price")
		return nil, false
	}
	input.Price = price

	category, ok := formValue(form, "category")
	if !ok || category == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "category is required")
		return nil, false
	}
	input.Category = category

	input.Description, _ = formValue(form, "description")
	input.Dimensions, _ = formValue(form, "dimensions")

	if v, ok := formValue(form, "stock"); ok {
		stock, err := strconv.Atoi(v)
		if err != nil || stock < 0 {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid stock")
			return nil, false
		}
		input.Stock = stock
	}

	if v, ok := formValue(form, "specifications"); ok {
		if err := json.Unmarshal([]byte(v), &input.Specifications); err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid specifications")
			return nil, false
		}
	}

	uploads, ok := h.openUploads(w, r)
	if !ok {
		return nil, false
	}
	input.Images = uploads

	return input, true
}

// openUploads opens the uploaded image files from the "images" field.
func (h *ProductHandler) openUploads(w http.ResponseWriter, r *http.Request) ([]service.ImageUpload, bool) {
	files := r.MultipartForm.File["images"]
	if len(files) > images.MaxImagesPerProduct {
		middleware.RespondWithError(w, http.StatusBadRequest, "a product may have at most 3 images")
		return nil, false
	}

	uploads := make([]service.ImageUpload, 0, len(files))
	for _, header := range files {
		f, err := header.Open()
		if err != nil {
			h.logger.Error("Failed to open uploaded file", zap.Error(err))
			middleware.RespondWithError(w, http.StatusBadRequest, "could not read uploaded image")
			return nil, false
		}
		uploads = append(uploads, service.ImageUpload{
			Filename: header.Filename,
			Reader:   f,
		})
	}

	return uploads, true
}

func formValue(form *multipart.Form, key string) (string, bool) {
	values := form.Value[key]
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}
