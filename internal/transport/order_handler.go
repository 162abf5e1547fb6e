package transport

import (
	"net/http"

	"farmmart/internal/domain"
	"farmmart/internal/middleware"
	"farmmart/internal/repository"
	"farmmart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderItemRequest is one line of a new order
type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// CreateOrderRequest represents the order placement payload
type CreateOrderRequest struct {
	Items         []OrderItemRequest     `json:"products" validate:"required,min=1,dive"`
	Address       domain.ShippingAddress `json:"address" validate:"required"`
	PaymentMethod string                 `json:"payment_method" validate:"required"`
}

// OrderHandler handles HTTP requests for order operations
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers all order routes
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware, adminOnly func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/", h.CreateOrder)
			r.Get("/my", h.ListMyOrders)
			r.Get("/{orderID}", h.GetOrder)
			r.Post("/{orderID}/cancel", h.CancelOrder)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware, adminOnly)
			r.Get("/", h.ListAllOrders)
			r.Delete("/{orderID}", h.DeleteOrder)
		})
	})
}

// CreateOrder places an order for the authenticated user.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]service.OrderItemInput, 0, len(req.Items))
	for _, line := range req.Items {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
			return
		}
		items = append(items, service.OrderItemInput{
			ProductID: productID,
			Quantity:  line.Quantity,
		})
	}

	placed, err := h.orderService.CreateOrder(r.Context(), userID, service.CreateOrderInput{
		Items:         items,
		Address:       req.Address,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		h.logger.Error("Failed to create order", zap.Error(err))

		switch err {
		case repository.ErrUserNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "user not found")
		case repository.ErrProductNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		case service.ErrEmptyOrder, service.ErrInvalidQuantity, service.ErrInvalidPaymentMethod:
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create order")
		}
		return
	}

	h.logger.Info("Order placed",
		zap.String("order_id", placed.Order.OrderID),
		zap.String("user_id", userID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, placed)
}

// ListMyOrders returns the authenticated user's orders, newest first.
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(w, r, h.logger)
	if !ok {
		return
	}

	orders, err := h.orderService.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// ListAllOrders returns every order for the admin panel.
func (h *OrderHandler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.ListAll(r.Context())
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// GetOrder returns a single order. Customers can only read their own
// orders; admins can read any.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(w, r, h.logger)
	if !ok {
		return
	}

	order, err := h.orderService.GetByOrderID(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		if err == repository.ErrOrderNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("Failed to get order", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get order")
		return
	}

	if !h.canAccess(r, order, userID) {
		middleware.RespondWithError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// CancelOrder marks an order cancelled, keeping its record. Customers
// can only cancel their own orders.
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(w, r, h.logger)
	if !ok {
		return
	}

	orderID := chi.URLParam(r, "orderID")

	order, err := h.orderService.GetByOrderID(r.Context(), orderID)
	if err != nil {
		if err == repository.ErrOrderNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("Failed to get order", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to cancel order")
		return
	}

	if !h.canAccess(r, order, userID) {
		middleware.RespondWithError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	cancelled, err := h.orderService.CancelOrder(r.Context(), orderID)
	if err != nil {
		switch err {
		case repository.ErrOrderNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		case service.ErrAlreadyCancelled:
			middleware.RespondWithError(w, http.StatusBadRequest, "order is already cancelled")
		default:
			h.logger.Error("Failed to cancel order", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to cancel order")
		}
		return
	}

	h.logger.Info("Order cancelled", zap.String("order_id", orderID))
	middleware.RespondWithJSON(w, http.StatusOK, cancelled)
}

// DeleteOrder removes an order entirely.
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	if err := h.orderService.DeleteOrder(r.Context(), orderID); err != nil {
		if err == repository.ErrOrderNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("Failed to delete order", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete order")
		return
	}

	h.logger.Info("Order deleted", zap.String("order_id", orderID))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

// canAccess reports whether the requester may read or act on the order.
func (h *OrderHandler) canAccess(r *http.Request, order *domain.Order, userID uuid.UUID) bool {
	if order.UserID == userID {
		return true
	}
	role, ok := middleware.GetUserRole(r.Context())
	return ok && domain.Role(role).IsAdmin()
}
