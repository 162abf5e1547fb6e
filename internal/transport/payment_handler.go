package transport

import (
	"net/http"

	"farmmart/internal/middleware"
	"farmmart/internal/payment"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PaymentHandler handles HTTP requests for gateway payment intents
type PaymentHandler struct {
	provider payment.Provider
	logger   *zap.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(provider payment.Provider, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		provider: provider,
		logger:   logger,
	}
}

// RegisterRoutes registers all payment routes
func (h *PaymentHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/payments", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/{intentID}/capture", h.Capture)
		r.Post("/{intentID}/cancel", h.Cancel)
	})
}

// Capture settles a payment intent opened at order placement.
func (h *PaymentHandler) Capture(w http.ResponseWriter, r *http.Request) {
	intentID := chi.URLParam(r, "intentID")

	intent, err := h.provider.Capture(r.Context(), intentID)
	if err != nil {
		if err == payment.ErrIntentNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "payment intent not found")
			return
		}
		h.logger.Error("Failed to capture payment", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to capture payment")
		return
	}

	h.logger.Info("Payment captured",
		zap.String("intent_id", intent.ID),
		zap.String("order_id", intent.OrderID),
	)
	middleware.RespondWithJSON(w, http.StatusOK, intent)
}

// Cancel voids an unsettled payment intent.
func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	intentID := chi.URLParam(r, "intentID")

	intent, err := h.provider.Cancel(r.Context(), intentID)
	if err != nil {
		if err == payment.ErrIntentNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "payment intent not found")
			return
		}
		h.logger.Error("Failed to cancel payment", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to cancel payment")
		return
	}

	h.logger.Info("Payment cancelled", zap.String("intent_id", intent.ID))
	middleware.RespondWithJSON(w, http.StatusOK, intent)
}
