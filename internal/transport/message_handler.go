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

// CreateMessageRequest represents a new customer message
type CreateMessageRequest struct {
	Subject     string   `json:"subject" validate:"required"`
	Content     string   `json:"content" validate:"required"`
	Priority    string   `json:"priority" validate:"omitempty,oneof=low medium high"`
	Attachments []string `json:"attachments"`
}

// UpdateMessageRequest represents an admin edit to a message
type UpdateMessageRequest struct {
	Subject     *string  `json:"subject,omitempty"`
	Content     *string  `json:"content,omitempty"`
	Priority    *string  `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Attachments []string `json:"attachments,omitempty"`
}

// MessageHandler handles HTTP requests for customer messages
type MessageHandler struct {
	messageService service.MessageService
	logger         *zap.Logger
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messageService service.MessageService, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		logger:         logger,
	}
}

// RegisterRoutes registers all message routes
func (h *MessageHandler) RegisterRoutes(r chi.Router, authMiddleware, adminOnly func(http.Handler) http.Handler) {
	r.Route("/api/messages", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/", h.CreateMessage)
			r.Get("/unread-count", h.UnreadCount)
			r.Get("/{id}", h.GetMessage)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware, adminOnly)
			r.Get("/", h.ListMessages)
			r.Post("/{id}/read", h.MarkRead)
			r.Put("/{id}", h.UpdateMessage)
			r.Delete("/{id}", h.DeleteMessage)
		})
	})
}

// CreateMessage records a message from the authenticated customer.
func (h *MessageHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateMessageRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message, err := h.messageService.Create(r.Context(), service.CreateMessageInput{
		CustomerID:  userID,
		SenderID:    &userID,
		Subject:     req.Subject,
		Content:     req.Content,
		Priority:    domain.Priority(req.Priority),
		Attachments: req.Attachments,
	})
	if err != nil {
		h.logger.Error("Failed to create message", zap.Error(err))

		if err == repository.ErrUserNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "user not found")
			return
		}

		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create message")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, message)
}

// ListMessages returns every message for the admin inbox, newest first.
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.messageService.ListAll(r.Context())
	if err != nil {
		h.logger.Error("Failed to list messages", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

// UnreadCount returns how many messages addressed to the requester are
// unread.
func (h *MessageHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(w, r, h.logger)
	if !ok {
		return
	}

	count, err := h.messageService.CountUnread(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to count unread messages", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to count unread messages")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]int{"unread": count})
}

// GetMessage returns a single message. Visible to admins, the customer
// who sent it, and the recipient; viewing as the recipient marks the
// message read.
func (h *MessageHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(w, r, h.logger)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid message ID")
		return
	}

	message, err := h.messageService.Get(r.Context(), id)
	if err != nil {
		if err == repository.ErrMessageNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "message not found")
			return
		}
		h.logger.Error("Failed to get message", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get message")
		return
	}

	role, _ := middleware.GetUserRole(r.Context())
	isRecipient := message.RecipientID != nil && *message.RecipientID == userID
	if !domain.Role(role).IsAdmin() && !isRecipient && message.CustomerID != userID {
		middleware.RespondWithError(w, http.StatusForbidden, "access denied")
		return
	}

	if isRecipient && !message.IsRead {
		message, err = h.messageService.MarkRead(r.Context(), id)
		if err != nil {
			h.logger.Error("Failed to mark message read", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get message")
			return
		}
	}

	middleware.RespondWithJSON(w, http.StatusOK, message)
}

// MarkRead flags a message as read.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid message ID")
		return
	}

	message, err := h.messageService.MarkRead(r.Context(), id)
	if err != nil {
		if err == repository.ErrMessageNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "message not found")
			return
		}
		h.logger.Error("Failed to mark message read", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to mark message read")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, message)
}

// UpdateMessage applies an admin edit to a message.
func (h *MessageHandler) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid message ID")
		return
	}

	var req UpdateMessageRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := service.UpdateMessageInput{
		Subject:     req.Subject,
		Content:     req.Content,
		Attachments: req.Attachments,
	}
	if req.Priority != nil {
		priority := domain.Priority(*req.Priority)
		input.Priority = &priority
	}

	message, err := h.messageService.Update(r.Context(), id, input)
	if err != nil {
		if err == repository.ErrMessageNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "message not found")
			return
		}
		h.logger.Error("Failed to update message", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update message")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, message)
}

// DeleteMessage removes a message.
func (h *MessageHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid message ID")
		return
	}

	if err := h.messageService.Delete(r.Context(), id); err != nil {
		if err == repository.ErrMessageNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "message not found")
			return
		}
		h.logger.Error("Failed to delete message", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete message")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "message deleted"})
}
