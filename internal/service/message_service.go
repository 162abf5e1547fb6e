package service

import (
	"context"
	"fmt"
	"time"

	"farmmart/internal/domain"
	"farmmart/internal/repository"

	"github.com/google/uuid"
)

// CreateMessageInput carries a new customer message.
type CreateMessageInput struct {
	CustomerID  uuid.UUID
	SenderID    *uuid.UUID
	RecipientID *uuid.UUID
	Subject     string
	Content     string
	Priority    domain.Priority
	Attachments []string
}

// UpdateMessageInput carries a partial message update. Nil pointers
// leave the current value untouched.
type UpdateMessageInput struct {
	Subject     *string
	Content     *string
	Priority    *domain.Priority
	Attachments []string
}

// MessageService defines the interface for message business logic
type MessageService interface {
	Create(ctx context.Context, input CreateMessageInput) (*domain.Message, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	ListAll(ctx context.Context) ([]*domain.Message, error)
	MarkRead(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateMessageInput) (*domain.Message, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error)
}

type messageService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
}

// NewMessageService creates a new instance of MessageService
func NewMessageService(messageRepo repository.MessageRepository, userRepo repository.UserRepository) MessageService {
	return &messageService{messageRepo: messageRepo, userRepo: userRepo}
}

// Create records a customer message. Priority defaults to medium.
func (s *messageService) Create(ctx context.Context, input CreateMessageInput) (*domain.Message, error) {
	if _, err := s.userRepo.FindByID(ctx, input.CustomerID); err != nil {
		return nil, err
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !domain.IsValidPriority(priority) {
		return nil, fmt.Errorf("invalid priority %q", input.Priority)
	}

	attachments := input.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	now := time.Now()
	message := &domain.Message{
		ID:          uuid.New(),
		CustomerID:  input.CustomerID,
		SenderID:    input.SenderID,
		RecipientID: input.RecipientID,
		Subject:     input.Subject,
		Content:     input.Content,
		IsRead:      false,
		Priority:    priority,
		Attachments: attachments,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	return message, nil
}

// Get returns a single message.
func (s *messageService) Get(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	return s.messageRepo.FindByID(ctx, id)
}

// ListAll returns every message for the admin inbox, newest first.
func (s *messageService) ListAll(ctx context.Context) ([]*domain.Message, error) {
	return s.messageRepo.ListAll(ctx)
}

// MarkRead flags a message as read and returns it.
func (s *messageService) MarkRead(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	if err := s.messageRepo.MarkRead(ctx, id); err != nil {
		return nil, err
	}
	return s.messageRepo.FindByID(ctx, id)
}

// Update applies a partial update to a message.
func (s *messageService) Update(ctx context.Context, id uuid.UUID, input UpdateMessageInput) (*domain.Message, error) {
	message, err := s.messageRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Subject != nil {
		message.Subject = *input.Subject
	}
	if input.Content != nil {
		message.Content = *input.Content
	}
	if input.Priority != nil {
		if !domain.IsValidPriority(*input.Priority) {
			return nil, fmt.Errorf("invalid priority %q", *input.Priority)
		}
		message.Priority = *input.Priority
	}
	if input.Attachments != nil {
		message.Attachments = input.Attachments
	}
	message.UpdatedAt = time.Now()

	if err := s.messageRepo.Update(ctx, message); err != nil {
		return nil, err
	}

	return message, nil
}

// Delete removes a message.
func (s *messageService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.messageRepo.Delete(ctx, id)
}

// CountUnread counts unread messages addressed to a recipient.
func (s *messageService) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	return s.messageRepo.CountUnread(ctx, recipientID)
}
