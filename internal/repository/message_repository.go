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

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines the interface for message data access.
type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	ListAll(ctx context.Context) ([]*domain.Message, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	Update(ctx context.Context, message *domain.Message) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error)
}

type messageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new instance of MessageRepository
func NewMessageRepository(db *sql.DB) MessageRepository {
	return &messageRepository{db: db}
}

const messageColumns = `id, customer_id, sender_id, recipient_id, subject, content, is_read, priority, attachments, created_at, updated_at`

// Create inserts a new message.
func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	attachments, err := marshalAttachments(message.Attachments)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO messages (id, customer_id, sender_id, recipient_id, subject, content, is_read, priority, attachments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		message.ID,
		message.CustomerID,
		message.SenderID,
		message.RecipientID,
		message.Subject,
		message.Content,
		message.IsRead,
		message.Priority,
		attachments,
		message.CreatedAt,
		message.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

// FindByID retrieves a single message.
func (r *messageRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

	message, err := scanMessageFrom(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to find message: %w", err)
	}

	return message, nil
}

// ListAll returns all customer messages, newest first, with the customer
// reference expanded.
func (r *messageRepository) ListAll(ctx context.Context) ([]*domain.Message, error) {
	query := `
		SELECT m.id, m.customer_id, m.sender_id, m.recipient_id, m.subject, m.content,
		       m.is_read, m.priority, m.attachments, m.created_at, m.updated_at,
		       u.name, u.email
		FROM messages m
		JOIN users u ON u.id = m.customer_id
		ORDER BY m.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []*domain.Message{}
	for rows.Next() {
		message := &domain.Message{}
		var attachments []byte
		err := rows.Scan(
			&message.ID,
			&message.CustomerID,
			&message.SenderID,
			&message.RecipientID,
			&message.Subject,
			&message.Content,
			&message.IsRead,
			&message.Priority,
			&attachments,
			&message.CreatedAt,
			&message.UpdatedAt,
			&message.CustomerName,
			&message.CustomerEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if err := json.Unmarshal(attachments, &message.Attachments); err != nil {
			return nil, fmt.Errorf("failed to decode attachments: %w", err)
		}
		messages = append(messages, message)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

// MarkRead flips the read flag. Idempotent.
func (r *messageRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_read = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrMessageNotFound
	}

	return nil
}

// Update writes the mutable fields of a message.
func (r *messageRepository) Update(ctx context.Context, message *domain.Message) error {
	attachments, err := marshalAttachments(message.Attachments)
	if err != nil {
		return err
	}

	query := `
		UPDATE messages
		SET subject = $2, content = $3, attachments = $4, priority = $5, is_read = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		message.ID,
		message.Subject,
		message.Content,
		attachments,
		message.Priority,
		message.IsRead,
		message.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrMessageNotFound
	}

	return nil
}

// Delete removes a message.
func (r *messageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrMessageNotFound
	}

	return nil
}

// CountUnread counts unread messages addressed to the given recipient.
func (r *messageRepository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE recipient_id = $1 AND NOT is_read`,
		recipientID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

func marshalAttachments(attachments []string) ([]byte, error) {
	if attachments == nil {
		attachments = []string{}
	}
	b, err := json.Marshal(attachments)
	if err != nil {
		return nil, fmt.Errorf("failed to encode attachments: %w", err)
	}
	return b, nil
}

func scanMessageFrom(s rowScanner) (*domain.Message, error) {
	message := &domain.Message{}
	var attachments []byte

	err := s.Scan(
		&message.ID,
		&message.CustomerID,
		&message.SenderID,
		&message.RecipientID,
		&message.Subject,
		&message.Content,
		&message.IsRead,
		&message.Priority,
		&attachments,
		&message.CreatedAt,
		&message.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(attachments, &message.Attachments); err != nil {
		return nil, fmt.Errorf("failed to decode attachments: %w", err)
	}

	return message, nil
}
