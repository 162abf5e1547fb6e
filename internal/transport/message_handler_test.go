package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"farmmart/internal/domain"
	"farmmart/internal/middleware"
	"farmmart/internal/repository"
	"farmmart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockMessageRepository struct {
	messages map[uuid.UUID]*domain.Message
}

func (m *mockMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	m.messages[message.ID] = message
	return nil
}

func (m *mockMessageRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	message, exists := m.messages[id]
	if !exists {
		return nil, repository.ErrMessageNotFound
	}
	return message, nil
}

func (m *mockMessageRepository) ListAll(ctx context.Context) ([]*domain.Message, error) {
	messages := []*domain.Message{}
	for _, message := range m.messages {
		messages = append(messages, message)
	}
	return messages, nil
}

func (m *mockMessageRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	message, exists := m.messages[id]
	if !exists {
		return repository.ErrMessageNotFound
	}
	message.IsRead = true
	return nil
}

func (m *mockMessageRepository) Update(ctx context.Context, message *domain.Message) error {
	if _, exists := m.messages[message.ID]; !exists {
		return repository.ErrMessageNotFound
	}
	m.messages[message.ID] = message
	return nil
}

func (m *mockMessageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, exists := m.messages[id]; !exists {
		return repository.ErrMessageNotFound
	}
	delete(m.messages, id)
	return nil
}

func (m *mockMessageRepository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	count := 0
	for _, message := range m.messages {
		if message.RecipientID != nil && *message.RecipientID == recipientID && !message.IsRead {
			count++
		}
	}
	return count, nil
}

type messageHandlerFixture struct {
	router      chi.Router
	userRepo    *mockUserRepository
	messageRepo *mockMessageRepository
}

func newMessageHandlerFixture() *messageHandlerFixture {
	logger := zap.NewNop()
	userRepo := newMockUserRepository()
	messageRepo := &mockMessageRepository{messages: make(map[uuid.UUID]*domain.Message)}

	userService := service.NewUserService(userRepo, &mockCartRepository{}, &mockProductRepository{}, testJWTSecret, time.Hour)
	messageService := service.NewMessageService(messageRepo, userRepo)

	router := chi.NewRouter()
	auth := middleware.AuthMiddleware(testJWTSecret, "jwt", logger)
	admin := middleware.RequireAdmin(logger)
	NewUserHandler(userService, AuthCookieConfig{Name: "jwt", TTL: time.Hour}, logger).RegisterRoutes(router, auth, admin)
	NewMessageHandler(messageService, logger).RegisterRoutes(router, auth, admin)

	return &messageHandlerFixture{router: router, userRepo: userRepo, messageRepo: messageRepo}
}

func (f *messageHandlerFixture) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// registers and logs in a user, returning their record and cookie.
func (f *messageHandlerFixture) loginAs(t *testing.T, name, email string) (*domain.User, *http.Cookie) {
	t.Helper()
	rec := f.do(http.MethodPost, "/api/users/register", RegisterRequest{
		Name: name, Email: email, Password: "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(http.MethodPost, "/api/users/login", LoginRequest{Email: email, Password: "password123"})
	require.Equal(t, http.StatusOK, rec.Code)

	user, err := f.userRepo.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	cookie := authCookie(rec)
	require.NotNil(t, cookie)
	return user, cookie
}

func (f *messageHandlerFixture) seedMessage(customerID uuid.UUID, recipientID *uuid.UUID) *domain.Message {
	message := &domain.Message{
		ID:          uuid.New(),
		CustomerID:  customerID,
		RecipientID: recipientID,
		Subject:     "Delivery window",
		Content:     "When does the morning slot open?",
		Priority:    domain.PriorityMedium,
		Attachments: []string{},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	f.messageRepo.messages[message.ID] = message
	return message
}

func TestMessageHandler_RecipientViewMarksRead(t *testing.T) {
	f := newMessageHandlerFixture()
	sender, _ := f.loginAs(t, "Ravi", "ravi@example.com")
	recipient, cookie := f.loginAs(t, "Asha", "asha@example.com")
	message := f.seedMessage(sender.ID, &recipient.ID)

	rec := f.do(http.MethodGet, "/api/messages/unread-count", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unread":1`)

	rec = f.do(http.MethodGet, "/api/messages/"+message.ID.String(), nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.IsRead)

	rec = f.do(http.MethodGet, "/api/messages/unread-count", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unread":0`)
}

func TestMessageHandler_SenderViewDoesNotMarkRead(t *testing.T) {
	f := newMessageHandlerFixture()
	sender, cookie := f.loginAs(t, "Ravi", "ravi@example.com")
	recipient, _ := f.loginAs(t, "Asha", "asha@example.com")
	message := f.seedMessage(sender.ID, &recipient.ID)

	rec := f.do(http.MethodGet, "/api/messages/"+message.ID.String(), nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, f.messageRepo.messages[message.ID].IsRead)
}

func TestMessageHandler_UnrelatedCustomerIsForbidden(t *testing.T) {
	f := newMessageHandlerFixture()
	sender, _ := f.loginAs(t, "Ravi", "ravi@example.com")
	recipient, _ := f.loginAs(t, "Asha", "asha@example.com")
	_, cookie := f.loginAs(t, "Kiran", "kiran@example.com")
	message := f.seedMessage(sender.ID, &recipient.ID)

	rec := f.do(http.MethodGet, "/api/messages/"+message.ID.String(), nil, cookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, f.messageRepo.messages[message.ID].IsRead)
}
