package app

import (
	"context"
	"io"

	"storefront_support_service/internal/chat/domain"

	"github.com/stretchr/testify/mock"
)

// MockConversationRepository Mock ConversationRepository
type MockConversationRepository struct {
	mock.Mock
}

// Create mock create conversation
func (m *MockConversationRepository) Create(ctx context.Context, conv *domain.Conversation) (string, error) {
	args := m.Called(ctx, conv)
	return args.String(0), args.Error(1)
}

// FindByID mock find conversation by id
func (m *MockConversationRepository) FindByID(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByCustomer mock find conversations of one customer
func (m *MockConversationRepository) FindByCustomer(ctx context.Context, customerID string) ([]domain.Conversation, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// ListByRecency mock list all conversations
func (m *MockConversationRepository) ListByRecency(ctx context.Context) ([]domain.Conversation, error) {
	args := m.Called(ctx)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// ResetUnread mock reset unread counter
func (m *MockConversationRepository) ResetUnread(ctx context.Context, conversationID string, forAdmin bool) error {
	args := m.Called(ctx, conversationID, forAdmin)
	return args.Error(0)
}

// ApplyMessage mock apply message summary
func (m *MockConversationRepository) ApplyMessage(ctx context.Context, conversationID, preview, senderID string, senderIsAdmin bool, at int64) error {
	args := m.Called(ctx, conversationID, preview, senderID, senderIsAdmin, at)
	return args.Error(0)
}

// AssignAdmin mock assign admin
func (m *MockConversationRepository) AssignAdmin(ctx context.Context, conversationID, adminID, adminEmail string) error {
	args := m.Called(ctx, conversationID, adminID, adminEmail)
	return args.Error(0)
}

// Delete mock delete conversation
func (m *MockConversationRepository) Delete(ctx context.Context, conversationID string) error {
	args := m.Called(ctx, conversationID)
	return args.Error(0)
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Insert mock insert message
func (m *MockMessageRepository) Insert(ctx context.Context, msg *domain.ChatMessage) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

// ListByConversation mock list messages
func (m *MockMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]domain.ChatMessage, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ChatMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// DeleteByConversation mock delete messages
func (m *MockMessageRepository) DeleteByConversation(ctx context.Context, conversationID string) (int64, error) {
	args := m.Called(ctx, conversationID)
	return args.Get(0).(int64), args.Error(1)
}

// MockAttachmentRepository Mock AttachmentRepository
type MockAttachmentRepository struct {
	mock.Mock
}

// Upload mock upload attachment
func (m *MockAttachmentRepository) Upload(ctx context.Context, conversationID, fileName string, reader io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, conversationID, fileName, reader, size, contentType)
	return args.String(0), args.Error(1)
}

// MockChangeNotifier Mock ChangeNotifier
type MockChangeNotifier struct {
	mock.Mock
}

// Publish mock publish change event
func (m *MockChangeNotifier) Publish(channel string, message interface{}) error {
	args := m.Called(channel, message)
	return args.Error(0)
}

// Subscribe mock subscribe channel
func (m *MockChangeNotifier) Subscribe(ctx context.Context, channel string, handler func(payload []byte)) error {
	args := m.Called(ctx, channel, handler)
	return args.Error(0)
}
