package repository

import (
	"context"
	"time"

	"storefront_support_service/internal/chat/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository definition message sub-collection operations
type MessageRepository interface {
	// Insert 寫入一則訊息，id 與 timestamp 由 store 指派
	Insert(ctx context.Context, msg *domain.ChatMessage) (string, error)
	// ListByConversation 依 timestamp 升冪回傳對話內全部訊息
	ListByConversation(ctx context.Context, conversationID string) ([]domain.ChatMessage, error)
	// DeleteByConversation 級聯刪除，回傳刪除筆數
	DeleteByConversation(ctx context.Context, conversationID string) (int64, error)
}

type messageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository create a MessageRepository
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{
		coll: db.Collection("messages"),
	}
}

// Insert message with store-assigned id and timestamp
func (r *messageRepository) Insert(ctx context.Context, msg *domain.ChatMessage) (string, error) {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.Timestamp = time.Now().UnixMilli()

	if _, err := r.coll.InsertOne(ctx, msg); err != nil {
		return "", err
	}
	return msg.ID, nil
}

// ListByConversation list messages, oldest first
func (r *messageRepository) ListByConversation(ctx context.Context, conversationID string) ([]domain.ChatMessage, error) {
	// timestamp 相同時以 _id 決勝，訂閱端看到的順序才穩定
	opts := options.Find().SetSort(bson.D{
		{Key: "timestamp", Value: 1},
		{Key: "_id", Value: 1},
	})
	cur, err := r.coll.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, err
	}
	var msgs []domain.ChatMessage
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// DeleteByConversation remove all messages under a conversation
func (r *messageRepository) DeleteByConversation(ctx context.Context, conversationID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"conversation_id": conversationID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
