package repository

import (
	"context"
	"errors"
	"time"

	"storefront_support_service/internal/chat/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrConversationNotFound returned when a conversation id resolves to nothing
var ErrConversationNotFound = errors.New("conversation not found")

// ConversationRepository definition conversation document operations
type ConversationRepository interface {
	// Create 寫入新對話，id 與 created_at 由 store 指派
	Create(ctx context.Context, conv *domain.Conversation) (string, error)
	FindByID(ctx context.Context, id string) (*domain.Conversation, error)
	// FindByCustomer 依 _id 升冪回傳，重複對話時呼叫端取第一筆
	FindByCustomer(ctx context.Context, customerID string) ([]domain.Conversation, error)
	// ListByRecency 依 last_message_time 降冪回傳全部對話
	ListByRecency(ctx context.Context) ([]domain.Conversation, error)
	// ResetUnread 將觀看方自己的未讀計數歸零
	ResetUnread(ctx context.Context, id string, viewerIsAdmin bool) error
	// ApplyMessage 單一 UpdateOne：更新摘要欄位並將對方未讀 +1
	ApplyMessage(ctx context.Context, id, preview, senderID string, senderIsAdmin bool, sentAt int64) error
	// AssignAdmin 只在 admin_id 尚未指派時生效
	AssignAdmin(ctx context.Context, id, adminID, adminEmail string) error
	Delete(ctx context.Context, id string) error
}

type conversationRepository struct {
	coll *mongo.Collection
}

// NewMongoConversationRepository create a ConversationRepository
func NewMongoConversationRepository(db *mongo.Database) ConversationRepository {
	return &conversationRepository{
		coll: db.Collection("conversations"),
	}
}

// Create conversation
func (r *conversationRepository) Create(ctx context.Context, conv *domain.Conversation) (string, error) {
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}
	now := time.Now().UnixMilli()
	conv.CreatedAt = now
	conv.LastMessageTime = now

	if _, err := r.coll.InsertOne(ctx, conv); err != nil {
		return "", err
	}
	return conv.ID, nil
}

// FindByID find conversation by id
func (r *conversationRepository) FindByID(ctx context.Context, id string) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return &conv, nil
}

// FindByCustomer find conversations owned by customer
func (r *conversationRepository) FindByCustomer(ctx context.Context, customerID string) ([]domain.Conversation, error) {
	opts := options.Find().SetSort(bson.M{"_id": 1})
	cur, err := r.coll.Find(ctx, bson.M{"customer_id": customerID}, opts)
	if err != nil {
		return nil, err
	}
	var convs []domain.Conversation
	if err := cur.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// ListByRecency list all conversations, newest activity first
func (r *conversationRepository) ListByRecency(ctx context.Context) ([]domain.Conversation, error) {
	opts := options.Find().SetSort(bson.M{"last_message_time": -1})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var convs []domain.Conversation
	if err := cur.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// ResetUnread reset viewer own unread counter
func (r *conversationRepository) ResetUnread(ctx context.Context, id string, viewerIsAdmin bool) error {
	field := "unread_customer"
	if viewerIsAdmin {
		field = "unread_admin"
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{field: 0}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// ApplyMessage update preview fields and bump the other party counter
func (r *conversationRepository) ApplyMessage(ctx context.Context, id, preview, senderID string, senderIsAdmin bool, sentAt int64) error {
	recipientField := "unread_admin"
	if senderIsAdmin {
		recipientField = "unread_customer"
	}
	update := bson.M{
		"$set": bson.M{
			"last_message":        preview,
			"last_message_time":   sentAt,
			"last_message_sender": senderID,
		},
		"$inc": bson.M{recipientField: 1},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// AssignAdmin assign admin of record on first admin reply
func (r *conversationRepository) AssignAdmin(ctx context.Context, id, adminID, adminEmail string) error {
	// filter 帶 admin_id 為空，已指派的對話不會被改寫
	filter := bson.M{
		"_id": id,
		"$or": []bson.M{
			{"admin_id": bson.M{"$exists": false}},
			{"admin_id": ""},
		},
	}
	update := bson.M{"$set": bson.M{
		"admin_id":    adminID,
		"admin_email": adminEmail,
	}}
	_, err := r.coll.UpdateOne(ctx, filter, update)
	return err
}

// Delete conversation document
func (r *conversationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrConversationNotFound
	}
	return nil
}
