package repository

import (
	"context"
	"errors"
	"time"

	"storefront_support_service/internal/store/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrOrderNotFound returned when an order id resolves to nothing
var ErrOrderNotFound = errors.New("order not found")

// OrderRepo definition order document operations
type OrderRepo interface {
	// Insert 寫入新訂單，id 與 created_at 由 store 指派
	Insert(ctx context.Context, order *domain.Order) (string, error)
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	// ListByCustomer 依 created_at 降冪回傳顧客的訂單
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	// ListAll admin 用，依 created_at 降冪
	ListAll(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
}

type orderRepo struct {
	coll *mongo.Collection
}

// NewMongoOrderRepo create OrderRepo
func NewMongoOrderRepo(db *mongo.Database) OrderRepo {
	return &orderRepo{
		coll: db.Collection("orders"),
	}
}

// Insert order
func (r *orderRepo) Insert(ctx context.Context, order *domain.Order) (string, error) {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	now := time.Now().UnixMilli()
	order.CreatedAt = now
	order.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, order); err != nil {
		return "", err
	}
	return order.ID, nil
}

// FindByID find order by id
func (r *orderRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// ListByCustomer list orders of one customer, newest first
func (r *orderRepo) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cur, err := r.coll.Find(ctx, bson.M{"customer_id": customerID}, opts)
	if err != nil {
		return nil, err
	}
	var orders []domain.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListAll list every order, newest first
func (r *orderRepo) ListAll(ctx context.Context) ([]domain.Order, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var orders []domain.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus set order status and bump updated_at
func (r *orderRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	update := bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UnixMilli(),
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}
