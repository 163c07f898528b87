package domain

// OrderStatus definition order status
type OrderStatus string

const (
	// OrderPending order placed, not yet handled
	OrderPending OrderStatus = "pending"
	// OrderProcessing order is being prepared
	OrderProcessing OrderStatus = "processing"
	// OrderShipped order handed to the carrier
	OrderShipped OrderStatus = "shipped"
	// OrderDelivered order received by the customer
	OrderDelivered OrderStatus = "delivered"
	// OrderCancelled order cancelled before shipping
	OrderCancelled OrderStatus = "cancelled"
)

// statusFlow 合法的狀態轉移，出貨後不可取消
var statusFlow = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered},
}

// CanTransition check the status change is allowed
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range statusFlow[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// OrderItem 訂單內的一筆商品，單價在下單時快照
type OrderItem struct {
	ProductID uint   `bson:"product_id" json:"product_id"`
	Name      string `bson:"name" json:"name"`
	UnitPrice int64  `bson:"unit_price" json:"unit_price"`
	Quantity  int    `bson:"quantity" json:"quantity"`
	Subtotal  int64  `bson:"subtotal" json:"subtotal"`
}

// Order 定義訂單文件
type Order struct {
	ID            string      `bson:"_id" json:"order_id"`
	CustomerID    string      `bson:"customer_id" json:"customer_id"`
	CustomerEmail string      `bson:"customer_email" json:"customer_email"`
	Items         []OrderItem `bson:"items" json:"items"`
	Total         int64       `bson:"total" json:"total"`
	Status        OrderStatus `bson:"status" json:"status"`
	CreatedAt     int64       `bson:"created_at" json:"created_at"`
	UpdatedAt     int64       `bson:"updated_at" json:"updated_at"`
}

// CheckoutItemReq usecase checkout request line
type CheckoutItemReq struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// OrderEvent 下單後發布到 Kafka 的事件
type OrderEvent struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
	Total      int64  `json:"total"`
	PlacedAt   int64  `json:"placed_at"`
}
