package domain

const (
	// ChatStartedPreview preview text for a brand-new conversation
	ChatStartedPreview = "Chat started"
	// ImageSharedPreview preview text when a message carries only an image
	ImageSharedPreview = "Image shared"
)

// Conversation 表示一位顧客的客服對話，每位顧客只有一筆
type Conversation struct {
	ID            string `bson:"_id,omitempty" json:"id"`
	CustomerID    string `bson:"customer_id" json:"customer_id"`
	CustomerEmail string `bson:"customer_email" json:"customer_email"`

	// 第一次有 admin 回覆時指派
	AdminID    string `bson:"admin_id,omitempty" json:"admin_id,omitempty"`
	AdminEmail string `bson:"admin_email,omitempty" json:"admin_email,omitempty"`

	CreatedAt         int64  `bson:"created_at" json:"created_at"`
	LastMessage       string `bson:"last_message" json:"last_message"`
	LastMessageTime   int64  `bson:"last_message_time" json:"last_message_time"`
	LastMessageSender string `bson:"last_message_sender,omitempty" json:"last_message_sender,omitempty"`

	// 雙方各自的未讀計數，發訊息 +1 對方，開啟對話歸零自己
	UnreadCustomer int `bson:"unread_customer" json:"unread_customer"`
	UnreadAdmin    int `bson:"unread_admin" json:"unread_admin"`
}

// UnreadFor returns the viewer side counter
func (c *Conversation) UnreadFor(viewerIsAdmin bool) int {
	if viewerIsAdmin {
		return c.UnreadAdmin
	}
	return c.UnreadCustomer
}
