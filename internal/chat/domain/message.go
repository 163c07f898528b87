package domain

import "strings"

// ChatMessage 表示對話中的一則訊息，寫入後不可變
type ChatMessage struct {
	ID             string `bson:"_id,omitempty" json:"id"`
	ConversationID string `bson:"conversation_id" json:"conversation_id"`

	SenderID    string `bson:"sender_id" json:"sender_id"`
	SenderEmail string `bson:"sender_email" json:"sender_email"`
	IsAdmin     bool   `bson:"is_admin" json:"is_admin"`

	Text     string `bson:"text" json:"text"`
	ImageURL string `bson:"image_url,omitempty" json:"image_url,omitempty"`

	// store 寫入時指派，毫秒，對話內遞增排序鍵
	Timestamp int64 `bson:"timestamp" json:"timestamp"`
}

// IsEmpty a message must carry text or an image
func (m *ChatMessage) IsEmpty() bool {
	return strings.TrimSpace(m.Text) == "" && m.ImageURL == ""
}

// PreviewText 對話列表顯示的最後一則訊息摘要
func (m *ChatMessage) PreviewText() string {
	if t := strings.TrimSpace(m.Text); t != "" {
		return t
	}
	return ImageSharedPreview
}
