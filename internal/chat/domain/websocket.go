package domain

// Action websocket request action
type Action string

const (
	// OpenChat websocket action open_chat
	OpenChat Action = "open_chat"
	// CloseChat websocket action close_chat
	CloseChat Action = "close_chat"

	// SendMessage websocket action send_message
	SendMessage Action = "send_message"
	// AttachImage websocket action attach_image
	AttachImage Action = "attach_image"
	// ClearImage websocket action clear_image
	ClearImage Action = "clear_image"

	// SelectConversation websocket action select_conversation (admin)
	SelectConversation Action = "select_conversation"
	// DeleteConversation websocket action delete_conversation (admin)
	DeleteConversation Action = "delete_conversation"

	// GetUnread websocket action get_unread
	GetUnread Action = "get_unread"

	// NotifyMessages push action notify_messages (message feed snapshot)
	NotifyMessages Action = "notify_messages"
	// NotifyDirectory push action notify_directory (conversation list snapshot)
	NotifyDirectory Action = "notify_directory"
	// NotifyUnread push action notify_unread (badge total)
	NotifyUnread Action = "notify_unread"
)

// WSRequest websocket Request
type WSRequest struct {
	Action         string `json:"action"`
	ConversationID string `json:"conversation_id,omitempty"`
	Text           string `json:"text,omitempty"`

	// attach_image payload
	FileName    string `json:"file_name,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	// base64 encoded image bytes
	Data string `json:"data,omitempty"`
}

// WSResponse websocket Response
type WSResponse struct {
	Action  string                 `json:"action"`
	Success bool                   `json:"success"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Error   string                 `json:"error,omitempty"`
}
