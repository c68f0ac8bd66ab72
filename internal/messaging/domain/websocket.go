package domain

// Action websocket request action
type Action string

const (
	// SubscribeThread websocket action subscribe_thread
	SubscribeThread Action = "subscribe_thread"
	// UnsubscribeThread websocket action unsubscribe_thread
	UnsubscribeThread Action = "unsubscribe_thread"

	// SendMessage websocket action send_message
	SendMessage Action = "send_message"
	// GetMessages websocket action get_messages
	GetMessages Action = "get_messages"
	// ReadThread websocket action read_thread
	ReadThread Action = "read_thread"

	// NotifyMessage websocket action notify_message
	NotifyMessage Action = "notify_message"
)

// WSRequest websocket Request
type WSRequest struct {
	Action   string `json:"action"`
	EventID  string `json:"event_id"`
	ThreadID string `json:"thread_id"`
	Content  string `json:"content"`
	Limit    int    `json:"limit"`
	Before   string `json:"before"` // RFC3339 cursor
}

// WSResponse websocket Response
type WSResponse struct {
	Action  string                 `json:"action"`
	Success bool                   `json:"success"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Error   string                 `json:"error,omitempty"`
}
