package domain

import "time"

// NotificationTypeMessage notification created by the message fan-out
const NotificationTypeMessage = "message"

// Notification is created as a side effect of a message send, one row per
// eligible recipient. Its lifecycle is independent from the message.
type Notification struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"type:uuid;index" json:"user_id"`
	Type       string    `gorm:"size:32" json:"type"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	EventID    string    `gorm:"type:uuid;index" json:"event_id"`
	ReadStatus bool      `gorm:"default:false" json:"read_status"`
	Metadata   string    `json:"metadata,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// EmailRequest is the payload handed to the email-delivery collaborator.
type EmailRequest struct {
	RecipientEmail   string `json:"recipientEmail"`
	NotificationType string `json:"notificationType"`
	EventID          string `json:"eventId"`
	EventName        string `json:"eventName"`
	SenderName       string `json:"senderName"`
	MessagePreview   string `json:"messagePreview"`
	RecipientUserID  string `json:"recipientUserId"`
}

// EmailResult reports delivery acceptance; Skipped is not an error (the
// collaborator owns the rate-limit policy).
type EmailResult struct {
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason,omitempty"`
}
