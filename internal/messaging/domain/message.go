package domain

import "time"

// SenderType distinguishes planner users from vendor profiles.
type SenderType string

const (
	// SenderTypeUser message sent by a planner/collaborator account
	SenderTypeUser SenderType = "user"
	// SenderTypeVendor message sent by a vendor profile
	SenderTypeVendor SenderType = "vendor"
)

// Preview lengths for the thread preview and notification body.
const (
	PreviewMaxLen             = 140
	NotificationPreviewMaxLen = 100
)

// DefaultPageLimit messages per page when the caller does not set one.
const DefaultPageLimit = 50

// Message is immutable once created. Ordering within a thread is by created_at
// ascending, ties broken by the insertion sequence.
type Message struct {
	Seq        int64      `json:"-"`
	ID         string     `json:"id"`
	ThreadID   string     `json:"thread_id"`
	SenderID   string     `json:"sender_id"`
	SenderType SenderType `json:"sender_type"`
	Body       string     `json:"body"`
	CreatedAt  time.Time  `json:"created_at"`
}

// PageOptions control backward cursor pagination: up to Limit messages strictly
// older than Before, or the most recent Limit when Before is nil.
type PageOptions struct {
	Limit  int
	Before *time.Time
}

// Truncate cuts body to max runes, appending an ellipsis when cut.
func Truncate(body string, max int) string {
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	return string(runes[:max]) + "..."
}
