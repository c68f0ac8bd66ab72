package domain

import "time"

// Participant is a (thread, user) pairing tracking read state. Rows are created
// lazily the first time a user touches a thread; last_read_at is the only
// mutable field.
type Participant struct {
	ThreadID   string     `json:"thread_id"`
	UserID     string     `json:"user_id"`
	LastReadAt *time.Time `json:"last_read_at,omitempty"`
}
