package domain

// MessageSentEvent is emitted after a successful send, for in-process listeners
// and the cross-service event stream. Fire-and-forget; must never block the send.
type MessageSentEvent struct {
	Message          Message `json:"message"`
	EventID          string  `json:"event_id"`
	ParticipantCount int     `json:"participant_count"`
}

// Identity resolved display data for one user id.
type Identity struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}
