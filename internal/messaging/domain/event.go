package domain

// Event is the external planning entity that owns a conversation. Read-only to
// this service; consumed by id.
type Event struct {
	ID        string `json:"id"`
	CreatorID string `json:"creator_id"`
	Name      string `json:"name"`
}
