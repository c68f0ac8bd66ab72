package domain

import "time"

// Thread subjects. GroupSubject marks the canonical all-participants thread of an
// event; DirectSubject paired with a counterpart id marks a 1:1 planner-vendor thread.
const (
	GroupSubject  = "group-chat"
	DirectSubject = "vendor-chat"
)

// Counterpart sentinels accepted by the vendor-thread resolver.
const (
	// CounterpartPlanner addresses the event planner; resolved to the vendor-profile
	// id of the other party since direct threads are stored from the vendor side.
	CounterpartPlanner = "planner"
	// CounterpartAll delegates to the group thread.
	CounterpartAll = "all"
)

type threadKindTag int

const (
	kindGroup threadKindTag = iota
	kindDirect
)

// ThreadKind is a tagged variant: the shared group chat or a 1:1 thread with a
// specific counterpart.
type ThreadKind struct {
	tag          threadKindTag
	counterpartID string
}

// GroupKind create the group-chat kind
func GroupKind() ThreadKind {
	return ThreadKind{tag: kindGroup}
}

// DirectKind create a 1:1 kind with the given counterpart vendor-profile id
func DirectKind(counterpartID string) ThreadKind {
	return ThreadKind{tag: kindDirect, counterpartID: counterpartID}
}

// IsGroup reports whether this is the group-chat kind.
func (k ThreadKind) IsGroup() bool {
	return k.tag == kindGroup
}

// CounterpartID returns the counterpart id of a direct kind, empty for group.
func (k ThreadKind) CounterpartID() string {
	return k.counterpartID
}

// Subject returns the stored thread subject for this kind.
func (k ThreadKind) Subject() string {
	if k.tag == kindGroup {
		return GroupSubject
	}
	return DirectSubject
}

// Thread is a persistent conversation container scoped to one event.
type Thread struct {
	ID                 string     `json:"id"`
	EventID            string     `json:"event_id"`
	Subject            string     `json:"subject"`
	CounterpartID      *string    `json:"counterpart_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	LastMessageAt      *time.Time `json:"last_message_at,omitempty"`
	LastMessagePreview string     `json:"last_message_preview,omitempty"`
	IsArchived         bool       `json:"is_archived"`
}

// ThreadWithParticipants bundles a resolved thread with its participant rows.
type ThreadWithParticipants struct {
	Thread       Thread        `json:"thread"`
	Participants []Participant `json:"participants"`
}
