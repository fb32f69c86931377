// Package notify publishes structured user notifications over Redis
// pub/sub, one channel per recipient, and hands subscriptions to the
// event stream handler.
package notify

import "encoding/json"

// Notification kinds. The set is closed: every event on the wire is one
// of these, always in the same JSON shape.
const (
	EventMessage       = "message"
	EventServiceNotify = "service_notify"
)

// Notification is the single canonical event payload. Source carries
// kind-specific context such as {"chat_id": ...}.
type Notification struct {
	Event       string            `json:"event"`
	UserID      uint64            `json:"user_id"`
	Source      map[string]uint64 `json:"source,omitempty"`
	Description string            `json:"description,omitempty"`
}

// Encode returns the canonical JSON encoding published on the bus and
// relayed verbatim to stream clients.
func (n Notification) Encode() ([]byte, error) {
	return json.Marshal(n)
}

// NewMessage builds a chat message notification for a recipient.
func NewMessage(recipientID, chatID uint64) Notification {
	return Notification{
		Event:  EventMessage,
		UserID: recipientID,
		Source: map[string]uint64{"chat_id": chatID},
	}
}

// NewServiceNotify builds a service notification about an offer, such
// as an application approval.
func NewServiceNotify(recipientID, offerID uint64, description string) Notification {
	return Notification{
		Event:       EventServiceNotify,
		UserID:      recipientID,
		Source:      map[string]uint64{"offer_id": offerID},
		Description: description,
	}
}
