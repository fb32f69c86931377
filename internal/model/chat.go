package model

import "time"

// Chat is a messaging thread scoped to exactly one offer/executor
// pairing (`chats` table). Created and deleted by the offer owner.
type Chat struct {
	ID         uint64    // chats.id
	Name       string    // chats.chat_name
	OfferID    uint64    // chats.offer_id
	ExecutorID uint64    // chats.executor_id
	CreatedAt  time.Time // chats.created_at
}

// ChatDetail is a Chat joined with both participants' user ids. The
// guards and the recipient computation need them on every message, so
// the repository resolves them in one query.
type ChatDetail struct {
	Chat
	OwnerUserID    uint64 // offers.user_id via chats.offer_id
	ExecutorUserID uint64 // executors.user_id via chats.executor_id
}

// OtherParty returns the chat participant opposite to userID, and false
// when userID is not a participant at all.
func (c ChatDetail) OtherParty(userID uint64) (uint64, bool) {
	switch userID {
	case c.OwnerUserID:
		return c.ExecutorUserID, true
	case c.ExecutorUserID:
		return c.OwnerUserID, true
	}
	return 0, false
}

// Message belongs to exactly one chat and is immutable once created
// (`messages` table). RecipientID is computed at post time as the other
// chat participant.
type Message struct {
	ID          uint64    // messages.id
	ChatID      uint64    // messages.chat_id
	OwnerID     uint64    // messages.owner_id (sender)
	RecipientID uint64    // messages.recipient_id
	Content     string    // messages.content
	CreatedAt   time.Time // messages.created_at
}
