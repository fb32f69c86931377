package model

import "time"

// Offer is a posted task owned by a user (`offers` table). Anonymous
// offers hide the owner from public views. S3Filename references an
// uploaded attachment in object storage and may be empty.
type Offer struct {
	ID          uint64    // offers.id
	UserID      uint64    // offers.user_id (owner)
	Title       string    // offers.title
	Description string    // offers.description
	S3Filename  string    // offers.s3_filename (may be empty)
	CategoryID  uint64    // offers.category_id
	TypeID      uint64    // offers.type_id
	IsAnonymous bool      // offers.is_anonymous
	IsClosed    bool      // offers.is_closed
	CreatedAt   time.Time // offers.created_at
}

// Executor links a user to an offer they applied for (`executors`).
// IsApproved is flipped by the offer owner.
type Executor struct {
	ID         uint64 // executors.id
	UserID     uint64 // executors.user_id
	OfferID    uint64 // executors.offer_id
	IsApproved bool   // executors.is_approved
}

// ExecutorDetail is an Executor joined with the owning offer, used by
// the ownership guards that need the offer owner without a second query.
type ExecutorDetail struct {
	Executor
	OfferOwnerID uint64 // offers.user_id
}

// Category and OfferType are small lookup tables used to tag offers.
type Category struct {
	ID   uint64 // categories.id
	Name string // categories.name
}

type OfferType struct {
	ID   uint64 // offer_types.id
	Type string // offer_types.type
}

// FileOffer is attachment metadata belonging to an offer
// (`file_offers`). Link is either an external document URL or an object
// storage key.
type FileOffer struct {
	ID      uint64 // file_offers.id
	OfferID uint64 // file_offers.offer_id
	Name    string // file_offers.name
	Link    string // file_offers.link
}
