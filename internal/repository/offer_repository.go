package repository

import (
	"context"
	"database/sql"

	"github.com/dkravtsov/offerhub/internal/model"
)

// OfferRepo persists offers.
type OfferRepo struct{ DB *sql.DB }

func NewOfferRepo(db *sql.DB) *OfferRepo { return &OfferRepo{DB: db} }

const offerColumns = "id,user_id,title,description,COALESCE(s3_filename,''),category_id,type_id,is_anonymous,is_closed,created_at"

func scanOffer(row interface{ Scan(...any) error }) (model.Offer, error) {
	var o model.Offer
	err := row.Scan(&o.ID, &o.UserID, &o.Title, &o.Description, &o.S3Filename,
		&o.CategoryID, &o.TypeID, &o.IsAnonymous, &o.IsClosed, &o.CreatedAt)
	return o, err
}

// Create inserts an offer and returns its id.
func (r *OfferRepo) Create(ctx context.Context, o model.Offer) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO offers (user_id, title, description, s3_filename, category_id, type_id, is_anonymous) VALUES (?,?,?,NULLIF(?,''),?,?,?)",
		o.UserID, o.Title, o.Description, o.S3Filename, o.CategoryID, o.TypeID, o.IsAnonymous)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a single offer.
func (r *OfferRepo) GetByID(ctx context.Context, id uint64) (model.Offer, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+offerColumns+" FROM offers WHERE id=? LIMIT 1", id)
	return scanOffer(row)
}

// List returns open offers filtered by optional category and type ids
// (zero means "any").
func (r *OfferRepo) List(ctx context.Context, categoryID, typeID uint64) ([]model.Offer, error) {
	query := "SELECT " + offerColumns + " FROM offers WHERE is_closed=0"
	args := []any{}
	if categoryID != 0 {
		query += " AND category_id=?"
		args = append(args, categoryID)
	}
	if typeID != 0 {
		query += " AND type_id=?"
		args = append(args, typeID)
	}
	query += " ORDER BY created_at DESC"
	return r.queryOffers(ctx, query, args...)
}

// ListByUser returns a user's own offers, optionally filtered by type.
func (r *OfferRepo) ListByUser(ctx context.Context, userID, typeID uint64) ([]model.Offer, error) {
	query := "SELECT " + offerColumns + " FROM offers WHERE user_id=?"
	args := []any{userID}
	if typeID != 0 {
		query += " AND type_id=?"
		args = append(args, typeID)
	}
	query += " ORDER BY created_at DESC"
	return r.queryOffers(ctx, query, args...)
}

func (r *OfferRepo) queryOffers(ctx context.Context, query string, args ...any) ([]model.Offer, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Update replaces the mutable fields of an offer. Ownership is checked
// by the handler before calling.
func (r *OfferRepo) Update(ctx context.Context, o model.Offer) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE offers SET title=?, description=?, s3_filename=NULLIF(?,''), category_id=?, type_id=?, is_anonymous=?, is_closed=? WHERE id=?",
		o.Title, o.Description, o.S3Filename, o.CategoryID, o.TypeID, o.IsAnonymous, o.IsClosed, o.ID)
	return err
}

// Delete removes an offer; executor rows, files and chats cascade.
func (r *OfferRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM offers WHERE id=?", id)
	return err
}
