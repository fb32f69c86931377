package repository

import (
	"context"
	"database/sql"

	"github.com/dkravtsov/offerhub/internal/model"
)

// FileRepo persists offer attachment metadata. The blobs themselves
// live in object storage; only names and links are stored here.
type FileRepo struct{ DB *sql.DB }

func NewFileRepo(db *sql.DB) *FileRepo { return &FileRepo{DB: db} }

// Create inserts a file record for an offer.
func (r *FileRepo) Create(ctx context.Context, f model.FileOffer) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO file_offers (offer_id, name, link) VALUES (?,?,?)",
		f.OfferID, f.Name, f.Link)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetWithOwner fetches a file and the owner id of its offer in one
// query, for the ownership guard.
func (r *FileRepo) GetWithOwner(ctx context.Context, id uint64) (model.FileOffer, uint64, error) {
	var f model.FileOffer
	var ownerID uint64
	err := r.DB.QueryRowContext(ctx,
		`SELECT f.id, f.offer_id, f.name, f.link, o.user_id
		 FROM file_offers f JOIN offers o ON o.id = f.offer_id
		 WHERE f.id=? LIMIT 1`,
		id).Scan(&f.ID, &f.OfferID, &f.Name, &f.Link, &ownerID)
	return f, ownerID, err
}

// ListByOffer returns all files attached to an offer.
func (r *FileRepo) ListByOffer(ctx context.Context, offerID uint64) ([]model.FileOffer, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,offer_id,name,link FROM file_offers WHERE offer_id=?", offerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.FileOffer
	for rows.Next() {
		var f model.FileOffer
		if err := rows.Scan(&f.ID, &f.OfferID, &f.Name, &f.Link); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Update replaces a file's name and link.
func (r *FileRepo) Update(ctx context.Context, f model.FileOffer) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE file_offers SET name=?, link=? WHERE id=?", f.Name, f.Link, f.ID)
	return err
}

// Delete removes a file record.
func (r *FileRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM file_offers WHERE id=?", id)
	return err
}
