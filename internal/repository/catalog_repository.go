package repository

import (
	"context"
	"database/sql"

	"github.com/dkravtsov/offerhub/internal/model"
)

// CatalogRepo reads the category and offer-type lookup tables. These are
// seeded by migration and never mutated through the API.
type CatalogRepo struct{ DB *sql.DB }

func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{DB: db} }

// ListCategories returns all offer categories ordered by name.
func (r *CatalogRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id,name FROM categories ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListOfferTypes returns all offer types.
func (r *CatalogRepo) ListOfferTypes(ctx context.Context) ([]model.OfferType, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id,type FROM offer_types ORDER BY type")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.OfferType
	for rows.Next() {
		var t model.OfferType
		if err := rows.Scan(&t.ID, &t.Type); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
