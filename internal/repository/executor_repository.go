package repository

import (
	"context"
	"database/sql"

	"github.com/dkravtsov/offerhub/internal/model"
)

// ExecutorRepo persists offer applications.
type ExecutorRepo struct{ DB *sql.DB }

func NewExecutorRepo(db *sql.DB) *ExecutorRepo { return &ExecutorRepo{DB: db} }

// Create inserts an executor row. Applying twice to the same offer hits
// the (user_id, offer_id) unique key and yields ErrDuplicate.
func (r *ExecutorRepo) Create(ctx context.Context, userID, offerID uint64) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO executors (user_id, offer_id) VALUES (?,?)",
		userID, offerID)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetDetail fetches an executor together with the owning offer's owner
// id, which the removal and chat-creation guards need.
func (r *ExecutorRepo) GetDetail(ctx context.Context, id uint64) (model.ExecutorDetail, error) {
	var e model.ExecutorDetail
	err := r.DB.QueryRowContext(ctx,
		`SELECT e.id, e.user_id, e.offer_id, e.is_approved, o.user_id
		 FROM executors e JOIN offers o ON o.id = e.offer_id
		 WHERE e.id=? LIMIT 1`,
		id).Scan(&e.ID, &e.UserID, &e.OfferID, &e.IsApproved, &e.OfferOwnerID)
	return e, err
}

// ListByOffer returns all executors of an offer.
func (r *ExecutorRepo) ListByOffer(ctx context.Context, offerID uint64) ([]model.Executor, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,user_id,offer_id,is_approved FROM executors WHERE offer_id=?", offerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Executor
	for rows.Next() {
		var e model.Executor
		if err := rows.Scan(&e.ID, &e.UserID, &e.OfferID, &e.IsApproved); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Approve marks an executor as accepted by the offer owner.
func (r *ExecutorRepo) Approve(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE executors SET is_approved=1 WHERE id=?", id)
	return err
}

// Delete removes an executor row; chats referencing it cascade.
func (r *ExecutorRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM executors WHERE id=?", id)
	return err
}
