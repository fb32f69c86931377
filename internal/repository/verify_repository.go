package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/dkravtsov/offerhub/internal/model"
)

// VerifyRepo persists email verification records and the password
// rotation audit trail.
type VerifyRepo struct{ DB *sql.DB }

func NewVerifyRepo(db *sql.DB) *VerifyRepo { return &VerifyRepo{DB: db} }

// CreateVerifyInfo inserts a one-time verification record. The unique
// constraint on user_id means a second request fails with ErrDuplicate,
// which handlers report as "already verified".
func (r *VerifyRepo) CreateVerifyInfo(ctx context.Context, userID uint64, token string) (model.VerifyInfo, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_verifications (user_id, token) VALUES (?,?)",
		userID, token)
	if err != nil {
		if isDuplicateKey(err) {
			return model.VerifyInfo{}, ErrDuplicate
		}
		return model.VerifyInfo{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.VerifyInfo{}, err
	}
	return model.VerifyInfo{ID: uint64(id), UserID: userID, Token: token}, nil
}

// GetVerifyInfo fetches a verification record by token, scoped to the
// requesting user so one user cannot consume another's token.
func (r *VerifyRepo) GetVerifyInfo(ctx context.Context, userID uint64, token string) (model.VerifyInfo, error) {
	var v model.VerifyInfo
	var verifiedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,token,created_at,verified_at FROM user_verifications WHERE token=? AND user_id=? LIMIT 1",
		token, userID).Scan(&v.ID, &v.UserID, &v.Token, &v.CreatedAt, &verifiedAt)
	if err != nil {
		return model.VerifyInfo{}, err
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		v.VerifiedAt = &t
	}
	return v, nil
}

// MarkVerified stamps the record with the verification time.
func (r *VerifyRepo) MarkVerified(ctx context.Context, id uint64, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE user_verifications SET verified_at=? WHERE id=?", at, id)
	return err
}

// RecordPasswordUpdate writes an audit row for a password rotation.
func (r *VerifyRepo) RecordPasswordUpdate(ctx context.Context, userID uint64, previousHash, currentHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO password_updates (user_id, previous_hash, current_hash) VALUES (?,?,?)",
		userID, previousHash, currentHash)
	return err
}
