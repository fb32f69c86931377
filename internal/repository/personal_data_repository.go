package repository

import (
	"context"
	"database/sql"

	"github.com/dkravtsov/offerhub/internal/model"
)

// PersonalDataRepo persists profile rows, one per user, created empty at
// registration and filled in later.
type PersonalDataRepo struct{ DB *sql.DB }

func NewPersonalDataRepo(db *sql.DB) *PersonalDataRepo { return &PersonalDataRepo{DB: db} }

// Create inserts an empty profile row for a freshly registered user.
func (r *PersonalDataRepo) Create(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO personal_data (user_id, first_name, surname, tg_nickname) VALUES (?,'','','')",
		userID)
	return err
}

// Get fetches the profile of a user.
func (r *PersonalDataRepo) Get(ctx context.Context, userID uint64) (model.PersonalData, error) {
	var p model.PersonalData
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id,first_name,surname,tg_nickname FROM personal_data WHERE user_id=? LIMIT 1",
		userID).Scan(&p.UserID, &p.FirstName, &p.Surname, &p.TgNickname)
	return p, err
}

// Update replaces the profile fields of a user.
func (r *PersonalDataRepo) Update(ctx context.Context, p model.PersonalData) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE personal_data SET first_name=?, surname=?, tg_nickname=? WHERE user_id=?",
		p.FirstName, p.Surname, p.TgNickname, p.UserID)
	return err
}
