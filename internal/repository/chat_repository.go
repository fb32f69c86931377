package repository

import (
	"context"
	"database/sql"

	"github.com/dkravtsov/offerhub/internal/model"
)

// ChatRepo persists chats and their messages.
type ChatRepo struct{ DB *sql.DB }

func NewChatRepo(db *sql.DB) *ChatRepo { return &ChatRepo{DB: db} }

// Create inserts a chat for an offer/executor pairing.
func (r *ChatRepo) Create(ctx context.Context, name string, offerID, executorID uint64) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO chats (chat_name, offer_id, executor_id) VALUES (?,?,?)",
		name, offerID, executorID)
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

// GetDetail fetches a chat together with both participants' user ids.
// Guards and recipient computation run off this single row.
func (r *ChatRepo) GetDetail(ctx context.Context, id uint64) (model.ChatDetail, error) {
	var c model.ChatDetail
	err := r.DB.QueryRowContext(ctx,
		`SELECT c.id, c.chat_name, c.offer_id, c.executor_id, c.created_at, o.user_id, e.user_id
		 FROM chats c
		 JOIN offers o ON o.id = c.offer_id
		 JOIN executors e ON e.id = c.executor_id
		 WHERE c.id=? LIMIT 1`,
		id).Scan(&c.ID, &c.Name, &c.OfferID, &c.ExecutorID, &c.CreatedAt,
		&c.OwnerUserID, &c.ExecutorUserID)
	return c, err
}

// Delete removes a chat and, via cascade, its messages.
func (r *ChatRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM chats WHERE id=?", id)
	return err
}

// CreateMessage appends an immutable message to a chat.
func (r *ChatRepo) CreateMessage(ctx context.Context, m model.Message) (model.Message, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO messages (chat_id, owner_id, recipient_id, content) VALUES (?,?,?,?)",
		m.ChatID, m.OwnerID, m.RecipientID, m.Content)
	if err != nil {
		return model.Message{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Message{}, err
	}
	m.ID = uint64(id)
	err = r.DB.QueryRowContext(ctx,
		"SELECT created_at FROM messages WHERE id=?", m.ID).Scan(&m.CreatedAt)
	return m, err
}

// ListMessages returns a chat's messages in posting order.
func (r *ChatRepo) ListMessages(ctx context.Context, chatID uint64) ([]model.Message, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,chat_id,owner_id,recipient_id,content,created_at FROM messages WHERE chat_id=? ORDER BY created_at, id",
		chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.OwnerID, &m.RecipientID, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
