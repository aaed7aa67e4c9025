package messages

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *Repository) InsertTx(ctx context.Context, tx pgx.Tx, m *models.Message) error {
	row := tx.QueryRow(ctx, `
		INSERT INTO messages (id, sender_id, receiver_id, content, attachment_url, attachment_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, m.ID, m.SenderID, m.ReceiverID, m.Content, m.AttachmentURL, m.AttachmentType)
	return row.Scan(&m.CreatedAt)
}

// Thread returns messages between two users, newest first.
func (r *Repository) Thread(ctx context.Context, userID, partnerID uuid.UUID, limit, offset int) ([]*models.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, sender_id, receiver_id, content, attachment_url, attachment_type, is_read, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
			OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, userID, partnerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.AttachmentURL, &m.AttachmentType, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

// MarkThreadRead marks everything the partner sent to the user as read.
func (r *Repository) MarkThreadRead(ctx context.Context, userID, partnerID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE messages SET is_read = true
		WHERE receiver_id = $1 AND sender_id = $2 AND is_read = false
	`, userID, partnerID)
	return err
}

// Conversation is one thread summary for the inbox list.
type Conversation struct {
	UserID        uuid.UUID `json:"user_id"`
	FullName      string    `json:"full_name"`
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`
	UnreadCount   int64     `json:"unread_count"`
}

// Conversations returns one row per chat partner with the latest message and
// the unread count, most recent thread first.
func (r *Repository) Conversations(ctx context.Context, userID uuid.UUID) ([]*Conversation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.partner_id, u.full_name, t.content, t.created_at,
			(SELECT COUNT(*) FROM messages x
			 WHERE x.sender_id = t.partner_id AND x.receiver_id = $1 AND x.is_read = false)
		FROM (
			SELECT DISTINCT ON (partner_id)
				CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END AS partner_id,
				content, created_at
			FROM messages
			WHERE sender_id = $1 OR receiver_id = $1
			ORDER BY partner_id, created_at DESC
		) t
		JOIN users u ON u.id = t.partner_id
		ORDER BY t.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.UserID, &c.FullName, &c.LastMessage, &c.LastMessageAt, &c.UnreadCount); err != nil {
			return nil, err
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

// FullName resolves a user's display name for notification titles.
func (r *Repository) FullName(ctx context.Context, userID uuid.UUID) (string, error) {
	var name string
	row := r.pool.QueryRow(ctx, `SELECT full_name FROM users WHERE id = $1`, userID)
	if err := row.Scan(&name); err != nil {
		return "", err
	}
	return name, nil
}
