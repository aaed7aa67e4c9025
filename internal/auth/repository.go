package auth

import (
	"context"

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

const userColumns = `id, email, phone, password_hash, full_name, role, is_active, is_suspended, is_online, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Phone, &u.PasswordHash, &u.FullName,
		&u.Role, &u.IsActive, &u.IsSuspended, &u.IsOnline, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateTx inserts the user inside the signup transaction. Unique violations
// on email or phone surface as pgconn 23505.
func (r *Repository) CreateTx(ctx context.Context, tx pgx.Tx, u *models.User) error {
	return tx.QueryRow(ctx, `
		INSERT INTO users (id, email, phone, password_hash, full_name, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING is_active, created_at
	`, u.ID, u.Email, u.Phone, u.PasswordHash, u.FullName, u.Role).Scan(&u.IsActive, &u.CreatedAt)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE email = $1
	`, email))
}

func (r *Repository) GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, userID))
}

// SetOnline flips presence. Login and logout keep it current; the websocket
// hub reads it when routing pushes.
func (r *Repository) SetOnline(ctx context.Context, userID uuid.UUID, online bool) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET is_online = $2 WHERE id = $1
	`, userID, online)
	return err
}
