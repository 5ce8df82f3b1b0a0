package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"auth-api/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (domain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetEmailVerified(ctx context.Context, id string, verified bool) error
	LinkGoogle(ctx context.Context, id, googleID string) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `id, email, name, role, google_id, password_hash, is_email_verified, created_at`

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, email, name, role, google_id, password_hash, is_email_verified, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Role,
		user.GoogleID,
		user.PasswordHash,
		user.IsEmailVerified,
		user.CreatedAt,
	)
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`
	return r.scanOne(ctx, query, id)
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
	`
	return r.scanOne(ctx, query, email)
}

func (r *PgUserRepository) GetByGoogleID(ctx context.Context, googleID string) (domain.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE google_id = $1
	`
	return r.scanOne(ctx, query, googleID)
}

func (r *PgUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `
		UPDATE users SET password_hash = $2
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, passwordHash)
	return err
}

func (r *PgUserRepository) SetEmailVerified(ctx context.Context, id string, verified bool) error {
	const query = `
		UPDATE users SET is_email_verified = $2
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, verified)
	return err
}

func (r *PgUserRepository) LinkGoogle(ctx context.Context, id, googleID string) error {
	// google_id es inmutable una vez asignado.
	const query = `
		UPDATE users SET google_id = $2, is_email_verified = TRUE
		WHERE id = $1 AND google_id IS NULL
	`
	_, err := r.pool.Exec(ctx, query, id, googleID)
	return err
}

func (r *PgUserRepository) scanOne(ctx context.Context, query string, arg any) (domain.User, error) {
	var (
		u        domain.User
		googleID *string
	)
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Role,
		&googleID,
		&u.PasswordHash,
		&u.IsEmailVerified,
		&u.CreatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	if googleID != nil {
		u.GoogleID = *googleID
	}
	return u, nil
}
