package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"auth-api/internal/domain"
)

// PgTokenStore persiste registros de tokens en Postgres. El consumo atómico
// se apoya en DELETE ... RETURNING: de N llamadas concurrentes con el mismo
// token, exactamente una recibe la fila.
type PgTokenStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewPgTokenStore(pool *pgxpool.Pool) *PgTokenStore {
	return &PgTokenStore{
		pool:    pool,
		timeout: 3 * time.Second,
	}
}

func (s *PgTokenStore) Save(rec domain.TokenRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	const query = `
		INSERT INTO tokens (token, user_id, type, expires_at, blacklisted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.pool.Exec(ctx, query,
		rec.Token,
		rec.UserID,
		string(rec.Type),
		rec.ExpiresAt,
		rec.Blacklisted,
		rec.CreatedAt,
	)
	return err
}

func (s *PgTokenStore) FindAndDelete(token string, typ domain.TokenType) (domain.TokenRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	const query = `
		DELETE FROM tokens
		WHERE token = $1 AND type = $2 AND blacklisted = FALSE AND expires_at > now()
		RETURNING token, user_id, type, expires_at, blacklisted, created_at
	`
	var rec domain.TokenRecord
	err := s.pool.QueryRow(ctx, query, token, string(typ)).Scan(
		&rec.Token,
		&rec.UserID,
		&rec.Type,
		&rec.ExpiresAt,
		&rec.Blacklisted,
		&rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.TokenRecord{}, domain.ErrTokenNotFound
	}
	if err != nil {
		return domain.TokenRecord{}, err
	}
	return rec, nil
}

func (s *PgTokenStore) DeleteAllForUser(userID string, typ domain.TokenType) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	const query = `
		DELETE FROM tokens
		WHERE user_id = $1 AND type = $2
	`
	_, err := s.pool.Exec(ctx, query, userID, string(typ))
	return err
}

func (s *PgTokenStore) DeleteExpired() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	const query = `
		DELETE FROM tokens
		WHERE expires_at <= now()
	`
	tag, err := s.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
