package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dscatalog/internal/domain"
)

var (
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenRevoked  = errors.New("refresh token has been revoked")
)

const (
	insertRefreshTokenQuery = `INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at, revoked) VALUES ($1, $2, $3, $4, $5, $6)`
	revokeRefreshTokenQuery = `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1 AND revoked = FALSE`
	revokeOwnedTokenQuery   = `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1 AND user_id = $2 AND revoked = FALSE`
)

// RefreshTokenRepository stores the long-lived tokens handed out at login.
// A token is usable once: refreshing rotates it.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	// Revoke revokes token only if it belongs to userID; a token of another
	// user is reported as ErrRefreshTokenNotFound
	Revoke(ctx context.Context, userID int64, token string) error
	// Rotate revokes current and stores next atomically. It returns
	// ErrRefreshTokenNotFound when current was already spent.
	Rotate(ctx context.Context, current string, next *domain.RefreshToken) error
	RevokeAllForUser(ctx context.Context, userID int64) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type refreshTokenRepository struct {
	db *sql.DB
}

func NewRefreshTokenRepository(db *sql.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func insertRefreshToken(ctx context.Context, q DBTX, t *domain.RefreshToken) error {
	if _, err := q.ExecContext(ctx, insertRefreshTokenQuery, t.ID, t.UserID, t.Token, t.ExpiresAt, t.CreatedAt, t.Revoked); err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

func revokeRefreshToken(ctx context.Context, q DBTX, query string, args ...interface{}) error {
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrRefreshTokenNotFound
	}
	return nil
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	return insertRefreshToken(ctx, r.db, token)
}

// FindByToken returns ErrRefreshTokenRevoked for a token that exists but
// was spent, so callers can tell reuse from garbage
func (r *refreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token, expires_at, created_at, revoked FROM refresh_tokens WHERE token = $1`,
		token,
	).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt, &t.Revoked)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrRefreshTokenNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	case t.Revoked:
		return nil, ErrRefreshTokenRevoked
	}
	return &t, nil
}

func (r *refreshTokenRepository) Revoke(ctx context.Context, userID int64, token string) error {
	return revokeRefreshToken(ctx, r.db, revokeOwnedTokenQuery, token, userID)
}

func (r *refreshTokenRepository) Rotate(ctx context.Context, current string, next *domain.RefreshToken) error {
	return withTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		// the conditional update serializes two refreshes racing on one token
		if err := revokeRefreshToken(ctx, tx, revokeRefreshTokenQuery, current); err != nil {
			return err
		}
		return insertRefreshToken(ctx, tx, next)
	})
}

func (r *refreshTokenRepository) RevokeAllForUser(ctx context.Context, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = $1 AND revoked = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke user refresh tokens: %w", err)
	}
	return result.RowsAffected()
}

func (r *refreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}
	return result.RowsAffected()
}
