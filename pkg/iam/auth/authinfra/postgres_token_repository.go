package authinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/konnected/identity/pkg/errx"
	"github.com/konnected/identity/pkg/iam/auth"
	"github.com/konnected/identity/pkg/kernel"
)

// PostgresTokenRepository stores refresh tokens in postgres. Tokens are
// consumed with a single DELETE ... RETURNING, so concurrent presentations
// of the same token resolve to exactly one winner.
type PostgresTokenRepository struct {
	db *sqlx.DB
}

var _ auth.TokenRepository = (*PostgresTokenRepository)(nil)

func NewPostgresTokenRepository(db *sqlx.DB) *PostgresTokenRepository {
	return &PostgresTokenRepository{db: db}
}

func (r *PostgresTokenRepository) Save(ctx context.Context, token auth.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query,
		token.ID, token.Token, token.UserID, token.ExpiresAt, token.CreatedAt)
	if err != nil {
		return errx.Wrap(err, "failed to save refresh token", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresTokenRepository) Consume(ctx context.Context, token string) (*auth.RefreshToken, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE token = $1
		RETURNING id, token, user_id, expires_at, created_at`

	var row auth.RefreshToken
	err := r.db.GetContext(ctx, &row, query, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrInvalidRefreshToken()
		}
		return nil, errx.Wrap(err, "failed to consume refresh token", errx.TypeInternal)
	}
	return &row, nil
}

func (r *PostgresTokenRepository) ConsumeForUser(ctx context.Context, token string, userID kernel.UserID) (*auth.RefreshToken, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE token = $1 AND user_id = $2
		RETURNING id, token, user_id, expires_at, created_at`

	var row auth.RefreshToken
	err := r.db.GetContext(ctx, &row, query, token, userID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrInvalidRefreshToken()
		}
		return nil, errx.Wrap(err, "failed to consume refresh token", errx.TypeInternal)
	}
	return &row, nil
}

func (r *PostgresTokenRepository) RevokeAllForUser(ctx context.Context, userID kernel.UserID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return errx.Wrap(err, "failed to revoke refresh tokens", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < NOW()`)
	if err != nil {
		return 0, errx.Wrap(err, "failed to delete expired refresh tokens", errx.TypeInternal)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
