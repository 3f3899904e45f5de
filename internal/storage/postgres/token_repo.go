package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oakward/identity/internal/auth"
	"github.com/oakward/identity/pkg/pg"
)

const tokenColumns = `id, user_id, token, kind, expires_at, used_at, created_at`

// TokenRepository implements auth.TokenStorage.
type TokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository creates the verification-token repository.
func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

func scanToken(row pgx.Row) (*auth.VerificationToken, error) {
	var t auth.VerificationToken
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Token,
		&t.Kind,
		&t.ExpiresAt,
		&t.UsedAt,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TokenRepository) CreateToken(ctx context.Context, token *auth.VerificationToken) error {
	query := `
		INSERT INTO verification_tokens (id, user_id, token, kind, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		token.ID,
		token.UserID,
		token.Token,
		token.Kind,
		token.ExpiresAt,
	).Scan(&token.CreatedAt)
}

// ConsumeToken flips unused to used in one statement. Under concurrent
// consumption exactly one caller gets the row back.
func (r *TokenRepository) ConsumeToken(ctx context.Context, token string, kind auth.TokenKind) (*auth.VerificationToken, error) {
	query := `
		UPDATE verification_tokens
		SET used_at = now()
		WHERE token = $1 AND kind = $2 AND used_at IS NULL AND expires_at > now()
		RETURNING ` + tokenColumns

	t, err := scanToken(r.pool.QueryRow(ctx, query, token, kind))
	if pg.IsNotFound(err) {
		return nil, auth.ErrTokenNotFound
	}
	return t, err
}

func (r *TokenRepository) FindToken(ctx context.Context, token string, kind auth.TokenKind) (*auth.VerificationToken, error) {
	query := `SELECT ` + tokenColumns + `
		FROM verification_tokens WHERE token = $1 AND kind = $2`
	t, err := scanToken(r.pool.QueryRow(ctx, query, token, kind))
	if pg.IsNotFound(err) {
		return nil, auth.ErrTokenNotFound
	}
	return t, err
}

// InvalidateUserTokens marks outstanding unused tokens of a kind as spent, so
// reissuing leaves at most one live token per (user, kind).
func (r *TokenRepository) InvalidateUserTokens(ctx context.Context, userID uuid.UUID, kind auth.TokenKind) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE verification_tokens SET used_at = now() WHERE user_id = $1 AND kind = $2 AND used_at IS NULL`,
		userID, kind)
	return err
}

func (r *TokenRepository) DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM verification_tokens WHERE expires_at < $1 OR used_at IS NOT NULL`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ auth.TokenStorage = (*TokenRepository)(nil)
