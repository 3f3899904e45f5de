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

const sessionColumns = `id, user_id, access_token, refresh_token_hash,
	access_expires_at, refresh_expires_at, is_active, ip, user_agent,
	device_info, created_at, updated_at`

// SessionRepository implements auth.SessionStorage.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates the session repository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func scanSession(row pgx.Row) (*auth.Session, error) {
	var s auth.Session
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.AccessToken,
		&s.RefreshTokenHash,
		&s.AccessExpiresAt,
		&s.RefreshExpiresAt,
		&s.IsActive,
		&s.IP,
		&s.UserAgent,
		&s.DeviceInfo,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) CreateSession(ctx context.Context, session *auth.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, access_token, refresh_token_hash,
			access_expires_at, refresh_expires_at, is_active, ip, user_agent, device_info)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		session.ID,
		session.UserID,
		session.AccessToken,
		session.RefreshTokenHash,
		session.AccessExpiresAt,
		session.RefreshExpiresAt,
		session.IsActive,
		session.IP,
		session.UserAgent,
		session.DeviceInfo,
	).Scan(&session.CreatedAt, &session.UpdatedAt)
}

func (r *SessionRepository) GetSessionByID(ctx context.Context, id uuid.UUID) (*auth.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	s, err := scanSession(r.pool.QueryRow(ctx, query, id))
	if pg.IsNotFound(err) {
		return nil, auth.ErrSessionNotFound
	}
	return s, err
}

func (r *SessionRepository) GetSessionByRefreshHash(ctx context.Context, refreshTokenHash string) (*auth.Session, error) {
	query := `SELECT ` + sessionColumns + `
		FROM sessions
		WHERE refresh_token_hash = $1 AND is_active AND refresh_expires_at > now()`
	s, err := scanSession(r.pool.QueryRow(ctx, query, refreshTokenHash))
	if pg.IsNotFound(err) {
		return nil, auth.ErrSessionNotFound
	}
	return s, err
}

// UpdateSessionTokens is the refresh-rotation arbiter: a single conditional
// UPDATE keyed on the old refresh hash. Zero rows means another refresher won
// the race or the session died in between.
func (r *SessionRepository) UpdateSessionTokens(ctx context.Context, refreshTokenHash string, upd auth.SessionTokenUpdate) (*auth.Session, error) {
	query := `
		UPDATE sessions
		SET access_token = $2,
			access_expires_at = $3,
			refresh_token_hash = COALESCE(NULLIF($4, ''), refresh_token_hash),
			refresh_expires_at = CASE WHEN $4 <> '' THEN $5 ELSE refresh_expires_at END,
			updated_at = now()
		WHERE refresh_token_hash = $1 AND is_active AND refresh_expires_at > now()
		RETURNING ` + sessionColumns

	s, err := scanSession(r.pool.QueryRow(ctx, query,
		refreshTokenHash,
		upd.AccessToken,
		upd.AccessExpiresAt,
		upd.RefreshTokenHash,
		upd.RefreshExpiresAt,
	))
	if pg.IsNotFound(err) {
		return nil, auth.ErrSessionNotFound
	}
	return s, err
}

// DeactivateSession is idempotent: deactivating a missing or already inactive
// session is not an error.
func (r *SessionRepository) DeactivateSession(ctx context.Context, refreshTokenHash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sessions SET is_active = FALSE, updated_at = now() WHERE refresh_token_hash = $1`,
		refreshTokenHash)
	return err
}

func (r *SessionRepository) RevokeUserSessions(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sessions SET is_active = FALSE, updated_at = now() WHERE user_id = $1 AND is_active`,
		userID)
	return err
}

func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM sessions WHERE refresh_expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ auth.SessionStorage = (*SessionRepository)(nil)
