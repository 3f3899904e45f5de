package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oakward/identity/internal/auth"
	"github.com/oakward/identity/pkg/pg"
)

// OAuthRepository implements auth.OAuthStorage.
type OAuthRepository struct {
	pool *pgxpool.Pool
}

// NewOAuthRepository creates the OAuth provider/connection repository.
func NewOAuthRepository(pool *pgxpool.Pool) *OAuthRepository {
	return &OAuthRepository{pool: pool}
}

func (r *OAuthRepository) GetProviderByName(ctx context.Context, name string) (*auth.Provider, error) {
	query := `
		SELECT id, name, client_id, client_secret, auth_url, token_url,
			user_info_url, scopes, is_active, created_at, updated_at
		FROM oauth_providers WHERE name = $1`

	var p auth.Provider
	err := r.pool.QueryRow(ctx, query, name).Scan(
		&p.ID,
		&p.Name,
		&p.ClientID,
		&p.ClientSecret,
		&p.AuthURL,
		&p.TokenURL,
		&p.UserInfoURL,
		&p.Scopes,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if pg.IsNotFound(err) {
		return nil, auth.ErrProviderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertProvider inserts or refreshes a provider row keyed by name. Seeding
// runs this on every boot, so it has to be idempotent.
func (r *OAuthRepository) UpsertProvider(ctx context.Context, provider *auth.Provider) error {
	query := `
		INSERT INTO oauth_providers (id, name, client_id, client_secret,
			auth_url, token_url, user_info_url, scopes, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (name) DO UPDATE SET
			client_id = EXCLUDED.client_id,
			client_secret = EXCLUDED.client_secret,
			auth_url = EXCLUDED.auth_url,
			token_url = EXCLUDED.token_url,
			user_info_url = EXCLUDED.user_info_url,
			scopes = EXCLUDED.scopes,
			is_active = EXCLUDED.is_active,
			updated_at = now()
		RETURNING id, created_at, updated_at`

	if provider.ID == uuid.Nil {
		provider.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, query,
		provider.ID,
		provider.Name,
		provider.ClientID,
		provider.ClientSecret,
		provider.AuthURL,
		provider.TokenURL,
		provider.UserInfoURL,
		provider.Scopes,
		provider.IsActive,
	).Scan(&provider.ID, &provider.CreatedAt, &provider.UpdatedAt)
}

const connectionColumns = `id, user_id, provider_id, provider_user_id,
	access_token, refresh_token, token_expires_at, created_at, updated_at`

func (r *OAuthRepository) GetConnection(ctx context.Context, providerID uuid.UUID, providerUserID string) (*auth.Connection, error) {
	query := `SELECT ` + connectionColumns + `
		FROM user_oauth_connections
		WHERE provider_id = $1 AND provider_user_id = $2`

	var c auth.Connection
	err := r.pool.QueryRow(ctx, query, providerID, providerUserID).Scan(
		&c.ID,
		&c.UserID,
		&c.ProviderID,
		&c.ProviderUserID,
		&c.AccessToken,
		&c.RefreshToken,
		&c.TokenExpiresAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if pg.IsNotFound(err) {
		return nil, auth.ErrConnectionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpsertConnection links a user to a provider identity, refreshing stored
// provider tokens on re-login. A (user, provider) collision with a different
// provider identity is a conflict, not an update.
func (r *OAuthRepository) UpsertConnection(ctx context.Context, conn *auth.Connection) error {
	query := `
		INSERT INTO user_oauth_connections (id, user_id, provider_id,
			provider_user_id, access_token, refresh_token, token_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (provider_id, provider_user_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expires_at = EXCLUDED.token_expires_at,
			updated_at = now()
		RETURNING id, created_at, updated_at`

	if conn.ID == uuid.Nil {
		conn.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, query,
		conn.ID,
		conn.UserID,
		conn.ProviderID,
		conn.ProviderUserID,
		conn.AccessToken,
		conn.RefreshToken,
		conn.TokenExpiresAt,
	).Scan(&conn.ID, &conn.CreatedAt, &conn.UpdatedAt)
	if pg.IsUniqueViolation(err) {
		return auth.ErrConnectionExists
	}
	return err
}

func (r *OAuthRepository) ListUserConnections(ctx context.Context, userID uuid.UUID) ([]auth.Connection, error) {
	query := `SELECT ` + connectionColumns + `
		FROM user_oauth_connections WHERE user_id = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conns []auth.Connection
	for rows.Next() {
		var c auth.Connection
		if err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.ProviderID,
			&c.ProviderUserID,
			&c.AccessToken,
			&c.RefreshToken,
			&c.TokenExpiresAt,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		conns = append(conns, c)
	}
	return conns, rows.Err()
}

var _ auth.OAuthStorage = (*OAuthRepository)(nil)
