// Package postgres implements the storage interfaces over pgx. Repositories
// translate datastore errors into the domain sentinels at this boundary so
// services never see SQLSTATEs.
package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oakward/identity/internal/auth"
	"github.com/oakward/identity/pkg/pg"
)

const userColumns = `id, email, username, password_hash, full_name, role,
	is_active, is_email_verified, avatar_url, last_login_at, created_at,
	updated_at`

// UserRepository implements auth.UserStorage and user.Storage.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates the user repository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*auth.User, error) {
	var u auth.User
	var fullName, avatarURL *string
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&fullName,
		&u.Role,
		&u.IsActive,
		&u.IsEmailVerified,
		&avatarURL,
		&u.LastLoginAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if fullName != nil {
		u.FullName = *fullName
	}
	if avatarURL != nil {
		u.AvatarURL = *avatarURL
	}
	return &u, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user *auth.User) error {
	query := `
		INSERT INTO users (id, email, username, password_hash, full_name, role,
			is_active, is_email_verified, avatar_url)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, NULLIF($9, ''))
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.FullName,
		user.Role,
		user.IsActive,
		user.IsEmailVerified,
		user.AvatarURL,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if pg.IsUniqueViolation(err) {
		return uniqueUserError(err)
	}
	return err
}

// uniqueUserError maps the violated constraint to the matching sentinel.
func uniqueUserError(err error) error {
	name := pg.ConstraintName(err)
	switch {
	case strings.Contains(name, "email"):
		return auth.ErrEmailTaken
	case strings.Contains(name, "username"):
		return auth.ErrUsernameTaken
	default:
		return auth.ErrEmailTaken
	}
}

func (r *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`
	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if pg.IsNotFound(err) {
		return nil, auth.ErrUserNotFound
	}
	return u, err
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND deleted_at IS NULL`
	u, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if pg.IsNotFound(err) {
		return nil, auth.ErrUserNotFound
	}
	return u, err
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 AND deleted_at IS NULL`
	u, err := scanUser(r.pool.QueryRow(ctx, query, username))
	if pg.IsNotFound(err) {
		return nil, auth.ErrUserNotFound
	}
	return u, err
}

func (r *UserRepository) ListUsers(ctx context.Context, offset, limit int) ([]auth.User, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + userColumns + `
		FROM users WHERE deleted_at IS NULL
		ORDER BY created_at DESC
		OFFSET $1 LIMIT $2`
	rows, err := r.pool.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []auth.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

func (r *UserRepository) UpdateUser(ctx context.Context, user *auth.User) error {
	query := `
		UPDATE users
		SET username = $2, full_name = NULLIF($3, ''), role = $4, is_active = $5,
			is_email_verified = $6, avatar_url = NULLIF($7, ''), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.FullName,
		user.Role,
		user.IsActive,
		user.IsEmailVerified,
		user.AvatarURL,
	).Scan(&user.UpdatedAt)
	if pg.IsNotFound(err) {
		return auth.ErrUserNotFound
	}
	if pg.IsUniqueViolation(err) {
		return uniqueUserError(err)
	}
	return err
}

func (r *UserRepository) StorePasswordHash(ctx context.Context, userID uuid.UUID, hash []byte) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`,
		userID, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SetEmailVerified(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_email_verified = TRUE, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`,
		userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SetLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET last_login_at = $2 WHERE id = $1 AND deleted_at IS NULL`,
		userID, at)
	return err
}

// DeleteUser soft-deletes; the row stays for referential integrity but every
// lookup filters it out.
func (r *UserRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET deleted_at = now(), is_active = FALSE WHERE id = $1 AND deleted_at IS NULL`,
		id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

var _ auth.UserStorage = (*UserRepository)(nil)
