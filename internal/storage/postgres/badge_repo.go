package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oakward/identity/internal/badge"
	"github.com/oakward/identity/pkg/pg"
)

const badgeColumns = `id, name, description, icon_url, created_at, updated_at`

// BadgeRepository implements badge.Storage.
type BadgeRepository struct {
	pool *pgxpool.Pool
}

// NewBadgeRepository creates the badge repository.
func NewBadgeRepository(pool *pgxpool.Pool) *BadgeRepository {
	return &BadgeRepository{pool: pool}
}

func scanBadge(row pgx.Row) (*badge.Badge, error) {
	var b badge.Badge
	var iconURL *string
	err := row.Scan(&b.ID, &b.Name, &b.Description, &iconURL, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if iconURL != nil {
		b.IconURL = *iconURL
	}
	return &b, nil
}

func (r *BadgeRepository) CreateBadge(ctx context.Context, b *badge.Badge) error {
	query := `
		INSERT INTO badges (id, name, description, icon_url)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, b.ID, b.Name, b.Description, b.IconURL).
		Scan(&b.CreatedAt, &b.UpdatedAt)
	if pg.IsUniqueViolation(err) {
		return badge.ErrNameTaken
	}
	return err
}

func (r *BadgeRepository) GetBadgeByID(ctx context.Context, id uuid.UUID) (*badge.Badge, error) {
	query := `SELECT ` + badgeColumns + ` FROM badges WHERE id = $1`
	b, err := scanBadge(r.pool.QueryRow(ctx, query, id))
	if pg.IsNotFound(err) {
		return nil, badge.ErrBadgeNotFound
	}
	return b, err
}

func (r *BadgeRepository) ListBadges(ctx context.Context, offset, limit int) ([]badge.Badge, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM badges`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + badgeColumns + ` FROM badges ORDER BY name OFFSET $1 LIMIT $2`
	rows, err := r.pool.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var badges []badge.Badge
	for rows.Next() {
		b, err := scanBadge(rows)
		if err != nil {
			return nil, 0, err
		}
		badges = append(badges, *b)
	}
	return badges, total, rows.Err()
}

func (r *BadgeRepository) UpdateBadge(ctx context.Context, b *badge.Badge) error {
	query := `
		UPDATE badges
		SET name = $2, description = $3, icon_url = NULLIF($4, ''), updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query, b.ID, b.Name, b.Description, b.IconURL).
		Scan(&b.UpdatedAt)
	if pg.IsNotFound(err) {
		return badge.ErrBadgeNotFound
	}
	if pg.IsUniqueViolation(err) {
		return badge.ErrNameTaken
	}
	return err
}

// DeleteBadge removes the badge; awards go with it via ON DELETE CASCADE.
func (r *BadgeRepository) DeleteBadge(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM badges WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return badge.ErrBadgeNotFound
	}
	return nil
}

func (r *BadgeRepository) AwardBadge(ctx context.Context, award *badge.UserBadge) error {
	query := `
		INSERT INTO user_badges (user_id, badge_id, awarded_at)
		VALUES ($1, $2, $3)`

	_, err := r.pool.Exec(ctx, query, award.UserID, award.BadgeID, award.AwardedAt)
	if pg.IsUniqueViolation(err) {
		return badge.ErrAlreadyAwarded
	}
	if pg.IsForeignKeyViolation(err) {
		return badge.ErrBadgeNotFound
	}
	return err
}

func (r *BadgeRepository) RemoveAward(ctx context.Context, userID, badgeID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM user_badges WHERE user_id = $1 AND badge_id = $2`, userID, badgeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return badge.ErrAwardNotFound
	}
	return nil
}

func (r *BadgeRepository) ListUserBadges(ctx context.Context, userID uuid.UUID) ([]badge.Badge, error) {
	query := `
		SELECT b.id, b.name, b.description, b.icon_url, b.created_at, b.updated_at
		FROM badges b
		JOIN user_badges ub ON ub.badge_id = b.id
		WHERE ub.user_id = $1
		ORDER BY ub.awarded_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var badges []badge.Badge
	for rows.Next() {
		b, err := scanBadge(rows)
		if err != nil {
			return nil, err
		}
		badges = append(badges, *b)
	}
	return badges, rows.Err()
}

func (r *BadgeRepository) HasBadge(ctx context.Context, userID, badgeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_badges WHERE user_id = $1 AND badge_id = $2)`,
		userID, badgeID).Scan(&exists)
	return exists, err
}

var _ badge.Storage = (*BadgeRepository)(nil)
