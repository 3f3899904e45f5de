// Package badge manages badge metadata and user badge awards.
package badge

import (
	"time"

	"github.com/google/uuid"
)

// Badge is achievement metadata, managed by admins and publicly readable.
type Badge struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IconURL     string    `json:"icon_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// UserBadge is an award of a badge to a user.
type UserBadge struct {
	UserID    uuid.UUID `json:"user_id"`
	BadgeID   uuid.UUID `json:"badge_id"`
	AwardedAt time.Time `json:"awarded_at"`
}
