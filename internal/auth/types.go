package auth

import (
	"time"

	"github.com/google/uuid"
)

// Role is the global authorization role of a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is an account in the identity store.
type User struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	Username        string     `json:"username"`
	PasswordHash    []byte     `json:"-"`
	FullName        string     `json:"full_name,omitempty"`
	Role            Role       `json:"role"`
	IsActive        bool       `json:"is_active"`
	IsEmailVerified bool       `json:"is_email_verified"`
	AvatarURL       string     `json:"avatar_url,omitempty"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// ClientMeta carries request metadata recorded on sessions.
type ClientMeta struct {
	IP         string
	UserAgent  string
	DeviceInfo map[string]string
}

// Session is one issued access/refresh token pair and its lifecycle state.
// Refresh tokens are stored hashed; the raw value only exists in responses.
type Session struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	AccessToken      string
	RefreshTokenHash string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	IsActive         bool
	IP               string
	UserAgent        string
	DeviceInfo       map[string]string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AuthTokens is the credential pair returned to clients on login and refresh.
type AuthTokens struct {
	SessionID        uuid.UUID `json:"session_id"`
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// TokenKind distinguishes single-use verification tokens.
type TokenKind string

const (
	TokenKindEmailVerification TokenKind = "email_verification"
	TokenKindPasswordReset     TokenKind = "password_reset"
)

// VerificationToken is a single-use out-of-band token (email verification or
// password reset).
type VerificationToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	Kind      TokenKind
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Provider is an OAuth provider configured as data, not code.
type Provider struct {
	ID           uuid.UUID
	Name         string
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Connection links a user to an account at an OAuth provider. Provider
// tokens are encrypted at rest.
type Connection struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	ProviderID     uuid.UUID
	ProviderUserID string
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProviderUser is the normalized profile fetched from a provider's
// user-info endpoint.
type ProviderUser struct {
	ID            string
	Email         string
	EmailVerified bool
	Name          string
	AvatarURL     string
}
