package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oakward/identity/pkg/logger"
	"github.com/oakward/identity/pkg/sanitizer"
	"github.com/oakward/identity/pkg/secrets"
	"github.com/oakward/identity/pkg/task"
)

const maxUsernameAttempts = 20

// OAuthService drives the provider login flow: redirect, callback, account
// resolution, and session issuance.
type OAuthService struct {
	storage  OAuthStorage
	users    UserStorage
	states   StateStore
	sessions SessionIssuer
	runner   *task.Runner
	log      *slog.Logger

	redirectBaseURL string
	encryptionKey   []byte
	stateTTL        time.Duration
}

type OAuthOption func(*OAuthService)

// WithOAuthLogger sets a custom logger for the service.
func WithOAuthLogger(log *slog.Logger) OAuthOption {
	return func(s *OAuthService) { s.log = log }
}

// WithStateTTL sets how long an issued state survives in the state store.
func WithStateTTL(ttl time.Duration) OAuthOption {
	return func(s *OAuthService) { s.stateTTL = ttl }
}

// NewOAuthService creates the OAuth service. redirectBaseURL is the public
// base of this service, used to build per-provider callback URLs.
// encryptionKey (32 bytes) protects stored provider tokens.
func NewOAuthService(
	storage OAuthStorage,
	users UserStorage,
	states StateStore,
	sessions SessionIssuer,
	runner *task.Runner,
	redirectBaseURL string,
	encryptionKey []byte,
	opts ...OAuthOption,
) *OAuthService {
	s := &OAuthService{
		storage:         storage,
		users:           users,
		states:          states,
		sessions:        sessions,
		runner:          runner,
		log:             slog.New(slog.NewTextHandler(io.Discard, nil)),
		redirectBaseURL: strings.TrimRight(redirectBaseURL, "/"),
		encryptionKey:   encryptionKey,
		stateTTL:        10 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuthorizationURL starts the flow for the named provider: generates a
// single-use state, stores it with a TTL, and returns the redirect URL.
func (s *OAuthService) AuthorizationURL(ctx context.Context, providerName string) (string, string, error) {
	provider, err := s.activeProvider(ctx, providerName)
	if err != nil {
		return "", "", err
	}

	state, err := generateToken()
	if err != nil {
		return "", "", err
	}
	if err := s.states.StoreState(ctx, state, provider.Name, s.stateTTL); err != nil {
		return "", "", fmt.Errorf("failed to store oauth state: %w", err)
	}

	client := newProviderClient(provider, s.callbackURL(provider.Name))
	return client.AuthCodeURL(state), state, nil
}

// HandleCallback completes the flow. The state is consumed atomically before
// anything else; a miss fails the whole callback with no side effects.
// Account resolution order: existing connection, then user by email, then a
// brand-new user.
func (s *OAuthService) HandleCallback(ctx context.Context, providerName, code, state string, meta ClientMeta) (*User, *AuthTokens, error) {
	storedProvider, err := s.states.ConsumeState(ctx, state)
	if err != nil || storedProvider != providerName {
		return nil, nil, ErrInvalidState
	}

	provider, err := s.activeProvider(ctx, providerName)
	if err != nil {
		return nil, nil, err
	}

	client := newProviderClient(provider, s.callbackURL(provider.Name))
	tok, err := client.Exchange(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	profile, err := client.FetchUser(ctx, tok)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.resolveUser(ctx, provider, profile)
	if err != nil {
		return nil, nil, err
	}

	conn := &Connection{
		ID:             uuid.New(),
		UserID:         user.ID,
		ProviderID:     provider.ID,
		ProviderUserID: profile.ID,
	}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry
		conn.TokenExpiresAt = &expiry
	}
	if conn.AccessToken, err = secrets.EncryptString(s.encryptionKey, tok.AccessToken); err != nil {
		return nil, nil, fmt.Errorf("failed to encrypt provider token: %w", err)
	}
	if tok.RefreshToken != "" {
		if conn.RefreshToken, err = secrets.EncryptString(s.encryptionKey, tok.RefreshToken); err != nil {
			return nil, nil, fmt.Errorf("failed to encrypt provider token: %w", err)
		}
	}
	if err := s.storage.UpsertConnection(ctx, conn); err != nil {
		return nil, nil, fmt.Errorf("failed to upsert connection: %w", err)
	}

	tokens, err := s.sessions.Issue(ctx, user, meta)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to issue session: %w", err)
	}

	userID := user.ID
	s.runner.Go("update-last-login", func(ctx context.Context) error {
		return s.users.SetLastLogin(ctx, userID, time.Now())
	})

	return user, tokens, nil
}

// resolveUser maps a provider profile onto a local account.
func (s *OAuthService) resolveUser(ctx context.Context, provider *Provider, profile *ProviderUser) (*User, error) {
	conn, err := s.storage.GetConnection(ctx, provider.ID, profile.ID)
	if err == nil {
		user, err := s.users.GetUserByID(ctx, conn.UserID)
		if err != nil {
			return nil, err
		}
		if !user.IsActive {
			return nil, ErrUserInactive
		}
		return user, nil
	}
	if !errors.Is(err, ErrConnectionNotFound) {
		return nil, fmt.Errorf("failed to look up connection: %w", err)
	}

	email := sanitizer.NormalizeEmail(profile.Email)
	user, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		if !user.IsActive {
			return nil, ErrUserInactive
		}
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	return s.createUser(ctx, provider, profile, email)
}

// createUser provisions a new account from a provider profile. The account
// is marked verified when the provider asserts a verified email; otherwise
// the normal verification flow applies.
func (s *OAuthService) createUser(ctx context.Context, provider *Provider, profile *ProviderUser, email string) (*User, error) {
	username, err := s.uniqueUsername(ctx, email)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:              uuid.New(),
		Email:           email,
		Username:        username,
		FullName:        profile.Name,
		Role:            RoleUser,
		IsActive:        true,
		IsEmailVerified: profile.EmailVerified,
		AvatarURL:       profile.AvatarURL,
		CreatedAt:       time.Now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.InfoContext(ctx, "provisioned user from oauth profile",
		logger.UserID(user.ID.String()),
		logger.Provider(provider.Name),
		logger.Component("oauth"),
	)
	return user, nil
}

// uniqueUsername derives a username from the email local part and suffixes
// it until it is free. Past the attempt cap it falls back to random bytes.
func (s *OAuthService) uniqueUsername(ctx context.Context, email string) (string, error) {
	base := sanitizer.NormalizeUsername(strings.SplitN(email, "@", 2)[0])
	if len(base) < usernameMinLen {
		base = "user_" + base
	}
	if len(base) > usernameMaxLen-3 {
		base = base[:usernameMaxLen-3]
	}

	candidate := base
	for i := 1; i <= maxUsernameAttempts; i++ {
		_, err := s.users.GetUserByUsername(ctx, candidate)
		if errors.Is(err, ErrUserNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check username: %w", err)
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}

	suffix, err := generateToken()
	if err != nil {
		return "", err
	}
	return base + "_" + strings.ToLower(suffix[:6]), nil
}

func (s *OAuthService) activeProvider(ctx context.Context, name string) (*Provider, error) {
	provider, err := s.storage.GetProviderByName(ctx, name)
	if err != nil {
		return nil, ErrProviderNotFound
	}
	if !provider.IsActive {
		return nil, ErrProviderNotFound
	}
	return provider, nil
}

func (s *OAuthService) callbackURL(providerName string) string {
	return fmt.Sprintf("%s/auth/oauth/%s/callback", s.redirectBaseURL, providerName)
}
