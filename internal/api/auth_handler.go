package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oakward/identity/internal/auth"
	"github.com/oakward/identity/pkg/binder"
	"github.com/oakward/identity/pkg/clientip"
	"github.com/oakward/identity/pkg/useragent"
)

// PasswordAuthenticator is the credential surface consumed by the handler.
// Implemented by auth.PasswordService.
type PasswordAuthenticator interface {
	Register(ctx context.Context, params auth.RegisterParams) (*auth.User, error)
	Login(ctx context.Context, params auth.LoginParams) (*auth.User, *auth.AuthTokens, error)
	ChangePassword(ctx context.Context, params auth.ChangePasswordParams) error
}

// SessionManager is the token lifecycle surface. Implemented by
// auth.SessionService.
type SessionManager interface {
	Authenticator
	Refresh(ctx context.Context, refreshToken string) (*auth.AuthTokens, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Verifier is the out-of-band token surface. Implemented by
// auth.VerificationService.
type Verifier interface {
	VerifyEmail(ctx context.Context, token string) (*auth.User, error)
	ResendVerification(ctx context.Context, userID uuid.UUID) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// OAuthFlow is the third-party login surface. Implemented by
// auth.OAuthService.
type OAuthFlow interface {
	AuthorizationURL(ctx context.Context, providerName string) (string, string, error)
	HandleCallback(ctx context.Context, providerName, code, state string, meta auth.ClientMeta) (*auth.User, *auth.AuthTokens, error)
}

// AuthHandler serves the /auth routes.
type AuthHandler struct {
	passwords    PasswordAuthenticator
	sessions     SessionManager
	verification Verifier
	oauth        OAuthFlow
	log          *slog.Logger
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(passwords PasswordAuthenticator, sessions SessionManager, verification Verifier, oauth OAuthFlow, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		passwords:    passwords,
		sessions:     sessions,
		verification: verification,
		oauth:        oauth,
		log:          log,
	}
}

// Routes returns the /auth subtree.
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
	r.Post("/logout", h.Logout)
	r.Get("/verify-email/{token}", h.VerifyEmail)
	r.Post("/request-password-reset", h.RequestPasswordReset)
	r.Post("/reset-password", h.ResetPassword)
	r.Get("/oauth/{provider}", h.OAuthRedirect)
	r.Get("/oauth/{provider}/callback", h.OAuthCallback)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(h.sessions, h.log))
		r.Post("/resend-verification-email", h.ResendVerification)
		r.With(RequireVerified(h.log)).Get("/me", h.Me)
	})

	return r
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := binder.JSON(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	user, err := h.passwords.Register(r.Context(), auth.RegisterParams{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondData(w, http.StatusCreated, user)
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type tokenResponse struct {
	User   *auth.User       `json:"user"`
	Tokens *auth.AuthTokens `json:"tokens"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := binder.JSON(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	user, tokens, err := h.passwords.Login(r.Context(), auth.LoginParams{
		Identifier: req.Identifier,
		Password:   req.Password,
		Meta:       clientMeta(r),
	})
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondData(w, http.StatusOK, tokenResponse{User: user, Tokens: tokens})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := binder.JSON(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	tokens, err := h.sessions.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondData(w, http.StatusOK, tokens)
}

// Logout always reports success so token validity cannot be probed.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := binder.JSON(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	_ = h.sessions.Logout(r.Context(), req.RefreshToken)
	respondMessage(w, http.StatusOK, "logged out")
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, r, h.log, auth.ErrInvalidCredentials)
		return
	}
	respondData(w, http.StatusOK, user)
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	user, err := h.verification.VerifyEmail(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondData(w, http.StatusOK, user)
}

func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, r, h.log, auth.ErrInvalidCredentials)
		return
	}
	if err := h.verification.ResendVerification(r.Context(), user.ID); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondMessage(w, http.StatusOK, "verification email sent")
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

// RequestPasswordReset responds identically for known and unknown emails so
// the endpoint cannot be used to enumerate accounts.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if err := binder.JSON(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	if err := h.verification.RequestPasswordReset(r.Context(), req.Email); err != nil &&
		!errors.Is(err, auth.ErrUserNotFound) {
		respondError(w, r, h.log, err)
		return
	}
	respondMessage(w, http.StatusOK, "if the account exists, a reset email has been sent")
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := binder.JSON(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	if err := h.verification.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondMessage(w, http.StatusOK, "password has been reset")
}

func (h *AuthHandler) OAuthRedirect(w http.ResponseWriter, r *http.Request) {
	url, _, err := h.oauth.AuthorizationURL(r.Context(), chi.URLParam(r, "provider"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	user, tokens, err := h.oauth.HandleCallback(r.Context(),
		chi.URLParam(r, "provider"), q.Get("code"), q.Get("state"), clientMeta(r))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondData(w, http.StatusOK, tokenResponse{User: user, Tokens: tokens})
}

func clientMeta(r *http.Request) auth.ClientMeta {
	ua := r.UserAgent()
	return auth.ClientMeta{
		IP:         clientip.GetIP(r),
		UserAgent:  ua,
		DeviceInfo: useragent.Parse(ua).Map(),
	}
}
