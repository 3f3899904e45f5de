package auth

import "errors"

var (
	// ErrInvalidCredentials covers unknown user, inactive account, and wrong
	// password alike so responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrForbidden          = errors.New("operation not permitted")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrSessionNotFound    = errors.New("session not found or expired")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenExpired       = errors.New("token expired or already used")
	ErrProviderNotFound   = errors.New("oauth provider not found")
	ErrInvalidState       = errors.New("invalid or expired oauth state")
	ErrProviderExchange   = errors.New("oauth code exchange failed")
	ErrConnectionExists   = errors.New("oauth connection already exists")
	ErrConnectionNotFound = errors.New("oauth connection not found")
	ErrMissingEmail       = errors.New("provider did not return an email")
)
