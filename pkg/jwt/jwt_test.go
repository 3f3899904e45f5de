package jwt_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakward/identity/pkg/jwt"
)

func TestService_GenerateParse(t *testing.T) {
	t.Parallel()

	svc, err := jwt.NewFromString("test-signing-key-at-least-32-bytes!!")
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		claims := jwt.StandardClaims{
			Subject:   "user-123",
			Issuer:    "identity",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
			IssuedAt:  time.Now().Unix(),
		}
		token, err := svc.Generate(claims)
		require.NoError(t, err)
		assert.Len(t, strings.Split(token, "."), 3)

		var parsed jwt.StandardClaims
		require.NoError(t, svc.Parse(token, &parsed))
		assert.Equal(t, claims.Subject, parsed.Subject)
		assert.Equal(t, claims.Issuer, parsed.Issuer)
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()

		token, err := svc.Generate(jwt.StandardClaims{
			Subject:   "user-123",
			ExpiresAt: time.Now().Add(-time.Minute).Unix(),
		})
		require.NoError(t, err)

		var parsed jwt.StandardClaims
		assert.ErrorIs(t, svc.Parse(token, &parsed), jwt.ErrExpiredToken)
	})

	t.Run("not yet valid", func(t *testing.T) {
		t.Parallel()

		token, err := svc.Generate(jwt.StandardClaims{
			Subject:   "user-123",
			NotBefore: time.Now().Add(time.Hour).Unix(),
		})
		require.NoError(t, err)

		var parsed jwt.StandardClaims
		assert.ErrorIs(t, svc.Parse(token, &parsed), jwt.ErrInvalidToken)
	})

	t.Run("tampered payload", func(t *testing.T) {
		t.Parallel()

		token, err := svc.Generate(jwt.StandardClaims{Subject: "user-123"})
		require.NoError(t, err)

		parts := strings.Split(token, ".")
		tampered := parts[0] + "." + parts[1] + "x." + parts[2]

		var parsed jwt.StandardClaims
		assert.ErrorIs(t, svc.Parse(tampered, &parsed), jwt.ErrInvalidSignature)
	})

	t.Run("wrong key", func(t *testing.T) {
		t.Parallel()

		other, err := jwt.NewFromString("another-signing-key-32-bytes-long!!!")
		require.NoError(t, err)

		token, err := svc.Generate(jwt.StandardClaims{Subject: "user-123"})
		require.NoError(t, err)

		var parsed jwt.StandardClaims
		assert.ErrorIs(t, other.Parse(token, &parsed), jwt.ErrInvalidSignature)
	})

	t.Run("malformed token", func(t *testing.T) {
		t.Parallel()

		var parsed jwt.StandardClaims
		assert.ErrorIs(t, svc.Parse("not-a-token", &parsed), jwt.ErrInvalidToken)
	})

	t.Run("nil claims", func(t *testing.T) {
		t.Parallel()

		_, err := svc.Generate(nil)
		assert.ErrorIs(t, err, jwt.ErrMissingClaims)
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("empty key rejected", func(t *testing.T) {
		t.Parallel()

		_, err := jwt.New(nil)
		assert.ErrorIs(t, err, jwt.ErrMissingSigningKey)

		_, err = jwt.NewFromString("")
		assert.ErrorIs(t, err, jwt.ErrMissingSigningKey)
	})
}
