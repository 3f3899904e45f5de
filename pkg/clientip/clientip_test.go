package clientip_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oakward/identity/pkg/clientip"
)

func TestGetIP(t *testing.T) {
	t.Parallel()

	t.Run("cloudflare header wins", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("CF-Connecting-IP", "203.0.113.5")
		r.Header.Set("X-Forwarded-For", "198.51.100.1")
		assert.Equal(t, "203.0.113.5", clientip.GetIP(r))
	})

	t.Run("first valid forwarded entry", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("X-Forwarded-For", "garbage, 198.51.100.1, 10.0.0.1")
		assert.Equal(t, "198.51.100.1", clientip.GetIP(r))
	})

	t.Run("real ip header", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("X-Real-IP", "198.51.100.7")
		assert.Equal(t, "198.51.100.7", clientip.GetIP(r))
	})

	t.Run("falls back to remote addr", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "192.0.2.9:4567"
		assert.Equal(t, "192.0.2.9", clientip.GetIP(r))
	})

	t.Run("invalid header values skipped", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("CF-Connecting-IP", "not-an-ip")
		r.RemoteAddr = "192.0.2.9:4567"
		assert.Equal(t, "192.0.2.9", clientip.GetIP(r))
	})

	t.Run("ipv6 remote addr", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "[2001:db8::1]:8080"
		assert.Equal(t, "2001:db8::1", clientip.GetIP(r))
	})
}
