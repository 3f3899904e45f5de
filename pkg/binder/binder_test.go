package binder_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakward/identity/pkg/binder"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSON(t *testing.T) {
	t.Parallel()

	t.Run("decodes valid body", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"alpha","count":3}`))
		r.Header.Set("Content-Type", "application/json")

		var p payload
		require.NoError(t, binder.JSON(r, &p))
		assert.Equal(t, payload{Name: "alpha", Count: 3}, p)
	})

	t.Run("tolerates missing content type", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"beta"}`))

		var p payload
		require.NoError(t, binder.JSON(r, &p))
		assert.Equal(t, "beta", p.Name)
	})

	t.Run("rejects wrong media type", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader("name=alpha"))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		var p payload
		assert.ErrorIs(t, binder.JSON(r, &p), binder.ErrUnsupportedMedia)
	})

	t.Run("rejects content type with parameters but wrong media", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(`{}`))
		r.Header.Set("Content-Type", "text/plain; charset=utf-8")

		var p payload
		assert.ErrorIs(t, binder.JSON(r, &p), binder.ErrUnsupportedMedia)
	})

	t.Run("accepts json with charset parameter", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"gamma"}`))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")

		var p payload
		require.NoError(t, binder.JSON(r, &p))
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"x","extra":true}`))
		r.Header.Set("Content-Type", "application/json")

		var p payload
		assert.ErrorIs(t, binder.JSON(r, &p), binder.ErrInvalidBody)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":`))
		r.Header.Set("Content-Type", "application/json")

		var p payload
		assert.ErrorIs(t, binder.JSON(r, &p), binder.ErrInvalidBody)
	})

	t.Run("rejects empty body", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(""))
		r.Header.Set("Content-Type", "application/json")

		var p payload
		assert.ErrorIs(t, binder.JSON(r, &p), binder.ErrInvalidBody)
	})

	t.Run("rejects trailing data", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"x"}{"name":"y"}`))
		r.Header.Set("Content-Type", "application/json")

		var p payload
		assert.ErrorIs(t, binder.JSON(r, &p), binder.ErrInvalidBody)
	})

	t.Run("rejects oversized body", func(t *testing.T) {
		t.Parallel()

		big := `{"name":"` + strings.Repeat("a", binder.MaxBodySize) + `"}`
		r := httptest.NewRequest("POST", "/", strings.NewReader(big))
		r.Header.Set("Content-Type", "application/json")

		var p payload
		assert.ErrorIs(t, binder.JSON(r, &p), binder.ErrInvalidBody)
	})
}
