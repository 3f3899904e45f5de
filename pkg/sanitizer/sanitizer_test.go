package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oakward/identity/pkg/sanitizer"
)

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"  Joe@Example.COM ":     "joe@example.com",
		"user..name@example.com": "user.name@example.com",
		".user.@example.com":     "user@example.com",
		"not-an-email":           "not-an-email",
	}
	for in, want := range cases {
		assert.Equal(t, want, sanitizer.NormalizeEmail(in), in)
	}
}

func TestMaskEmail(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "j**@example.com", sanitizer.MaskEmail("joe@example.com"))
	assert.Equal(t, "*@example.com", sanitizer.MaskEmail("j@example.com"))
	assert.Equal(t, "garbage", sanitizer.MaskEmail("garbage"))
}

func TestNormalizeUsername(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"José García":  "jose_garcia",
		"  JoeDoe  ":   "joedoe",
		"joe.doe":      "joe_doe",
		"__joe__":      "joe",
		"Zoë!! Smith":  "zoe_smith",
		"plain-name_1": "plain-name_1",
	}
	for in, want := range cases {
		assert.Equal(t, want, sanitizer.NormalizeUsername(in), in)
	}
}

func TestTrimToLower(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "value", sanitizer.TrimToLower("  VaLue "))
}
