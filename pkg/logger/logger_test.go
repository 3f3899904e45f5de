package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakward/identity/pkg/logger"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("emits json records with service attribute", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.Config{Level: "info", Format: logger.FormatJSON, Service: "identity"},
			logger.WithOutput(&buf),
		)
		log.Info("hello", slog.String("k", "v"))

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "hello", record["msg"])
		assert.Equal(t, "identity", record["service"])
		assert.Equal(t, "v", record["k"])
	})

	t.Run("respects level threshold", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.Config{Level: "warn", Format: logger.FormatText},
			logger.WithOutput(&buf),
		)
		log.Info("dropped")
		assert.Empty(t, buf.String())

		log.Warn("kept")
		assert.Contains(t, buf.String(), "kept")
	})
}

func TestAttrs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "boom", logger.Error(errors.New("boom")).Value.String())
	assert.Equal(t, "", logger.Error(nil).Value.String())
	assert.Equal(t, "component", logger.Component("auth").Key)
	assert.Equal(t, "auth", logger.Component("auth").Value.String())
	assert.Equal(t, "user_id", logger.UserID("u1").Key)
}
