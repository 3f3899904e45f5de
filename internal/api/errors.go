package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/oakward/identity/internal/auth"
	"github.com/oakward/identity/internal/badge"
	"github.com/oakward/identity/pkg/apperr"
	"github.com/oakward/identity/pkg/binder"
	"github.com/oakward/identity/pkg/logger"
	"github.com/oakward/identity/pkg/validator"
)

// respondError translates a service error into the envelope exactly once, at
// the edge. Unmapped errors become opaque 500s and are logged with the
// request path.
func respondError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
		fields := make(map[string]string, len(verrs))
		for _, ve := range verrs {
			if _, exists := fields[ve.Field]; !exists {
				fields[ve.Field] = ve.Message
			}
		}
		writeJSON(w, http.StatusBadRequest, envelope{
			Success: false,
			Message: "validation failed",
			Errors:  fields,
		})
		return
	}

	appErr := classify(err)
	if appErr.Code == http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed",
			logger.Error(err),
			slog.String("path", r.URL.Path),
		)
		writeJSON(w, appErr.Code, envelope{Success: false, Message: "internal server error"})
		return
	}
	writeJSON(w, appErr.Code, envelope{Success: false, Message: err.Error()})
}

func classify(err error) apperr.Error {
	var appErr apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidState),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrSessionNotFound):
		return apperr.ErrUnauthorized

	case errors.Is(err, auth.ErrForbidden),
		errors.Is(err, auth.ErrEmailNotVerified),
		errors.Is(err, auth.ErrUserInactive):
		return apperr.ErrForbidden

	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, auth.ErrTokenNotFound),
		errors.Is(err, auth.ErrProviderNotFound),
		errors.Is(err, badge.ErrBadgeNotFound),
		errors.Is(err, badge.ErrAwardNotFound):
		return apperr.ErrNotFound

	case errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, auth.ErrUsernameTaken),
		errors.Is(err, auth.ErrConnectionExists),
		errors.Is(err, auth.ErrAlreadyVerified),
		errors.Is(err, badge.ErrNameTaken),
		errors.Is(err, badge.ErrAlreadyAwarded):
		return apperr.ErrConflict

	case errors.Is(err, auth.ErrProviderExchange),
		errors.Is(err, auth.ErrMissingEmail),
		errors.Is(err, binder.ErrInvalidBody):
		return apperr.ErrBadRequest

	case errors.Is(err, binder.ErrUnsupportedMedia):
		return apperr.New(http.StatusUnsupportedMediaType, "unsupported_media_type")

	default:
		return apperr.ErrInternal
	}
}
