package logger

import "log/slog"

// Error wraps an error into the conventional "error" attribute.
// Nil errors produce an empty value rather than panicking.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Component tags records with the emitting subsystem name.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// UserID tags records with the acting user's identifier.
func UserID(id string) slog.Attr {
	return slog.String("user_id", id)
}

// SessionID tags records with the session identifier.
func SessionID(id string) slog.Attr {
	return slog.String("session_id", id)
}

// Provider tags records with an OAuth provider name.
func Provider(name string) slog.Attr {
	return slog.String("provider", name)
}
