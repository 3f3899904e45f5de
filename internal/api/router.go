package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/oakward/identity/pkg/async"
)

// Probe is a dependency health check, typically pg.Healthcheck or
// redis.Healthcheck.
type Probe func(context.Context) error

// Router assembles the full HTTP surface.
func Router(
	authHandler *AuthHandler,
	userHandler *UserHandler,
	badgeHandler *BadgeHandler,
	log *slog.Logger,
	probes map[string]Probe,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Mount("/auth", authHandler.Routes())
	r.Mount("/users", userHandler.Routes())
	r.Mount("/badges", badgeHandler.Routes())

	r.Get("/health", healthHandler(log, probes))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{Success: false, Message: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, envelope{Success: false, Message: "method not allowed"})
	})

	return r
}

// healthHandler pings every dependency concurrently and reports per-probe
// status. Any failing probe degrades the response to 503.
func healthHandler(log *slog.Logger, probes map[string]Probe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		futures := make(map[string]*async.Future[struct{}], len(probes))
		for name, probe := range probes {
			futures[name] = async.Async(ctx, probe, func(ctx context.Context, p Probe) (struct{}, error) {
				return struct{}{}, p(ctx)
			})
		}

		status := http.StatusOK
		checks := make(map[string]string, len(probes))
		for name, future := range futures {
			if _, err := future.Await(); err != nil {
				log.ErrorContext(ctx, "healthcheck failed",
					slog.String("probe", name), slog.Any("error", err))
				checks[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}

		writeJSON(w, status, envelope{Success: status == http.StatusOK, Data: checks})
	}
}
