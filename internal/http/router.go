package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/tutur3u/timegrid/internal/api"
	"github.com/tutur3u/timegrid/internal/config"
	"github.com/tutur3u/timegrid/internal/http/ratelimit"
	"github.com/tutur3u/timegrid/internal/metrics"
	"github.com/tutur3u/timegrid/internal/store"
)

// NewRouter wires all HTTP routes for the JSON API.
func NewRouter(cfg *config.Config, st *store.Store) http.Handler {
	r := chi.NewRouter()

	// Mutations: 10 requests per second, burst of 30. Drag gestures coalesce
	// client-side, so a single user stays well under this.
	writeRateLimiter := ratelimit.NewIPRateLimiter(rate.Limit(10), 30, 5*time.Minute, cfg.TrustedProxies)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := st.HealthCheck(ctx); err != nil {
			http.Error(w, "unready", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.PrometheusEnabled {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metrics.Handler().ServeHTTP(w, r)
		})
	}

	apiHandler := api.NewHandler(cfg, st.Calendars, st.Events)

	r.Route("/api", func(r chi.Router) {
		r.Get("/calendars", apiHandler.ListCalendars)
		r.Get("/calendars/{calendarID}/layout", apiHandler.GetLayout)
		r.Get("/calendars/{calendarID}/export.ics", apiHandler.ExportICS)

		r.Group(func(r chi.Router) {
			r.Use(writeRateLimiter.Middleware())
			r.Post("/calendars", apiHandler.CreateCalendar)
			r.Put("/calendars/{calendarID}", apiHandler.RenameCalendar)
			r.Delete("/calendars/{calendarID}", apiHandler.DeleteCalendar)
			r.Post("/calendars/{calendarID}/events", apiHandler.CreateEvent)
			r.Patch("/events/{id}", apiHandler.UpdateEvent)
			r.Delete("/events/{id}", apiHandler.DeleteEvent)
		})
	})

	return r
}
