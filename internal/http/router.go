package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterConfig lists the handlers mounted by NewRouter. Nil handlers leave
// their routes unmounted.
type RouterConfig struct {
	Auth       *AuthHandler
	Users      *UserHandler
	Sessions   *SessionHandler
	Dashboard  *DashboardHandler
	Activity   *ActivityHandler
	Admin      *AdminHandler
	Validator  SessionValidator
	Logger     *slog.Logger
	Timeout    time.Duration
	Middleware []func(http.Handler) http.Handler
}

// NewRouter builds the HTTP API.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	res := newResponder(logger)

	r := chi.NewRouter()
	r.Use(RequestLogger(logger), middleware.Recoverer, Timeout(cfg.Timeout))
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		res.writeJSON(req.Context(), w, http.StatusNotFound, errorResponse{ErrorCode: "NOT_FOUND", Message: statusMessage(http.StatusNotFound)})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		res.writeJSON(req.Context(), w, http.StatusMethodNotAllowed, errorResponse{ErrorCode: "METHOD_NOT_ALLOWED", Message: "method not allowed"})
	})

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		res.writeJSON(req.Context(), w, http.StatusOK, map[string]string{"message": "focus ledger is running"})
	})

	if cfg.Auth != nil {
		r.Post("/auth/exchange", cfg.Auth.Exchange)
	}

	if cfg.Validator == nil {
		return r
	}

	r.Group(func(r chi.Router) {
		r.Use(RequireSession(cfg.Validator, logger))

		if cfg.Auth != nil {
			r.Post("/auth/logout", cfg.Auth.Logout)
		}

		r.Route("/api", func(r chi.Router) {
			if cfg.Users != nil {
				r.Get("/me", cfg.Users.Me)
				r.Post("/user/browse-ping", cfg.Users.BrowsePing)
			}
			if cfg.Sessions != nil {
				r.Post("/session", cfg.Sessions.Record)
			}
			if cfg.Dashboard != nil {
				r.Get("/dashboard/day", cfg.Dashboard.Day)
				r.Get("/dashboard/week", cfg.Dashboard.Week)
				r.Get("/dashboard/month", cfg.Dashboard.Month)
				r.Get("/dashboard/year", cfg.Dashboard.Month)
			}
			if cfg.Activity != nil {
				r.Get("/streak", cfg.Activity.Streak)
				r.Post("/presence/start", cfg.Activity.Start)
				r.Post("/presence/heartbeat", cfg.Activity.Heartbeat)
				r.Post("/presence/stop", cfg.Activity.Stop)
			}
			if cfg.Admin != nil {
				r.Route("/admin", func(r chi.Router) {
					r.Get("/stats", cfg.Admin.Stats)
					r.Get("/users", cfg.Admin.Users)
					r.Get("/users/{id}", cfg.Admin.User)
					r.Post("/users/{id}/streak/rebuild", cfg.Admin.RebuildStreak)
					r.Get("/leaderboard", cfg.Admin.Leaderboard)
					r.Get("/timeline", cfg.Admin.Timeline)
					r.Get("/session-analytics", cfg.Admin.SessionAnalytics)
				})
			}
		})
	})

	return r
}
