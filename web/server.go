package web

import (
	"net/http"
	"parlayTracker/services"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
)

// Handler serves the JSON API over an App.
type Handler struct {
	app      *services.App
	validate *validator.Validate
}

func NewHandler(app *services.App) *Handler {
	return &Handler{
		app:      app,
		validate: validator.New(),
	}
}

func NewRouter(app *services.App, corsOrigins []string) http.Handler {
	h := NewHandler(app)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/games", h.GetGames)
		r.Get("/teams", h.GetTeams)
		r.Get("/teams/counts", h.GetTeamCounts)

		r.Get("/picks", h.GetPicks)
		r.Post("/picks", h.AddPick)
		r.Delete("/picks", h.ClearPicks)
		r.Delete("/picks/{gameID}", h.RemovePick)

		r.Post("/parlays/lock", h.LockParlay)
		r.Get("/parlays", h.GetParlays)
		r.Delete("/parlays/{id}", h.DeleteParlay)
		r.Post("/parlays/{id}/settle", h.SettleParlay)

		r.Get("/dashboard", h.GetDashboard)
	})

	return r
}

// NewServer wraps the router with the listener timeouts.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
