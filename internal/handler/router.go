package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nlevin/shortly/internal/middleware"
)

func (h *Handler) SetupRouter(authMW *middleware.AuthMiddleware) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.GzipMiddleware)

	r.Get("/status", h.StatusHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.RegisterHandler)
		r.Post("/login", h.LoginHandler)

		r.Group(func(r chi.Router) {
			r.Use(authMW.RequireAuth)
			r.Get("/profile", h.ProfileHandler)
		})
	})

	r.Route("/v1/url", func(r chi.Router) {
		r.Get("/{hash}", h.ResolveHandler)

		r.Group(func(r chi.Router) {
			r.Use(authMW.RequireAuth)
			r.Post("/create", h.CreateURLHandler)
			r.Get("/list", h.ListURLsHandler)
			r.Delete("/delete/{id}", h.DeleteURLHandler)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})

	return r
}
