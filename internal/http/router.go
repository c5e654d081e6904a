package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(handler *Handler, logger *slog.Logger, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(Logger(logger))
	r.Use(Recoverer(logger))
	r.Use(Timeout(requestTimeout))
	r.Use(CORS)

	r.Get("/healthz", handler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", handler.Login)

		r.Group(func(r chi.Router) {
			r.Use(handler.RequireAuth)

			r.Post("/auth/logout", handler.Logout)
			r.Get("/stock", handler.ListStock)
			r.Get("/dashboard", handler.Dashboard)
			r.Get("/transactions", handler.ListTransactions)
			r.Post("/refresh", handler.Refresh)
			r.Post("/stock/{id}/out", handler.RecordOutgoing)

			r.Group(func(r chi.Router) {
				r.Use(RequireOwner)
				r.Post("/stock/{id}/in", handler.AddStock)
				r.Post("/items", handler.CreateItem)
				r.Put("/items/{id}", handler.UpdateItem)
				r.Get("/users", handler.ListUsers)
				r.Post("/users", handler.CreateUser)
			})
		})
	})

	return r
}
