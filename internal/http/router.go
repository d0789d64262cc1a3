// Package http assembles the chi router and its middleware stack.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"modalsearch/internal/handlers"
)

// Deps holds the handlers the router wires up.
type Deps struct {
	Contents *handlers.ContentHandler
	Search   *handlers.SearchHandler
	Tasks    *handlers.TaskHandler
	Health   *handlers.HealthHandler
}

// NewRouter creates the HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)
	r.Use(UserMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Route("/contents", func(r chi.Router) {
			r.Post("/", deps.Contents.Upload)
			r.Get("/", deps.Contents.List)
			r.Get("/{contentID}", deps.Contents.Get)
			r.Delete("/{contentID}", deps.Contents.Delete)
		})
		r.Route("/search", func(r chi.Router) {
			r.Post("/", deps.Search.Search)
			r.Get("/", deps.Search.History)
			r.Get("/{queryID}", deps.Search.Records)
			r.Delete("/{queryID}", deps.Search.Delete)
		})
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", deps.Tasks.List)
			r.Get("/{taskID}", deps.Tasks.Get)
		})
	})

	r.Method(http.MethodGet, "/health", deps.Health)

	return r
}
