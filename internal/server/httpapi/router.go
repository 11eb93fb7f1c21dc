package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (s *HTTPServer) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)
			r.Post("/logout", s.handleLogout)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Route("/blocks", func(r chi.Router) {
				r.Post("/", s.handleCreateBlock)
				r.Get("/", s.handleListChildren)
				r.Get("/{uuid}", s.handleGetBlock)
				r.Patch("/{uuid}", s.handleUpdateBlock)
				r.Delete("/{uuid}", s.handleDeleteBlock)
				r.Post("/{uuid}/move", s.handleMoveBlock)
				r.Get("/{uuid}/breadcrumbs", s.handleBreadcrumbs)
				r.Get("/{uuid}/fields", s.handleListFields)
				r.Post("/{uuid}/fields", s.handleCreateField)
			})

			r.Route("/fields", func(r chi.Router) {
				r.Get("/{uuid}", s.handleGetField)
				r.Patch("/{uuid}", s.handleUpdateField)
				r.Delete("/{uuid}", s.handleDeleteField)
			})

			r.Get("/search", s.handleSearch)

			r.Route("/transfer", func(r chi.Router) {
				r.Get("/export", s.handleExport)
				r.Post("/import", s.handleImport)
			})
		})
	})

	return r
}
