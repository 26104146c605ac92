package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"

	"github.com/inkpath/engine/internal/api/handlers"
	mw "github.com/inkpath/engine/internal/api/middleware"
)

type Dependencies struct {
	HMACSecret        []byte
	AuthHandler       *handlers.AuthHandler
	ComicsHandler     *handlers.ComicsHandler
	ModerationHandler *handlers.ModerationHandler
	PagesHandler      *handlers.PagesHandler
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	// Built-in middleware
	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.CORS)
	r.Use(mw.RateLimit(10, 20))
	r.Use(chimid.Compress(5))

	// Health endpoints
	hh := handlers.NewHealthHandler()
	r.Get("/healthz", hh.Liveness)
	r.Get("/readyz", hh.Readiness)

	r.Route("/api/v1", func(api chi.Router) {
		// Auth routes (public)
		api.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", dep.AuthHandler.Register)
			ar.Post("/login", dep.AuthHandler.Login)
			ar.Post("/logout", dep.AuthHandler.Logout)
		})

		// Reader routes (public)
		api.Get("/published", dep.PagesHandler.ListPublished)
		api.Get("/comics/{id}/pages", dep.PagesHandler.List)
		api.Get("/comics/{id}/pages/{pageID}", dep.PagesHandler.Get)

		// Protected routes
		api.Group(func(protected chi.Router) {
			protected.Use(mw.Auth(dep.HMACSecret))

			// Creator surface
			protected.Route("/comics", func(cr chi.Router) {
				cr.Get("/", dep.ComicsHandler.List)
				cr.Post("/", dep.ComicsHandler.Create)
				cr.Get("/{id}", dep.ComicsHandler.Get)
				cr.Delete("/{id}", dep.ComicsHandler.Delete)
				cr.Get("/{id}/draft", dep.ComicsHandler.GetDraft)
				cr.Put("/{id}/draft", dep.ComicsHandler.SaveDraft)
				cr.Post("/{id}/draft/validate", dep.ComicsHandler.ValidateDraft)
				cr.Get("/{id}/revisions", dep.ComicsHandler.ListRevisions)
				cr.Post("/{id}/submit", dep.ModerationHandler.Submit)
			})

			// Moderation surface
			protected.Route("/moderation", func(mr chi.Router) {
				mr.Get("/pending", dep.ModerationHandler.Pending)
				mr.Post("/revisions/{id}/approve", dep.ModerationHandler.Approve)
				mr.Post("/revisions/{id}/reject", dep.ModerationHandler.Reject)
			})
		})
	})

	return r
}
