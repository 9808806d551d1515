package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter は API のルーティングを組み立てます。
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", h.ListSessions)
			r.Post("/", h.CreateSession)
			r.Get("/active", h.ActiveState)
			r.Post("/{id}/activate", h.ActivateSession)
			r.Patch("/{id}", h.RenameSession)
			r.Delete("/{id}", h.DeleteSession)
		})

		r.Post("/edit/redesign", h.Redesign)
		r.Post("/edit/rotate", h.Rotate)

		r.Post("/history/undo", h.Undo)
		r.Post("/history/redo", h.Redo)
		r.Post("/history/revert", h.Revert)

		r.Put("/overlay", h.SetOverlay)
		r.Delete("/overlay", h.ClearOverlay)
		r.Put("/base", h.ReplaceBase)

		r.Get("/image/current", h.CurrentImage)
		r.Post("/export", h.Export)
	})

	return r
}
