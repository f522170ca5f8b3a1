package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notepad/internal/provider"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(p *provider.Provider, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(p)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Collection.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Put("/notes", h.UpdateNotes)
	r.Delete("/notes", h.DeleteNotes)

	// Single note.
	r.Get("/notes/{id}", h.GetNote)
	r.Put("/notes/{id}", h.UpdateNote)
	r.Delete("/notes/{id}", h.DeleteNote)
	r.Get("/notes/{id}/export", h.ExportNote)

	// Read-only views.
	r.Get("/live_folder/notes", h.LiveFolder)
	r.Get("/live_folders/notes", h.LiveFolder)
	r.Get("/type", h.Type)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
