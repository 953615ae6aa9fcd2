package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/sowilo/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/*", h.GetNote)
	r.Get("/recent", h.Recent)
	r.Get("/tags", h.Tags)

	// Search.
	r.Get("/search", h.Search)
	r.Get("/search/chunks", h.SearchChunks)

	// Chunks.
	r.Get("/chunks/*", h.ChunkNote)
	r.Post("/chunks/sync", h.SyncChunks)

	// Maintenance.
	r.Post("/reindex", h.Reindex)
	r.Get("/status", h.Status)

	return r
}
