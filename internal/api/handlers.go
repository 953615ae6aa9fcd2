package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/sowilo/internal/noteservice"
)

const defaultRecentLimit = 10

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// notePath extracts the note path from the URL wildcard.
// Supports encoded slashes from OpenAPI clients (e.g. topics%2Fnote.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func intParam(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 0 {
		return def
	}
	return n
}

// ListNotes handles GET /notes.
//
//	@Summary		List notes, optionally below a folder
//	@Tags			notes
//	@Produce		json
//	@Param			folder	query		string	false	"Folder prefix"
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	folder := r.URL.Query().Get("folder")
	items, err := h.svc.ListNotes(r.Context(), folder)
	if err != nil {
		writeServiceError(w, "list notes", err, slog.String("folder", folder))
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: len(items)})
}

// GetNote handles GET /notes/*.
//
//	@Summary		Get a single note by path
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	note, err := h.svc.GetNote(r.Context(), path)
	if err != nil {
		writeServiceError(w, "get note", err, slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusOK, toNoteDetail(note))
}

// Recent handles GET /recent.
//
//	@Summary		Most recently modified notes
//	@Tags			notes
//	@Produce		json
//	@Param			limit	query		int	false	"Max results"	default(10)
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/recent [get]
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Recent(r.Context(), intParam(r, "limit", defaultRecentLimit))
	if err != nil {
		writeServiceError(w, "recent notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: len(items)})
}

// Tags handles GET /tags.
//
//	@Summary		Tag usage across the vault
//	@Tags			notes
//	@Produce		json
//	@Success		200	{object}	TagsResponse
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.Tags(r.Context())
	if err != nil {
		writeServiceError(w, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, TagsResponse{Tags: tags})
}

// Search handles GET /search.
//
//	@Summary		Rank notes against a query
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	results, err := h.svc.Search(r.Context(), q, intParam(r, "limit", 0))
	if err != nil {
		writeServiceError(w, "search", err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: toSearchResults(results)})
}

// SearchChunks handles GET /search/chunks.
//
//	@Summary		Full-text search over stored chunks
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	ChunkSearchResponse
//	@Failure		400		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search/chunks [get]
func (h *Handler) SearchChunks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	hits, err := h.svc.SearchChunks(r.Context(), q, intParam(r, "limit", 0))
	if err != nil {
		writeServiceError(w, "search chunks", err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, ChunkSearchResponse{Results: hits})
}

// ChunkNote handles GET /chunks/*.
//
//	@Summary		Chunk a note with the configured options
//	@Tags			chunks
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	ChunksResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/chunks/{path} [get]
func (h *Handler) ChunkNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	chunks, err := h.svc.ChunkNote(r.Context(), path)
	if err != nil {
		writeServiceError(w, "chunk note", err, slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusOK, ChunksResponse{Path: path, Chunks: chunks})
}

// SyncChunks handles POST /chunks/sync.
//
//	@Summary		Sync the chunk store with the current snapshot
//	@Tags			chunks
//	@Produce		json
//	@Success		200	{object}	index.SyncStats
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/chunks/sync [post]
func (h *Handler) SyncChunks(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.SyncChunks(r.Context())
	if err != nil {
		writeServiceError(w, "sync chunks", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Reindex handles POST /reindex.
//
//	@Summary		Rescan the vault
//	@Tags			maintenance
//	@Produce		json
//	@Success		200	{object}	noteservice.ReindexResult
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/reindex [post]
func (h *Handler) Reindex(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Reindex(r.Context())
	if err != nil {
		writeServiceError(w, "reindex", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Status handles GET /status.
//
//	@Summary		Snapshot and cache statistics
//	@Tags			maintenance
//	@Produce		json
//	@Success		200	{object}	noteservice.Status
//	@Security		BearerAuth
//	@Router			/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Status(r.Context())
	if err != nil {
		writeServiceError(w, "status", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
