// Package noteservice is the facade both adapters talk to. It owns the
// repository, the searcher and the optional chunk store and serialises access
// to them.
package noteservice

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/cache"
	"github.com/starford/sowilo/internal/chunker"
	"github.com/starford/sowilo/internal/index"
	"github.com/starford/sowilo/internal/models"
	"github.com/starford/sowilo/internal/search"
	"github.com/starford/sowilo/internal/vault"
)

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path       string    `json:"path"`
	Title      string    `json:"title"`
	Checksum   string    `json:"checksum"`
	Tags       []string  `json:"tags"`
	ModifiedAt time.Time `json:"modified_at"`
}

// TagCount is one entry of the tag listing.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// ReindexResult reports a full rescan and, when a chunk store is configured,
// the chunk sync that followed it.
type ReindexResult struct {
	Notes     int              `json:"notes"`
	ScannedAt time.Time        `json:"scanned_at"`
	Chunks    *index.SyncStats `json:"chunks,omitempty"`
}

// Status describes the in-memory state of the engine.
type Status struct {
	Notes        int         `json:"notes"`
	ScannedAt    *time.Time  `json:"scanned_at,omitempty"`
	ParseCache   cache.Stats `json:"parse_cache"`
	ScoreCache   cache.Stats `json:"score_cache"`
	StoredNotes  int         `json:"stored_notes"`
	StoredChunks int         `json:"stored_chunks"`
}

// Service coordinates the repository, search and chunk store.
type Service struct {
	mu       sync.Mutex
	repo     *vault.Repository
	searcher *search.Searcher
	chunking chunker.Options
	db       index.ChunkStore // nil when no chunk store is configured
	logger   *slog.Logger
}

// NewService creates a new note service. db may be nil.
func NewService(repo *vault.Repository, searcher *search.Searcher, chunking chunker.Options, db index.ChunkStore, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		searcher: searcher,
		chunking: chunking,
		db:       db,
		logger:   logger,
	}
}

// Reindex rescans the vault and, with a chunk store, syncs it.
func (s *Service) Reindex(_ context.Context) (*ReindexResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.repo.FindAll()
	if err != nil {
		return nil, err
	}
	res := &ReindexResult{Notes: snap.Len(), ScannedAt: snap.ScannedAt}
	if s.db != nil {
		stats, err := index.Sync(s.db, snap.Notes, s.chunking, s.logger)
		if err != nil {
			return nil, err
		}
		res.Chunks = &stats
	}
	return res, nil
}

// GetNote returns the note at path, or apperr.ErrNotFound.
func (s *Service) GetNote(_ context.Context, path string) (*models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok, err := s.repo.FindByPath(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return n, nil
}

// ListNotes lists the notes under folder; an empty folder means the whole vault.
func (s *Service) ListNotes(_ context.Context, folder string) ([]NoteListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.repo.FindByFolder(folder)
	if err != nil {
		return nil, err
	}
	return listItems(notes), nil
}

// Search ranks the vault against query.
func (s *Service) Search(_ context.Context, query string, limit int) ([]models.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.repo.FindByFolder("")
	if err != nil {
		return nil, err
	}
	return s.searcher.Search(query, notes, limit), nil
}

// Tags returns tag usage, most used first and alphabetical among ties.
func (s *Service) Tags(_ context.Context) ([]TagCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts, err := s.repo.GetAllTags()
	if err != nil {
		return nil, err
	}
	out := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out, nil
}

// Recent returns the most recently modified notes.
func (s *Service) Recent(_ context.Context, limit int) ([]NoteListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.repo.GetRecentlyModified(limit)
	if err != nil {
		return nil, err
	}
	return listItems(notes), nil
}

// ChunkNote chunks the current content of the note at path with the
// configured options.
func (s *Service) ChunkNote(_ context.Context, path string) ([]models.DocumentChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok, err := s.repo.FindByPath(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return chunker.Chunk(n.Content, n.Path, s.chunking), nil
}

// SyncChunks brings the chunk store in line with the current snapshot
// without rescanning storage.
func (s *Service) SyncChunks(_ context.Context) (index.SyncStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return index.SyncStats{}, fmt.Errorf("noteservice: chunk store: %w", apperr.ErrUnavailable)
	}
	notes, err := s.repo.FindByFolder("")
	if err != nil {
		return index.SyncStats{}, err
	}
	return index.Sync(s.db, notes, s.chunking, s.logger)
}

// SearchChunks searches the stored chunks.
func (s *Service) SearchChunks(_ context.Context, query string, limit int) ([]index.ChunkHit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, fmt.Errorf("noteservice: chunk store: %w", apperr.ErrUnavailable)
	}
	return s.db.SearchChunks(query, limit)
}

// Status reports snapshot size and cache counters. It never triggers a scan.
func (s *Service) Status(_ context.Context) (*Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &Status{
		ParseCache: s.repo.ParseCacheStats(),
		ScoreCache: s.searcher.CacheStats(),
	}
	if snap := s.repo.Snapshot(); snap != nil {
		st.Notes = snap.Len()
		at := snap.ScannedAt
		st.ScannedAt = &at
	}
	if s.db != nil {
		notes, chunks, err := s.db.Counts()
		if err != nil {
			return nil, err
		}
		st.StoredNotes, st.StoredChunks = notes, chunks
	}
	return st, nil
}

func listItems(notes []*models.Note) []NoteListItem {
	items := make([]NoteListItem, len(notes))
	for i, n := range notes {
		items[i] = NoteListItem{
			Path:       n.Path,
			Title:      n.Title,
			Checksum:   n.Checksum,
			Tags:       nonNilSlice(n.Tags),
			ModifiedAt: n.ModifiedAt,
		}
	}
	return items
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
