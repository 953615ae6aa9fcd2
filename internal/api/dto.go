package api

import (
	"time"

	"github.com/starford/sowilo/internal/index"
	"github.com/starford/sowilo/internal/models"
	"github.com/starford/sowilo/internal/noteservice"
)

// NoteDetail is the full note response.
type NoteDetail struct {
	Path        string              `json:"path" example:"notes/hello.md" validate:"required"`
	Title       string              `json:"title" example:"Hello" validate:"required"`
	Content     string              `json:"content" example:"# Hello\nWorld" validate:"required"`
	Checksum    string              `json:"checksum" example:"abc123..." validate:"required"`
	Tags        []string            `json:"tags" validate:"required"`
	Links       []string            `json:"links" validate:"required"`
	Frontmatter *models.Frontmatter `json:"frontmatter,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	ModifiedAt  time.Time           `json:"modified_at"`
}

func toNoteDetail(n *models.Note) NoteDetail {
	return NoteDetail{
		Path:        n.Path,
		Title:       n.Title,
		Content:     n.Content,
		Checksum:    n.Checksum,
		Tags:        nonNil(n.Tags),
		Links:       nonNil(n.Links),
		Frontmatter: n.Frontmatter,
		CreatedAt:   n.CreatedAt,
		ModifiedAt:  n.ModifiedAt,
	}
}

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response. The note body is
// left out; fetch it through /notes/{path}.
type SearchResult struct {
	Path          string   `json:"path" example:"notes/hello.md" validate:"required"`
	Title         string   `json:"title" example:"Hello" validate:"required"`
	Score         int      `json:"score" example:"7" validate:"required"`
	MatchedFields []string `json:"matched_fields" example:"title,content" validate:"required"`
	Excerpt       string   `json:"excerpt,omitempty" example:"...matched text..."`
	Tags          []string `json:"tags" validate:"required"`
}

func toSearchResults(in []models.SearchResult) []SearchResult {
	out := make([]SearchResult, len(in))
	for i, r := range in {
		out[i] = SearchResult{
			Path:          r.Note.Path,
			Title:         r.Note.Title,
			Score:         r.Score,
			MatchedFields: nonNil(r.MatchedFields),
			Excerpt:       r.Excerpt,
			Tags:          nonNil(r.Note.Tags),
		}
	}
	return out
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// ChunkSearchResponse wraps chunk search hits.
type ChunkSearchResponse struct {
	Results []index.ChunkHit `json:"results" validate:"required"`
}

// TagsResponse wraps the tag listing.
type TagsResponse struct {
	Tags []noteservice.TagCount `json:"tags" validate:"required"`
}

// ChunksResponse wraps the chunks of one note.
type ChunksResponse struct {
	Path   string                 `json:"path" example:"notes/hello.md" validate:"required"`
	Chunks []models.DocumentChunk `json:"chunks" validate:"required"`
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
