// Package models defines the domain types shared by the engine and its adapters.
package models

import (
	"strings"
	"time"
)

// UntitledNote is the title given to notes without a frontmatter title or H1.
const UntitledNote = "Untitled"

// Frontmatter holds the well-known metadata fields of a note. Keys that are
// not recognised end up in Extra.
type Frontmatter struct {
	Title   string         `json:"title,omitempty"`
	Tags    []string       `json:"tags,omitempty"`
	Aliases []string       `json:"aliases,omitempty"`
	Created *time.Time     `json:"created,omitempty"`
	Updated *time.Time     `json:"updated,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
	// Raw is the decoded block as written, for adapters that echo it back.
	Raw map[string]any `json:"-"`
}

// Note represents a parsed Markdown file in the vault.
type Note struct {
	Path        string       `json:"path"`
	Title       string       `json:"title"`
	Content     string       `json:"content"`
	Frontmatter *Frontmatter `json:"frontmatter,omitempty"`
	Tags        []string     `json:"tags"`
	Links       []string     `json:"links"`
	Checksum    string       `json:"checksum"`
	CreatedAt   time.Time    `json:"created_at"`
	ModifiedAt  time.Time    `json:"modified_at"`
}

// HasTag reports whether the note carries tag, ignoring case and a leading '#'.
func (n *Note) HasTag(tag string) bool {
	tag = strings.TrimPrefix(tag, "#")
	for _, t := range n.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Matched field names reported by SearchResult.
const (
	FieldTitle   = "title"
	FieldContent = "content"
	FieldTags    = "tags"
)

// SearchResult is one ranked hit. It is derived at query time and never stored.
type SearchResult struct {
	Note          *Note    `json:"note"`
	Score         int      `json:"score"`
	MatchedFields []string `json:"matched_fields"`
	Excerpt       string   `json:"excerpt,omitempty"`
}
