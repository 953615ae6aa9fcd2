package vault

import (
	"sort"
	"strings"
	"time"

	"github.com/starford/sowilo/internal/models"
)

// Snapshot is the immutable result of one full scan. Notes are kept in scan
// order; callers must not modify them.
type Snapshot struct {
	Notes     []*models.Note
	ScannedAt time.Time

	byPath map[string]*models.Note
}

func newSnapshot(notes []*models.Note, at time.Time) *Snapshot {
	byPath := make(map[string]*models.Note, len(notes))
	for _, n := range notes {
		byPath[n.Path] = n
	}
	return &Snapshot{Notes: notes, ScannedAt: at, byPath: byPath}
}

// Len returns the number of notes.
func (s *Snapshot) Len() int {
	return len(s.Notes)
}

// ByPath returns the note stored under path.
func (s *Snapshot) ByPath(path string) (*models.Note, bool) {
	n, ok := s.byPath[normalizePath(path)]
	return n, ok
}

// ByFolder returns the notes whose path lies under prefix. An empty prefix
// matches every note.
func (s *Snapshot) ByFolder(prefix string) []*models.Note {
	prefix = normalizeFolder(prefix)
	out := []*models.Note{}
	for _, n := range s.Notes {
		if strings.HasPrefix(n.Path, prefix) {
			out = append(out, n)
		}
	}
	return out
}

// Tags counts how many notes carry each tag. Keys are lower-cased so that
// spellings differing only by case are counted together.
func (s *Snapshot) Tags() map[string]int {
	out := make(map[string]int)
	for _, n := range s.Notes {
		for _, t := range n.Tags {
			out[strings.ToLower(t)]++
		}
	}
	return out
}

// RecentlyModified returns up to limit notes, newest first. Notes with equal
// modification times keep scan order. A limit of zero or less returns all.
func (s *Snapshot) RecentlyModified(limit int) []*models.Note {
	out := make([]*models.Note, len(s.Notes))
	copy(out, s.Notes)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ModifiedAt.After(out[j].ModifiedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	return strings.TrimPrefix(p, "/")
}

func normalizeFolder(prefix string) string {
	prefix = strings.Trim(normalizePath(prefix), "/")
	if prefix == "" || prefix == "." {
		return ""
	}
	return prefix + "/"
}
