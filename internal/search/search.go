// Package search ranks notes against a free-text query.
//
// The query is matched as one contiguous, case-insensitive substring. There is
// no per-word matching and no boolean combination: "cats dogs" only matches
// notes containing that exact phrase.
package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/starford/sowilo/internal/cache"
	"github.com/starford/sowilo/internal/models"
)

// Scoring weights.
const (
	TitleWeight   = 2
	ContentWeight = 1
	TagBonus      = 5
)

const excerptRadius = 80

type scoreKey struct {
	query    string
	path     string
	checksum string
}

type match struct {
	score   int
	fields  []string
	excerpt string
}

// Searcher ranks notes, optionally memoising per-note scores. Scores are keyed
// by note checksum so unchanged notes are not rescanned for a repeated query.
// A Searcher is not safe for concurrent use.
type Searcher struct {
	scores *cache.LRU[scoreKey, match]
}

// NewSearcher returns a Searcher caching up to cacheSize note scores. Zero
// disables the cache.
func NewSearcher(cacheSize int) *Searcher {
	return &Searcher{scores: cache.New[scoreKey, match](cacheSize)}
}

// Search ranks notes against query without caching.
func Search(query string, notes []*models.Note, limit int) []models.SearchResult {
	return (&Searcher{}).Search(query, notes, limit)
}

// CacheStats returns the score cache counters.
func (s *Searcher) CacheStats() cache.Stats {
	if s.scores == nil {
		return cache.Stats{}
	}
	return s.scores.Stats()
}

// Search scores every note and returns the matches sorted by descending
// score, keeping input order among equal scores. A blank query yields no
// results; any other query is matched as given, surrounding whitespace
// included. When limit is positive the sorted list is cut to that length.
func (s *Searcher) Search(query string, notes []*models.Note, limit int) []models.SearchResult {
	results := []models.SearchResult{}
	if strings.TrimSpace(query) == "" {
		return results
	}
	q := strings.ToLower(query)
	re := regexp.MustCompile(regexp.QuoteMeta(q))

	for _, n := range notes {
		m := s.score(q, re, n)
		if m.score == 0 {
			continue
		}
		results = append(results, models.SearchResult{
			Note:          n,
			Score:         m.score,
			MatchedFields: m.fields,
			Excerpt:       m.excerpt,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func (s *Searcher) score(q string, re *regexp.Regexp, n *models.Note) match {
	key := scoreKey{query: q, path: n.Path, checksum: n.Checksum}
	if s.scores != nil && n.Checksum != "" {
		if m, ok := s.scores.Get(key); ok {
			return m
		}
	}

	var m match
	if c := len(re.FindAllStringIndex(strings.ToLower(n.Title), -1)); c > 0 {
		m.score += TitleWeight * c
		m.fields = append(m.fields, models.FieldTitle)
	}
	content, offs := lower(n.Content)
	if locs := re.FindAllStringIndex(content, -1); len(locs) > 0 {
		m.score += ContentWeight * len(locs)
		m.fields = append(m.fields, models.FieldContent)
		m.excerpt = excerpt(n.Content, offs[locs[0][0]], offs[locs[0][1]])
	}
	for _, t := range n.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			m.score += TagBonus
			m.fields = append(m.fields, models.FieldTags)
			break
		}
	}

	if s.scores != nil && n.Checksum != "" {
		s.scores.Set(key, m)
	}
	return m
}

// lower lower-cases s rune by rune. offs[i] is the offset in s of the rune
// that produced byte i of the result; offs[len(result)] is len(s).
func lower(s string) (string, []int) {
	var b strings.Builder
	b.Grow(len(s))
	offs := make([]int, 0, len(s)+1)
	for i, r := range s {
		n := b.Len()
		b.WriteRune(unicode.ToLower(r))
		for ; n < b.Len(); n++ {
			offs = append(offs, i)
		}
	}
	return b.String(), append(offs, len(s))
}

// excerpt cuts a window of text around the byte range [from, to).
func excerpt(text string, from, to int) string {
	start := max(from-excerptRadius, 0)
	end := min(to+excerptRadius, len(text))
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}

	out := strings.Join(strings.Fields(text[start:end]), " ")
	if start > 0 {
		out = "…" + out
	}
	if end < len(text) {
		out += "…"
	}
	return out
}
