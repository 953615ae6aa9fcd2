// Package vault scans a note tree into an in-memory snapshot of parsed notes
// and answers lookup queries over it.
package vault

import (
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/cache"
	"github.com/starford/sowilo/internal/checksum"
	"github.com/starford/sowilo/internal/models"
	"github.com/starford/sowilo/internal/parser"
	"github.com/starford/sowilo/internal/storage"
)

// DefaultIgnoredFolders are skipped unless WithIgnoredFolders overrides them.
var DefaultIgnoredFolders = []string{".obsidian", ".git", ".trash"}

const defaultParseCacheSize = 1024

type parseKey struct {
	path     string
	checksum string
}

// Repository turns a storage tree into notes. It is not safe for concurrent
// use: the snapshot is replaced wholesale by FindAll and read by everything
// else.
type Repository struct {
	store   storage.Provider
	logger  *slog.Logger
	root    string
	ignored []string
	parsed  *cache.LRU[parseKey, *parser.Result]
	now     func() time.Time

	snapshot *Snapshot
}

// Option configures a Repository.
type Option func(*Repository)

// WithRoot scans dir (relative to the storage root) instead of the whole store.
// Note paths stay relative to dir.
func WithRoot(dir string) Option {
	return func(r *Repository) {
		r.root = strings.Trim(normalizePath(dir), "/")
	}
}

// WithIgnoredFolders replaces the default ignored folder prefixes.
func WithIgnoredFolders(prefixes ...string) Option {
	return func(r *Repository) {
		r.ignored = r.ignored[:0]
		for _, p := range prefixes {
			if p = strings.Trim(normalizePath(p), "/"); p != "" {
				r.ignored = append(r.ignored, p)
			}
		}
	}
}

// WithParseCache sets how many parsed files are kept between scans. Zero
// disables the cache.
func WithParseCache(capacity int) Option {
	return func(r *Repository) {
		r.parsed = cache.New[parseKey, *parser.Result](capacity)
	}
}

// NewRepository creates a repository over store.
func NewRepository(store storage.Provider, logger *slog.Logger, opts ...Option) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Repository{
		store:   store,
		logger:  logger,
		ignored: append([]string(nil), DefaultIgnoredFolders...),
		parsed:  cache.New[parseKey, *parser.Result](defaultParseCacheSize),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Snapshot returns the result of the last FindAll, or nil before the first
// scan. It is only refreshed by FindAll.
func (r *Repository) Snapshot() *Snapshot {
	return r.snapshot
}

// ParseCacheStats exposes the parse cache counters.
func (r *Repository) ParseCacheStats() cache.Stats {
	return r.parsed.Stats()
}

// FindAll rescans the whole tree and replaces the snapshot. Files that cannot
// be read or parsed are logged and skipped; only a root that cannot be listed
// is an error (*apperr.RootAccessError).
func (r *Repository) FindAll() (*Snapshot, error) {
	start := r.now()
	names, err := r.store.ReadDir(r.root)
	if err != nil {
		return nil, &apperr.RootAccessError{Path: r.root, Err: err}
	}

	var notes []*models.Note
	skipped := 0
	r.walk("", names, &notes, &skipped)

	r.snapshot = newSnapshot(notes, start)
	r.logger.Info("vault: scan complete",
		slog.String("root", r.root),
		slog.Int("notes", len(notes)),
		slog.Int("skipped", skipped),
		slog.Duration("took", r.now().Sub(start)))
	return r.snapshot, nil
}

// FindByPath returns the note stored under path. A missing note is reported
// through ok, not as an error.
func (r *Repository) FindByPath(p string) (*models.Note, bool, error) {
	snap, err := r.ensure()
	if err != nil {
		return nil, false, err
	}
	n, ok := snap.ByPath(p)
	return n, ok, nil
}

// FindByFolder returns every note under the folder prefix.
func (r *Repository) FindByFolder(prefix string) ([]*models.Note, error) {
	snap, err := r.ensure()
	if err != nil {
		return nil, err
	}
	return snap.ByFolder(prefix), nil
}

// GetAllTags maps each lower-cased tag to the number of notes carrying it.
func (r *Repository) GetAllTags() (map[string]int, error) {
	snap, err := r.ensure()
	if err != nil {
		return nil, err
	}
	return snap.Tags(), nil
}

// GetRecentlyModified returns the limit most recently modified notes.
func (r *Repository) GetRecentlyModified(limit int) ([]*models.Note, error) {
	snap, err := r.ensure()
	if err != nil {
		return nil, err
	}
	return snap.RecentlyModified(limit), nil
}

func (r *Repository) ensure() (*Snapshot, error) {
	if r.snapshot != nil {
		return r.snapshot, nil
	}
	return r.FindAll()
}

// walk visits the entries of dir (relative to the repository root) depth
// first, one storage call at a time.
func (r *Repository) walk(dir string, names []string, notes *[]*models.Note, skipped *int) {
	for _, name := range names {
		rel := path.Join(dir, name)
		if r.isIgnored(rel) {
			continue
		}
		full := r.storagePath(rel)

		info, err := r.store.Stat(full)
		if err != nil {
			r.skip(&apperr.FileError{Op: "stat", Path: rel, Err: err}, skipped)
			continue
		}

		switch {
		case info.IsDir:
			children, err := r.store.ReadDir(full)
			if err != nil {
				r.skip(&apperr.FileError{Op: "list", Path: rel, Err: err}, skipped)
				continue
			}
			r.walk(rel, children, notes, skipped)

		case info.IsFile && strings.EqualFold(path.Ext(name), ".md"):
			n, err := r.load(rel, full, info)
			if err != nil {
				r.skip(err, skipped)
				continue
			}
			*notes = append(*notes, n)
		}
	}
}

func (r *Repository) load(rel, full string, info storage.FileInfo) (*models.Note, error) {
	data, err := r.store.ReadFile(full)
	if err != nil {
		return nil, &apperr.FileError{Op: "read", Path: rel, Err: err}
	}
	sum := checksum.Sum(data)

	key := parseKey{path: rel, checksum: sum}
	res, ok := r.parsed.Get(key)
	if !ok {
		res, err = parser.Parse(data)
		if err != nil {
			return nil, &apperr.ParseError{Path: rel, Err: err}
		}
		r.parsed.Set(key, res)
	}

	n := &models.Note{
		Path:        rel,
		Title:       res.Title,
		Content:     res.Body,
		Frontmatter: res.Frontmatter,
		Tags:        nonNilSlice(res.Tags),
		Links:       nonNilSlice(res.Links),
		Checksum:    sum,
		CreatedAt:   info.CreatedAt,
		ModifiedAt:  info.ModifiedAt,
	}
	if fm := res.Frontmatter; fm != nil {
		if fm.Created != nil {
			n.CreatedAt = *fm.Created
		}
		if fm.Updated != nil {
			n.ModifiedAt = *fm.Updated
		}
	}
	return n, nil
}

func (r *Repository) skip(err error, skipped *int) {
	*skipped++
	r.logger.Warn("vault: skipped entry", slog.String("error", err.Error()))
}

func (r *Repository) isIgnored(rel string) bool {
	for _, p := range r.ignored {
		if rel == p || strings.HasPrefix(rel, p+"/") {
			return true
		}
	}
	return false
}

func (r *Repository) storagePath(rel string) string {
	if r.root == "" {
		return rel
	}
	return path.Join(r.root, rel)
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
