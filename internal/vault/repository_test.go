package vault

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/storage"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func memVault(files map[string]string) *storage.Memory {
	m := storage.NewMemory()
	i := 0
	for p, c := range files {
		m.Put(p, []byte(c), t0.Add(time.Duration(i)*time.Minute))
		i++
	}
	return m
}

func TestFindAll_CatsAndDogs(t *testing.T) {
	store := memVault(map[string]string{
		"a.md": "# Cats\nI love cats.",
		"b.md": "# Dogs\nDogs are great, #dogs",
	})
	repo := NewRepository(store, quietLogger())

	snap, err := repo.FindAll()
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if snap.Len() != 2 {
		t.Fatalf("notes = %d, want 2", snap.Len())
	}
	a, ok := snap.ByPath("a.md")
	if !ok || a.Title != "Cats" || a.Content != "# Cats\nI love cats." {
		t.Errorf("a.md = %+v", a)
	}

	tags, err := repo.GetAllTags()
	if err != nil {
		t.Fatalf("GetAllTags: %v", err)
	}
	if tags["dogs"] != 1 || len(tags) != 1 {
		t.Errorf("tags = %v, want map[dogs:1]", tags)
	}
}

func TestFindAll_SkipsNonMarkdownAndIgnored(t *testing.T) {
	store := memVault(map[string]string{
		"keep.md":                "keep",
		"image.png":              "binary",
		".obsidian/workspace.md": "ignored",
		"archive/old.md":         "old",
		"archived.md":            "prefix lookalike",
	})
	repo := NewRepository(store, quietLogger(), WithIgnoredFolders(".obsidian", "archive"))

	snap, err := repo.FindAll()
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	var paths []string
	for _, n := range snap.Notes {
		paths = append(paths, n.Path)
	}
	want := []string{"archived.md", "keep.md"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("paths = %v, want %v", paths, want)
	}
}

func TestFindAll_RootAccessError(t *testing.T) {
	store := storage.NewMemory()
	store.Fail("", errors.New("permission denied"))
	repo := NewRepository(store, quietLogger())

	_, err := repo.FindAll()
	var rootErr *apperr.RootAccessError
	if !errors.As(err, &rootErr) {
		t.Fatalf("err = %v, want *apperr.RootAccessError", err)
	}
	if repo.Snapshot() != nil {
		t.Error("failed scan must not install a snapshot")
	}
}

func TestFindAll_MissingRootDirectory(t *testing.T) {
	repo := NewRepository(storage.NewMemory(), quietLogger(), WithRoot("nowhere"))
	_, err := repo.FindAll()
	var rootErr *apperr.RootAccessError
	if !errors.As(err, &rootErr) || rootErr.Path != "nowhere" {
		t.Fatalf("err = %v", err)
	}
}

func TestFindAll_PartialFailure(t *testing.T) {
	store := memVault(map[string]string{
		"good.md":       "fine",
		"unreadable.md": "locked",
		"broken.md":     "---\n: bad: yaml: {{{\n---\nbody",
		"sub/inner.md":  "inner",
		"locked/x.md":   "x",
	})
	store.Fail("unreadable.md", errors.New("io error"))
	store.Fail("locked", errors.New("permission denied"))
	repo := NewRepository(store, quietLogger())

	snap, err := repo.FindAll()
	if err != nil {
		t.Fatalf("FindAll should tolerate bad files: %v", err)
	}
	if snap.Len() != 2 {
		t.Fatalf("notes = %d, want 2", snap.Len())
	}
	if _, ok := snap.ByPath("good.md"); !ok {
		t.Error("good.md missing")
	}
	if _, ok := snap.ByPath("sub/inner.md"); !ok {
		t.Error("sub/inner.md missing")
	}
}

func TestFindAll_Idempotent(t *testing.T) {
	store := memVault(map[string]string{
		"a.md":     "---\ntags: [x]\n---\n# A\n[[b]]",
		"dir/b.md": "# B\n#y",
	})
	repo := NewRepository(store, quietLogger())

	first, err := repo.FindAll()
	if err != nil {
		t.Fatal(err)
	}
	second, err := repo.FindAll()
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("each scan must produce a new snapshot")
	}
	if !reflect.DeepEqual(first.Notes, second.Notes) {
		t.Error("consecutive scans of unchanged storage differ")
	}
	if hits := repo.ParseCacheStats().Hits; hits != 2 {
		t.Errorf("parse cache hits = %d, want 2", hits)
	}
}

func TestFindAll_SnapshotReplacedOnlyByRescan(t *testing.T) {
	store := memVault(map[string]string{"a.md": "a"})
	repo := NewRepository(store, quietLogger())
	if _, err := repo.FindAll(); err != nil {
		t.Fatal(err)
	}

	store.Put("b.md", []byte("b"), t0)
	if _, ok, _ := repo.FindByPath("b.md"); ok {
		t.Error("snapshot must stay stale until the next FindAll")
	}
	if _, err := repo.FindAll(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := repo.FindByPath("b.md"); !ok {
		t.Error("b.md should be visible after rescan")
	}
}

func TestFindByPath_ScansLazily(t *testing.T) {
	store := memVault(map[string]string{"notes/a.md": "a"})
	repo := NewRepository(store, quietLogger())

	n, ok, err := repo.FindByPath("./notes/a.md")
	if err != nil || !ok || n.Path != "notes/a.md" {
		t.Fatalf("FindByPath = %v, %v, %v", n, ok, err)
	}
	n, ok, err = repo.FindByPath("notes/missing.md")
	if err != nil || ok || n != nil {
		t.Errorf("missing note should be (nil, false, nil), got %v, %v, %v", n, ok, err)
	}
}

func TestFindByFolder(t *testing.T) {
	store := memVault(map[string]string{
		"projects/a.md":     "a",
		"projects/sub/b.md": "b",
		"projects-old/c.md": "c",
		"d.md":              "d",
	})
	repo := NewRepository(store, quietLogger())

	got, err := repo.FindByFolder("/projects/")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("projects = %d notes, want 2", len(got))
	}
	all, _ := repo.FindByFolder("")
	if len(all) != 4 {
		t.Errorf("root = %d notes, want 4", len(all))
	}
	none, _ := repo.FindByFolder("nothing")
	if none == nil || len(none) != 0 {
		t.Errorf("empty folder should be an empty list, got %v", none)
	}
}

func TestGetRecentlyModified(t *testing.T) {
	store := storage.NewMemory()
	store.Put("old.md", []byte("old"), t0)
	store.Put("tie1.md", []byte("t1"), t0.Add(time.Hour))
	store.Put("tie2.md", []byte("t2"), t0.Add(time.Hour))
	store.Put("fm.md", []byte("---\nupdated: 2030-01-01\n---\nfuture"), t0)
	repo := NewRepository(store, quietLogger())

	got, err := repo.GetRecentlyModified(3)
	if err != nil {
		t.Fatal(err)
	}
	var paths []string
	for _, n := range got {
		paths = append(paths, n.Path)
	}
	want := []string{"fm.md", "tie1.md", "tie2.md"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("recent = %v, want %v", paths, want)
	}
}

func TestFrontmatterDatesOverrideStorage(t *testing.T) {
	store := storage.NewMemory()
	store.Put("a.md", []byte("---\ncreated: 2020-02-02\nupdated: not a date\n---\nx"), t0)
	repo := NewRepository(store, quietLogger())

	n, ok, err := repo.FindByPath("a.md")
	if err != nil || !ok {
		t.Fatalf("FindByPath: %v %v", ok, err)
	}
	if !n.CreatedAt.Equal(time.Date(2020, 2, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("created = %v", n.CreatedAt)
	}
	if !n.ModifiedAt.Equal(t0) {
		t.Errorf("modified = %v, want storage time", n.ModifiedAt)
	}
}

func TestHasTagIsCaseInsensitive(t *testing.T) {
	store := memVault(map[string]string{"es.md": "---\ntags: [Spanish]\n---\nhola"})
	repo := NewRepository(store, quietLogger())
	n, _, err := repo.FindByPath("es.md")
	if err != nil {
		t.Fatal(err)
	}
	if !n.HasTag("spanish") || !n.HasTag("#SPANISH") {
		t.Error("HasTag should ignore case")
	}
}

func TestFindAll_DiskVault(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(filepath.Join(dir, "a.md"), []byte("# A"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "sub", "b.md"), []byte("# B"), 0o644)
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}

	snap, err := NewRepository(store, quietLogger()).FindAll()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := snap.ByPath("sub/b.md"); !ok || snap.Len() != 2 {
		t.Errorf("disk scan found %d notes", snap.Len())
	}
}
