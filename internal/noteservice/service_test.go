package noteservice

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/chunker"
	"github.com/starford/sowilo/internal/index"
	"github.com/starford/sowilo/internal/search"
	"github.com/starford/sowilo/internal/storage"
	"github.com/starford/sowilo/internal/testutil"
	"github.com/starford/sowilo/internal/vault"
)

var vaultFiles = map[string]string{
	"a.md":          "# Cats\nI love cats.",
	"b.md":          "# Dogs\nDogs are great, #dogs",
	"pets/fish.md":  "---\ntags: [pets, dogs]\n---\n# Fish\nBlub.",
	"pets/notes.md": "# Long\n" + "Sentence one here. Sentence two here. Sentence three here.",
}

func newService(t *testing.T, store storage.Provider, db index.ChunkStore) *Service {
	t.Helper()
	repo := vault.NewRepository(store, testutil.Logger())
	opts := chunker.Options{MaxChunkSize: 30, OverlapSize: 10, MinChunkSize: 5, RespectHeaders: true}
	return NewService(repo, search.NewSearcher(64), opts, db, testutil.Logger())
}

func TestGetNote(t *testing.T) {
	svc := newService(t, testutil.MemVault(vaultFiles), nil)
	ctx := context.Background()

	n, err := svc.GetNote(ctx, "a.md")
	if err != nil || n.Title != "Cats" {
		t.Fatalf("GetNote = %+v, %v", n, err)
	}
	if _, err := svc.GetNote(ctx, "missing.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing note err = %v, want ErrNotFound", err)
	}
}

func TestListNotesAndRecent(t *testing.T) {
	svc := newService(t, testutil.MemVault(vaultFiles), nil)
	ctx := context.Background()

	items, err := svc.ListNotes(ctx, "pets")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Errorf("pets = %d notes, want 2", len(items))
	}
	for _, it := range items {
		if it.Tags == nil {
			t.Errorf("%s: tags must not be nil", it.Path)
		}
	}

	recent, err := svc.Recent(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	// MemVault stamps files in path order, so the last path is newest.
	if len(recent) != 1 || recent[0].Path != "pets/notes.md" {
		t.Errorf("recent = %+v", recent)
	}
}

func TestSearchAndTags(t *testing.T) {
	svc := newService(t, testutil.MemVault(vaultFiles), nil)
	ctx := context.Background()

	res, err := svc.Search(ctx, "cats", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].Note.Path != "a.md" {
		t.Errorf("search = %+v", res)
	}

	tags, err := svc.Tags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []TagCount{{Tag: "dogs", Count: 2}, {Tag: "pets", Count: 1}}
	if len(tags) != len(want) || tags[0] != want[0] || tags[1] != want[1] {
		t.Errorf("tags = %+v, want %+v", tags, want)
	}
}

func TestChunkNote(t *testing.T) {
	svc := newService(t, testutil.MemVault(vaultFiles), nil)
	ctx := context.Background()

	chunks, err := svc.ChunkNote(ctx, "pets/notes.md")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("chunks = %d, want several", len(chunks))
	}
	for _, c := range chunks {
		if c.Metadata.NoteID != "pets/notes.md" || c.Metadata.HeaderContext != "Long" {
			t.Errorf("metadata = %+v", c.Metadata)
		}
	}
	if _, err := svc.ChunkNote(ctx, "nope.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestReindexPicksUpChangesAndSyncsChunks(t *testing.T) {
	store := testutil.MemVault(vaultFiles)
	db := testutil.TestDB(t)
	svc := newService(t, store, db)
	ctx := context.Background()

	res, err := svc.Reindex(ctx)
	if err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	if res.Notes != 4 || res.Chunks == nil || res.Chunks.Chunked != 4 {
		t.Fatalf("first reindex = %+v", res)
	}

	store.Put("c.md", []byte("# New"), testutil.Epoch)
	store.Remove("b.md")
	res, err = svc.Reindex(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := index.SyncStats{Chunked: 1, Unchanged: 3, Removed: 1}
	if res.Notes != 4 || *res.Chunks != want {
		t.Errorf("second reindex = %+v / %+v", res, *res.Chunks)
	}

	hits, err := svc.SearchChunks(ctx, "Blub", 10)
	if err != nil || len(hits) != 1 || hits[0].Path != "pets/fish.md" {
		t.Errorf("SearchChunks = %+v, %v", hits, err)
	}

	st, err := svc.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Notes != 4 || st.StoredNotes != 4 || st.StoredChunks == 0 || st.ScannedAt == nil {
		t.Errorf("status = %+v", st)
	}
}

func TestWithoutChunkStore(t *testing.T) {
	svc := newService(t, testutil.MemVault(vaultFiles), nil)
	ctx := context.Background()

	res, err := svc.Reindex(ctx)
	if err != nil || res.Chunks != nil {
		t.Fatalf("Reindex = %+v, %v", res, err)
	}
	if _, err := svc.SyncChunks(ctx); !errors.Is(err, apperr.ErrUnavailable) {
		t.Errorf("SyncChunks err = %v", err)
	}
	if _, err := svc.SearchChunks(ctx, "x", 1); !errors.Is(err, apperr.ErrUnavailable) {
		t.Errorf("SearchChunks err = %v", err)
	}
}

func TestRootFailureSurfaces(t *testing.T) {
	store := storage.NewMemory()
	store.Fail("", errors.New("permission denied"))
	svc := newService(t, store, nil)

	_, err := svc.Reindex(context.Background())
	var rootErr *apperr.RootAccessError
	if !errors.As(err, &rootErr) {
		t.Errorf("err = %v, want RootAccessError", err)
	}
}
