package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/sowilo/internal/chunker"
	"github.com/starford/sowilo/internal/index"
	"github.com/starford/sowilo/internal/models"
	"github.com/starford/sowilo/internal/noteservice"
	"github.com/starford/sowilo/internal/search"
	"github.com/starford/sowilo/internal/storage"
	"github.com/starford/sowilo/internal/testutil"
	"github.com/starford/sowilo/internal/vault"
)

func testServer(t *testing.T, withDB bool) (*Server, *storage.Memory) {
	t.Helper()
	store := testutil.MemVault(map[string]string{
		"a.md":         "# Cats\nI love cats.",
		"b.md":         "# Dogs\nDogs are great, #dogs",
		"guide/go.md":  "---\ntags: [golang]\n---\n# Go\n\n## Setup\nInstall it.\n\n## Usage\nRun it.",
		"guide/zig.md": "# Zig\nAnother language.",
	})
	var db index.ChunkStore
	if withDB {
		db = testutil.TestDB(t)
	}
	repo := vault.NewRepository(store, testutil.Logger())
	svc := noteservice.NewService(repo, search.NewSearcher(16), chunker.DefaultOptions(), db, testutil.Logger())
	return New(svc, "test"), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handlers are
	// invoked directly.
	var (
		result *mcp.CallToolResult
		err    error
	)
	switch name {
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "list_tags":
		result, err = srv.listTags(ctx, req)
	case "recent_notes":
		result, err = srv.recentNotes(ctx, req)
	case "chunk_note":
		result, err = srv.chunkNote(ctx, req)
	case "search_chunks":
		result, err = srv.searchChunks(ctx, req)
	case "reindex":
		result, err = srv.reindex(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestRegisteredTools(t *testing.T) {
	srv, _ := testServer(t, false)
	tools := srv.MCPServer().ListTools()
	for _, name := range []string{"search_notes", "read_note", "list_notes", "list_tags",
		"recent_notes", "chunk_note", "search_chunks", "reindex"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("tool %s not registered", name)
		}
	}
}

func TestReadNote(t *testing.T) {
	srv, _ := testServer(t, false)

	r := callTool(t, srv, "read_note", map[string]any{"path": "a.md"})
	if text := resultText(r); text != "# Cats\nI love cats." {
		t.Errorf("read result = %q", text)
	}

	r = callTool(t, srv, "read_note", map[string]any{"path": "nope.md"})
	if !r.IsError || resultText(r) != "not found: nope.md" {
		t.Errorf("missing note = %+v", r)
	}

	r = callTool(t, srv, "read_note", map[string]any{})
	if !r.IsError {
		t.Error("missing path argument should be an error")
	}
}

func TestSearchNotes(t *testing.T) {
	srv, _ := testServer(t, false)

	r := callTool(t, srv, "search_notes", map[string]any{"query": "cats"})
	var hits []searchHit
	if err := json.Unmarshal([]byte(resultText(r)), &hits); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(hits) != 1 || hits[0].Path != "a.md" || hits[0].Score != 4 {
		t.Errorf("hits = %+v", hits)
	}

	r = callTool(t, srv, "search_notes", map[string]any{"query": "o", "limit": 1})
	_ = json.Unmarshal([]byte(resultText(r)), &hits)
	if len(hits) != 1 {
		t.Errorf("limit ignored: %d hits", len(hits))
	}
}

func TestListNotes(t *testing.T) {
	srv, _ := testServer(t, false)

	r := callTool(t, srv, "list_notes", map[string]any{"folder": "guide"})
	if text := resultText(r); text != "guide/go.md\nguide/zig.md" {
		t.Errorf("list = %q", text)
	}
	r = callTool(t, srv, "list_notes", map[string]any{})
	if n := len(strings.Split(resultText(r), "\n")); n != 4 {
		t.Errorf("all notes = %d, want 4", n)
	}
	r = callTool(t, srv, "list_notes", map[string]any{"folder": "empty"})
	if text := resultText(r); text != "no notes found" {
		t.Errorf("empty folder = %q", text)
	}
}

func TestListTagsAndResource(t *testing.T) {
	srv, _ := testServer(t, false)

	r := callTool(t, srv, "list_tags", nil)
	var tags []noteservice.TagCount
	if err := json.Unmarshal([]byte(resultText(r)), &tags); err != nil {
		t.Fatal(err)
	}
	if len(tags) != 2 {
		t.Errorf("tags = %+v", tags)
	}

	contents, err := srv.readTagsResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != tagsURI || !strings.Contains(tc.Text, `"golang"`) {
		t.Errorf("resource = %+v", contents[0])
	}
}

func TestRecentNotes(t *testing.T) {
	srv, _ := testServer(t, false)
	r := callTool(t, srv, "recent_notes", map[string]any{"limit": 2})
	var items []noteservice.NoteListItem
	if err := json.Unmarshal([]byte(resultText(r)), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].Path != "guide/zig.md" {
		t.Errorf("recent = %+v", items)
	}
}

func TestChunkNote(t *testing.T) {
	srv, _ := testServer(t, false)

	r := callTool(t, srv, "chunk_note", map[string]any{"path": "guide/go.md"})
	var chunks []models.DocumentChunk
	if err := json.Unmarshal([]byte(resultText(r)), &chunks); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var headers []string
	for _, c := range chunks {
		headers = append(headers, c.Metadata.HeaderContext)
	}
	if strings.Join(headers, ",") != "Go,Setup,Usage" {
		t.Errorf("headers = %v", headers)
	}
}

func TestReindexAndSearchChunks(t *testing.T) {
	srv, store := testServer(t, true)

	store.Put("late.md", []byte("# Late\nsupercalifragilistic"), testutil.Epoch)
	r := callTool(t, srv, "reindex", nil)
	if r.IsError {
		t.Fatalf("reindex: %s", resultText(r))
	}
	var res noteservice.ReindexResult
	_ = json.Unmarshal([]byte(resultText(r)), &res)
	if res.Notes != 5 || res.Chunks == nil || res.Chunks.Chunked != 5 {
		t.Errorf("reindex = %+v", res)
	}

	r = callTool(t, srv, "search_chunks", map[string]any{"query": "supercalifragilistic"})
	var hits []index.ChunkHit
	_ = json.Unmarshal([]byte(resultText(r)), &hits)
	if len(hits) != 1 || hits[0].Path != "late.md" {
		t.Errorf("hits = %+v", hits)
	}
}

func TestSearchChunksWithoutStore(t *testing.T) {
	srv, _ := testServer(t, false)
	r := callTool(t, srv, "search_chunks", map[string]any{"query": "x"})
	if !r.IsError || resultText(r) != "chunk store is not configured" {
		t.Errorf("result = %+v", r)
	}
}
