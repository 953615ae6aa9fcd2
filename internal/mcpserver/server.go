// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes sowilo's read and retrieval tools for LLM integration via
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/noteservice"
)

const (
	tagsURI       = "sowilo://tags"
	noteFormatURI = "sowilo://note-format"

	defaultSearchLimit = 20
	defaultRecentLimit = 10
)

// Server wraps the MCP server with sowilo tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all sowilo tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Sowilo",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Rank notes by a case-insensitive phrase match on title, content and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Phrase to look for")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the body of a Markdown note, without its frontmatter."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes or notes in a specific folder."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List every tag in the vault with the number of notes carrying it."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("recent_notes",
		mcp.WithDescription("List the most recently modified notes, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of notes (default 10)")),
	), s.recentNotes)

	s.mcp.AddTool(mcp.NewTool("chunk_note",
		mcp.WithDescription("Split a note into overlapping, heading-aware chunks ready for embedding."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
	), s.chunkNote)

	s.mcp.AddTool(mcp.NewTool("search_chunks",
		mcp.WithDescription("Full-text search over the stored chunks. Requires the chunk store."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of hits (default 20)")),
	), s.searchChunks)

	s.mcp.AddTool(mcp.NewTool("reindex",
		mcp.WithDescription("Rescan the vault so changes on disk become visible, then sync the chunk store."),
	), s.reindex)

	s.mcp.AddResource(
		mcp.NewResource(tagsURI, "Vault tags",
			mcp.WithResourceDescription("Tag usage across the vault as JSON."),
			mcp.WithMIMEType("application/json"),
		),
		s.readTagsResource,
	)
	s.mcp.AddResource(
		mcp.NewResource(noteFormatURI, "Note Format",
			mcp.WithResourceDescription("How sowilo reads frontmatter, tags, wikilinks and headings."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func errorResult(err error, path string) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path))
	case errors.Is(err, apperr.ErrUnavailable):
		return mcp.NewToolResultError("chunk store is not configured")
	}
	return mcp.NewToolResultError(err.Error())
}

type searchHit struct {
	Path          string   `json:"path"`
	Title         string   `json:"title"`
	Score         int      `json:"score"`
	MatchedFields []string `json:"matched_fields"`
	Excerpt       string   `json:"excerpt,omitempty"`
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", defaultSearchLimit))
	if err != nil {
		return errorResult(err, ""), nil
	}
	hits := make([]searchHit, len(results))
	for i, r := range results {
		hits[i] = searchHit{
			Path:          r.Note.Path,
			Title:         r.Note.Title,
			Score:         r.Score,
			MatchedFields: r.MatchedFields,
			Excerpt:       r.Excerpt,
		}
	}
	return jsonResult(hits)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.GetNote(ctx, path)
	if err != nil {
		return errorResult(err, path), nil
	}
	return mcp.NewToolResultText(n.Content), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.ListNotes(ctx, req.GetString("folder", ""))
	if err != nil {
		return errorResult(err, ""), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("no notes found"), nil
	}
	paths := make([]string, len(items))
	for i, it := range items {
		paths[i] = it.Path
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) listTags(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.svc.Tags(ctx)
	if err != nil {
		return errorResult(err, ""), nil
	}
	return jsonResult(tags)
}

func (s *Server) recentNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.Recent(ctx, req.GetInt("limit", defaultRecentLimit))
	if err != nil {
		return errorResult(err, ""), nil
	}
	return jsonResult(items)
}

func (s *Server) chunkNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	chunks, err := s.svc.ChunkNote(ctx, path)
	if err != nil {
		return errorResult(err, path), nil
	}
	return jsonResult(chunks)
}

func (s *Server) searchChunks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.svc.SearchChunks(ctx, query, req.GetInt("limit", defaultSearchLimit))
	if err != nil {
		return errorResult(err, ""), nil
	}
	return jsonResult(hits)
}

func (s *Server) reindex(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.Reindex(ctx)
	if err != nil {
		return errorResult(err, ""), nil
	}
	return jsonResult(res)
}

func (s *Server) readTagsResource(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	tags, err := s.svc.Tags(ctx)
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      tagsURI,
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}

func (s *Server) readNoteFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      noteFormatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormat,
		},
	}, nil
}
