//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; chunk search uses LIKE on chunks.content.
	return nil
}

func ftsInsert(_ *sql.Tx, _ string, _ int, _, _, _ string) error { return nil }

func ftsDelete(_ *sql.Tx, _ string) error { return nil }

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchChunks performs a LIKE-based chunk search (fallback when FTS5 is not
// compiled in). Hits come back in note path and chunk order.
func (db *DB) SearchChunks(query string, limit int) ([]ChunkHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []ChunkHit{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	like := "%" + likeEscaper.Replace(query) + "%"
	rows, err := db.conn.Query(`
		SELECT c.note_path, n.title, c.seq, c.chunk_index, c.header, substr(c.content, 1, 200)
		FROM chunks c
		JOIN notes n ON n.path = c.note_path
		WHERE c.content LIKE ? ESCAPE '\' OR c.header LIKE ? ESCAPE '\'
		ORDER BY c.note_path, c.seq
		LIMIT ?
	`, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search chunks: %w", err)
	}
	return scanHits(rows)
}
