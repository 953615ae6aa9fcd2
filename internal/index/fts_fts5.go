//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
			note_path UNINDEXED,
			seq UNINDEXED,
			title,
			header,
			content,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsInsert(tx *sql.Tx, path string, seq int, title, header, content string) error {
	_, err := tx.Exec(`INSERT INTO chunks_fts (note_path, seq, title, header, content) VALUES (?, ?, ?, ?, ?)`,
		path, seq, title, header, content)
	if err != nil {
		return fmt.Errorf("index: insert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) error {
	if _, err := tx.Exec(`DELETE FROM chunks_fts WHERE note_path = ?`, path); err != nil {
		return fmt.Errorf("index: delete fts: %w", err)
	}
	return nil
}

// SearchChunks performs an FTS5 full-text search over chunks, best match
// first.
func (db *DB) SearchChunks(query string, limit int) ([]ChunkHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []ChunkHit{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT f.note_path,
		       f.title,
		       f.seq,
		       c.chunk_index,
		       c.header,
		       snippet(chunks_fts, 4, '<b>', '</b>', '...', 32)
		FROM chunks_fts f
		JOIN chunks c ON c.note_path = f.note_path AND c.seq = f.seq
		WHERE chunks_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search chunks: %w", err)
	}
	return scanHits(rows)
}
