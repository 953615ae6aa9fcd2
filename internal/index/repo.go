package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/sowilo/internal/models"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Path      string
	Title     string
	Checksum  string
	Options   string
	ChunkedAt time.Time
}

// Fingerprint is what decides whether a note must be chunked again: its
// content checksum and the chunking options it was cut with.
type Fingerprint struct {
	Checksum string
	Options  string
}

// ChunkHit represents one chunk search hit.
type ChunkHit struct {
	Path       string `json:"path"`
	Title      string `json:"title"`
	Seq        int    `json:"seq"`
	ChunkIndex int    `json:"chunk_index"`
	Header     string `json:"header,omitempty"`
	Snippet    string `json:"snippet"`
}

// ReplaceChunks stores n and swaps its chunks for the given ones within a
// transaction.
func (db *DB) ReplaceChunks(n NoteRow, chunks []models.DocumentChunk) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if n.ChunkedAt.IsZero() {
		n.ChunkedAt = time.Now().UTC()
	}
	_, err = tx.Exec(`
		INSERT INTO notes (path, title, checksum, options, chunked_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			options    = excluded.options,
			chunked_at = excluded.chunked_at
	`, n.Path, n.Title, n.Checksum, n.Options, n.ChunkedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	if err := ftsDelete(tx, n.Path); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM chunks WHERE note_path = ?`, n.Path); err != nil {
		return fmt.Errorf("index: clear chunks: %w", err)
	}
	if len(chunks) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO chunks (note_path, seq, chunk_index, start_line, end_line, header, header_level, overlap, content)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("index: prepare chunk insert: %w", err)
		}
		defer stmt.Close()
		for seq, c := range chunks {
			m := c.Metadata
			if _, err := stmt.Exec(n.Path, seq, m.ChunkIndex, m.StartLine, m.EndLine,
				m.HeaderContext, m.HeaderLevel, m.Overlap, c.Content); err != nil {
				return fmt.Errorf("index: insert chunk: %w", err)
			}
			if err := ftsInsert(tx, n.Path, seq, n.Title, m.HeaderContext, c.Content); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// DeleteNote removes a note and its chunks.
func (db *DB) DeleteNote(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(tx, path); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM chunks WHERE note_path = ?`, path); err != nil {
		return fmt.Errorf("index: delete chunks: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM notes WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete note: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a note, or an empty string if
// the note was never chunked.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllFingerprints returns the fingerprint of every stored note keyed by path.
func (db *DB) AllFingerprints() (map[string]Fingerprint, error) {
	rows, err := db.conn.Query(`SELECT path, checksum, options FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all fingerprints: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Fingerprint)
	for rows.Next() {
		var (
			p  string
			fp Fingerprint
		)
		if err := rows.Scan(&p, &fp.Checksum, &fp.Options); err != nil {
			return nil, err
		}
		out[p] = fp
	}
	return out, rows.Err()
}

// Chunks returns the stored chunks of a note in their original order. An
// unknown note has no chunks.
func (db *DB) Chunks(path string) ([]models.DocumentChunk, error) {
	rows, err := db.conn.Query(`
		SELECT chunk_index, start_line, end_line, header, header_level, overlap, content
		FROM chunks
		WHERE note_path = ?
		ORDER BY seq
	`, path)
	if err != nil {
		return nil, fmt.Errorf("index: chunks: %w", err)
	}
	defer rows.Close()

	out := []models.DocumentChunk{}
	for rows.Next() {
		c := models.DocumentChunk{Metadata: models.ChunkMetadata{NoteID: path}}
		m := &c.Metadata
		if err := rows.Scan(&m.ChunkIndex, &m.StartLine, &m.EndLine, &m.HeaderContext,
			&m.HeaderLevel, &m.Overlap, &c.Content); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Counts returns the number of stored notes and chunks.
func (db *DB) Counts() (notes, chunks int, err error) {
	err = db.conn.QueryRow(`SELECT (SELECT count(*) FROM notes), (SELECT count(*) FROM chunks)`).Scan(&notes, &chunks)
	if err != nil {
		return 0, 0, fmt.Errorf("index: counts: %w", err)
	}
	return notes, chunks, nil
}

func scanHits(rows *sql.Rows) ([]ChunkHit, error) {
	defer rows.Close()
	out := []ChunkHit{}
	for rows.Next() {
		var h ChunkHit
		if err := rows.Scan(&h.Path, &h.Title, &h.Seq, &h.ChunkIndex, &h.Header, &h.Snippet); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
