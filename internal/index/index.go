package index

import "github.com/starford/sowilo/internal/models"

// ChunkStore is the persistence surface Sync and the note service need.
type ChunkStore interface {
	ReplaceChunks(n NoteRow, chunks []models.DocumentChunk) error
	DeleteNote(path string) error
	GetChecksum(path string) (string, error)
	AllFingerprints() (map[string]Fingerprint, error)
	Chunks(path string) ([]models.DocumentChunk, error)
	SearchChunks(query string, limit int) ([]ChunkHit, error)
	Counts() (notes, chunks int, err error)
	Close() error
}

var _ ChunkStore = (*DB)(nil)
