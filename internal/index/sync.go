package index

import (
	"fmt"
	"log/slog"

	"github.com/starford/sowilo/internal/checksum"
	"github.com/starford/sowilo/internal/chunker"
	"github.com/starford/sowilo/internal/models"
)

// SyncStats summarises one Sync pass.
type SyncStats struct {
	Chunked   int `json:"chunked"`
	Unchanged int `json:"unchanged"`
	Removed   int `json:"removed"`
	Failed    int `json:"failed"`
}

// OptionsKey renders chunking options as the fingerprint stored next to each
// note, so a change of options re-chunks everything.
func OptionsKey(opts chunker.Options) string {
	return fmt.Sprintf("max=%d overlap=%d min=%d headers=%t",
		opts.MaxChunkSize, opts.OverlapSize, opts.MinChunkSize, opts.RespectHeaders)
}

// Sync brings the chunk store in line with notes:
//   - new or changed notes (checksum or options differ) are chunked and stored
//   - notes missing from the list are deleted from the store
//
// Per-note failures are logged and counted; only failing to read the stored
// fingerprints aborts the pass.
func Sync(db ChunkStore, notes []*models.Note, opts chunker.Options, logger *slog.Logger) (SyncStats, error) {
	var stats SyncStats
	stored, err := db.AllFingerprints()
	if err != nil {
		return stats, err
	}

	key := OptionsKey(opts)
	seen := make(map[string]struct{}, len(notes))
	for _, n := range notes {
		seen[n.Path] = struct{}{}

		if fp, ok := stored[n.Path]; ok && fp.Checksum == n.Checksum && fp.Options == key {
			stats.Unchanged++
			continue
		}

		row := NoteRow{Path: n.Path, Title: n.Title, Checksum: n.Checksum, Options: key}
		if err := db.ReplaceChunks(row, chunker.Chunk(n.Content, n.Path, opts)); err != nil {
			stats.Failed++
			logger.Warn("sync: chunk failed", slog.String("path", n.Path), slog.String("error", err.Error()))
			continue
		}
		stats.Chunked++
		logger.Debug("sync: chunked", slog.String("path", n.Path), slog.String("checksum", checksum.Short(n.Checksum)))
	}

	// Remove stale entries.
	for p := range stored {
		if _, ok := seen[p]; ok {
			continue
		}
		if err := db.DeleteNote(p); err != nil {
			stats.Failed++
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		stats.Removed++
		logger.Debug("sync: removed stale", slog.String("path", p))
	}

	logger.Info("sync: done",
		slog.Int("chunked", stats.Chunked),
		slog.Int("unchanged", stats.Unchanged),
		slog.Int("removed", stats.Removed),
		slog.Int("failed", stats.Failed),
	)
	return stats, nil
}
