package models

// DocumentChunk is a bounded segment of a note body prepared for embedding.
type DocumentChunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ChunkMetadata locates a chunk inside its note.
type ChunkMetadata struct {
	NoteID     string `json:"note_id"`
	ChunkIndex int    `json:"chunk_index"` // restarts at 0 in every section
	StartLine  int    `json:"start_line"`  // 1-based, inclusive
	EndLine    int    `json:"end_line"`
	// HeaderContext is the heading of the section the chunk belongs to.
	HeaderContext string `json:"header_context,omitempty"`
	HeaderLevel   int    `json:"header_level,omitempty"`
	// Overlap is the byte length of the Content prefix repeated from the
	// previous chunk of the same section.
	Overlap int `json:"overlap"`
}

// Body returns the chunk content without the prefix shared with its predecessor.
func (c DocumentChunk) Body() string {
	return c.Content[c.Metadata.Overlap:]
}
