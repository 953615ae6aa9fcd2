// Package chunker splits note bodies into bounded, overlapping segments that
// keep their heading context, ready for an embedding step.
//
// Every chunk is a contiguous slice of its section's text. A chunk starts
// with the tail of its predecessor (Metadata.Overlap bytes), so dropping that
// prefix from every chunk but the first and concatenating the rest gives back
// the section text exactly.
package chunker

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/sowilo/internal/models"
)

var (
	headingRe = regexp.MustCompile(`^(#{1,6})[ \t]+(\S.*?)[ \t#]*$`)
	fenceRe   = regexp.MustCompile("^\\s*(```|~~~)")
)

// Options bounds chunk sizes. Sizes count characters (runes).
type Options struct {
	MaxChunkSize   int  `yaml:"max_chunk_size"`
	OverlapSize    int  `yaml:"overlap_size"`
	MinChunkSize   int  `yaml:"min_chunk_size"`
	RespectHeaders bool `yaml:"respect_headers"`
}

// DefaultOptions returns the sizes used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MaxChunkSize:   1000,
		OverlapSize:    200,
		MinChunkSize:   100,
		RespectHeaders: true,
	}
}

// Validate validates the chunking options.
func (o *Options) Validate() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.MaxChunkSize, validation.Required, validation.Min(1)),
		validation.Field(&o.OverlapSize, validation.Min(0), validation.Max(o.MaxChunkSize-1)),
		validation.Field(&o.MinChunkSize, validation.Min(0), validation.Max(o.MaxChunkSize)),
	)
}

// normalized clamps out-of-range values instead of failing, so Chunk can
// stay a total function.
func (o Options) normalized() Options {
	if o.MaxChunkSize <= 0 {
		o.MaxChunkSize = DefaultOptions().MaxChunkSize
	}
	o.OverlapSize = min(max(o.OverlapSize, 0), o.MaxChunkSize-1)
	o.MinChunkSize = min(max(o.MinChunkSize, 0), o.MaxChunkSize)
	return o
}

type section struct {
	heading   string
	level     int
	text      string // trimmed
	startLine int    // 1-based line of text[0] in the note body
}

// span is one chunk as byte offsets into its section text.
type span struct {
	start, end int
	overlap    int
}

// Chunk splits content into chunks for the note noteID. Blank content gives
// no chunks. With RespectHeaders each heading starts a section and chunk
// indexes restart at zero per section; otherwise the body is one section
// broken at whitespace.
func Chunk(content, noteID string, opts Options) []models.DocumentChunk {
	opts = opts.normalized()
	out := []models.DocumentChunk{}
	if strings.TrimSpace(content) == "" {
		return out
	}

	var sections []section
	if opts.RespectHeaders {
		sections = splitSections(content)
	} else {
		sections = []section{newSection("", 0, content, 1)}
	}

	for _, sec := range sections {
		var spans []span
		switch {
		case runeLen(sec.text) <= opts.MaxChunkSize:
			spans = []span{{start: 0, end: len(sec.text)}}
		case opts.RespectHeaders:
			// Sentences are never cut, even when one alone exceeds MaxChunkSize.
			spans = pack(sec.text, sentenceEnds(sec.text), opts)
		default:
			spans = pack(sec.text, splitLongWords(sec.text, wordEnds(sec.text, 0, len(sec.text)), opts.MaxChunkSize), opts)
		}

		for i, sp := range spans {
			body := sec.text[sp.start:sp.end]
			out = append(out, models.DocumentChunk{
				Content: body,
				Metadata: models.ChunkMetadata{
					NoteID:        noteID,
					ChunkIndex:    i,
					StartLine:     sec.startLine + strings.Count(sec.text[:sp.start], "\n"),
					EndLine:       sec.startLine + strings.Count(sec.text[:sp.start+len(trimTrailingSpace(body))], "\n"),
					HeaderContext: sec.heading,
					HeaderLevel:   sec.level,
					Overlap:       sp.overlap,
				},
			})
		}
	}
	return out
}

// splitSections partitions content at heading lines outside fenced code.
// Text before the first heading forms a section without a heading.
func splitSections(content string) []section {
	var (
		out     []section
		buf     []string
		heading string
		level   int
		inFence bool
	)
	start := 1
	flush := func() {
		if len(buf) == 0 {
			return
		}
		if sec := newSection(heading, level, strings.Join(buf, "\n"), start); sec.text != "" {
			out = append(out, sec)
		}
	}

	for i, line := range strings.Split(content, "\n") {
		if fenceRe.MatchString(line) {
			inFence = !inFence
		}
		if !inFence {
			if m := headingRe.FindStringSubmatch(strings.TrimRight(line, "\r")); m != nil {
				flush()
				buf = nil
				heading, level, start = m[2], len(m[1]), i+1
			}
		}
		buf = append(buf, line)
	}
	flush()
	return out
}

func newSection(heading string, level int, raw string, startLine int) section {
	trimmed := strings.TrimLeft(raw, " \t\r\n")
	lead := raw[:len(raw)-len(trimmed)]
	return section{
		heading:   heading,
		level:     level,
		text:      strings.TrimRight(trimmed, " \t\r\n"),
		startLine: startLine + strings.Count(lead, "\n"),
	}
}

// pack greedily fills chunks with units. ends holds the exclusive end offset
// of every unit; the last one is len(text). Trailing whitespace does not count
// toward a chunk's size.
func pack(text string, ends []int, opts Options) []span {
	var (
		out        []span
		chunkStart int // includes the overlap seed
		freshStart int // first byte not shared with the previous chunk
		cur        int
	)
	for _, e := range ends {
		if cur == chunkStart || size(text[chunkStart:e]) <= opts.MaxChunkSize {
			cur = e
			continue
		}
		if cur > freshStart && size(text[chunkStart:cur]) >= opts.MinChunkSize {
			out = append(out, span{start: chunkStart, end: cur, overlap: freshStart - chunkStart})
			seed := overlapStart(text, chunkStart, cur, opts.OverlapSize, ends)
			if size(text[seed:e]) > opts.MaxChunkSize {
				seed = cur
			}
			chunkStart, freshStart = seed, cur
		}
		// Either the unit opens the next chunk, or the current chunk is
		// still below MinChunkSize and takes the unit whole.
		cur = e
	}
	if cur > freshStart {
		out = append(out, span{start: chunkStart, end: cur, overlap: freshStart - chunkStart})
	}
	return out
}

// overlapStart picks where the next chunk begins inside the chunk
// text[start:end]: within its last n runes, at the first unit boundary, else
// at the first word start. Without either it returns end and the next chunk
// carries no overlap.
func overlapStart(text string, start, end, n int, ends []int) int {
	if n <= 0 {
		return end
	}
	win := end
	for i := 0; i < n && win > start; i++ {
		_, w := utf8.DecodeLastRuneInString(text[:win])
		win -= w
	}
	// The seed must be shorter than the chunk it comes from.
	if i := sort.SearchInts(ends, max(win, start+1)); i < len(ends) && ends[i] < end {
		return ends[i]
	}
	for i := max(win, start+1); i < end; i++ {
		if isSpace(text[i-1]) && !isSpace(text[i]) {
			return i
		}
	}
	return end
}

// sentenceEnds returns unit end offsets where a unit is a sentence (closed by
// '.', '!' or '?' and whitespace) or a line. Trailing whitespace stays with
// the unit.
func sentenceEnds(text string) []int {
	var ends []int
	for i := 0; i < len(text); {
		c := text[i]
		if c != '.' && c != '!' && c != '?' && c != '\n' {
			i++
			continue
		}
		j := i + 1
		if c != '\n' {
			for j < len(text) && strings.IndexByte(".!?", text[j]) >= 0 {
				j++
			}
			if j < len(text) && !isSpace(text[j]) {
				i = j // "3.14", "e.g.x": not a boundary
				continue
			}
		}
		for j < len(text) && isSpace(text[j]) {
			j++
		}
		ends = append(ends, j)
		i = j
	}
	if len(ends) == 0 || ends[len(ends)-1] != len(text) {
		ends = append(ends, len(text))
	}
	return ends
}

// wordEnds returns the end offsets of whitespace-terminated words in
// text[from:to], trailing whitespace included.
func wordEnds(text string, from, to int) []int {
	var ends []int
	for i := from; i < to; i++ {
		if isSpace(text[i]) && (i+1 == to || !isSpace(text[i+1])) {
			ends = append(ends, i+1)
		}
	}
	if len(ends) == 0 || ends[len(ends)-1] != to {
		ends = append(ends, to)
	}
	return ends
}

// splitLongWords cuts every word whose text, trailing whitespace aside, is
// longer than limit runes into limit-rune pieces. The whitespace stays on the
// last piece.
func splitLongWords(text string, ends []int, limit int) []int {
	out := make([]int, 0, len(ends))
	prev := 0
	for _, e := range ends {
		stop := prev + len(trimTrailingSpace(text[prev:e]))
		for runeLen(text[prev:stop]) > limit {
			for i := 0; i < limit; i++ {
				_, n := utf8.DecodeRuneInString(text[prev:])
				prev += n
			}
			out = append(out, prev)
		}
		out = append(out, e)
		prev = e
	}
	return out
}

// size is the rune length of s without its trailing whitespace.
func size(s string) int {
	return runeLen(trimTrailingSpace(s))
}

func trimTrailingSpace(s string) string {
	return strings.TrimRight(s, " \t\n\r\v\f")
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
