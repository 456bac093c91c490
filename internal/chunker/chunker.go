// Package chunker splits extracted document text into overlapping
// chunks sized for embedding.
package chunker

import (
	"strings"

	"github.com/consulta-labs/consulta/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1500

// DefaultOverlap is the default number of overlapping characters.
const DefaultOverlap = 200

// DefaultMinChunk is the minimum trimmed length a fragment must have
// to be emitted.
const DefaultMinChunk = 50

// Chunker splits text into overlapping windows, pulling each window's
// right edge back to a natural boundary (paragraph break, line break,
// sentence end) when one exists past the window midpoint.
type Chunker struct {
	chunkSize int
	overlap   int
	minChunk  int
	plain     bool
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the window size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithMinChunk sets the minimum trimmed fragment length.
func WithMinChunk(min int) Option {
	return func(c *Chunker) {
		if min >= 0 {
			c.minChunk = min
		}
	}
}

// WithPlainWindow disables boundary retraction, producing fixed-size
// windows only.
func WithPlainWindow() Option {
	return func(c *Chunker) {
		c.plain = true
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
		minChunk:  DefaultMinChunk,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Split chunks text into overlapping fragments. Positions are assigned
// contiguously from zero over the emitted chunks; fragments shorter
// than the minimum after trimming are dropped. DocumentID is left for
// the caller to fill in.
func (c *Chunker) Split(text string) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	textLen := len(text)

	step := c.chunkSize - c.overlap
	if step < 1 {
		step = 1
	}
	estimated := textLen/step + 1
	chunks := make([]domain.Chunk, 0, estimated)

	position := 0
	start := 0

	for start < textLen {
		end := start + c.chunkSize
		if end > textLen {
			end = textLen
		}

		// Pull the cut back to a natural boundary, but never before
		// the window midpoint. The final window is emitted as is.
		if !c.plain && end < textLen {
			end = retract(text, start, end)
		}

		content := text[start:end]
		if len(strings.TrimSpace(content)) > c.minChunk {
			chunks = append(chunks, domain.Chunk{
				Position:  position,
				Content:   content,
				Start:     start,
				End:       end,
				CharCount: len(content),
			})
			position++
		}

		// The final window consumes the tail; overlap would otherwise
		// walk back into it and emit shrinking duplicates.
		if end == textLen {
			break
		}

		next := end - c.overlap
		if next < 0 {
			next = 0
		}
		// Forced forward progress even when overlap >= chunkSize.
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// retract finds a natural cut point in text[start:end], searching no
// further back than the window midpoint. Paragraph breaks win over
// line breaks, which win over sentence punctuation. The returned end
// includes the boundary character(s).
func retract(text string, start, end int) int {
	mid := start + (end-start)/2
	window := text[start:end]
	limit := mid - start

	if i := strings.LastIndex(window, "\n\n"); i >= limit {
		return start + i + 2
	}
	if i := strings.LastIndex(window, "\n"); i >= limit {
		return start + i + 1
	}
	if i := strings.LastIndexAny(window, ".!?"); i >= limit {
		return start + i + 1
	}
	return end
}
