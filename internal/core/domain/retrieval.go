package domain

// RetrievedChunk is one similarity match pulled back from the vector
// index, reconstructed entirely from entry metadata.
type RetrievedChunk struct {
	// Content is the chunk text carried in the index metadata.
	Content string

	// Filename is the original name of the owning document.
	Filename string

	// Score is the similarity score reported by the index.
	Score float32
}

// Source is a citation attached to an answer.
type Source struct {
	// Filename is the document the cited chunk came from.
	Filename string

	// Score is the similarity score of the cited chunk.
	Score float32

	// Preview is a short excerpt of the chunk content.
	Preview string
}

// Retrieval is the assembled context for one question.
type Retrieval struct {
	// Context is the full untruncated context passed to answer generation.
	Context string

	// DisplayContext is the truncated context suitable for echoing back
	// to a caller.
	DisplayContext string

	// Sources lists the documents the context was drawn from,
	// ranked by score.
	Sources []Source

	// NoDocuments is set when the index holds no entries at all.
	// This is a normal state, not an error.
	NoDocuments bool
}

// Answer is the final response to a question.
type Answer struct {
	// Text is the generated answer, or a degraded message when the
	// LLM call failed.
	Text string

	// Sources lists the cited documents.
	Sources []Source

	// Context is the display-truncated retrieval context.
	Context string

	// NoDocuments is set when no documents have been ingested yet.
	NoDocuments bool
}

// FallbackDocument is a candidate for the keyword fallback search.
// It deliberately carries no vector state: the fallback path must work
// without the index or the embedder.
type FallbackDocument struct {
	Content  string
	Filename string
}

// KeywordMatch is one result of the keyword fallback search.
type KeywordMatch struct {
	Content  string
	Filename string

	// Score is the summed term-frequency count over the query tokens.
	Score int
}
