package driven

import "context"

// VectorIndex stores chunk embeddings and answers similarity queries.
// Implementations may be remote (Pinecone) or in-process (memory).
type VectorIndex interface {
	// Upsert writes entries to the index, overwriting existing IDs.
	// Implementations split large inputs into batches internally and
	// report how many entries were actually written; a failed batch
	// does not abort the remaining ones.
	Upsert(ctx context.Context, entries []VectorEntry) (int, error)

	// Query finds the topK nearest neighbours to the query vector.
	Query(ctx context.Context, vector []float32, topK int) ([]VectorMatch, error)

	// DeleteByDocument removes every vector belonging to a document.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Count returns the total number of vectors in the index.
	Count(ctx context.Context) (int, error)

	// Ping validates the index is reachable and ready.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// VectorEntry is a single vector with its payload, addressed by ID.
type VectorEntry struct {
	// ID uniquely identifies the vector, typically "<documentID>_chunk_<n>".
	ID string

	// Values is the embedding vector.
	Values []float32

	// Metadata travels with the vector and is returned on query.
	Metadata VectorMetadata
}

// VectorMetadata is the payload stored alongside each vector.
type VectorMetadata struct {
	// DocumentID is the owning document.
	DocumentID string

	// Content is the chunk text.
	Content string

	// Filename is the original name of the source document.
	Filename string

	// ChunkOrder is the chunk's position within the document.
	ChunkOrder int

	// CharCount is the chunk length in characters.
	CharCount int

	// IndexedAt is an RFC 3339 timestamp of when the vector was written.
	IndexedAt string
}

// VectorMatch represents a similarity query result.
type VectorMatch struct {
	// ID is the matched vector's ID.
	ID string

	// Score is the cosine similarity score (0-1 for normalised vectors).
	Score float32

	// Metadata is the payload stored with the vector.
	Metadata VectorMetadata
}
