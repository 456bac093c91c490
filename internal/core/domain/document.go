package domain

import "time"

// DocumentStatus tracks a document through its ingestion lifecycle.
type DocumentStatus string

const (
	// StatusPending means the upload was accepted but processing has not finished.
	StatusPending DocumentStatus = "pending"

	// StatusIndexed means the document's chunks are in the vector index.
	StatusIndexed DocumentStatus = "indexed"

	// StatusFailed means processing failed and the document carries no chunks.
	StatusFailed DocumentStatus = "failed"
)

// Document represents an uploaded document and its metadata.
// The ID is the storage key under which the original file is kept.
type Document struct {
	// ID is the generated storage key (date + random suffix + original name).
	ID string

	// OriginalName is the filename as uploaded.
	OriginalName string

	// Size is the stored file size in bytes.
	Size int64

	// UploadDate is when the upload was accepted.
	UploadDate time.Time

	// Summary is a short human-readable description of the content.
	Summary string

	// Status is the ingestion lifecycle state.
	Status DocumentStatus

	// ChunkCount is the number of chunks indexed for this document.
	ChunkCount int

	// StoragePath is the absolute path of the stored file.
	StoragePath string
}

// Chunk is a contiguous, possibly-overlapping substring of a document's
// extracted text. It is the unit of embedding and retrieval.
type Chunk struct {
	// DocumentID links to the owning Document.
	DocumentID string

	// Position is the ordinal chunk order within the document,
	// contiguous from zero.
	Position int

	// Content is the chunk text.
	Content string

	// Start and End are the character span in the extracted source text.
	// Advisory only: boundary retraction means they are not authoritative.
	Start int
	End   int

	// CharCount is len(Content), denormalised for index metadata.
	CharCount int
}

// IngestResult reports the outcome of one document ingestion.
type IngestResult struct {
	// DocumentID is the storage key assigned to the document.
	DocumentID string

	// OriginalName is the filename as uploaded.
	OriginalName string

	// ChunksIndexed is how many chunks actually reached the vector index.
	// It can be lower than TotalChunks when an upsert batch failed and
	// was skipped (best-effort policy).
	ChunksIndexed int

	// TotalChunks is how many chunks the chunker produced.
	TotalChunks int

	// Summary is the generated document summary.
	Summary string

	// Status is the final lifecycle state.
	Status DocumentStatus

	// TextLength is the length of the extracted text in characters.
	TextLength int
}
