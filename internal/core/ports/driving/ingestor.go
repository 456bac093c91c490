package driving

import (
	"context"
	"io"

	"github.com/consulta-labs/consulta/internal/core/domain"
)

// Ingestor runs the full document ingestion pipeline: store the upload,
// extract text, chunk, embed, index and summarise.
type Ingestor interface {
	// Ingest processes a single uploaded document.
	Ingest(ctx context.Context, r io.Reader, filename string) (*domain.IngestResult, error)

	// Delete removes a document's vectors, metadata and stored file.
	Delete(ctx context.Context, documentID string) error

	// List returns all known documents, newest upload first.
	List(ctx context.Context) ([]domain.Document, error)
}
