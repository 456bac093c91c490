// Package services implements the driving ports: document ingestion
// and question answering, wired to infrastructure through the driven
// ports.
package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/consulta-labs/consulta/internal/core/domain"
	"github.com/consulta-labs/consulta/internal/core/ports/driven"
	"github.com/consulta-labs/consulta/internal/core/ports/driving"
	"github.com/consulta-labs/consulta/internal/logger"
)

// Chunker splits extracted text into embedding-sized chunks.
type Chunker interface {
	Split(text string) []domain.Chunk
}

// Summarizer produces a document summary. It never fails; degraded
// paths return a locally generated summary.
type Summarizer interface {
	Summarize(ctx context.Context, text, filename string) string
}

// Ensure IngestService implements the driving port.
var _ driving.Ingestor = (*IngestService)(nil)

// IngestService runs the document ingestion pipeline.
type IngestService struct {
	files      driven.FileStore
	extractor  driven.TextExtractor
	chunker    Chunker
	embedder   driven.EmbeddingService
	index      driven.VectorIndex
	docs       driven.DocumentStore
	summarizer Summarizer
	now        func() time.Time
}

// NewIngestService creates an ingest service.
func NewIngestService(
	files driven.FileStore,
	extractor driven.TextExtractor,
	chunker Chunker,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	docs driven.DocumentStore,
	summarizer Summarizer,
) *IngestService {
	return &IngestService{
		files:      files,
		extractor:  extractor,
		chunker:    chunker,
		embedder:   embedder,
		index:      index,
		docs:       docs,
		summarizer: summarizer,
		now:        time.Now,
	}
}

// Ingest stores the upload, extracts text, chunks, embeds, indexes and
// summarises. On any failure after the file was written the stored file
// and metadata are rolled back before the error is returned.
func (s *IngestService) Ingest(ctx context.Context, r io.Reader, filename string) (*domain.IngestResult, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return nil, fmt.Errorf("%w: only PDF files are accepted", domain.ErrInvalidInput)
	}

	logger.Section("Ingest " + filename)

	key, size, err := s.files.Save(ctx, r, filename)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		s.rollback(ctx, key)
		return nil, fmt.Errorf("%w: empty upload", domain.ErrInvalidInput)
	}
	logger.Info("stored %s as %s (%d bytes)", filename, key, size)

	text, err := s.extractText(ctx, key)
	if err != nil {
		s.rollback(ctx, key)
		return nil, err
	}
	logger.Info("extracted %d characters", len(text))

	chunks := s.chunker.Split(text)
	if len(chunks) == 0 {
		s.rollback(ctx, key)
		return nil, fmt.Errorf("%w: no usable chunks", domain.ErrExtractionFailed)
	}
	for i := range chunks {
		chunks[i].DocumentID = key
	}
	logger.Info("created %d chunks", len(chunks))

	contents := make([]string, len(chunks))
	for i, c := range chunks {
		contents[i] = c.Content
	}
	vectors, err := s.embedder.EmbedBatch(ctx, contents)
	if err != nil {
		s.rollback(ctx, key)
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}

	indexed, err := s.indexChunks(ctx, key, filename, chunks, vectors)
	if err != nil {
		s.rollback(ctx, key)
		return nil, err
	}
	if indexed < len(chunks) {
		logger.Warn("indexed %d of %d chunks for %s", indexed, len(chunks), filename)
	}

	summary := s.summarizer.Summarize(ctx, text, filename)

	doc := &domain.Document{
		ID:           key,
		OriginalName: filename,
		Size:         size,
		UploadDate:   s.now().UTC(),
		Summary:      summary,
		Status:       domain.StatusIndexed,
		ChunkCount:   indexed,
		StoragePath:  s.files.Path(key),
	}
	if err := s.docs.SaveDocument(ctx, doc); err != nil {
		s.rollback(ctx, key)
		return nil, fmt.Errorf("saving document metadata: %w", err)
	}
	if err := s.docs.SaveChunks(ctx, chunks); err != nil {
		logger.Warn("saving chunk metadata failed: %v", err)
	}

	return &domain.IngestResult{
		DocumentID:    key,
		OriginalName:  filename,
		ChunksIndexed: indexed,
		TotalChunks:   len(chunks),
		Summary:       summary,
		Status:        domain.StatusIndexed,
		TextLength:    len(text),
	}, nil
}

func (s *IngestService) extractText(ctx context.Context, key string) (string, error) {
	f, err := s.files.Open(ctx, key)
	if err != nil {
		return "", fmt.Errorf("opening stored upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("reading stored upload: %w", err)
	}
	return s.extractor.Extract(ctx, data)
}

// indexChunks writes the chunk vectors. Full upsert failure aborts the
// ingestion; partial batch failures surface as a reduced count.
func (s *IngestService) indexChunks(ctx context.Context, key, filename string, chunks []domain.Chunk, vectors [][]float32) (int, error) {
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	indexedAt := s.now().UTC().Format(time.RFC3339)
	entries := make([]driven.VectorEntry, len(chunks))
	for i, c := range chunks {
		entries[i] = driven.VectorEntry{
			ID:     fmt.Sprintf("%s_chunk_%d", key, c.Position),
			Values: vectors[i],
			Metadata: driven.VectorMetadata{
				DocumentID: key,
				Content:    c.Content,
				Filename:   filename,
				ChunkOrder: c.Position,
				CharCount:  c.CharCount,
				IndexedAt:  indexedAt,
			},
		}
	}

	indexed, err := s.index.Upsert(ctx, entries)
	if err != nil {
		return 0, fmt.Errorf("indexing chunks: %w", err)
	}
	if indexed == 0 {
		return 0, fmt.Errorf("%w: no vectors were accepted", domain.ErrIndexUnavailable)
	}
	return indexed, nil
}

// rollback removes the stored file after a pipeline failure.
func (s *IngestService) rollback(ctx context.Context, key string) {
	if err := s.files.Delete(ctx, key); err != nil {
		logger.Warn("rollback of %s failed: %v", key, err)
	} else {
		logger.Info("rolled back stored file %s", key)
	}
}

// Delete removes a document's vectors, metadata and stored file.
// Vector deletion is best-effort: an unreachable index does not block
// local cleanup.
func (s *IngestService) Delete(ctx context.Context, documentID string) error {
	if _, err := s.docs.GetDocument(ctx, documentID); err != nil {
		return err
	}

	if err := s.index.DeleteByDocument(ctx, documentID); err != nil {
		logger.Warn("deleting vectors for %s failed: %v", documentID, err)
	}
	if err := s.docs.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("deleting document metadata: %w", err)
	}
	if err := s.files.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("deleting stored file: %w", err)
	}
	return nil
}

// List returns all known documents, newest upload first.
func (s *IngestService) List(ctx context.Context) ([]domain.Document, error) {
	return s.docs.ListDocuments(ctx)
}
