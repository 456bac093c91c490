// Package file provides a document store persisted as a JSON sidecar
// next to the upload directory. It mirrors the uploads on disk: at
// startup Reconcile drops entries whose file is gone and synthesizes
// entries for untracked PDFs.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/consulta-labs/consulta/internal/core/domain"
	"github.com/consulta-labs/consulta/internal/core/ports/driven"
	"github.com/consulta-labs/consulta/internal/logger"
	"github.com/consulta-labs/consulta/internal/uploads"
)

// MetadataFileName is the sidecar file kept next to the uploads.
const MetadataFileName = "document_metadata.json"

// placeholderSummary marks entries synthesized during reconciliation.
const placeholderSummary = "Resumo não disponível - sincronizado automaticamente"

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// metadataEntry is the persisted form of a document.
type metadataEntry struct {
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"file_size"`
	UploadDate   time.Time `json:"upload_date"`
	Summary      string    `json:"summary"`
	Status       string    `json:"status"`
	ChunkCount   int       `json:"chunk_count"`
	StoragePath  string    `json:"storage_path"`
}

// DocumentStore keeps document metadata in a JSON file. Chunks are held
// in memory only; they can always be rebuilt by re-ingesting.
type DocumentStore struct {
	mu        sync.RWMutex
	path      string
	uploadDir string
	documents map[string]metadataEntry
	chunks    map[string][]domain.Chunk
}

// NewDocumentStore loads (or creates) the sidecar at dir/MetadataFileName
// and reconciles it against the PDFs in uploadDir.
func NewDocumentStore(dir, uploadDir string) (*DocumentStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating metadata directory: %w", err)
	}

	s := &DocumentStore{
		path:      filepath.Join(dir, MetadataFileName),
		uploadDir: uploadDir,
		documents: make(map[string]metadataEntry),
		chunks:    make(map[string][]domain.Chunk),
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	if err := s.Reconcile(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DocumentStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading metadata file: %w", err)
	}

	if err := json.Unmarshal(data, &s.documents); err != nil {
		return fmt.Errorf("parsing metadata file: %w", err)
	}
	logger.Debug("loaded metadata for %d documents", len(s.documents))
	return nil
}

// persist writes the sidecar. Callers must hold the write lock.
func (s *DocumentStore) persist() error {
	data, err := json.MarshalIndent(s.documents, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing metadata file: %w", err)
	}
	return nil
}

// Reconcile aligns metadata with the PDFs actually present in the
// upload directory. Orphan entries are dropped; untracked files get a
// synthesized entry with a placeholder summary.
func (s *DocumentStore) Reconcile() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.uploadDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading upload directory: %w", err)
	}

	existing := make(map[string]bool)
	changed := false

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(name), ".pdf") {
			continue
		}
		existing[name] = true

		if _, tracked := s.documents[name]; tracked {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		s.documents[name] = metadataEntry{
			OriginalName: uploads.OriginalName(name),
			Size:         info.Size(),
			UploadDate:   info.ModTime(),
			Summary:      placeholderSummary,
			Status:       string(domain.StatusPending),
			StoragePath:  filepath.Join(s.uploadDir, name),
		}
		changed = true
		logger.Info("synthesized metadata for untracked file %s", name)
	}

	for id := range s.documents {
		if !existing[id] {
			delete(s.documents, id)
			delete(s.chunks, id)
			changed = true
			logger.Info("removed orphan metadata entry %s", id)
		}
	}

	if changed {
		return s.persist()
	}
	return nil
}

// SaveDocument stores or updates a document and rewrites the sidecar.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.documents[doc.ID] = metadataEntry{
		OriginalName: doc.OriginalName,
		Size:         doc.Size,
		UploadDate:   doc.UploadDate,
		Summary:      doc.Summary,
		Status:       string(doc.Status),
		ChunkCount:   doc.ChunkCount,
		StoragePath:  doc.StoragePath,
	}
	return s.persist()
}

// SaveChunks stores chunks for a document in memory.
func (s *DocumentStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docID := chunks[0].DocumentID
	stored := make([]domain.Chunk, len(chunks))
	copy(stored, chunks)
	sort.SliceStable(stored, func(i, j int) bool {
		return stored[i].Position < stored[j].Position
	})
	s.chunks[docID] = stored
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc := entry.toDomain(id)
	return &doc, nil
}

// GetChunks retrieves all chunks for a document, ordered by position.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks, ok := s.chunks[documentID]
	if !ok {
		return nil, nil
	}
	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)
	return out, nil
}

// DeleteDocument removes a document and rewrites the sidecar.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.documents, id)
	delete(s.chunks, id)
	return s.persist()
}

// ListDocuments returns all documents, newest upload first.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.documents))
	for id, entry := range s.documents {
		docs = append(docs, entry.toDomain(id))
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].UploadDate.After(docs[j].UploadDate)
	})
	return docs, nil
}

// CountDocuments returns the number of tracked documents.
func (s *DocumentStore) CountDocuments(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents), nil
}

// Close releases resources.
func (s *DocumentStore) Close() error {
	return nil
}

func (e metadataEntry) toDomain(id string) domain.Document {
	return domain.Document{
		ID:           id,
		OriginalName: e.OriginalName,
		Size:         e.Size,
		UploadDate:   e.UploadDate,
		Summary:      e.Summary,
		Status:       domain.DocumentStatus(e.Status),
		ChunkCount:   e.ChunkCount,
		StoragePath:  e.StoragePath,
	}
}
