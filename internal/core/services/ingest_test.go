package services

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consulta-labs/consulta/internal/adapters/driven/storage/memory"
	"github.com/consulta-labs/consulta/internal/core/domain"
	"github.com/consulta-labs/consulta/internal/uploads"
)

type ingestFixture struct {
	svc   *IngestService
	files *uploads.Store
	index *mockIndex
	docs  *memory.DocumentStore
}

func newIngestFixture(t *testing.T, extractor *stubExtractor, index *mockIndex) *ingestFixture {
	t.Helper()

	files, err := uploads.New(t.TempDir())
	require.NoError(t, err)

	docs := memory.NewDocumentStore()
	svc := NewIngestService(
		files,
		extractor,
		&stubChunker{size: 50},
		&mockEmbedder{vector: []float32{1, 0}},
		index,
		docs,
		stubSummarizer{},
	)
	return &ingestFixture{svc: svc, files: files, index: index, docs: docs}
}

func uploadDirEmpty(t *testing.T, f *ingestFixture) bool {
	t.Helper()
	entries, err := os.ReadDir(f.files.Dir())
	require.NoError(t, err)
	return len(entries) == 0
}

func TestIngest_RejectsNonPDF(t *testing.T) {
	f := newIngestFixture(t, &stubExtractor{text: "texto"}, &mockIndex{})

	_, err := f.svc.Ingest(context.Background(), strings.NewReader("dados"), "notas.txt")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.True(t, uploadDirEmpty(t, f))
}

func TestIngest_RejectsEmptyUpload(t *testing.T) {
	f := newIngestFixture(t, &stubExtractor{text: "texto"}, &mockIndex{})

	_, err := f.svc.Ingest(context.Background(), strings.NewReader(""), "vazio.pdf")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.True(t, uploadDirEmpty(t, f))
}

func TestIngest_FullPipeline(t *testing.T) {
	text := strings.Repeat("conteúdo extraído do edital. ", 10)
	f := newIngestFixture(t, &stubExtractor{text: text}, &mockIndex{})

	result, err := f.svc.Ingest(context.Background(), strings.NewReader("%PDF..."), "edital.pdf")
	require.NoError(t, err)

	assert.Equal(t, "edital.pdf", result.OriginalName)
	assert.Equal(t, domain.StatusIndexed, result.Status)
	assert.Equal(t, len(text), result.TextLength)
	assert.Greater(t, result.TotalChunks, 1)
	assert.Equal(t, result.TotalChunks, result.ChunksIndexed)
	assert.Equal(t, "resumo de edital.pdf", result.Summary)

	// Vectors carry ordered chunk metadata.
	require.Len(t, f.index.upserted, result.TotalChunks)
	first := f.index.upserted[0]
	assert.Equal(t, result.DocumentID+"_chunk_0", first.ID)
	assert.Equal(t, "edital.pdf", first.Metadata.Filename)
	assert.Equal(t, 0, first.Metadata.ChunkOrder)
	assert.NotEmpty(t, first.Metadata.IndexedAt)

	// Metadata was persisted.
	doc, err := f.docs.GetDocument(context.Background(), result.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIndexed, doc.Status)
	assert.Equal(t, result.ChunksIndexed, doc.ChunkCount)

	chunks, err := f.docs.GetChunks(context.Background(), result.DocumentID)
	require.NoError(t, err)
	assert.Len(t, chunks, result.TotalChunks)

	// The original file stays on disk.
	assert.False(t, uploadDirEmpty(t, f))
}

func TestIngest_RollsBackOnExtractionFailure(t *testing.T) {
	f := newIngestFixture(t, &stubExtractor{err: domain.ErrExtractionFailed}, &mockIndex{})

	_, err := f.svc.Ingest(context.Background(), strings.NewReader("%PDF..."), "imagem.pdf")
	assert.True(t, errors.Is(err, domain.ErrExtractionFailed))
	assert.True(t, uploadDirEmpty(t, f))

	count, err := f.docs.CountDocuments(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIngest_RollsBackOnIndexUnavailable(t *testing.T) {
	index := &mockIndex{upsertErr: domain.ErrIndexUnavailable}
	f := newIngestFixture(t, &stubExtractor{text: strings.Repeat("texto ", 30)}, index)

	_, err := f.svc.Ingest(context.Background(), strings.NewReader("%PDF..."), "doc.pdf")
	assert.True(t, errors.Is(err, domain.ErrIndexUnavailable))
	assert.True(t, uploadDirEmpty(t, f))
}

func TestIngest_RollsBackOnEmbeddingUnavailable(t *testing.T) {
	f := newIngestFixture(t, &stubExtractor{text: strings.Repeat("texto ", 30)}, &mockIndex{})
	f.svc.embedder = &mockEmbedder{err: domain.ErrEmbeddingUnavailable}

	_, err := f.svc.Ingest(context.Background(), strings.NewReader("%PDF..."), "doc.pdf")
	assert.True(t, errors.Is(err, domain.ErrEmbeddingUnavailable))
	assert.True(t, uploadDirEmpty(t, f))
}

func TestDelete_RemovesEverything(t *testing.T) {
	f := newIngestFixture(t, &stubExtractor{text: strings.Repeat("texto ", 30)}, &mockIndex{})

	result, err := f.svc.Ingest(context.Background(), strings.NewReader("%PDF..."), "doc.pdf")
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), result.DocumentID))

	assert.Equal(t, []string{result.DocumentID}, f.index.deleted)
	_, err = f.docs.GetDocument(context.Background(), result.DocumentID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, uploadDirEmpty(t, f))
}

func TestDelete_UnknownDocument(t *testing.T) {
	f := newIngestFixture(t, &stubExtractor{text: "texto"}, &mockIndex{})

	err := f.svc.Delete(context.Background(), "inexistente.pdf")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestList_ReturnsAllDocuments(t *testing.T) {
	f := newIngestFixture(t, &stubExtractor{text: strings.Repeat("texto ", 30)}, &mockIndex{})

	_, err := f.svc.Ingest(context.Background(), strings.NewReader("%PDF1"), "primeiro.pdf")
	require.NoError(t, err)
	_, err = f.svc.Ingest(context.Background(), strings.NewReader("%PDF2"), "segundo.pdf")
	require.NoError(t, err)

	docs, err := f.svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
}
