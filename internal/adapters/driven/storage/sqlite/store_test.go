package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consulta-labs/consulta/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_Migrates(t *testing.T) {
	dir := t.TempDir()

	s, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopening must not re-run migrations.
	s, err = NewStore(dir)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

func TestSaveAndGetDocument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := &domain.Document{
		ID:           "20240315_ab12cd34_edital.pdf",
		OriginalName: "edital.pdf",
		Size:         12345,
		UploadDate:   time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		Summary:      "Edital de seleção",
		Status:       domain.StatusIndexed,
		ChunkCount:   7,
		StoragePath:  "/uploads/20240315_ab12cd34_edital.pdf",
	}
	require.NoError(t, s.SaveDocument(ctx, doc))

	got, err := s.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.OriginalName, got.OriginalName)
	assert.Equal(t, doc.Size, got.Size)
	assert.Equal(t, doc.Summary, got.Summary)
	assert.Equal(t, domain.StatusIndexed, got.Status)
	assert.Equal(t, 7, got.ChunkCount)
	assert.True(t, doc.UploadDate.Equal(got.UploadDate))
}

func TestSaveDocument_Upsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := &domain.Document{ID: "d1", OriginalName: "a.pdf", Status: domain.StatusPending}
	require.NoError(t, s.SaveDocument(ctx, doc))

	doc.Status = domain.StatusIndexed
	doc.ChunkCount = 3
	require.NoError(t, s.SaveDocument(ctx, doc))

	got, err := s.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIndexed, got.Status)
	assert.Equal(t, 3, got.ChunkCount)

	count, err := s.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetDocument_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetDocument(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSaveChunks_ReplacesAndOrders(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, &domain.Document{ID: "d1", OriginalName: "a.pdf"}))

	first := []domain.Chunk{
		{DocumentID: "d1", Position: 1, Content: "velho segundo"},
		{DocumentID: "d1", Position: 0, Content: "velho primeiro"},
	}
	require.NoError(t, s.SaveChunks(ctx, first))

	second := []domain.Chunk{
		{DocumentID: "d1", Position: 0, Content: "novo primeiro", Start: 0, End: 100, CharCount: 100},
	}
	require.NoError(t, s.SaveChunks(ctx, second))

	got, err := s.GetChunks(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "novo primeiro", got[0].Content)
	assert.Equal(t, 100, got[0].CharCount)
}

func TestDeleteDocument_CascadesChunks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, &domain.Document{ID: "d1", OriginalName: "a.pdf"}))
	require.NoError(t, s.SaveChunks(ctx, []domain.Chunk{
		{DocumentID: "d1", Position: 0, Content: "chunk"},
	}))

	require.NoError(t, s.DeleteDocument(ctx, "d1"))

	_, err := s.GetDocument(ctx, "d1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	chunks, err := s.GetChunks(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestDeleteDocument_NotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.DeleteDocument(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestListDocuments_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, d := range []struct {
		id  string
		age time.Duration
	}{
		{"old", 0},
		{"new", 48 * time.Hour},
		{"mid", 24 * time.Hour},
	} {
		require.NoError(t, s.SaveDocument(ctx, &domain.Document{
			ID:           d.id,
			OriginalName: d.id + ".pdf",
			UploadDate:   base.Add(d.age),
		}))
	}

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "new", docs[0].ID)
	assert.Equal(t, "mid", docs[1].ID)
	assert.Equal(t, "old", docs[2].ID)
}
