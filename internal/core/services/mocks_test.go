package services

import (
	"context"
	"strings"

	"github.com/consulta-labs/consulta/internal/core/domain"
	"github.com/consulta-labs/consulta/internal/core/ports/driven"
)

// mockEmbedder returns a fixed vector for every text.
type mockEmbedder struct {
	vector    []float32
	err       error
	calls     int
	batchSize []int
}

var _ driven.EmbeddingService = (*mockEmbedder)(nil)

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	m.batchSize = append(m.batchSize, len(texts))
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = m.vector
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return len(m.vector) }
func (m *mockEmbedder) ModelName() string            { return "mock-embedder" }
func (m *mockEmbedder) Ping(_ context.Context) error { return m.err }
func (m *mockEmbedder) Close() error                 { return nil }

// mockIndex records calls and serves canned matches per topK.
type mockIndex struct {
	count      int
	countErr   error
	matches    map[int][]driven.VectorMatch
	queryErr   error
	upsertErr  error
	upserted   []driven.VectorEntry
	queryCalls int
	deleted    []string
}

var _ driven.VectorIndex = (*mockIndex)(nil)

func (m *mockIndex) Upsert(_ context.Context, entries []driven.VectorEntry) (int, error) {
	if m.upsertErr != nil {
		return 0, m.upsertErr
	}
	m.upserted = append(m.upserted, entries...)
	return len(entries), nil
}

func (m *mockIndex) Query(_ context.Context, _ []float32, topK int) ([]driven.VectorMatch, error) {
	m.queryCalls++
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.matches[topK], nil
}

func (m *mockIndex) DeleteByDocument(_ context.Context, documentID string) error {
	m.deleted = append(m.deleted, documentID)
	return nil
}

func (m *mockIndex) Count(_ context.Context) (int, error) {
	return m.count, m.countErr
}

func (m *mockIndex) Ping(_ context.Context) error { return m.countErr }
func (m *mockIndex) Close() error                 { return nil }

// mockLLM returns a canned reply.
type mockLLM struct {
	reply      string
	err        error
	lastPrompt string
}

var _ driven.LLMService = (*mockLLM)(nil)

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	if len(messages) > 0 {
		m.lastPrompt = messages[len(messages)-1].Content
	}
	return m.reply, m.err
}

func (m *mockLLM) Summarise(_ context.Context, _ string, _ int) (string, error) {
	return m.reply, m.err
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return m.err }
func (m *mockLLM) Close() error                 { return nil }

// stubExtractor returns fixed text for any input.
type stubExtractor struct {
	text string
	err  error
}

var _ driven.TextExtractor = (*stubExtractor)(nil)

func (s *stubExtractor) Extract(_ context.Context, _ []byte) (string, error) {
	return s.text, s.err
}

// stubChunker cuts text into fixed-size pieces without overlap.
type stubChunker struct {
	size int
}

func (s *stubChunker) Split(text string) []domain.Chunk {
	size := s.size
	if size <= 0 {
		size = 100
	}
	var chunks []domain.Chunk
	for start, pos := 0, 0; start < len(text); start, pos = start+size, pos+1 {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, domain.Chunk{
			Position:  pos,
			Content:   text[start:end],
			Start:     start,
			End:       end,
			CharCount: end - start,
		})
	}
	return chunks
}

// stubSummarizer echoes the filename.
type stubSummarizer struct{}

func (stubSummarizer) Summarize(_ context.Context, _, filename string) string {
	return "resumo de " + filename
}

func match(id, content, filename string, score float32) driven.VectorMatch {
	return driven.VectorMatch{
		ID:    id,
		Score: score,
		Metadata: driven.VectorMetadata{
			DocumentID: strings.SplitN(id, "_chunk_", 2)[0],
			Content:    content,
			Filename:   filename,
		},
	}
}
