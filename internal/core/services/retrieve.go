package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/consulta-labs/consulta/internal/core/domain"
	"github.com/consulta-labs/consulta/internal/core/ports/driven"
	"github.com/consulta-labs/consulta/internal/logger"
)

// Default retrieval tuning.
const (
	// DefaultTopK is the first-pass match count.
	DefaultTopK = 4

	// expandedTopK is the second-pass match count when the first pass
	// comes back thin.
	expandedTopK = 25

	// minUsableMatches is the usable-match threshold below which the
	// wider second query is issued.
	minUsableMatches = 5

	// maxContextChunks caps the assembled context after expansion.
	maxContextChunks = 12

	// displayContextChars is the truncation length of the context
	// echoed back to callers.
	displayContextChars = 500

	// sourcePreviewChars is the excerpt length in source citations.
	sourcePreviewChars = 200
)

// RetrieveService assembles question context from the vector index.
type RetrieveService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	topK     int
}

// RetrieveOption configures the retrieve service.
type RetrieveOption func(*RetrieveService)

// WithTopK sets the first-pass match count.
func WithTopK(k int) RetrieveOption {
	return func(s *RetrieveService) {
		if k > 0 {
			s.topK = k
		}
	}
}

// NewRetrieveService creates a retrieve service.
func NewRetrieveService(embedder driven.EmbeddingService, index driven.VectorIndex, opts ...RetrieveOption) *RetrieveService {
	s := &RetrieveService{
		embedder: embedder,
		index:    index,
		topK:     DefaultTopK,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Retrieve embeds the question, queries the index and assembles the
// context. An empty index is a normal state reported via NoDocuments,
// not an error.
func (s *RetrieveService) Retrieve(ctx context.Context, question string) (*domain.Retrieval, error) {
	count, err := s.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking index: %w", err)
	}
	if count == 0 {
		logger.Debug("index is empty, nothing to retrieve")
		return &domain.Retrieval{NoDocuments: true}, nil
	}

	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	matches, err := s.index.Query(ctx, vector, s.topK)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	usable := dropEmpty(matches)
	logger.Debug("first pass: %d matches, %d usable", len(matches), len(usable))

	// A thin first pass gets one wider query; new matches are appended
	// after the original ranking, deduplicated by entry ID.
	if len(usable) < minUsableMatches {
		wider, err := s.index.Query(ctx, vector, expandedTopK)
		if err != nil {
			logger.Warn("expansion query failed, keeping first pass: %v", err)
		} else {
			usable = mergeMatches(usable, dropEmpty(wider), maxContextChunks)
			logger.Debug("after expansion: %d usable matches", len(usable))
		}
	}

	if len(usable) == 0 {
		return &domain.Retrieval{}, nil
	}

	return assemble(usable), nil
}

func dropEmpty(matches []driven.VectorMatch) []driven.VectorMatch {
	usable := make([]driven.VectorMatch, 0, len(matches))
	for _, m := range matches {
		if strings.TrimSpace(m.Metadata.Content) != "" {
			usable = append(usable, m)
		}
	}
	return usable
}

func mergeMatches(base, extra []driven.VectorMatch, limit int) []driven.VectorMatch {
	seen := make(map[string]bool, len(base))
	for _, m := range base {
		seen[m.ID] = true
	}
	for _, m := range extra {
		if len(base) >= limit {
			break
		}
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		base = append(base, m)
	}
	if len(base) > limit {
		base = base[:limit]
	}
	return base
}

func assemble(matches []driven.VectorMatch) *domain.Retrieval {
	pieces := make([]string, 0, len(matches))
	sources := make([]domain.Source, 0, len(matches))

	for _, m := range matches {
		pieces = append(pieces, fmt.Sprintf("%s\n[source: %s]", m.Metadata.Content, m.Metadata.Filename))
		sources = append(sources, domain.Source{
			Filename: m.Metadata.Filename,
			Score:    m.Score,
			Preview:  truncate(m.Metadata.Content, sourcePreviewChars),
		})
	}

	context := strings.Join(pieces, "\n\n")
	return &domain.Retrieval{
		Context:        context,
		DisplayContext: truncate(context, displayContextChars),
		Sources:        sources,
	}
}

// truncate cuts s to at most n runes, appending an ellipsis when cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
