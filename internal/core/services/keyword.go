package services

import (
	"sort"
	"strings"

	"github.com/consulta-labs/consulta/internal/core/domain"
)

// KeywordSearch ranks documents by summed term frequency of the query
// tokens. It is the degraded search path used when the vector index is
// unreachable; it touches neither the index nor the embedder.
// Zero-score documents are excluded and ties keep their input order.
func KeywordSearch(query string, docs []domain.FallbackDocument, maxResults int) []domain.KeywordMatch {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return nil
	}

	matches := make([]domain.KeywordMatch, 0, len(docs))
	for _, doc := range docs {
		content := strings.ToLower(doc.Content)

		score := 0
		for _, token := range tokens {
			score += strings.Count(content, token)
		}
		if score == 0 {
			continue
		}

		matches = append(matches, domain.KeywordMatch{
			Content:  doc.Content,
			Filename: doc.Filename,
			Score:    score,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if maxResults > 0 && len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches
}
