package driving

import (
	"context"

	"github.com/consulta-labs/consulta/internal/core/domain"
)

// Answerer answers natural-language questions grounded in indexed documents.
type Answerer interface {
	// Answer retrieves relevant context and produces a grounded answer.
	Answer(ctx context.Context, question string) (*domain.Answer, error)
}
