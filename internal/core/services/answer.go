package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/consulta-labs/consulta/internal/core/domain"
	"github.com/consulta-labs/consulta/internal/core/ports/driven"
	"github.com/consulta-labs/consulta/internal/core/ports/driving"
	"github.com/consulta-labs/consulta/internal/logger"
)

// Answer generation tuning.
const (
	answerMaxTokens   = 1000
	answerTemperature = 0.3

	// fallbackMaxResults caps the keyword fallback corpus hits.
	fallbackMaxResults = 5
)

// systemPrompt grounds the model in the retrieved context only.
const systemPrompt = `Você é um assistente que responde perguntas sobre documentos institucionais.
Responda apenas com base no contexto fornecido. Quando o contexto não
contiver a resposta, diga isso claramente. Cite o documento de origem
quando possível.`

// noDocumentsAnswer is returned while the index holds nothing.
const noDocumentsAnswer = "Nenhum documento foi carregado ainda. Envie um PDF antes de fazer perguntas."

// Ensure AnswerService implements the driving port.
var _ driving.Answerer = (*AnswerService)(nil)

// AnswerService answers questions grounded in retrieved document context.
type AnswerService struct {
	retriever *RetrieveService
	llm       driven.LLMService
	docs      driven.DocumentStore
}

// NewAnswerService creates an answer service. The LLM may be nil;
// answers then degrade to returning the raw context.
func NewAnswerService(retriever *RetrieveService, llm driven.LLMService, docs driven.DocumentStore) *AnswerService {
	return &AnswerService{
		retriever: retriever,
		llm:       llm,
		docs:      docs,
	}
}

// Answer retrieves context for the question and generates a grounded
// reply. An unreachable vector index degrades to keyword search over
// stored document summaries; an LLM failure degrades to returning the
// context itself. Neither degradation raises an error.
func (s *AnswerService) Answer(ctx context.Context, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	logger.Section("Answer")

	retrieval, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		if !errors.Is(err, domain.ErrIndexUnavailable) {
			return nil, err
		}
		logger.Warn("vector index unavailable, falling back to keyword search")
		retrieval, err = s.keywordFallback(ctx, question)
		if err != nil {
			return nil, err
		}
	}

	if retrieval.NoDocuments {
		return &domain.Answer{
			Text:        noDocumentsAnswer,
			NoDocuments: true,
		}, nil
	}

	text := s.generate(ctx, question, retrieval)
	return &domain.Answer{
		Text:    text,
		Sources: retrieval.Sources,
		Context: retrieval.DisplayContext,
	}, nil
}

// keywordFallback builds retrieval context from stored document
// summaries without touching the index or the embedder.
func (s *AnswerService) keywordFallback(ctx context.Context, question string) (*domain.Retrieval, error) {
	docs, err := s.docs.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents for fallback: %w", err)
	}
	if len(docs) == 0 {
		return &domain.Retrieval{NoDocuments: true}, nil
	}

	corpus := make([]domain.FallbackDocument, 0, len(docs))
	for _, doc := range docs {
		corpus = append(corpus, domain.FallbackDocument{
			Content:  doc.Summary,
			Filename: doc.OriginalName,
		})
	}

	matches := KeywordSearch(question, corpus, fallbackMaxResults)
	if len(matches) == 0 {
		return &domain.Retrieval{}, nil
	}

	pieces := make([]string, 0, len(matches))
	sources := make([]domain.Source, 0, len(matches))
	for _, m := range matches {
		pieces = append(pieces, fmt.Sprintf("%s\n[source: %s]", m.Content, m.Filename))
		sources = append(sources, domain.Source{
			Filename: m.Filename,
			Score:    float32(m.Score),
			Preview:  truncate(m.Content, sourcePreviewChars),
		})
	}

	context := strings.Join(pieces, "\n\n")
	return &domain.Retrieval{
		Context:        context,
		DisplayContext: truncate(context, displayContextChars),
		Sources:        sources,
	}, nil
}

// generate asks the LLM for a grounded answer. Any failure yields a
// degraded answer built from the retrieved context instead of an error.
func (s *AnswerService) generate(ctx context.Context, question string, retrieval *domain.Retrieval) string {
	if retrieval.Context == "" {
		return "Não encontrei conteúdo relevante nos documentos carregados para essa pergunta."
	}
	if s.llm == nil {
		return degradedAnswer(retrieval)
	}

	messages := []driven.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf("Contexto:\n%s\n\nPergunta: %s", retrieval.Context, question)},
	}

	reply, err := s.llm.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   answerMaxTokens,
		Temperature: answerTemperature,
	})
	if err != nil {
		logger.Warn("answer generation failed, returning context: %v", err)
		return degradedAnswer(retrieval)
	}
	return strings.TrimSpace(reply)
}

func degradedAnswer(retrieval *domain.Retrieval) string {
	return "Não foi possível gerar uma resposta no momento. Trechos relevantes encontrados:\n\n" +
		retrieval.DisplayContext
}
