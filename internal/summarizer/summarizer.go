// Package summarizer produces short document summaries, preferring the
// LLM and falling back to a deterministic local description when the
// LLM is unavailable or returns garbage.
package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/consulta-labs/consulta/internal/core/ports/driven"
	"github.com/consulta-labs/consulta/internal/logger"
)

// maxInputChars bounds how much document text is sent to the LLM.
const maxInputChars = 8000

// summaryMaxChars is the summary length requested from the LLM.
const summaryMaxChars = 600

// charsPerPage is the rough character density used to estimate page
// counts in the fallback summary.
const charsPerPage = 1800

// previewChars is the length of the opening-text excerpt in the
// fallback summary.
const previewChars = 200

// docTypes maps filename keywords to a human-readable document type.
// Keys are matched against the lowercased filename.
var docTypes = []struct {
	keyword string
	label   string
}{
	{"resolucao", "Resolução"},
	{"resolução", "Resolução"},
	{"edital", "Edital"},
	{"regimento", "Regimento"},
	{"regulamento", "Regulamento"},
	{"portaria", "Portaria"},
	{"manual", "Manual"},
	{"relatorio", "Relatório"},
	{"relatório", "Relatório"},
	{"ata", "Ata"},
}

// Summarizer generates document summaries. The LLM service may be nil;
// summaries then always use the fallback.
type Summarizer struct {
	llm driven.LLMService
}

// New creates a summarizer backed by the given LLM service.
func New(llm driven.LLMService) *Summarizer {
	return &Summarizer{llm: llm}
}

// Summarize returns a short summary for the document text. It never
// fails: any LLM error or degenerate response yields a deterministic
// local summary instead.
func (s *Summarizer) Summarize(ctx context.Context, text, filename string) string {
	if summary, ok := s.llmSummary(ctx, text); ok {
		return summary
	}
	return Fallback(text, filename)
}

func (s *Summarizer) llmSummary(ctx context.Context, text string) (string, bool) {
	if s.llm == nil {
		return "", false
	}

	input := text
	if len(input) > maxInputChars {
		input = input[:maxInputChars]
	}

	reply, err := s.llm.Summarise(ctx, input, summaryMaxChars)
	if err != nil {
		logger.Warn("LLM summary failed, using fallback: %v", err)
		return "", false
	}

	reply = strings.TrimSpace(reply)
	if len(reply) < 10 {
		logger.Warn("LLM summary degenerate (%d chars), using fallback", len(reply))
		return "", false
	}
	return reply, true
}

// Fallback builds a deterministic summary from the document text and
// filename alone. Pure string formatting; cannot fail.
func Fallback(text, filename string) string {
	docType := "Documento"
	lower := strings.ToLower(filename)
	for _, dt := range docTypes {
		if strings.Contains(lower, dt.keyword) {
			docType = dt.label
			break
		}
	}

	pages := len(text) / charsPerPage
	if pages < 1 {
		pages = 1
	}

	preview := strings.Join(strings.Fields(text), " ")
	if runes := []rune(preview); len(runes) > previewChars {
		preview = string(runes[:previewChars]) + "..."
	}

	return fmt.Sprintf("%s '%s' com aproximadamente %d página(s) e %d caracteres. Início do conteúdo: %s",
		docType, filename, pages, len(text), preview)
}
