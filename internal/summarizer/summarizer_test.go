package summarizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/consulta-labs/consulta/internal/core/ports/driven"
)

type mockLLM struct {
	reply string
	err   error

	calls         int
	lastContent   string
	lastMaxLength int
}

func (m *mockLLM) Chat(_ context.Context, _ []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	return m.reply, m.err
}

func (m *mockLLM) Summarise(_ context.Context, content string, maxLength int) (string, error) {
	m.calls++
	m.lastContent = content
	m.lastMaxLength = maxLength
	return m.reply, m.err
}

func (m *mockLLM) ModelName() string            { return "mock" }
func (m *mockLLM) Ping(_ context.Context) error { return m.err }
func (m *mockLLM) Close() error                 { return nil }

func TestSummarize_UsesLLM(t *testing.T) {
	llm := &mockLLM{reply: "Edital de seleção para o programa de mestrado."}
	s := New(llm)

	got := s.Summarize(context.Background(), "conteúdo do edital", "edital_2024.pdf")

	assert.Equal(t, llm.reply, got)
	assert.Equal(t, 1, llm.calls)
	assert.Equal(t, "conteúdo do edital", llm.lastContent)
	assert.Equal(t, summaryMaxChars, llm.lastMaxLength)
}

func TestSummarize_TruncatesLLMInput(t *testing.T) {
	llm := &mockLLM{reply: "Resumo de um documento muito longo."}
	s := New(llm)
	text := strings.Repeat("a", maxInputChars+5000)

	got := s.Summarize(context.Background(), text, "relatorio.pdf")

	assert.Equal(t, llm.reply, got)
	assert.Len(t, llm.lastContent, maxInputChars)
}

func TestSummarize_FallbackOnError(t *testing.T) {
	llm := &mockLLM{err: errors.New("connection refused")}
	s := New(llm)

	got := s.Summarize(context.Background(), "texto do documento", "edital_mestrado.pdf")

	assert.Contains(t, got, "edital_mestrado.pdf")
	assert.Contains(t, got, "Edital")
	assert.NotContains(t, got, "connection refused")
}

func TestSummarize_FallbackOnDegenerateReply(t *testing.T) {
	llm := &mockLLM{reply: "ok"}
	s := New(llm)

	got := s.Summarize(context.Background(), "texto do documento", "manual.pdf")

	assert.Contains(t, got, "manual.pdf")
	assert.Contains(t, got, "Manual")
}

func TestSummarize_NilLLM(t *testing.T) {
	s := New(nil)

	got := s.Summarize(context.Background(), "algum texto", "relatorio_anual.pdf")

	assert.Contains(t, got, "Relatório")
}

func TestFallback(t *testing.T) {
	t.Run("document type from filename", func(t *testing.T) {
		tests := []struct {
			filename string
			wantType string
		}{
			{"resolucao_042.pdf", "Resolução"},
			{"edital_001.pdf", "Edital"},
			{"regimento_interno.pdf", "Regimento"},
			{"qualquer_coisa.pdf", "Documento"},
		}
		for _, tt := range tests {
			got := Fallback("texto", tt.filename)
			assert.Contains(t, got, tt.wantType, "filename %s", tt.filename)
		}
	})

	t.Run("page estimate", func(t *testing.T) {
		text := strings.Repeat("a", charsPerPage*3)
		got := Fallback(text, "doc.pdf")
		assert.Contains(t, got, "3 página(s)")
	})

	t.Run("short text counts as one page", func(t *testing.T) {
		got := Fallback("curto", "doc.pdf")
		assert.Contains(t, got, "1 página(s)")
	})

	t.Run("preview truncated and whitespace collapsed", func(t *testing.T) {
		text := strings.Repeat("palavra\n\n", 100)
		got := Fallback(text, "doc.pdf")
		assert.Contains(t, got, "...")
		assert.NotContains(t, got, "\n")
	})
}
