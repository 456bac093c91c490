// Package pdf extracts plain text from PDF documents page by page.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/consulta-labs/consulta/internal/core/domain"
	"github.com/consulta-labs/consulta/internal/core/ports/driven"
	"github.com/consulta-labs/consulta/internal/logger"
)

// DefaultMaxPages caps how many pages are processed per document.
const DefaultMaxPages = 100

// Extractor reads text from PDF bytes. Pages that cannot be parsed are
// skipped; the document fails only when no page yields text.
type Extractor struct {
	maxPages int
}

// Option configures the extractor.
type Option func(*Extractor)

// WithMaxPages sets the page processing cap.
func WithMaxPages(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxPages = n
		}
	}
}

// New creates a PDF text extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{maxPages: DefaultMaxPages}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Interface compliance check.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extract pulls text from every readable page, joined by page marker
// lines. Returns domain.ErrExtractionFailed when the whole document
// yields no text.
func (e *Extractor) Extract(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty document", domain.ErrInvalidInput)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}

	total := reader.NumPage()
	pages := total
	if pages > e.maxPages {
		logger.Warn("document has %d pages, processing first %d", total, e.maxPages)
		pages = e.maxPages
	}

	var sb strings.Builder
	extracted := 0

	for i := 1; i <= pages; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		var text string
		err := runSafely(func() error {
			page := reader.Page(i)
			if page.V.IsNull() {
				logger.Debug("page %d is empty, skipping", i)
				return nil
			}
			var err error
			text, err = page.GetPlainText(nil)
			return err
		})
		if err != nil {
			logger.Warn("page %d extraction failed, skipping: %v", i, err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		fmt.Fprintf(&sb, "\n--- Page %d ---\n", i)
		sb.WriteString(text)
		extracted++
	}

	result := sb.String()
	if strings.TrimSpace(result) == "" {
		return "", fmt.Errorf("%w: no extractable text in %d pages", domain.ErrExtractionFailed, total)
	}

	logger.Debug("extracted %d chars from %d/%d pages", len(result), extracted, pages)
	return result, nil
}

// runSafely runs fn, converting a panic into an error. The pdf library
// panics rather than erroring on some malformed fonts and content
// streams; a panic must skip the page, not kill the ingestion.
func runSafely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page parse panic: %v", r)
		}
	}()
	return fn()
}
