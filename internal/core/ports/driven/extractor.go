package driven

import "context"

// TextExtractor pulls raw text out of an uploaded binary document.
// Implementations iterate pages up to a processing cap and tolerate
// individual unreadable pages; they fail only when the whole document
// yields no text (domain.ErrExtractionFailed).
type TextExtractor interface {
	// Extract returns the full extracted text for the document bytes.
	Extract(ctx context.Context, data []byte) (string, error)
}
