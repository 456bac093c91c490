package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input,
	// e.g. a non-PDF upload or an empty question. Rejected
	// immediately, never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExtractionFailed indicates a document yielded no extractable
	// text (image-only or corrupt PDF). Ingestion of that document
	// stops and the upload is discarded.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrEmbeddingUnavailable indicates the embedding service did not
	// come up at startup. Every call into the embedder fails with this
	// until an operator intervenes; the process itself stays up.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexUnavailable indicates the vector index could neither be
	// reached nor created. Callers fall back to keyword search or
	// surface a service-unavailable condition.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured or
	// unreachable. Answers degrade, summaries fall back.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrFileTooLarge indicates an upload exceeded the size ceiling.
	// The partial file is deleted before this is returned.
	ErrFileTooLarge = errors.New("file exceeds size limit")
)
