// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): text extraction, embedding generation,
// the vector index, the LLM, and the metadata/file stores.
package driven
