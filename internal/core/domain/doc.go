// Package domain contains the core business entities for the Consulta
// document question-answering pipeline: documents, chunks, retrieval
// results, and the error taxonomy shared across all layers.
package domain
