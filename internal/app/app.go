// Package app wires the application together at startup. Every
// adapter is constructed and health-checked here, before any command
// runs; services that turn out to be unreachable are recorded as
// degraded instead of failing lazily on first use.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	ollamaembed "github.com/consulta-labs/consulta/internal/adapters/driven/embedding/ollama"
	groqllm "github.com/consulta-labs/consulta/internal/adapters/driven/llm/groq"
	ollamallm "github.com/consulta-labs/consulta/internal/adapters/driven/llm/ollama"
	filestore "github.com/consulta-labs/consulta/internal/adapters/driven/storage/file"
	memstore "github.com/consulta-labs/consulta/internal/adapters/driven/storage/memory"
	"github.com/consulta-labs/consulta/internal/adapters/driven/storage/sqlite"
	memindex "github.com/consulta-labs/consulta/internal/adapters/driven/vector/memory"
	"github.com/consulta-labs/consulta/internal/adapters/driven/vector/pinecone"
	"github.com/consulta-labs/consulta/internal/chunker"
	"github.com/consulta-labs/consulta/internal/config"
	"github.com/consulta-labs/consulta/internal/core/ports/driven"
	"github.com/consulta-labs/consulta/internal/core/services"
	"github.com/consulta-labs/consulta/internal/extractor/pdf"
	"github.com/consulta-labs/consulta/internal/logger"
	"github.com/consulta-labs/consulta/internal/summarizer"
	"github.com/consulta-labs/consulta/internal/uploads"
)

// pingTimeout bounds each startup connectivity check.
const pingTimeout = 5 * time.Second

// Environment variables carrying API keys.
const (
	EnvPineconeAPIKey = "PINECONE_API_KEY"
	EnvGroqAPIKey     = "GROQ_API_KEY"
)

// Readiness reports which backing services answered the startup ping.
type Readiness struct {
	Embedder bool
	Index    bool
	LLM      bool

	// Warnings carry one line per degraded service.
	Warnings []string
}

// App holds the constructed services and adapters for one process.
type App struct {
	Config *config.Config

	Embedder driven.EmbeddingService
	Index    driven.VectorIndex
	LLM      driven.LLMService
	Docs     driven.DocumentStore
	Files    driven.FileStore

	Ready Readiness

	ingest *services.IngestService
	answer *services.AnswerService
}

// Ingest exposes the ingest service.
func (a *App) Ingest() *services.IngestService { return a.ingest }

// Answer exposes the answer service.
func (a *App) Answer() *services.AnswerService { return a.answer }

// New builds the full application from configuration. Construction
// fails only on local errors (storage, filesystem); unreachable remote
// services leave the app running in a degraded mode recorded in Ready.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	files, err := uploads.New(cfg.UploadDir(), uploads.WithMaxFileSize(cfg.MaxFileSize()))
	if err != nil {
		return nil, fmt.Errorf("opening upload store: %w", err)
	}
	a.Files = files

	docs, err := newDocumentStore(cfg)
	if err != nil {
		return nil, err
	}
	a.Docs = docs

	embedder := ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})
	a.Embedder = embedder
	a.Ready.Embedder = pingService(ctx, "embedder", embedder.Ping, &a.Ready)

	a.Index = newVectorIndex(ctx, cfg, embedder.Dimensions(), &a.Ready)

	a.LLM = newLLM(ctx, cfg, &a.Ready)

	split := chunker.New(
		chunker.WithChunkSize(cfg.Chunking.ChunkSize),
		chunker.WithOverlap(cfg.Chunking.Overlap),
		chunker.WithMinChunk(cfg.Chunking.MinChunk),
	)

	a.ingest = services.NewIngestService(
		a.Files,
		pdf.New(),
		split,
		a.Embedder,
		a.Index,
		a.Docs,
		summarizer.New(a.LLM),
	)

	retrieve := services.NewRetrieveService(a.Embedder, a.Index,
		services.WithTopK(cfg.Retrieval.TopK))
	a.answer = services.NewAnswerService(retrieve, a.LLM, a.Docs)

	return a, nil
}

// Close releases adapter resources.
func (a *App) Close() {
	if a.Embedder != nil {
		a.Embedder.Close()
	}
	if a.Index != nil {
		a.Index.Close()
	}
	if a.LLM != nil {
		a.LLM.Close()
	}
	if a.Docs != nil {
		a.Docs.Close()
	}
}

// newDocumentStore selects the metadata backend from configuration.
func newDocumentStore(cfg *config.Config) (driven.DocumentStore, error) {
	switch cfg.Storage.Backend {
	case "sqlite", "":
		store, err := sqlite.NewStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return store, nil
	case "file":
		store, err := filestore.NewDocumentStore(cfg.DataDir, cfg.UploadDir())
		if err != nil {
			return nil, fmt.Errorf("opening file store: %w", err)
		}
		return store, nil
	case "memory":
		return memstore.NewDocumentStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// newVectorIndex builds the configured index. A pinecone client that
// cannot bootstrap stays constructed in its degraded state; every call
// then reports the index as unavailable and the answer path falls back
// to keyword search.
func newVectorIndex(ctx context.Context, cfg *config.Config, dimensions int, ready *Readiness) driven.VectorIndex {
	if cfg.Vector.Provider == "memory" {
		ready.Index = true
		return memindex.New()
	}

	apiKey := os.Getenv(EnvPineconeAPIKey)
	if apiKey == "" {
		ready.Warnings = append(ready.Warnings,
			fmt.Sprintf("index: %s not set, vector search disabled", EnvPineconeAPIKey))
		return pinecone.New("", cfg.Vector.IndexName, dimensions)
	}

	client := pinecone.New(apiKey, cfg.Vector.IndexName, dimensions,
		pinecone.WithServerlessSpec(cfg.Vector.Cloud, cfg.Vector.Region))

	if err := client.Init(ctx); err != nil {
		logger.Warn("vector index bootstrap failed: %v", err)
		ready.Warnings = append(ready.Warnings,
			fmt.Sprintf("index: %v", err))
		return client
	}
	ready.Index = true
	return client
}

// newLLM builds the configured LLM client, or nil when none can be
// constructed. Services treat a nil LLM as permanently degraded.
func newLLM(ctx context.Context, cfg *config.Config, ready *Readiness) driven.LLMService {
	switch cfg.LLM.Provider {
	case "ollama":
		svc := ollamallm.NewLLMService(ollamallm.Config{
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		})
		ready.LLM = pingService(ctx, "llm", svc.Ping, ready)
		return svc
	case "groq", "":
		apiKey := os.Getenv(EnvGroqAPIKey)
		if apiKey == "" {
			ready.Warnings = append(ready.Warnings,
				fmt.Sprintf("llm: %s not set, answer generation disabled", EnvGroqAPIKey))
			return nil
		}
		svc, err := groqllm.NewLLMService(groqllm.Config{
			APIKey:  apiKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		})
		if err != nil {
			ready.Warnings = append(ready.Warnings, fmt.Sprintf("llm: %v", err))
			return nil
		}
		ready.LLM = pingService(ctx, "llm", svc.Ping, ready)
		return svc
	default:
		ready.Warnings = append(ready.Warnings,
			fmt.Sprintf("llm: unknown provider %q, answer generation disabled", cfg.LLM.Provider))
		return nil
	}
}

// pingService runs one bounded connectivity check and records a
// warning on failure.
func pingService(ctx context.Context, name string, ping func(context.Context) error, ready *Readiness) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := ping(ctx); err != nil {
		logger.Warn("%s unavailable: %v", name, err)
		ready.Warnings = append(ready.Warnings, fmt.Sprintf("%s: %v", name, err))
		return false
	}
	return true
}
