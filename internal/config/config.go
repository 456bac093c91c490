// Package config loads and persists the consulta configuration file.
// Configuration lives in a TOML file under the consulta home directory
// and is created with defaults on first run. API keys never go into
// the file; they are read from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the configuration file name inside the config directory.
const FileName = "config.toml"

// homeDirName is the consulta directory under the user's home.
const homeDirName = ".consulta"

// Config is the full application configuration.
type Config struct {
	// DataDir holds uploads and document metadata
	// (default: <config dir>/data).
	DataDir string `toml:"data_dir"`

	Storage   Storage   `toml:"storage"`
	Chunking  Chunking  `toml:"chunking"`
	Embedding Embedding `toml:"embedding"`
	Vector    Vector    `toml:"vector"`
	LLM       LLM       `toml:"llm"`
	Retrieval Retrieval `toml:"retrieval"`
	Uploads   Uploads   `toml:"uploads"`
	Watch     Watch     `toml:"watch"`
}

// Storage selects the document metadata backend.
type Storage struct {
	// Backend is one of "sqlite", "file" or "memory".
	Backend string `toml:"backend"`
}

// Chunking holds the text chunking tunables.
type Chunking struct {
	ChunkSize int `toml:"chunk_size"`
	Overlap   int `toml:"overlap"`
	MinChunk  int `toml:"min_chunk"`
}

// Embedding configures the embedding server client.
type Embedding struct {
	BaseURL    string `toml:"base_url"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
}

// Vector selects and configures the vector index.
type Vector struct {
	// Provider is "pinecone" or "memory".
	Provider  string `toml:"provider"`
	IndexName string `toml:"index_name"`
	Cloud     string `toml:"cloud"`
	Region    string `toml:"region"`
}

// LLM selects and configures the answer generation model.
type LLM struct {
	// Provider is "groq" or "ollama".
	Provider string `toml:"provider"`
	BaseURL  string `toml:"base_url"`
	Model    string `toml:"model"`
}

// Retrieval holds the retrieval tunables.
type Retrieval struct {
	TopK int `toml:"top_k"`
}

// Uploads bounds accepted document uploads.
type Uploads struct {
	MaxFileSizeMB int64 `toml:"max_file_size_mb"`
}

// Watch configures the inbox watcher.
type Watch struct {
	// Inbox is the directory watched for dropped PDFs
	// (default: <config dir>/inbox).
	Inbox string `toml:"inbox"`
}

// Default returns the configuration used when no file exists yet.
// Path fields stay empty here; Load resolves them against the config
// directory.
func Default() *Config {
	return &Config{
		Storage: Storage{
			Backend: "sqlite",
		},
		Chunking: Chunking{
			ChunkSize: 1500,
			Overlap:   200,
			MinChunk:  50,
		},
		Embedding: Embedding{
			BaseURL:    "http://localhost:11434",
			Model:      "nomic-embed-text",
			Dimensions: 768,
		},
		Vector: Vector{
			Provider:  "pinecone",
			IndexName: "consulta-docs",
			Cloud:     "aws",
			Region:    "us-east-1",
		},
		LLM: LLM{
			Provider: "groq",
			Model:    "llama3-8b-8192",
		},
		Retrieval: Retrieval{
			TopK: 4,
		},
		Uploads: Uploads{
			MaxFileSizeMB: 50,
		},
	}
}

// DefaultDir returns the consulta config directory (~/.consulta).
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, homeDirName), nil
}

// Load reads the configuration from configDir, creating the directory
// and a default config file when they do not exist. An empty configDir
// means the default directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	cfg := Default()
	path := filepath.Join(configDir, FileName)

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		if err := cfg.save(path); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		// Unmarshalling over the defaults keeps them for absent keys.
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	cfg.resolvePaths(configDir)
	return cfg, nil
}

// Save writes the configuration back to configDir.
func (c *Config) Save(configDir string) error {
	if configDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return err
		}
		configDir = dir
	}
	return c.save(filepath.Join(configDir, FileName))
}

func (c *Config) save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// resolvePaths fills path fields left empty by the file.
func (c *Config) resolvePaths(configDir string) {
	if c.DataDir == "" {
		c.DataDir = filepath.Join(configDir, "data")
	}
	if c.Watch.Inbox == "" {
		c.Watch.Inbox = filepath.Join(configDir, "inbox")
	}
}

// UploadDir is where ingested PDF files are stored.
func (c *Config) UploadDir() string {
	return filepath.Join(c.DataDir, "uploads")
}

// MaxFileSize is the upload ceiling in bytes.
func (c *Config) MaxFileSize() int64 {
	return c.Uploads.MaxFileSizeMB << 20
}
