// Package pinecone provides a VectorIndex backed by the Pinecone REST
// API. The index is described or created at startup; when neither
// succeeds the client enters a degraded state where every operation
// returns domain.ErrIndexUnavailable instead of crashing the process.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/consulta-labs/consulta/internal/core/domain"
	"github.com/consulta-labs/consulta/internal/core/ports/driven"
	"github.com/consulta-labs/consulta/internal/logger"
)

// DefaultControlURL is the Pinecone control plane endpoint.
const DefaultControlURL = "https://api.pinecone.io"

// apiVersion pins the Pinecone REST API version header.
const apiVersion = "2024-07"

// upsertBatchSize is how many vectors go into one upsert request.
const upsertBatchSize = 100

// DefaultTimeout is the per-request HTTP timeout.
const DefaultTimeout = 30 * time.Second

// Client talks to a single Pinecone index over REST.
type Client struct {
	apiKey     string
	indexName  string
	dimension  int
	controlURL string
	cloud      string
	region     string

	httpClient   *http.Client
	pollInterval time.Duration
	pollAttempts int

	mu       sync.RWMutex
	hostURL  string
	degraded bool
}

// Option configures the client.
type Option func(*Client)

// WithControlURL overrides the control plane endpoint. Useful for testing.
func WithControlURL(url string) Option {
	return func(c *Client) {
		c.controlURL = strings.TrimRight(url, "/")
	}
}

// WithHostURL sets the data plane endpoint directly, skipping discovery.
func WithHostURL(url string) Option {
	return func(c *Client) {
		c.hostURL = strings.TrimRight(url, "/")
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithServerlessSpec sets the cloud and region used when the index has
// to be created.
func WithServerlessSpec(cloud, region string) Option {
	return func(c *Client) {
		c.cloud = cloud
		c.region = region
	}
}

// withPolling overrides readiness polling cadence. Test hook.
func withPolling(interval time.Duration, attempts int) Option {
	return func(c *Client) {
		c.pollInterval = interval
		c.pollAttempts = attempts
	}
}

// New creates a Pinecone client for the named index. Call Init before
// first use; until a successful Init the client reports itself degraded.
func New(apiKey, indexName string, dimension int, opts ...Option) *Client {
	c := &Client{
		apiKey:       apiKey,
		indexName:    indexName,
		dimension:    dimension,
		controlURL:   DefaultControlURL,
		cloud:        "aws",
		region:       "us-east-1",
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		pollInterval: 2 * time.Second,
		pollAttempts: 15,
		degraded:     true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.hostURL != "" {
		c.degraded = false
	}
	return c
}

// Interface compliance check.
var _ driven.VectorIndex = (*Client)(nil)

type indexDescription struct {
	Name   string `json:"name"`
	Host   string `json:"host"`
	Status struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

type createIndexRequest struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Spec      struct {
		Serverless struct {
			Cloud  string `json:"cloud"`
			Region string `json:"region"`
		} `json:"serverless"`
	} `json:"spec"`
}

// Init discovers or creates the index and waits for it to become
// ready. On failure the client stays degraded and Init returns
// domain.ErrIndexUnavailable wrapped with the cause; the caller
// decides whether to continue without vector search.
func (c *Client) Init(ctx context.Context) error {
	c.mu.RLock()
	host := c.hostURL
	c.mu.RUnlock()
	if host != "" {
		c.setDegraded(false)
		return nil
	}

	desc, err := c.describeIndex(ctx)
	if err == nil {
		return c.adoptIndex(ctx, desc)
	}

	logger.Info("index %s not found, creating: %v", c.indexName, err)
	if err := c.createIndex(ctx); err != nil {
		c.setDegraded(true)
		return fmt.Errorf("%w: create failed: %v", domain.ErrIndexUnavailable, err)
	}

	desc, err = c.describeIndex(ctx)
	if err != nil {
		c.setDegraded(true)
		return fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}
	return c.adoptIndex(ctx, desc)
}

func (c *Client) adoptIndex(ctx context.Context, desc *indexDescription) error {
	for attempt := 0; !desc.Status.Ready; attempt++ {
		if attempt >= c.pollAttempts {
			c.setDegraded(true)
			return fmt.Errorf("%w: index %s not ready after %d checks",
				domain.ErrIndexUnavailable, c.indexName, c.pollAttempts)
		}

		select {
		case <-ctx.Done():
			c.setDegraded(true)
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}

		var err error
		desc, err = c.describeIndex(ctx)
		if err != nil {
			c.setDegraded(true)
			return fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
		}
	}

	c.mu.Lock()
	c.hostURL = "https://" + desc.Host
	c.degraded = false
	c.mu.Unlock()

	logger.Debug("pinecone index %s ready at %s", c.indexName, desc.Host)
	return nil
}

func (c *Client) describeIndex(ctx context.Context) (*indexDescription, error) {
	var desc indexDescription
	err := c.doJSON(ctx, http.MethodGet, c.controlURL+"/indexes/"+c.indexName, nil, &desc)
	if err != nil {
		return nil, err
	}
	return &desc, nil
}

func (c *Client) createIndex(ctx context.Context) error {
	req := createIndexRequest{
		Name:      c.indexName,
		Dimension: c.dimension,
		Metric:    "cosine",
	}
	req.Spec.Serverless.Cloud = c.cloud
	req.Spec.Serverless.Region = c.region

	return c.doJSON(ctx, http.MethodPost, c.controlURL+"/indexes", req, nil)
}

func (c *Client) setDegraded(v bool) {
	c.mu.Lock()
	c.degraded = v
	c.mu.Unlock()
}

func (c *Client) unavailable() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.degraded || c.hostURL == "" {
		return domain.ErrIndexUnavailable
	}
	return nil
}

func (c *Client) host() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hostURL
}

type wireVector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata"`
}

func toWire(e driven.VectorEntry) wireVector {
	return wireVector{
		ID:     e.ID,
		Values: e.Values,
		Metadata: map[string]any{
			"document_id": e.Metadata.DocumentID,
			"content":     e.Metadata.Content,
			"filename":    e.Metadata.Filename,
			"chunk_order": e.Metadata.ChunkOrder,
			"char_count":  e.Metadata.CharCount,
			"indexed_at":  e.Metadata.IndexedAt,
		},
	}
}

// Upsert writes entries in batches. A failed batch is logged and
// skipped; the returned count is how many vectors were actually
// accepted.
func (c *Client) Upsert(ctx context.Context, entries []driven.VectorEntry) (int, error) {
	if err := c.unavailable(); err != nil {
		return 0, err
	}

	inserted := 0
	for start := 0; start < len(entries); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(entries) {
			end = len(entries)
		}

		batch := make([]wireVector, 0, end-start)
		for _, e := range entries[start:end] {
			batch = append(batch, toWire(e))
		}

		body := map[string]any{"vectors": batch}
		if err := c.doJSON(ctx, http.MethodPost, c.host()+"/vectors/upsert", body, nil); err != nil {
			logger.Warn("upsert batch %d failed, skipping %d vectors: %v",
				start/upsertBatchSize+1, end-start, err)
			continue
		}
		inserted += end - start
	}
	return inserted, nil
}

type queryResponse struct {
	Matches []struct {
		ID       string         `json:"id"`
		Score    float32        `json:"score"`
		Metadata map[string]any `json:"metadata"`
	} `json:"matches"`
}

// Query returns the topK nearest vectors with their metadata.
func (c *Client) Query(ctx context.Context, vector []float32, topK int) ([]driven.VectorMatch, error) {
	if err := c.unavailable(); err != nil {
		return nil, err
	}

	body := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
	}
	var resp queryResponse
	if err := c.doJSON(ctx, http.MethodPost, c.host()+"/query", body, &resp); err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	matches := make([]driven.VectorMatch, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, driven.VectorMatch{
			ID:       m.ID,
			Score:    m.Score,
			Metadata: metadataFromWire(m.Metadata),
		})
	}
	return matches, nil
}

func metadataFromWire(raw map[string]any) driven.VectorMetadata {
	var md driven.VectorMetadata
	if v, ok := raw["document_id"].(string); ok {
		md.DocumentID = v
	}
	if v, ok := raw["content"].(string); ok {
		md.Content = v
	}
	if v, ok := raw["filename"].(string); ok {
		md.Filename = v
	}
	if v, ok := raw["chunk_order"].(float64); ok {
		md.ChunkOrder = int(v)
	}
	if v, ok := raw["char_count"].(float64); ok {
		md.CharCount = int(v)
	}
	if v, ok := raw["indexed_at"].(string); ok {
		md.IndexedAt = v
	}
	return md
}

// DeleteByDocument removes every vector tagged with the document ID.
func (c *Client) DeleteByDocument(ctx context.Context, documentID string) error {
	if err := c.unavailable(); err != nil {
		return err
	}

	body := map[string]any{
		"filter": map[string]any{
			"document_id": map[string]any{"$eq": documentID},
		},
	}
	if err := c.doJSON(ctx, http.MethodPost, c.host()+"/vectors/delete", body, nil); err != nil {
		return fmt.Errorf("deleting document vectors: %w", err)
	}
	return nil
}

type statsResponse struct {
	TotalVectorCount int `json:"totalVectorCount"`
}

// Count returns the total vector count from index stats.
func (c *Client) Count(ctx context.Context) (int, error) {
	if err := c.unavailable(); err != nil {
		return 0, err
	}

	var resp statsResponse
	if err := c.doJSON(ctx, http.MethodPost, c.host()+"/describe_index_stats", map[string]any{}, &resp); err != nil {
		return 0, fmt.Errorf("fetching index stats: %w", err)
	}
	return resp.TotalVectorCount, nil
}

// Ping checks the data plane is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.unavailable(); err != nil {
		return err
	}
	if err := c.doJSON(ctx, http.MethodPost, c.host()+"/describe_index_stats", map[string]any{}, nil); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Close releases resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("X-Pinecone-Api-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s: %s: %s", method, url, resp.Status, strings.TrimSpace(string(data)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
