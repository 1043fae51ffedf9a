// Package pinecone is a minimal REST client for a Pinecone-style serverless
// vector index: control-plane index provisioning plus namespaced data-plane
// upsert/query/delete.
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

	"github.com/rs/zerolog/log"

	"campus-rag/internal/config"
	"campus-rag/internal/models"
	"campus-rag/internal/vectorindex"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultPollInterval = 2 * time.Second
	defaultPollTimeout  = 2 * time.Minute
)

// Client talks to one index. It is safe for concurrent use; the index
// itself is a shared, externally-synchronized resource.
type Client struct {
	cfg          config.PineconeConfig
	dimension    int
	client       *http.Client
	pollInterval time.Duration
	pollTimeout  time.Duration

	mu   sync.Mutex
	host string
}

func New(cfg config.PineconeConfig, dimension int) *Client {
	return &Client{
		cfg:          cfg,
		dimension:    dimension,
		client:       &http.Client{Timeout: defaultTimeout},
		pollInterval: defaultPollInterval,
		pollTimeout:  defaultPollTimeout,
	}
}

var _ vectorindex.Index = (*Client)(nil)

type describeResponse struct {
	Name   string `json:"name"`
	Host   string `json:"host"`
	Status struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

// EnsureReady creates the index if it does not exist and polls until the
// service reports it ready.
func (c *Client) EnsureReady(ctx context.Context) error {
	desc, status, err := c.describe(ctx)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		log.Info().Str("index", c.cfg.IndexName).Int("dimension", c.dimension).Msg("Creating vector index")
		if err := c.create(ctx); err != nil {
			return err
		}
	}

	deadline := time.Now().Add(c.pollTimeout)
	for {
		desc, status, err = c.describe(ctx)
		if err != nil {
			return err
		}
		if status == http.StatusOK && desc.Status.Ready {
			c.mu.Lock()
			c.host = normalizeHost(desc.Host)
			c.mu.Unlock()
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: index %s state %s", vectorindex.ErrNotReady, c.cfg.IndexName, desc.Status.State)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// Recreate deletes the backing index and provisions it from scratch.
func (c *Client) Recreate(ctx context.Context) error {
	status, err := c.do(ctx, http.MethodDelete, c.controlURL("/indexes/"+c.cfg.IndexName), nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusAccepted && status != http.StatusNoContent && status != http.StatusOK && status != http.StatusNotFound {
		return fmt.Errorf("delete index %s: status %d", c.cfg.IndexName, status)
	}
	c.mu.Lock()
	c.host = ""
	c.mu.Unlock()
	return c.EnsureReady(ctx)
}

func (c *Client) Upsert(ctx context.Context, records []models.Record, namespace string) error {
	if len(records) == 0 {
		return nil
	}
	host, err := c.ensureHost(ctx)
	if err != nil {
		return err
	}

	type vector struct {
		ID       string          `json:"id"`
		Values   []float32       `json:"values"`
		Metadata models.Metadata `json:"metadata"`
	}
	body := struct {
		Vectors   []vector `json:"vectors"`
		Namespace string   `json:"namespace"`
	}{Namespace: namespace}
	for _, r := range records {
		body.Vectors = append(body.Vectors, vector{ID: r.ID, Values: r.Vector, Metadata: r.Metadata})
	}

	var out struct {
		UpsertedCount int `json:"upsertedCount"`
	}
	status, err := c.do(ctx, http.MethodPost, host+"/vectors/upsert", body, &out)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("upsert %d records: status %d", len(records), status)
	}
	log.Debug().Int("records", len(records)).Str("namespace", namespace).Msg("Upserted batch")
	return nil
}

func (c *Client) Query(ctx context.Context, vec []float32, topK int, namespace string) ([]models.Match, error) {
	host, err := c.ensureHost(ctx)
	if err != nil {
		return nil, err
	}

	body := struct {
		Vector          []float32 `json:"vector"`
		TopK            int       `json:"topK"`
		Namespace       string    `json:"namespace"`
		IncludeMetadata bool      `json:"includeMetadata"`
	}{Vector: vec, TopK: topK, Namespace: namespace, IncludeMetadata: true}

	var out struct {
		Matches []struct {
			ID       string          `json:"id"`
			Score    float32         `json:"score"`
			Metadata models.Metadata `json:"metadata"`
		} `json:"matches"`
	}
	status, err := c.do(ctx, http.MethodPost, host+"/query", body, &out)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, fmt.Errorf("query topK=%d: status %d", topK, status)
	}

	matches := make([]models.Match, 0, len(out.Matches))
	for _, m := range out.Matches {
		matches = append(matches, models.Match{ID: m.ID, Score: m.Score, Metadata: m.Metadata})
	}
	return matches, nil
}

func (c *Client) DeleteAll(ctx context.Context, namespace string) error {
	host, err := c.ensureHost(ctx)
	if err != nil {
		return err
	}
	body := struct {
		DeleteAll bool   `json:"deleteAll"`
		Namespace string `json:"namespace"`
	}{DeleteAll: true, Namespace: namespace}

	status, err := c.do(ctx, http.MethodPost, host+"/vectors/delete", body, nil)
	if err != nil {
		return err
	}
	// Purging a namespace that never existed is a no-op, not a failure.
	if status >= 300 && status != http.StatusNotFound {
		return fmt.Errorf("delete namespace %s: status %d", namespace, status)
	}
	return nil
}

// ensureHost provisions the index on first use and returns the data-plane
// base URL.
func (c *Client) ensureHost(ctx context.Context) (string, error) {
	c.mu.Lock()
	host := c.host
	c.mu.Unlock()
	if host != "" {
		return host, nil
	}
	if err := c.EnsureReady(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	host = c.host
	c.mu.Unlock()
	return host, nil
}

func (c *Client) describe(ctx context.Context) (describeResponse, int, error) {
	var desc describeResponse
	status, err := c.do(ctx, http.MethodGet, c.controlURL("/indexes/"+c.cfg.IndexName), nil, &desc)
	if err != nil {
		return desc, 0, err
	}
	if status != http.StatusOK && status != http.StatusNotFound {
		return desc, status, fmt.Errorf("describe index %s: status %d", c.cfg.IndexName, status)
	}
	return desc, status, nil
}

func (c *Client) create(ctx context.Context) error {
	body := map[string]any{
		"name":      c.cfg.IndexName,
		"dimension": c.dimension,
		"metric":    c.cfg.Metric,
		"spec": map[string]any{
			"serverless": map[string]any{
				"cloud":  c.cfg.Cloud,
				"region": c.cfg.Region,
			},
		},
	}
	status, err := c.do(ctx, http.MethodPost, c.controlURL("/indexes"), body, nil)
	if err != nil {
		return err
	}
	// 409: someone else created it concurrently; polling will pick it up.
	if status >= 300 && status != http.StatusConflict {
		return fmt.Errorf("create index %s: status %d", c.cfg.IndexName, status)
	}
	return nil
}

func (c *Client) controlURL(path string) string {
	return strings.TrimSuffix(c.cfg.ControlURL, "/") + path
}

// do sends a JSON request and decodes the response into out when provided.
// The HTTP status is returned so callers can branch on 404/409.
func (c *Client) do(ctx context.Context, method, url string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Api-Key", c.cfg.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("pinecone %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return resp.StatusCode, fmt.Errorf("pinecone %s %s: decode: %w", method, url, err)
		}
	}
	return resp.StatusCode, nil
}

func normalizeHost(host string) string {
	if host == "" {
		return ""
	}
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return strings.TrimSuffix(host, "/")
	}
	return "https://" + strings.TrimSuffix(host, "/")
}
