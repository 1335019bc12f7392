package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quartzerp/globalsearch/pkg/model"
	"github.com/quartzerp/globalsearch/pkg/strategy"
)

// DefaultIndex is the engine index holding all search documents.
const DefaultIndex = "globalsearch"

// DefaultTimeout bounds every engine request.
const DefaultTimeout = 5 * time.Second

// Client talks to an inverted-index engine over its JSON REST API. It is the
// concrete strategy.IndexClient; the rest of the system never sees the wire
// format.
type Client struct {
	baseURL string
	index   string
	http    *http.Client
}

// NewClient creates an engine client for the given endpoint, e.g.
// "http://localhost:9200".
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		index:   DefaultIndex,
		http:    &http.Client{Timeout: timeout},
	}
}

// searchResponse is the engine's hit envelope.
type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Score     float64              `json:"_score"`
			Source    model.SearchDocument `json:"_source"`
			Highlight map[string][]string  `json:"highlight"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations struct {
		Types struct {
			Buckets []struct {
				Key      string `json:"key"`
				DocCount int    `json:"doc_count"`
			} `json:"buckets"`
		} `json:"types"`
	} `json:"aggregations"`
	Suggest map[string][]struct {
		Options []struct {
			Text string `json:"text"`
		} `json:"options"`
	} `json:"suggest"`
}

// Search executes a compiled query body and normalizes the envelope.
func (c *Client) Search(ctx context.Context, body map[string]interface{}) (*model.IndexSearchResult, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	var envelope searchResponse
	if err := c.do(ctx, http.MethodPost, c.indexPath("_search"), payload, &envelope); err != nil {
		return nil, err
	}

	result := &model.IndexSearchResult{
		Total:  envelope.Hits.Total.Value,
		Facets: make(map[string]int, len(envelope.Aggregations.Types.Buckets)),
	}
	for _, hit := range envelope.Hits.Hits {
		result.Hits = append(result.Hits, model.IndexHit{
			Score:      hit.Score,
			Document:   hit.Source,
			Highlights: hit.Highlight,
		})
	}
	for _, bucket := range envelope.Aggregations.Types.Buckets {
		result.Facets[bucket.Key] = bucket.DocCount
	}
	seen := make(map[string]bool)
	for _, entries := range envelope.Suggest {
		for _, entry := range entries {
			for _, opt := range entry.Options {
				if !seen[opt.Text] {
					seen[opt.Text] = true
					result.Suggestions = append(result.Suggestions, opt.Text)
				}
			}
		}
	}
	return result, nil
}

// Index upserts a document under a composite id so entity types cannot
// collide.
func (c *Client) Index(ctx context.Context, docType, id string, doc model.SearchDocument) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	return c.do(ctx, http.MethodPut, c.indexPath("_doc", documentID(docType, id)), payload, nil)
}

// Delete removes a document. A missing document maps to strategy.ErrNotFound
// so callers can treat the delete as idempotent.
func (c *Client) Delete(ctx context.Context, docType, id string) error {
	return c.do(ctx, http.MethodDelete, c.indexPath("_doc", documentID(docType, id)), nil, nil)
}

// Ping probes the engine root endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, out interface{}) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build engine request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("engine request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return strategy.ErrNotFound
	}
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("engine returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode engine response: %w", err)
	}
	return nil
}

func (c *Client) indexPath(parts ...string) string {
	escaped := make([]string, 0, len(parts)+1)
	escaped = append(escaped, c.index)
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return "/" + strings.Join(escaped, "/")
}

func documentID(docType, id string) string {
	return docType + ":" + id
}
