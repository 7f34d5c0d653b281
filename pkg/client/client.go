// Package client is a thin HTTP client for a remote property search service.
// It exposes the same operations as the in-process search service, so callers
// can swap between the two without touching business logic.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"propsearch/internal/handler"
	"propsearch/internal/model"
)

// Client talks to a remote property search service over its HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ handler.Searcher = (*Client)(nil)

// New creates a client for the service at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type searchPayload struct {
	Query       string  `json:"query"`
	KResults    int     `json:"k_results,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// Search runs the full retrieval/extraction/reconciliation pipeline remotely.
func (c *Client) Search(ctx context.Context, query string, k int, temperature float64) (*model.SearchOutcome, error) {
	payload := searchPayload{Query: query, KResults: k, Temperature: temperature}
	var outcome model.SearchOutcome
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/search", payload, &outcome); err != nil {
		return nil, err
	}
	return &outcome, nil
}

// RawRetrieve returns ranked similarity results without any model call.
func (c *Client) RawRetrieve(ctx context.Context, query string, k int) ([]model.RetrievedDocument, error) {
	payload := searchPayload{Query: query, KResults: k}
	var resp model.RawSearchResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/search/raw", payload, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// GetProperty fetches a single property. Returns (nil, nil) on 404, matching
// the in-process store convention.
func (c *Client) GetProperty(ctx context.Context, id string) (*model.PropertyRecord, error) {
	var record model.PropertyRecord
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/properties/"+url.PathEscape(id), nil, &record)
	if err != nil {
		var statusErr *StatusError
		if asStatusError(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// ListProperties returns a page of properties within the optional price bounds
// and the total matching count.
func (c *Client) ListProperties(ctx context.Context, minPrice, maxPrice *int64, limit, offset int) ([]model.PropertyRecord, int, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	if minPrice != nil {
		params.Set("min_price", strconv.FormatInt(*minPrice, 10))
	}
	if maxPrice != nil {
		params.Set("max_price", strconv.FormatInt(*maxPrice, 10))
	}

	var page model.PropertyPage
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/properties?"+params.Encode(), nil, &page); err != nil {
		return nil, 0, err
	}
	return page.Properties, page.Total, nil
}

// Statistics returns the remote service's aggregate statistics.
func (c *Client) Statistics(ctx context.Context) (*model.PropertyStats, error) {
	var stats model.PropertyStats
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Health returns the remote service's readiness report.
func (c *Client) Health(ctx context.Context) (*model.HealthStatus, error) {
	var health model.HealthStatus
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Ready reports whether the remote service finished initialization.
func (c *Client) Ready() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	health, err := c.Health(ctx)
	if err != nil {
		return false
	}
	return health.DatabaseLoaded
}

// StatusError reports a non-2xx HTTP response, carrying the body for
// diagnostics.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Body)
}

func asStatusError(err error, target **StatusError) bool {
	se, ok := err.(*StatusError)
	if ok {
		*target = se
	}
	return ok
}

// doJSON sends a request with an optional JSON body and decodes the JSON
// response.
func (c *Client) doJSON(ctx context.Context, method, path string, payload, result interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
