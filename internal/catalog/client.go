package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	serrors "github.com/benyxel/shopsync/internal/errors"
)

const maxCatalogResponseBytes = 20 * 1024 * 1024

// Client fetches the product catalog from the external catalog API.
type Client struct {
	url  string
	http *http.Client
}

// NewClient validates the catalog URL and returns a client with safe
// transport defaults.
func NewClient(rawURL string, timeout time.Duration) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported catalog URL scheme: %s", parsed.Scheme)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:  rawURL,
		http: &http.Client{Timeout: timeout},
	}, nil
}

// Load fetches and normalizes the catalog with a single request. The
// returned snapshot is never nil: on any failure it is empty and the error
// reports the failure upward. Retry policy belongs to the caller.
func (c *Client) Load(ctx context.Context) (*Snapshot, error) {
	body, err := c.fetch(ctx)
	if err != nil {
		return EmptySnapshot(), serrors.CatalogUnavailable(c.url, err)
	}

	raws, err := parsePayload(body)
	if err != nil {
		return EmptySnapshot(), serrors.CatalogUnavailable(c.url, err)
	}

	products := make([]Product, 0, len(raws))
	for _, raw := range raws {
		if p, ok := normalize(raw); ok {
			products = append(products, p)
		}
	}

	slog.Debug("Catalog loaded", slog.Int("products", len(products)))
	return NewSnapshot(products), nil
}

func (c *Client) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", c.url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: HTTP %d", c.url, resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, maxCatalogResponseBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(data) > maxCatalogResponseBytes {
		return nil, fmt.Errorf("catalog response too large")
	}
	return data, nil
}

// parsePayload accepts either a bare JSON array of products or a paginated
// envelope of the form {"results": [...]}.
func parsePayload(data []byte) ([]rawProduct, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty catalog response")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if trimmed[0] == '[' {
		var raws []rawProduct
		if err := dec.Decode(&raws); err != nil {
			return nil, fmt.Errorf("decode catalog array: %w", err)
		}
		return raws, nil
	}

	var envelope struct {
		Results []rawProduct `json:"results"`
	}
	if err := dec.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode catalog envelope: %w", err)
	}
	return envelope.Results, nil
}
