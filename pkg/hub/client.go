package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mesh-intelligence/tablecontrols/pkg/types"
)

// TotalHeader carries the total item count of a paged hub response.
const TotalHeader = "X-Total"

const (
	defaultUserAgent = "tablecontrols/0.1"
	requestTimeout   = 5 * time.Second
)

// Result is one page of items plus the total count across all pages.
type Result[T any] struct {
	Items []T
	Total int
}

// Fetcher loads the page of items described by params.
type Fetcher[T any] interface {
	Fetch(ctx context.Context, params RequestParams) (Result[T], error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc[T any] func(ctx context.Context, params RequestParams) (Result[T], error)

// Fetch calls f.
func (f FetcherFunc[T]) Fetch(ctx context.Context, params RequestParams) (Result[T], error) {
	return f(ctx, params)
}

// Client fetches items from a hub collection endpoint. The response body is
// a JSON array of items and the total count arrives in TotalHeader.
type Client[T any] struct {
	endpoint  *url.URL
	http      *http.Client
	userAgent string
}

var _ Fetcher[struct{}] = (*Client[struct{}])(nil)

// NewClient builds a Client for the collection at rawURL, for example
// "http://localhost:8080/api/apps". A missing scheme defaults to http.
func NewClient[T any](rawURL string) (*Client[T], error) {
	endpoint, err := parseEndpoint(rawURL)
	if err != nil {
		return nil, err
	}
	return &Client[T]{
		endpoint:  endpoint,
		http:      &http.Client{Timeout: requestTimeout},
		userAgent: defaultUserAgent,
	}, nil
}

// Fetch requests one page. A missing or malformed total header falls back
// to the number of items returned.
func (c *Client[T]) Fetch(ctx context.Context, params RequestParams) (Result[T], error) {
	if c == nil {
		return Result[T]{}, types.ErrNilClient
	}
	reqURL := *c.endpoint
	q := reqURL.Query()
	for key, values := range params.Values() {
		q[key] = values
	}
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return Result[T]{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return Result[T]{}, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return Result[T]{}, fmt.Errorf("%w: %s returned status %d", types.ErrHubStatus, c.endpoint.Path, resp.StatusCode)
	}

	var items []T
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return Result[T]{}, fmt.Errorf("decode response: %w", err)
	}
	total, err := strconv.Atoi(resp.Header.Get(TotalHeader))
	if err != nil || total < 0 {
		total = len(items)
	}
	return Result[T]{Items: items, Total: total}, nil
}

func parseEndpoint(rawURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, types.ErrEmptyHubURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse hub url %q: %w", rawURL, err)
	}
	u.Fragment = ""
	return u, nil
}
