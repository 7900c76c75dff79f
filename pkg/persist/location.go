package persist

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/google/safehtml"
)

// Location is the URL a table's query parameters live on. Query returns a
// copy the caller may modify; Push records a new history entry.
type Location interface {
	Query() url.Values
	Push(query url.Values)
}

// History is an in-memory browser history: a path plus a stack of query
// strings with a cursor. Pushing discards forward entries; Back and Forward
// move the cursor so values persisted in the URL read back as they were.
type History struct {
	mu      sync.Mutex
	path    string
	entries []url.Values
	index   int
}

var _ Location = (*History)(nil)

// NewHistory starts a history at rawURL. Only the path and query are kept.
func NewHistory(rawURL string) (*History, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	return &History{
		path:    u.Path,
		entries: []url.Values{u.Query()},
	}, nil
}

// Query returns a copy of the current entry's parameters.
func (h *History) Query() url.Values {
	h.mu.Lock()
	defer h.mu.Unlock()
	return cloneValues(h.entries[h.index])
}

// Push appends query as the new current entry, dropping forward entries.
func (h *History) Push(query url.Values) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.index+1], cloneValues(query))
	h.index = len(h.entries) - 1
}

// Replace overwrites the current entry without adding history.
func (h *History) Replace(query url.Values) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.index] = cloneValues(query)
}

// Back moves to the previous entry. It reports false at the oldest entry.
func (h *History) Back() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index == 0 {
		return false
	}
	h.index--
	return true
}

// Forward moves to the next entry. It reports false at the newest entry.
func (h *History) Forward() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index == len(h.entries)-1 {
		return false
	}
	h.index++
	return true
}

// Len returns the number of history entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// String returns the current path and encoded query.
func (h *History) String() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	u := url.URL{Path: h.path, RawQuery: h.entries[h.index].Encode()}
	return u.String()
}

// URL returns the current entry as a sanitized URL suitable for links.
func (h *History) URL() safehtml.URL {
	return safehtml.URLSanitized(h.String())
}

func cloneValues(in url.Values) url.Values {
	out := make(url.Values, len(in))
	for key, values := range in {
		out[key] = append([]string(nil), values...)
	}
	return out
}
