// Package transporttest provides a recording HTTP backend for testing code
// built on the transport client.
package transporttest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/kassolend/console/internal/credentials"
	"github.com/kassolend/console/internal/transport"
)

// Request is what the backend saw on its most recent call
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   map[string]any
}

// Backend answers every call with a canned response and records the request
type Backend struct {
	Server *httptest.Server
	Store  *credentials.MemoryStore

	mu     sync.Mutex
	last   Request
	hits   int
	status int
	body   string
}

// NewBackend starts a backend that answers status and body until Respond is called
func NewBackend(t *testing.T, status int, body string) *Backend {
	t.Helper()
	b := &Backend{Store: credentials.NewMemoryStore(), status: status, body: body}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Server.Close)
	return b
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	req := Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
	}
	_ = json.NewDecoder(r.Body).Decode(&req.Body)

	b.mu.Lock()
	b.last = req
	b.hits++
	status, body := b.status, b.body
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// Respond changes the canned response
func (b *Backend) Respond(status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status, b.body = status, body
}

// Last returns the most recent request, or the zero Request if none arrived
func (b *Backend) Last() Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// Hits returns how many requests arrived
func (b *Backend) Hits() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits
}

// Client returns a transport client pointed at the backend. Forced-logout
// redirects are discarded.
func (b *Backend) Client(opts ...transport.Option) *transport.Client {
	cfg := transport.DefaultConfig()
	cfg.BaseURL = b.Server.URL
	opts = append([]transport.Option{transport.WithRedirect(func(string) {})}, opts...)
	return transport.New(cfg, b.Store, opts...)
}
