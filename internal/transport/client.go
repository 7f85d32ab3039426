package transport

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

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/kassolend/console/internal/credentials"
)

// Config holds the tunable transport settings
type Config struct {
	// BaseURL is the API root every path is relative to
	BaseURL string
	// Timeout is the ceiling for a whole call; exceeding it is a network error
	Timeout time.Duration
	// ExpiryMargin is how long before its exp claim a token counts as expired
	ExpiryMargin time.Duration
	// RedirectDelay is how long a forced logout waits before redirecting
	RedirectDelay time.Duration
	// ResetWindow is how long after the redirect the logout guard stays active
	ResetWindow time.Duration
	// ForcedLogoutStatuses are the response statuses that end the session
	ForcedLogoutStatuses []int
	// LoginPath is handed to the redirect callback
	LoginPath string
}

// DefaultConfig returns the stock transport settings
func DefaultConfig() Config {
	return Config{
		BaseURL:              "http://localhost:8080/api",
		Timeout:              30 * time.Second,
		ExpiryMargin:         60 * time.Second,
		RedirectDelay:        100 * time.Millisecond,
		ResetWindow:          2000 * time.Millisecond,
		ForcedLogoutStatuses: []int{http.StatusUnauthorized},
		LoginPath:            "/login",
	}
}

// Doer is the call surface request builders depend on
type Doer interface {
	Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error
}

// Client is the session-aware HTTP client every backend call goes through
type Client struct {
	cfg            Config
	baseURL        string
	httpClient     *http.Client
	store          credentials.Store
	guard          *LogoutGuard
	logger         zerolog.Logger
	now            func() time.Time
	redirect       func(loginPath string)
	logoutStatuses map[int]bool
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithLogger sets the logger used for request and logout events
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRedirect sets the callback that sends the user to the login entry point
func WithRedirect(redirect func(loginPath string)) Option {
	return func(c *Client) { c.redirect = redirect }
}

// WithClock replaces time.Now for expiry checks
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a client over the given credential store
func New(cfg Config, store credentials.Store, opts ...Option) *Client {
	defaults := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = defaults.LoginPath
	}
	if len(cfg.ForcedLogoutStatuses) == 0 {
		cfg.ForcedLogoutStatuses = defaults.ForcedLogoutStatuses
	}

	c := &Client{
		cfg:        cfg,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{},
		store:      store,
		logger:     zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.logoutStatuses = make(map[int]bool, len(cfg.ForcedLogoutStatuses))
	for _, status := range cfg.ForcedLogoutStatuses {
		c.logoutStatuses[status] = true
	}

	c.guard = NewLogoutGuard(GuardConfig{
		Clear:         store.Clear,
		Redirect:      c.redirect,
		LoginPath:     cfg.LoginPath,
		RedirectDelay: cfg.RedirectDelay,
		ResetWindow:   cfg.ResetWindow,
		Logger:        c.logger,
	})

	return c
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// BaseURL returns the API root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Store returns the credential store the client reads from
func (c *Client) Store() credentials.Store {
	return c.store
}

// Guard returns the client's logout guard
func (c *Client) Guard() *LogoutGuard {
	return c.guard
}

// ForceLogout starts a logout episode. It returns false if one is already running.
func (c *Client) ForceLogout(reason string) bool {
	return c.guard.Trigger(reason)
}

// Do issues a call and decodes the unwrapped payload into out (which may be nil).
// Failures are *Error values, except ErrCancelled while a logout is in progress.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	ro := requestOptions{timeout: c.cfg.Timeout}
	for _, opt := range opts {
		opt(&ro)
	}

	if c.guard.Active() {
		return ErrCancelled
	}

	var token string
	if !ro.anonymous {
		var err error
		token, err = c.store.Token()
		if err != nil {
			// Unreadable storage is treated as no credential; the server decides
			c.logger.Warn().Err(err).Msg("Failed to read stored token")
			token = ""
		}
		if token != "" && tokenExpired(token, c.now(), c.cfg.ExpiryMargin) {
			c.guard.Trigger("token expired")
			return ErrCancelled
		}
	}

	ctx, cancel := context.WithTimeout(ctx, ro.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, method, path, body, token, ro)
	if err != nil {
		return requestError(err)
	}

	// A logout may have started while this call was being prepared
	if c.guard.Active() {
		return ErrCancelled
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Msg("API request failed")
		// Calls cut short by a logout stay silent
		if c.guard.Active() {
			return ErrCancelled
		}
		return networkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return networkError(fmt.Errorf("failed to read response: %w", err))
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Str("request_id", req.Header.Get(requestIDHeader)).
		Msg("API request")

	if c.logoutStatuses[resp.StatusCode] && !ro.anonymous {
		c.guard.Trigger(fmt.Sprintf("status %d from %s %s", resp.StatusCode, method, path))
		return responseError(resp.StatusCode, data, true)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp.StatusCode, data, false)
	}

	if err := DecodeEnvelope(data).Decode(out); err != nil {
		return &Error{Kind: KindRequest, Status: resp.StatusCode, Message: MsgUnexpected, cause: err}
	}
	return nil
}

const requestIDHeader = "X-Request-ID"

func (c *Client) newRequest(ctx context.Context, method, path string, body any, token string, ro requestOptions) (*http.Request, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse url: %w", err)
	}
	if len(ro.query) > 0 {
		q := u.Query()
		for key, values := range ro.query {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, ulid.Make().String())
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	for key, value := range ro.headers {
		req.Header.Set(key, value)
	}

	return req, nil
}
