package transport

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

type requestOptions struct {
	headers   map[string]string
	query     url.Values
	timeout   time.Duration
	anonymous bool
}

// RequestOption customizes a single call
type RequestOption func(*requestOptions)

// WithHeader sets a header on the call, overriding the defaults
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

// WithQuery adds query parameters to the call
func WithQuery(query url.Values) RequestOption {
	return func(o *requestOptions) {
		if o.query == nil {
			o.query = url.Values{}
		}
		for key, values := range query {
			o.query[key] = append(o.query[key], values...)
		}
	}
}

// WithTimeout overrides the call's timeout
func WithTimeout(d time.Duration) RequestOption {
	return func(o *requestOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// Anonymous sends the call without reading the stored credential, so an
// expired token cannot block it and an auth failure does not end the session.
// Sign-in calls use it.
func Anonymous() RequestOption {
	return func(o *requestOptions) { o.anonymous = true }
}

// Get issues a GET and returns the unwrapped payload as T
func Get[T any](ctx context.Context, d Doer, path string, opts ...RequestOption) (T, error) {
	var out T
	err := d.Do(ctx, http.MethodGet, path, nil, &out, opts...)
	return out, err
}

// Post issues a POST with body and returns the unwrapped payload as T
func Post[T any](ctx context.Context, d Doer, path string, body any, opts ...RequestOption) (T, error) {
	var out T
	err := d.Do(ctx, http.MethodPost, path, body, &out, opts...)
	return out, err
}

// Put issues a PUT with body and returns the unwrapped payload as T
func Put[T any](ctx context.Context, d Doer, path string, body any, opts ...RequestOption) (T, error) {
	var out T
	err := d.Do(ctx, http.MethodPut, path, body, &out, opts...)
	return out, err
}

// Patch issues a PATCH with body and returns the unwrapped payload as T
func Patch[T any](ctx context.Context, d Doer, path string, body any, opts ...RequestOption) (T, error) {
	var out T
	err := d.Do(ctx, http.MethodPatch, path, body, &out, opts...)
	return out, err
}

// Delete issues a DELETE and returns the unwrapped payload as T
func Delete[T any](ctx context.Context, d Doer, path string, opts ...RequestOption) (T, error) {
	var out T
	err := d.Do(ctx, http.MethodDelete, path, nil, &out, opts...)
	return out, err
}
