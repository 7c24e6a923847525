// Package apiclient talks to the CRM REST backend.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/diewo77/nexus-crm/internal/records"
)

// Resource addresses one REST collection, e.g. {sales, clients}.
type Resource struct {
	Group string
	Name  string
}

func (r Resource) String() string { return r.Group + "/" + r.Name }

func (r Resource) valid() bool { return r.Group != "" && r.Name != "" }

func (r Resource) path() string {
	return "/" + url.PathEscape(r.Group) + "/" + url.PathEscape(r.Name) + "/"
}

func (r Resource) itemPath(id string) string {
	return r.path() + url.PathEscape(id) + "/"
}

// Client performs single-attempt calls against the REST base URL. It holds no
// mutable state and is safe for concurrent use.
type Client struct {
	base string
	http *http.Client
	log  zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout bounds every call. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		h := *c.http
		h.Timeout = d
		c.http = &h
	}
}

// WithLogger sets the logger used for per-call debug lines.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a client for the API rooted at base, e.g.
// http://localhost:8000/api.
func New(base string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{},
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Base returns the configured API base URL.
func (c *Client) Base() string { return c.base }

// List fetches every record of res. A paginated body ({"results": [...]}) is
// unwrapped.
func (c *Client) List(ctx context.Context, res Resource) ([]records.Record, error) {
	if !res.valid() {
		return nil, errors.Wrapf(ErrInvalidRequest, "list %q", res)
	}
	var body any
	if err := c.do(ctx, http.MethodGet, res.path(), nil, &body); err != nil {
		return nil, err
	}
	if page, ok := body.(map[string]any); ok {
		body = page["results"]
	}
	items, ok := body.([]any)
	if !ok {
		if body == nil {
			return []records.Record{}, nil
		}
		return nil, errors.Errorf("apiclient: GET %s: expected a JSON array", res.path())
	}
	out := make([]records.Record, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, records.Record(obj))
		}
	}
	return out, nil
}

// Create posts payload to the collection and returns the created record.
func (c *Client) Create(ctx context.Context, res Resource, payload records.Values) (records.Record, error) {
	if !res.valid() {
		return nil, errors.Wrapf(ErrInvalidRequest, "create %q", res)
	}
	var out records.Record
	if err := c.do(ctx, http.MethodPost, res.path(), payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update patches record id with payload.
func (c *Client) Update(ctx context.Context, res Resource, id string, payload records.Values) (records.Record, error) {
	if !res.valid() || id == "" {
		return nil, errors.Wrapf(ErrInvalidRequest, "update %q id %q", res, id)
	}
	var out records.Record
	if err := c.do(ctx, http.MethodPatch, res.itemPath(id), payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes record id.
func (c *Client) Delete(ctx context.Context, res Resource, id string) error {
	if !res.valid() || id == "" {
		return errors.Wrapf(ErrInvalidRequest, "delete %q id %q", res, id)
	}
	return c.do(ctx, http.MethodDelete, res.itemPath(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload records.Values, out any) error {
	var (
		body  io.Reader
		ctype string
	)
	if payload != nil {
		var err error
		body, ctype, err = encode(payload)
		if err != nil {
			return errors.Wrapf(err, "apiclient: encode %s %s", method, path)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return errors.Wrapf(err, "apiclient: build %s %s", method, path)
	}
	req.Header.Set("Accept", jsonContentType)
	if ctype != "" {
		req.Header.Set("Content-Type", ctype)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Dur("elapsed", time.Since(start)).Msg("api call failed")
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: err}
	}
	c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("api call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return errors.Wrapf(err, "apiclient: decode %s %s", method, path)
	}
	return nil
}
