// Package gateway issues CRUD calls for items against a remote HTTP API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/idilsaglam/tada/internal/model"
)

// Gateway is the remote data source the state container talks to.
// Every call is a single round trip: no retry, batching or caching.
type Gateway interface {
	FetchAll(ctx context.Context) ([]model.Item, error)
	Create(ctx context.Context, d model.Draft) (model.Item, error)
	Update(ctx context.Context, d model.Draft, id int) (model.Item, error)
	Delete(ctx context.Context, id int) error
}

// ErrNotFound matches a RequestError for a 404 response.
var ErrNotFound = errors.New("not found")

const (
	resourcePath    = "/items"
	requestIDHeader = "X-Request-Id"
	maxErrorBody    = 512
)

// RequestError describes a failed round trip: either the transport failed
// (Err is set) or the server answered with a non-2xx status.
type RequestError struct {
	Op     string
	Method string
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s %s: %v", e.Op, e.Method, e.URL, e.Err)
	}
	msg := fmt.Sprintf("%s: %s %s: status %d", e.Op, e.Method, e.URL, e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *RequestError) Unwrap() error { return e.Err }

func (e *RequestError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Options configure an HTTP gateway.
type Options struct {
	BaseURL string
	Token   string        // sent as a bearer token when set
	Timeout time.Duration // zero means no client timeout
	Client  *http.Client  // optional; overrides Timeout
	Logger  *slog.Logger
}

// HTTP implements Gateway over JSON/HTTP.
type HTTP struct {
	base   *url.URL
	token  string
	client *http.Client
	log    *slog.Logger
}

// NewHTTP validates the base URL and returns a ready gateway.
func NewHTTP(opt Options) (*HTTP, error) {
	raw := strings.TrimSpace(opt.BaseURL)
	if raw == "" {
		return nil, errors.New("gateway: empty base url")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("gateway: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("gateway: unsupported scheme %q", base.Scheme)
	}
	base.Path = strings.TrimSuffix(base.Path, "/")

	client := opt.Client
	if client == nil {
		client = &http.Client{Timeout: opt.Timeout}
	}
	log := opt.Logger
	if log == nil {
		log = slog.Default()
	}
	return &HTTP{base: base, token: opt.Token, client: client, log: log.With("component", "gateway")}, nil
}

func (g *HTTP) FetchAll(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	if err := g.do(ctx, "fetch", http.MethodGet, resourcePath, nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

func (g *HTTP) Create(ctx context.Context, d model.Draft) (model.Item, error) {
	var out model.Item
	body := d.Item(0)
	err := g.do(ctx, "create", http.MethodPost, resourcePath, body, &out)
	return out, err
}

func (g *HTTP) Update(ctx context.Context, d model.Draft, id int) (model.Item, error) {
	var out model.Item
	body := d.Item(id)
	err := g.do(ctx, "update", http.MethodPut, itemPath(id), body, &out)
	return out, err
}

func (g *HTTP) Delete(ctx context.Context, id int) error {
	return g.do(ctx, "delete", http.MethodDelete, itemPath(id), nil, nil)
}

func itemPath(id int) string {
	return resourcePath + "/" + strconv.Itoa(id)
}

func (g *HTTP) endpoint(p string) string {
	u := *g.base
	u.Path = g.base.Path + p
	return u.String()
}

// do performs one request; in and out are JSON bodies and may be nil.
func (g *HTTP) do(ctx context.Context, op, method, p string, in, out any) error {
	target := g.endpoint(p)
	fail := func(status int, body string, err error) error {
		return &RequestError{Op: op, Method: method, URL: target, Status: status, Body: body, Err: err}
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fail(0, "", fmt.Errorf("encode body: %w", err))
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fail(0, "", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, reqID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	start := time.Now()
	res, err := g.client.Do(req)
	if err != nil {
		g.log.Warn("request failed", "op", op, "method", method, "url", target, "request_id", reqID, "error", err)
		return fail(0, "", err)
	}
	defer res.Body.Close()

	g.log.Debug("request", "op", op, "method", method, "url", target,
		"status", res.StatusCode, "request_id", reqID, "duration", time.Since(start))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return fail(res.StatusCode, strings.TrimSpace(string(snippet)), nil)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fail(res.StatusCode, "", fmt.Errorf("decode body: %w", err))
	}
	return nil
}
