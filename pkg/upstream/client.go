// Package upstream is the typed client for the Peykan booking backend.
// Each resource (tours, events, transfers, cart, orders, payments, auth,
// agents) gets its own file; all calls funnel through Client.do which
// owns auth headers, locale forwarding and error mapping.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/peykantravel/peykan-storefront/pkg/errors"
	"github.com/peykantravel/peykan-storefront/pkg/metrics"
)

const (
	defaultTimeout              = 15 * time.Second
	responseBodyReadLimit int64 = 64 * 1024
)

var errBaseURLRequired = errors.New("upstream base URL is required")

// Client talks to the booking backend over its REST API. The zero value
// is not usable; construct with NewClient.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *metrics.UpstreamMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithMetrics attaches request metrics.
func WithMetrics(m *metrics.UpstreamMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds the backend client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// callOptions carries the per-request knobs set by resource methods.
type callOptions struct {
	token  string
	locale string
	query  url.Values
}

type callOption func(*callOptions)

func withToken(token string) callOption {
	return func(o *callOptions) { o.token = token }
}

func withLocale(locale string) callOption {
	return func(o *callOptions) { o.locale = locale }
}

func withQuery(query url.Values) callOption {
	return func(o *callOptions) { o.query = query }
}

// do executes one backend request. The body, when non-nil, is JSON
// encoded. A non-nil out is filled from the response body. Resource is
// the metrics label, never part of the URL.
func (c *Client) do(ctx context.Context, resource, method, path string, body any, out any, opts ...callOption) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "upstream client not configured")
	}

	var call callOptions
	for _, opt := range opts {
		opt(&call)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal request body")
		}
		reader = bytes.NewReader(payload)
	}

	fullURL := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(call.query) > 0 {
		fullURL += "?" + call.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if call.token != "" {
		req.Header.Set("Authorization", "Bearer "+call.token)
	}
	if call.locale != "" {
		req.Header.Set("Accept-Language", call.locale)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveDuration(resource, time.Since(start))
	if err != nil {
		return c.transportError(resource, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(resource, resp)
	}

	c.metrics.IncRequest(resource, "ok")

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode response body")
	}
	return nil
}

// transportError maps errors where no response reached us. Deadline
// expiry is distinguished so callers can say "the backend timed out"
// instead of "the backend is down".
func (c *Client) transportError(resource string, err error) error {
	var urlErr *url.Error
	timedOut := errors.Is(err, context.DeadlineExceeded)
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		timedOut = true
	}
	if timedOut {
		c.metrics.IncRequest(resource, "timeout")
		return pkgerrors.Wrap(pkgerrors.CodeTimeout, err, "backend request timed out")
	}
	c.metrics.IncRequest(resource, "network")
	return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "backend unreachable")
}

// backendError is the error envelope the booking backend uses for
// non-2xx responses. Message falls back to Detail for DRF-style bodies.
type backendError struct {
	Message string          `json:"message"`
	Detail  string          `json:"detail"`
	Errors  json.RawMessage `json:"errors"`
}

// statusError maps a non-2xx response to a coded error carrying the
// backend status, message and raw payload.
func (c *Client) statusError(resource string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))

	var envelope backendError
	_ = json.Unmarshal(raw, &envelope)
	message := envelope.Message
	if message == "" {
		message = envelope.Detail
	}
	if message == "" {
		message = fmt.Sprintf("backend responded with status %d", resp.StatusCode)
	}

	var code pkgerrors.Code
	outcome := "server_error"
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		code = pkgerrors.CodeUnauthorized
		outcome = "client_error"
	case resp.StatusCode == http.StatusForbidden:
		code = pkgerrors.CodeForbidden
		outcome = "client_error"
	case resp.StatusCode == http.StatusNotFound:
		code = pkgerrors.CodeNotFound
		outcome = "client_error"
	case resp.StatusCode == http.StatusConflict:
		code = pkgerrors.CodeConflict
		outcome = "client_error"
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		code = pkgerrors.CodeValidation
		outcome = "client_error"
	default:
		code = pkgerrors.CodeUpstream
	}
	c.metrics.IncRequest(resource, outcome)

	details := map[string]any{"status": resp.StatusCode}
	if len(raw) > 0 {
		details["payload"] = json.RawMessage(raw)
	}
	if len(envelope.Errors) > 0 {
		details["errors"] = envelope.Errors
	}

	return pkgerrors.New(code, message).WithDetails(details)
}
