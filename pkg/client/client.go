// Package client calls a dialect gateway over HTTP using the default dialect's
// form encoding: _call names the method, _type the dialect, and every other
// field is an argument.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const logPrefix = "client:client"

// DefaultDialect is the transport type sent when none is configured.
const DefaultDialect = "json"

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 10 << 20

// HTTPClient abstracts HTTP operations for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPClientFunc adapts a function to HTTPClient.
type HTTPClientFunc func(req *http.Request) (*http.Response, error)

// Do calls f(req).
func (f HTTPClientFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Client performs single-shot remote calls. It is safe for concurrent use.
type Client struct {
	endpoint  string
	dialect   string
	sessionID string
	http      HTTPClient
}

// Option configures a Client.
type Option func(*Client)

// WithDialect sets the _type sent with every call.
func WithDialect(dialect string) Option {
	return func(c *Client) { c.dialect = dialect }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h HTTPClient) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout uses a fresh *http.Client with the given timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// WithSessionID sends X-Session-ID so server logs and events correlate.
func WithSessionID(id string) Option {
	return func(c *Client) { c.sessionID = id }
}

// New creates a Client for the gateway at endpoint.
func New(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%s - invalid endpoint %q: %w", logPrefix, endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%s - endpoint %q must be http or https", logPrefix, endpoint)
	}

	c := &Client{
		endpoint: endpoint,
		dialect:  DefaultDialect,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Call invokes method with args and returns the decoded result. String
// arguments are sent verbatim; anything else is JSON-encoded.
func (c *Client) Call(ctx context.Context, method string, args map[string]any) (any, error) {
	form, err := c.encode(method, args)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &ConnectionError{Endpoint: c.endpoint, Cause: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if c.sessionID != "" {
		req.Header.Set("X-Session-ID", c.sessionID)
	}

	slog.Debug(fmt.Sprintf("%s - calling %s on %s", logPrefix, method, c.endpoint))
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ConnectionError{Endpoint: c.endpoint, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &ConnectionError{Endpoint: c.endpoint, StatusCode: resp.StatusCode, Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ConnectionError{
			Endpoint:   c.endpoint,
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("unexpected response %q", snippet(body)),
		}
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &ConnectionError{Endpoint: c.endpoint, StatusCode: resp.StatusCode, Cause: err}
	}
	if decoded == nil {
		return nil, &ConnectionError{Endpoint: c.endpoint, StatusCode: resp.StatusCode, Cause: errors.New("response is not a JSON object")}
	}

	if ok, _ := decoded["success"].(bool); ok {
		return decoded["result"], nil
	}
	return nil, &RemoteError{Method: method, Messages: remoteMessages(decoded)}
}

func (c *Client) encode(method string, args map[string]any) (url.Values, error) {
	if method == "" {
		return nil, fmt.Errorf("%s - method is required", logPrefix)
	}
	form := url.Values{}
	for k, v := range args {
		if k == "_call" || k == "_type" {
			return nil, fmt.Errorf("%s - argument name %s is reserved", logPrefix, k)
		}
		switch val := v.(type) {
		case string:
			form.Set(k, val)
		default:
			raw, err := json.Marshal(val)
			if err != nil {
				return nil, fmt.Errorf("%s - argument %s: %w", logPrefix, k, err)
			}
			form.Set(k, string(raw))
		}
	}
	form.Set("_call", method)
	form.Set("_type", c.dialect)
	return form, nil
}

// remoteMessages collects failure messages from the known response shapes:
// {"errors": [...]}, {"error": "..."}, {"error": {"message": ...}} and the
// ExtJS {"msg": "..."}.
func remoteMessages(resp map[string]any) []string {
	if list, ok := resp["errors"].([]any); ok && len(list) > 0 {
		out := make([]string, 0, len(list))
		for _, e := range list {
			if s, ok := e.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprint(e))
			}
		}
		return out
	}
	switch e := resp["error"].(type) {
	case string:
		if e != "" {
			return []string{e}
		}
	case map[string]any:
		if m, ok := e["message"].(string); ok && m != "" {
			return []string{m}
		}
	}
	if m, ok := resp["msg"].(string); ok && m != "" {
		return []string{m}
	}
	return []string{"remote call failed"}
}

func snippet(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
