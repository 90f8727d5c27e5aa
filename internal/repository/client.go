package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenSource yields the bearer token of the calling session, or "" when
// the caller is anonymous.
type TokenSource func(ctx context.Context) string

type tokenKey struct{}

// WithToken returns a context whose adapter calls carry token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext is the default TokenSource.
func TokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey{}).(string)
	return t
}

// Client is the shared HTTP plumbing of every adapter: base URL, bearer
// token injection, JSON encoding and error mapping.
type Client struct {
	base  string
	http  *http.Client
	token TokenSource
}

func NewClient(baseURL string, timeout time.Duration, token TokenSource) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if token == nil {
		token = TokenFromContext
	}
	return &Client{
		base:  strings.TrimRight(baseURL, "/"),
		http:  &http.Client{Timeout: timeout},
		token: token,
	}
}

// BaseURL is the service root the client was built with.
func (c *Client) BaseURL() string { return c.base }

// call issues method on base+path with an optional JSON body and decodes a
// 2xx JSON answer into out (when out is non-nil). Any failure comes back as
// *APIError labelled op, with defaultMsg when the backend gave no message.
func (c *Client) call(ctx context.Context, op, defaultMsg, method, path string, query url.Values, body, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return &APIError{Op: op, Message: defaultMsg, Err: err}
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return &APIError{Op: op, Message: defaultMsg, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Op: op, Message: defaultMsg, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &APIError{Op: op, Status: resp.StatusCode, Message: defaultMsg, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Op: op, Status: resp.StatusCode, Message: backendMessage(raw, defaultMsg)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{Op: op, Status: resp.StatusCode, Message: defaultMsg, Err: err}
	}
	return nil
}

// backendMessage pulls "message" (or "error") out of an error body.
func backendMessage(raw []byte, fallback string) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return fallback
	}
	if body.Message != "" {
		return body.Message
	}
	if body.Error != "" {
		return body.Error
	}
	return fallback
}

// parseTime accepts the timestamp layouts the backends emit; zero on failure.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func day(t time.Time) string { return t.Format("2006-01-02") }
