package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed when repeated.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout bounds a single attempt.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { c.timeout = timeout }
}

// WithRateLimit caps outgoing requests per second. Zero disables the limit.
func WithRateLimit(perSecond int) ClientOption {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
		}
	}
}

// WithRetry enables exponential backoff for up to maxElapsed.
func WithRetry(maxElapsed time.Duration) ClientOption {
	return func(c *Client) { c.maxRetryElapsed = maxElapsed }
}

// WithAuthParam adds a credential query parameter to every request.
func WithAuthParam(name, value string) ClientOption {
	return func(c *Client) {
		if value != "" {
			c.auth = url.Values{name: {value}}
		}
	}
}

// Client is a JSON client for one upstream API. Requests are rate limited
// on the client side and retried on transport errors, 429 and 5xx.
type Client struct {
	baseURL         string
	auth            url.Values
	timeout         time.Duration
	limiter         *rate.Limiter
	maxRetryElapsed time.Duration
	client          *http.Client
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.client = &http.Client{Timeout: c.timeout}
	return c
}

// Get requests path with query and decodes the JSON body into dest. A
// *[]byte dest receives the raw body.
func (c *Client) Get(ctx context.Context, path string, query url.Values, dest interface{}) error {
	if c.maxRetryElapsed <= 0 {
		return c.get(ctx, path, query, dest)
	}

	b := &retryAfterBackOff{ExponentialBackOff: backoff.NewExponentialBackOff()}
	b.MaxElapsedTime = c.maxRetryElapsed

	operation := func() error {
		err := c.get(ctx, path, query, dest)
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		var se *StatusError
		if errors.As(err, &se) {
			if !se.Retryable() {
				return backoff.Permanent(err)
			}
			b.hint = se.RetryAfter
		}
		return err
	}
	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(path, query), nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	switch v := dest.(type) {
	case nil:
		return nil
	case *[]byte:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		*v = body
	default:
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("decode json: %w", err)
		}
	}
	return nil
}

func (c *Client) buildURL(path string, query url.Values) string {
	q := url.Values{}
	for k, vs := range query {
		q[k] = append([]string(nil), vs...)
	}
	for k, vs := range c.auth {
		q[k] = vs
	}
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// parseRetryAfter understands the delay-seconds form only.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// retryAfterBackOff waits at least as long as the server asked for, within
// the elapsed-time budget of the wrapped backoff.
type retryAfterBackOff struct {
	*backoff.ExponentialBackOff
	hint time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	next := b.ExponentialBackOff.NextBackOff()
	hint := b.hint
	b.hint = 0
	if next == backoff.Stop || hint <= next {
		return next
	}
	return hint
}
