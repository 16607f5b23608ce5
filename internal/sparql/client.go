package sparql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	contentTypeForm = "application/x-www-form-urlencoded"
	acceptResults   = "application/sparql-results+json"

	defaultTimeout = 20 * time.Second
	maxErrorBody   = 512
)

// HTTPError is returned when the endpoint answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("sparql endpoint returned %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether retrying the same request may succeed.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client speaks the SPARQL 1.1 protocol against a single endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	maxRetries int
	newBackOff func() backoff.BackOff
	tracer     trace.Tracer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every Select/Ask/Update call including its retries.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func WithBackOff(f func() backoff.BackOff) Option {
	return func(c *Client) { c.newBackOff = f }
}

func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
		timeout:    defaultTimeout,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 250 * time.Millisecond
			b.MaxElapsedTime = 0
			return b
		},
		tracer: otel.Tracer("github.com/agenthands/districtlinker/internal/sparql"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// Timeout is the bound applied to each call.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Select runs a SELECT query and decodes the JSON result table.
func (c *Client) Select(ctx context.Context, query string) (*Results, error) {
	var res Results
	err := c.do(ctx, "select", "query", query, func(body io.Reader) error {
		if err := json.NewDecoder(body).Decode(&res); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode sparql results: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Ask runs an ASK query.
func (c *Client) Ask(ctx context.Context, query string) (bool, error) {
	var res Results
	err := c.do(ctx, "ask", "query", query, func(body io.Reader) error {
		if err := json.NewDecoder(body).Decode(&res); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode sparql results: %w", err))
		}
		if res.Boolean == nil {
			return backoff.Permanent(fmt.Errorf("ask response carries no boolean"))
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return *res.Boolean, nil
}

// Update posts a SPARQL update.
func (c *Client) Update(ctx context.Context, update string) error {
	return c.do(ctx, "update", "update", update, func(body io.Reader) error {
		_, _ = io.Copy(io.Discard, body)
		return nil
	})
}

func (c *Client) do(ctx context.Context, op, param, text string, decode func(io.Reader) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "sparql."+op, trace.WithAttributes(
		attribute.String("sparql.endpoint", c.endpoint),
		attribute.String("sparql.operation", op),
	))
	defer span.End()

	attempts := 0
	operation := func() error {
		attempts++
		err := c.roundTrip(ctx, param, text, decode)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && !httpErr.Temporary() {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(c.maxRetries)), ctx)
	err := backoff.Retry(operation, b)
	span.SetAttributes(attribute.Int("sparql.attempts", attempts))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("sparql %s against %s failed: %w", op, c.endpoint, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, param, text string, decode func(io.Reader) error) error {
	form := url.Values{}
	form.Set(param, text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Content-Type", contentTypeForm)
	req.Header.Set("Accept", acceptResults)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return decode(resp.Body)
}
