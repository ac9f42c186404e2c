// Package supabase is the PostgREST adapter behind the store ports. Every call
// goes through a bulkhead, the circuit breaker and retry with backoff.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/boddenberg/bonos-bfa-go/internal/domain"
	"github.com/boddenberg/bonos-bfa-go/internal/infra/observability"
	"github.com/boddenberg/bonos-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

// Client wraps HTTP calls to the Supabase PostgREST API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	bulkhead       *resilience.Bulkhead
	cfg            resilience.Config
	metrics        *observability.Metrics
	logger         *zap.Logger
}

// NewClient creates a Supabase client. metrics may be nil.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, metrics *observability.Metrics, logger *zap.Logger) *Client {
	if cb == nil {
		cb = resilience.NewCircuitBreaker("supabase", logger, IsClientError)
	}
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		bulkhead:       resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:            cfg,
		metrics:        metrics,
		logger:         logger,
	}
}

// StatusError is a non-2xx PostgREST response.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("supabase %s %s returned %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// IsClientError reports whether err is a caller-side failure that says
// nothing about the health of Supabase: a 4xx response or a domain
// not-found/validation/conflict error.
func IsClientError(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status >= 400 && se.Status < 500
	}
	var nf *domain.ErrNotFound
	var ve *domain.ErrValidation
	var ce *domain.ErrConflict
	return errors.As(err, &nf) || errors.As(err, &ve) || errors.As(err, &ce)
}

// response is a decoded PostgREST reply.
type response struct {
	status int
	body   []byte
	total  int // from Content-Range when count=exact was requested, else -1
}

// request describes one PostgREST call.
type request struct {
	method string
	path   string // table plus query string
	body   any
	prefer string
}

// do executes one authenticated request against PostgREST. 4xx replies are
// returned as permanent errors so they are not retried.
func (c *Client) do(ctx context.Context, r request) (*response, error) {
	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, r.path)

	var reader io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return nil, resilience.Permanent(fmt.Errorf("encode body: %w", err))
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, url, reader)
	if err != nil {
		c.logger.Error("supabase: failed to create request",
			zap.String("method", r.method),
			zap.String("path", r.path),
			zap.Error(err),
		)
		return nil, resilience.Permanent(err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if r.prefer != "" {
		req.Header.Set("Prefer", r.prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", r.method),
			zap.String("path", r.path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("supabase: failed to read response body",
			zap.String("method", r.method),
			zap.String("path", r.path),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", r.method),
			zap.String("path", r.path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		se := &StatusError{Method: r.method, Path: r.path, Status: resp.StatusCode, Body: string(body)}
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, resilience.Permanent(se)
		}
		return nil, se
	}

	c.logger.Debug("supabase: request OK",
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
	)

	total := -1
	if cr := resp.Header.Get("Content-Range"); cr != "" {
		total = parseContentRange(cr)
	}
	return &response{status: resp.StatusCode, body: body, total: total}, nil
}

// call runs fn under the bulkhead, circuit breaker and retry policy, and maps
// the outcome to domain errors. table labels spans, logs and metrics.
func (c *Client) call(ctx context.Context, op, table string, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "Supabase."+op)
	defer span.End()
	span.SetAttributes(attribute.String("db.table", table))

	err := c.bulkhead.Do(ctx, func() error {
		_, err := c.cb.Execute(func() (any, error) {
			return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error { return fn(ctx) })
		})
		return err
	})
	if err == nil {
		return nil
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var (
		nf *domain.ErrNotFound
		ve *domain.ErrValidation
		ce *domain.ErrConflict
		se *StatusError
	)
	switch {
	case errors.As(err, &nf), errors.As(err, &ve), errors.As(err, &ce):
		return err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.recordError(table)
		return &domain.ErrCircuitOpen{Service: "supabase"}
	case errors.Is(err, context.DeadlineExceeded):
		c.recordError(table)
		return &domain.ErrTimeout{Operation: "supabase." + op}
	case errors.As(err, &se) && se.Status == http.StatusConflict:
		return &domain.ErrConflict{Message: se.Body}
	}
	c.recordError(table)
	return &domain.ErrExternalService{Service: "supabase/" + table, Err: err}
}

func (c *Client) recordError(table string) {
	if c.metrics != nil {
		c.metrics.IncrStoreError(table)
	}
}

// Ping checks that PostgREST answers with the configured keys.
func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, "Ping", "bonds", func(ctx context.Context) error {
		var rows []json.RawMessage
		_, err := c.selectRows(ctx, From("bonds").Select("id").Limit(1), false, &rows)
		return err
	})
}
