package jobsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"sync/atomic"
	"time"

	"github.com/garnizeh/jobtrail/pkg/repository"
)

var ErrCircuitOpen = errors.New("jobs api circuit open")

// StatusError is a non-2xx response other than 404.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s returned status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Temporary reports whether retrying may help.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// Client talks to the job store REST API and adds retries, per-request
// timeouts and a circuit breaker.
type Client struct {
	cfg    Config
	base   *url.URL
	client *http.Client

	// simple circuit breaker state
	failures  int32
	openUntil int64 // unix nano
	closed    int32 // atomic flag for Close()
}

var _ repository.JobStore = (*Client)(nil)

// NewClient creates a client for cfg. A nil httpClient gets one with
// cfg.Timeout as its overall timeout.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	u, err := url.ParseRequestURI(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	c := &Client{
		cfg:    cfg,
		base:   u,
		client: httpClient,
	}
	logger.Info("jobsapi: NewClient created", slog.String("base_url", cfg.BaseURL), slog.Duration("timeout", cfg.Timeout))
	return c, nil
}

func NewDefaultClient(cfg Config) (*Client, error) {
	defaultClient := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 15 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          20,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	return NewClient(cfg, defaultClient)
}

func (c *Client) isCircuitOpen() bool {
	if c.cfg.CircuitFailureThreshold <= 0 || atomic.LoadInt32(&c.failures) < int32(c.cfg.CircuitFailureThreshold) {
		return false
	}

	if time.Now().UnixNano() < atomic.LoadInt64(&c.openUntil) {
		return true
	}

	// attempt half-open: reset failures and allow a request
	atomic.StoreInt32(&c.failures, 0)
	return false
}

func (c *Client) recordFailure() {
	v := atomic.AddInt32(&c.failures, 1)
	if c.cfg.CircuitFailureThreshold > 0 && v >= int32(c.cfg.CircuitFailureThreshold) {
		atomic.StoreInt64(&c.openUntil, time.Now().Add(c.cfg.CircuitReset).UnixNano())
	}
}

func (c *Client) recordSuccess() {
	atomic.StoreInt32(&c.failures, 0)
}

// Close releases idle connections of the underlying transport. It is
// idempotent and safe to call multiple times.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	if c.client != nil && c.client.Transport != nil {
		if tr, ok := c.client.Transport.(interface{ CloseIdleConnections() }); ok {
			tr.CloseIdleConnections()
			logger.Debug("jobsapi: idle connections closed")
		}
	}
	return nil
}

// package-level logger for pkg/jobsapi; can be replaced by callers
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger sets the logger used by pkg/jobsapi. Passing nil is a no-op.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, nil, nil, "health"); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// idempotent requests are retried; POST is sent exactly once.
func idempotent(method string) bool {
	return method != http.MethodPost
}

// retryable covers network errors, per-request timeouts and temporary statuses.
// A caller's expired deadline is caught by the backoff sleep.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, repository.ErrNotFound) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}

// do sends one logical request with retries. in is JSON-encoded when non-nil
// and out is decoded from the response when non-nil.
func (c *Client) do(ctx context.Context, method string, in, out any, segments ...string) error {
	if c.isCircuitOpen() {
		return ErrCircuitOpen
	}
	if err := checkToken(c.cfg.Token, time.Now()); err != nil {
		return err
	}

	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	u := c.base.JoinPath(segments...)
	attempts := 1
	if idempotent(method) && c.cfg.Retries > 0 {
		attempts += c.cfg.Retries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		start := time.Now()
		err := c.once(ctx, method, u, payload, out)
		if err == nil {
			c.recordSuccess()
			logger.Debug("jobsapi: request ok", slog.String("method", method), slog.String("path", u.Path), slog.Duration("latency", time.Since(start)))
			return nil
		}
		if !retryable(err) {
			// the server answered; only transport trouble counts against the circuit
			var se *StatusError
			if errors.Is(err, repository.ErrNotFound) || errors.As(err, &se) {
				c.recordSuccess()
			}
			return err
		}

		lastErr = err
		c.recordFailure()
		logger.Warn("jobsapi: request failed", slog.String("method", method), slog.String("path", u.Path), slog.Int("attempt", attempt+1), slog.Any("err", err))

		if attempt == attempts-1 {
			break
		}
		if err := sleep(ctx, c.cfg.Backoff*time.Duration(attempt+1)); err != nil {
			return err
		}
		if c.isCircuitOpen() {
			return ErrCircuitOpen
		}
	}

	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("%s %s failed after %d attempts: %w", method, u.Path, attempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) once(ctx context.Context, method string, u *url.URL, payload []byte, out any) error {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s %s: %w", method, u.Path, repository.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Method: method, Path: u.Path, Code: resp.StatusCode, Body: string(bytes.TrimSpace(b))}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, u.Path, err)
	}
	return nil
}
