// Package remote fetches a newline-delimited log export over HTTP.
package remote

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/crimson-sun/dropoff/internal/source"
)

const (
	maxRetries = 3
	maxLine    = 1 << 20
	maxBody    = 512 << 20
)

var errNoURL = errors.New("http source: url is required")

// ErrTooLarge is returned when a successful response body exceeds the
// configured size limit.
var ErrTooLarge = errors.New("export exceeds size limit")

func init() {
	source.Register("http", func() source.Source {
		return New()
	})
}

// APIError represents a non-2xx HTTP response.
type APIError struct {
	StatusCode int
	Body       string // first 512 bytes
	retryAfter string // Retry-After header value for 429s
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures a Source.
type Option func(*Source)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Source) { s.client.Timeout = d }
}

// WithBackoff sets the first retry delay; later retries double it.
func WithBackoff(d time.Duration) Option {
	return func(s *Source) { s.backoff = d }
}

// WithMaxBody caps the accepted response size in bytes. Default: 512 MiB.
func WithMaxBody(n int64) Option {
	return func(s *Source) { s.maxBody = n }
}

// Source GETs cfg.URL and splits the body into lines. Requests carry a
// Bearer token when cfg.Token is set.
type Source struct {
	client  *http.Client
	backoff time.Duration
	maxBody int64
}

// New creates an HTTP source with a 30s timeout and 1s base backoff.
func New(opts ...Option) *Source {
	s := &Source{
		client:  &http.Client{Timeout: 30 * time.Second},
		backoff: time.Second,
		maxBody: maxBody,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) Lines(ctx context.Context, cfg source.Config) ([]string, error) {
	if cfg.URL == "" {
		return nil, errNoURL
	}
	body, err := s.get(ctx, cfg.URL, cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("http source: %w", err)
	}

	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 64*1024), maxLine)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("http source: %w", err)
	}
	return lines, nil
}

// get retries on 429 (honoring Retry-After) and 5xx with exponential
// backoff, up to maxRetries times.
func (s *Source) get(ctx context.Context, url, token string) ([]byte, error) {
	var lastErr *APIError
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(s.delay(attempt, lastErr))
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			case <-t.C:
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		req.Header.Set("Accept", "text/plain")

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		// One byte past the limit tells a full body from an oversized one.
		body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody+1))
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if int64(len(body)) > s.maxBody {
				return nil, fmt.Errorf("%w of %d bytes", ErrTooLarge, s.maxBody)
			}
			return body, nil
		}

		if len(body) > 512 {
			body = body[:512]
		}
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(body)}
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			apiErr.retryAfter = resp.Header.Get("Retry-After")
			lastErr = apiErr
		case resp.StatusCode >= 500:
			lastErr = apiErr
		default:
			return nil, apiErr
		}
	}
	return nil, lastErr
}

func (s *Source) delay(attempt int, lastErr *APIError) time.Duration {
	if lastErr != nil && lastErr.StatusCode == http.StatusTooManyRequests && lastErr.retryAfter != "" {
		if secs, err := strconv.Atoi(lastErr.retryAfter); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return s.backoff << (attempt - 1)
}
