package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimitedClient is an http.Client that spends at most requestsPerMinute
// and retries 429 and 5xx replies with exponential backoff.
type RateLimitedClient struct {
	client     *http.Client
	limiter    *tokenBucket
	maxRetries int
	baseDelay  time.Duration
}

// tokenBucket refills one token every interval up to burst tokens.
type tokenBucket struct {
	mu       sync.Mutex
	tokens   int
	burst    int
	interval time.Duration
	last     time.Time
}

func newTokenBucket(requestsPerMinute int) *tokenBucket {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	// Burst of ten seconds' worth of requests
	burst := max(requestsPerMinute/6, 1)
	return &tokenBucket{
		tokens:   burst,
		burst:    burst,
		interval: time.Minute / time.Duration(requestsPerMinute),
		last:     time.Now(),
	}
}

// take blocks until a token is available or ctx is done.
func (b *tokenBucket) take(ctx context.Context) error {
	for {
		delay := b.reserve()
		if delay == 0 {
			return nil
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// reserve consumes a token and returns 0, or returns how long until the next
// token is due.
func (b *tokenBucket) reserve() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if n := int(now.Sub(b.last) / b.interval); n > 0 {
		b.tokens = min(b.tokens+n, b.burst)
		b.last = b.last.Add(time.Duration(n) * b.interval)
	}
	if b.tokens > 0 {
		b.tokens--
		return 0
	}
	return b.interval - now.Sub(b.last)
}

// NewRateLimitedClient creates a client limited to requestsPerMinute.
func NewRateLimitedClient(requestsPerMinute int, timeout time.Duration, maxRetries int) *RateLimitedClient {
	return &RateLimitedClient{
		client:     &http.Client{Timeout: timeout},
		limiter:    newTokenBucket(requestsPerMinute),
		maxRetries: maxRetries,
		baseDelay:  100 * time.Millisecond,
	}
}

// Do sends req, retrying rate-limited and server-error replies. Retries stop
// as soon as the request context is done.
func (c *RateLimitedClient) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, c.backoff(attempt, lastErr)); err != nil {
				return nil, err
			}
		}
		if err := c.limiter.take(ctx); err != nil {
			return nil, err
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		if !retryable(resp.StatusCode) {
			return resp, nil
		}
		resp.Body.Close()
		lastErr = &statusError{code: resp.StatusCode, retryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}

	return nil, fmt.Errorf("giving up after %d attempts: %w", c.maxRetries+1, lastErr)
}

// Get performs a rate-limited GET and returns the body of a 200 reply.
func (c *RateLimitedClient) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode, body: string(body)}
	}
	return body, nil
}

// backoff doubles the base delay per attempt. A 429 waits a second per step,
// or the server's Retry-After when given.
func (c *RateLimitedClient) backoff(attempt int, lastErr error) time.Duration {
	step := c.baseDelay
	var se *statusError
	if errors.As(lastErr, &se) && se.code == http.StatusTooManyRequests {
		if se.retryAfter > 0 {
			return se.retryAfter
		}
		step = time.Second
	}
	return step << (attempt - 1)
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

type statusError struct {
	code       int
	body       string
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	if e.body != "" {
		return fmt.Sprintf("unexpected status %d: %s", e.code, e.body)
	}
	return fmt.Sprintf("unexpected status %d", e.code)
}

// parseRetryAfter reads the delay-seconds form of Retry-After.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
