package spotify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/justestif/go-image-to-song/internal/logging"
)

const (
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
	maxRetryAfter     = 10 * time.Second
)

// retryTransport retries requests that fail with a transport error, 429 or 5xx.
// Retry-After is honored up to maxRetryAfter.
type retryTransport struct {
	next       http.RoundTripper
	maxRetries int
	backoff    time.Duration
}

func newRetryTransport(next http.RoundTripper, maxRetries int, backoff time.Duration) *retryTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	return &retryTransport{next: next, maxRetries: maxRetries, backoff: backoff}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	getBody := req.GetBody
	consumed := false
	if req.Body != nil && req.Body != http.NoBody && getBody == nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("reading request body: %w", err)
		}
		_ = req.Body.Close()
		getBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		consumed = true
	}

	ctx := req.Context()
	for attempt := 0; ; attempt++ {
		attemptReq := req
		if getBody != nil && (attempt > 0 || consumed) {
			body, err := getBody()
			if err != nil {
				return nil, fmt.Errorf("resetting request body: %w", err)
			}
			attemptReq = req.Clone(ctx)
			attemptReq.Body = body
		}

		resp, err := t.next.RoundTrip(attemptReq)
		retryAfter, retry := shouldRetry(resp, err)
		if !retry || attempt == t.maxRetries-1 || ctx.Err() != nil {
			return resp, err
		}

		ev := logging.Ctx(ctx).Warn().
			Str("url", req.URL.Path).
			Int("attempt", attempt+1).
			Int("max_attempts", t.maxRetries)
		if err != nil {
			ev.Err(err).Msg("spotify request failed, retrying")
		} else {
			ev.Int("status", resp.StatusCode).Msg("spotify request failed, retrying")
			_ = resp.Body.Close()
		}

		delay := t.backoff * time.Duration(1<<attempt)
		if retryAfter > 0 {
			delay = min(retryAfter, maxRetryAfter)
		}
		if err := sleepWithContext(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func shouldRetry(resp *http.Response, err error) (time.Duration, bool) {
	if err != nil {
		return 0, true
	}
	if resp == nil {
		return 0, false
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return parseRetryAfter(resp), true
	}
	return 0, false
}

func parseRetryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(v); err == nil {
		if until := time.Until(when); until > 0 {
			return until
		}
	}
	return 0
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
