package caption

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/justestif/go-image-to-song/internal/breaker"
	"github.com/justestif/go-image-to-song/internal/logging"
)

const userAgent = "image-to-song/1.0"

var (
	// ErrModelUnavailable is returned when the model is still loading or
	// rate limited after retries.
	ErrModelUnavailable = errors.New("caption model unavailable")

	// ErrUnauthorized is returned when the API token is rejected.
	ErrUnauthorized = errors.New("caption API token rejected")

	// ErrEmptyCaption is returned when the model produced no text.
	ErrEmptyCaption = errors.New("empty caption")
)

// captionResponse is one element of the inference API response.
type captionResponse struct {
	GeneratedText string `json:"generated_text"`
}

// apiError is the inference API error body.
type apiError struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

// Client calls a hosted image-captioning model.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	delays     []time.Duration
	cb         *gobreaker.CircuitBreaker[string]
}

var _ Captioner = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetryDelays sets the waits between attempts. The number of delays is
// the number of retries.
func WithRetryDelays(delays ...time.Duration) ClientOption {
	return func(c *Client) {
		c.delays = delays
	}
}

// WithBreakerSettings replaces the default circuit breaker settings.
func WithBreakerSettings(s breaker.Settings) ClientOption {
	return func(c *Client) {
		c.cb = breaker.New[string]("caption", s)
	}
}

// NewClient creates a captioning client for an inference endpoint.
// The token may be empty for endpoints that need none.
func NewClient(endpoint, token string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: endpoint,
		token:    token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		delays: []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cb == nil {
		c.cb = breaker.New[string]("caption", breaker.DefaultSettings())
	}
	return c
}

// Caption sends the image to the model and returns its description.
// Retries while the model is loading or rate limited.
func (c *Client) Caption(ctx context.Context, img []byte, contentType string) (string, error) {
	return c.cb.Execute(func() (string, error) {
		return c.captionWithRetry(ctx, img, contentType)
	})
}

func (c *Client) captionWithRetry(ctx context.Context, img []byte, contentType string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= len(c.delays); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.delays[attempt-1]):
			}
		}

		text, err := c.doSingleRequest(ctx, img, contentType)
		if err == nil {
			return text, nil
		}
		if !errors.Is(err, ErrModelUnavailable) {
			return "", err
		}

		lastErr = err
		logging.Ctx(ctx).Debug().Err(err).Int("attempt", attempt+1).Msg("caption model unavailable")
	}

	return "", lastErr
}

func (c *Client) doSingleRequest(ctx context.Context, img []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(img))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", contentType)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable, resp.StatusCode == http.StatusTooManyRequests:
		var apiErr apiError
		_ = json.Unmarshal(body, &apiErr)
		return "", fmt.Errorf("%w: status %d %s", ErrModelUnavailable, resp.StatusCode, apiErr.Error)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return "", ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("caption API status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var out []captionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("parsing caption response: %w", err)
	}
	if len(out) == 0 || strings.TrimSpace(out[0].GeneratedText) == "" {
		return "", ErrEmptyCaption
	}
	return strings.TrimSpace(out[0].GeneratedText), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Ready returns an error while the circuit breaker is open.
func (c *Client) Ready(context.Context) error {
	if c.cb.State() == gobreaker.StateOpen {
		return gobreaker.ErrOpenState
	}
	return nil
}
