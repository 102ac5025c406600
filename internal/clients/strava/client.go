// Package strava provides an authenticated, rate-limited client for the
// Strava API v3.
package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/stravamark/stravamark/internal/common"
)

const (
	DefaultBaseURL   = "https://www.strava.com/api/v3"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 2 // requests per second, client-side courtesy pacing

	maxRetries         = 3
	timeoutRetryDelay  = 5 * time.Second
	rateLimitBaseDelay = 60 * time.Second
)

// Sentinel errors classifying request failures.
var (
	// ErrNotAuthenticated indicates no usable token was available.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrAuthenticationFailed indicates the server rejected the token (401).
	// The caller is expected to have refreshed beforehand, so this means
	// revocation rather than staleness.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrRateLimited indicates 429 responses persisted through all retries.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrForbidden indicates insufficient API permissions (403).
	ErrForbidden = errors.New("access forbidden")

	// ErrNotFound indicates the resource does not exist (404).
	ErrNotFound = errors.New("not found")

	// ErrTimeout indicates transport timeouts persisted through all retries.
	ErrTimeout = errors.New("request timed out")
)

// TokenProvider supplies a usable bearer token for each request.
type TokenProvider interface {
	// EnsureValid refreshes the token if needed and reports whether a
	// usable token is available. It makes no network call when the token
	// is fresh.
	EnsureValid(ctx context.Context) bool

	// AccessToken returns the current access token.
	AccessToken() string
}

// APIError is a classified Strava API failure.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string

	kind error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Strava API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Unwrap exposes the sentinel classification for errors.Is.
func (e *APIError) Unwrap() error {
	return e.kind
}

// Client is a Strava API client with retry, backoff, and rate limit tracking.
type Client struct {
	baseURL    string
	tokens     TokenProvider
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	rateLimits RateLimitInfo

	// sleep is swapped out by tests to observe backoff delays.
	sleep func(time.Duration)
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the client-side pacing limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Strava client
func NewClient(tokens TokenProvider, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:     common.NewSilentLogger(),
		rateLimits: defaultRateLimitInfo(),
		sleep:      time.Sleep,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// RateLimits returns the most recently reported rate limit state.
func (c *Client) RateLimits() RateLimitInfo {
	return c.rateLimits
}

// RateLimitStatus returns a human-readable rate limit summary.
func (c *Client) RateLimitStatus() string {
	return c.rateLimits.String()
}

// execute issues one API call with the bearer token, retrying on 429 with
// exponential backoff (60·2^n seconds) and on transport timeout with a fixed
// delay, each up to maxRetries. All retries block the calling goroutine.
func (c *Client) execute(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	if !c.tokens.EnsureValid(ctx) {
		return nil, fmt.Errorf("%w: run 'stravamark auth' first", ErrNotAuthenticated)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	for attempt := 0; ; {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.tokens.AccessToken())

		c.logger.Debug().Str("method", method).Str("path", path).Int("attempt", attempt+1).Msg("Strava API request")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if isTimeout(err) {
				if attempt < maxRetries {
					c.logger.Warn().Str("path", path).Int("attempt", attempt+1).Msg("Request timed out, retrying")
					c.sleep(timeoutRetryDelay)
					attempt++
					continue
				}
				return nil, &APIError{Message: "request timed out", Endpoint: path, kind: ErrTimeout}
			}
			return nil, fmt.Errorf("request failed: %w", err)
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		// Header state is authoritative; malformed headers leave the
		// previous values in place.
		c.rateLimits.update(resp.Header)

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			if attempt < maxRetries {
				wait := rateLimitBaseDelay * (1 << attempt)
				c.logger.Warn().Str("path", path).Dur("wait", wait).Msg("Rate limited, backing off")
				c.sleep(wait)
				attempt++
				continue
			}
			return nil, &APIError{StatusCode: resp.StatusCode, Message: "rate limit exceeded, try again later", Endpoint: path, kind: ErrRateLimited}

		case resp.StatusCode == http.StatusUnauthorized:
			return nil, &APIError{StatusCode: resp.StatusCode, Message: "authentication failed, run 'stravamark auth'", Endpoint: path, kind: ErrAuthenticationFailed}

		case resp.StatusCode == http.StatusForbidden:
			return nil, &APIError{StatusCode: resp.StatusCode, Message: "access forbidden, check API permissions", Endpoint: path, kind: ErrForbidden}

		case resp.StatusCode == http.StatusNotFound:
			return nil, &APIError{StatusCode: resp.StatusCode, Message: "resource not found", Endpoint: path, kind: ErrNotFound}

		case resp.StatusCode >= 200 && resp.StatusCode <= 299:
			if readErr != nil {
				return nil, fmt.Errorf("failed to read response: %w", readErr)
			}
			return body, nil

		default:
			return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body)), Endpoint: path}
		}
	}
}

// getJSON executes a GET and decodes the body into result.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, result any) error {
	body, err := c.execute(ctx, http.MethodGet, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// isTimeout reports whether a transport error is a timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
