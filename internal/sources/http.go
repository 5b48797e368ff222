// Package sources provides the built-in fetch source implementations.
// Each source fetches data from one kind of external system and returns
// records; all correctness of the remote data is the remote system's
// responsibility.
package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/derpledex/databridge/internal/logger"
)

// Default configuration values
const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "databridge/1.0"
)

// Common error types for fetch sources
var (
	ErrNilConfig   = errors.New("source configuration is nil")
	ErrHTTPRequest = errors.New("http request failed")
)

// HTTPError represents an HTTP error with status code and context
type HTTPError struct {
	StatusCode int
	Status     string
	Endpoint   string
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error %d (%s) from %s: %s", e.StatusCode, e.Status, e.Endpoint, e.Message)
}

// newClient creates an HTTP client with the timeout from config,
// falling back to the package default.
func newClient(cfg map[string]interface{}) *http.Client {
	timeout := defaultTimeout
	if secs, ok := floatParam(cfg, "timeout"); ok && secs > 0 {
		timeout = time.Duration(secs * float64(time.Second))
	}
	return &http.Client{Timeout: timeout}
}

// doRequest executes an HTTP request and returns the raw response body.
// Status codes >= 400 are returned as *HTTPError with a body snippet.
func doRequest(ctx context.Context, client *http.Client, req *http.Request) ([]byte, error) {
	requestStart := time.Now()
	endpoint := req.URL.String()

	logger.Debug("http request started",
		"endpoint", endpoint,
		"method", req.Method,
	)

	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", defaultUserAgent)
	}

	resp, err := client.Do(req.WithContext(ctx))
	requestDuration := time.Since(requestStart)

	if err != nil {
		logger.Error("http request failed",
			"endpoint", endpoint,
			"method", req.Method,
			"duration", requestDuration,
			"error", err.Error(),
		)
		return nil, fmt.Errorf("%w: %w", ErrHTTPRequest, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Warn("failed to close response body",
				"endpoint", endpoint,
				"error", closeErr.Error(),
			)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("response body read failed",
			"endpoint", endpoint,
			"status_code", resp.StatusCode,
			"error", err.Error(),
		)
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		// Truncate response body for logging (max 500 chars)
		bodySnippet := string(body)
		if len(bodySnippet) > 500 {
			bodySnippet = bodySnippet[:500] + "..."
		}

		logger.Error("http error response",
			"endpoint", endpoint,
			"method", req.Method,
			"status_code", resp.StatusCode,
			"status", resp.Status,
			"duration", requestDuration,
			"response_body", bodySnippet,
		)

		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Endpoint:   endpoint,
			Message:    bodySnippet,
		}
	}

	logger.Debug("http request completed",
		"endpoint", endpoint,
		"status_code", resp.StatusCode,
		"duration", requestDuration,
		"body_bytes", len(body),
	)

	return body, nil
}

// doGet executes an HTTP GET request against the endpoint.
func doGet(ctx context.Context, client *http.Client, endpoint string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating http request: %w", err)
	}
	return doRequest(ctx, client, req)
}
