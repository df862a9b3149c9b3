package iss

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/moex-iss-data/internal/tabular"
)

// TransportError reports a failed HTTP exchange with the ISS API: either the
// request could not be completed at all, or the server answered with an
// error status.
type TransportError struct {
	StatusCode int // 0 when the exchange never completed
	Message    string
	Body       []byte
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("iss api unavailable: %s", e.Message)
	}
	return fmt.Sprintf("iss api error %d: %s", e.StatusCode, e.Message)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsRetryable returns true if the error should trigger a retry.
func (e *TransportError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// doRequest performs a single GET against the given absolute URL.
func (c *Client) doRequest(ctx context.Context, fullURL string, query url.Values) ([]byte, error) {
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestID := uuid.NewString()
	c.logger.Debug("iss request", "id", requestID, "url", fullURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Message: "read response", Err: err}
	}

	if resp.StatusCode >= 400 {
		c.logger.Debug("iss error response", "id", requestID, "status", resp.StatusCode)
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}

	return body, nil
}

// doWithRetry performs a request with exponential backoff retry.
func (c *Client) doWithRetry(ctx context.Context, fullURL string, query url.Values) ([]byte, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Jitter: backoff * (0.5 to 1.5)
			jitter := backoff/2 + time.Duration(rand.Int64N(int64(backoff)))
			c.logger.Debug("retrying request",
				"attempt", attempt,
				"backoff", jitter,
				"url", fullURL,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(jitter):
			}

			backoff *= 2
		}

		body, err := c.doRequest(ctx, fullURL, query)
		if err == nil {
			return body, nil
		}

		lastErr = err

		var te *TransportError
		if !errors.As(err, &te) || !te.IsRetryable() {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// Fetch requests a relative ISS path and parses the tabular response. The
// current language and metadata settings are threaded into the query.
func (c *Client) Fetch(ctx context.Context, relativePath string, params url.Values) (tabular.Document, error) {
	query := url.Values{}
	for k, vs := range params {
		query[k] = vs
	}
	query.Set("lang", c.lang)
	if !c.metadata {
		query.Set("iss.meta", "off")
	}

	body, err := c.doWithRetry(ctx, c.baseURL+relativePath+".json", query)
	if err != nil {
		return nil, err
	}
	c.counter.Add(1)

	doc, err := tabular.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", relativePath, err)
	}

	return doc, nil
}
