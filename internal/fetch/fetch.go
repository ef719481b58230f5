// Package fetch provides the outbound HTTP capability used for feed retrieval
// and full-story resolution.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FetchError indicates that a remote retrieval did not complete: connection
// failure, timeout, or a non-2xx response. It is retrievable — callers isolate
// it per feed and try again on the next render.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: HTTP %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client issues outbound GETs with a bounded timeout and redirect depth.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient creates a fetch client. A zero timeout defaults to 15 seconds.
func NewClient(timeout time.Duration, userAgent string) *Client {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		userAgent: userAgent,
		http: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Get issues a single GET and returns the response body. The connection is
// released on every exit path; failures come back as *FetchError.
func (c *Client) Get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	return string(body), nil
}
