package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/claude/coachly/internal/ingest"
)

// Client sends sheets to the Coachly server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	userID     string
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the Coachly server. userID is sent
// as X-User-ID and only matters when the server runs without Tailscale.
func NewClient(serverURL, apiKey, userID string) *Client {
	return &Client{
		serverURL: serverURL,
		apiKey:    apiKey,
		userID:    userID,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: time.Second,
	}
}

// PermanentError is a rejection that retrying will not fix, such as a
// malformed sheet or a wrong API key.
type PermanentError struct {
	Status int
	Body   string
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("server rejected sheet (status %d): %s", e.Status, e.Body)
}

// SendSheet POSTs a sheet to the server's import endpoint and returns the
// import result. Retries up to 3 times with exponential backoff on network
// errors and server-side failures.
func (c *Client) SendSheet(ctx context.Context, filename string, data []byte, title string) (*ingest.Result, error) {
	q := url.Values{}
	q.Set("filename", filename)
	if title != "" {
		q.Set("title", title)
	}
	endpoint := c.serverURL + "/api/v1/sheets/import?" + q.Encode()

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff << uint(attempt-1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/octet-stream")
		req.Header.Set("X-API-Key", c.apiKey)
		if c.userID != "" {
			req.Header.Set("X-User-ID", c.userID)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
			var result ingest.Result
			if err := json.Unmarshal(body, &result); err != nil {
				return nil, fmt.Errorf("decoding import result: %w", err)
			}
			return &result, nil
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return nil, &PermanentError{Status: resp.StatusCode, Body: string(body)}
		}
		lastErr = fmt.Errorf("import failed (status %d): %s", resp.StatusCode, body)
	}

	return nil, fmt.Errorf("after 3 attempts: %w", lastErr)
}
