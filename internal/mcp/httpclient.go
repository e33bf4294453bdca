package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/coachly/internal/classify"
	"github.com/claude/coachly/internal/models"
	"github.com/claude/coachly/internal/storage"
)

// HTTPClient implements DataSource and classify.Classifier by calling the
// Coachly REST API. Used for remote MCP mode where the binary runs locally
// (stdio) but programs live on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time checks.
var (
	_ DataSource          = (*HTTPClient)(nil)
	_ classify.Classifier = (*HTTPClient)(nil)
)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

// do sends a request as ownerID and decodes a JSON response into out.
// The remote server ignores the owner header when it identifies callers
// through Tailscale.
func (c *HTTPClient) do(ctx context.Context, method, path, ownerID string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("httpclient: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ownerID != "" {
		req.Header.Set("X-User-ID", ownerID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("httpclient: %s: %w", path, storage.ErrNotFound)
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("httpclient: %s: %w", path, storage.ErrConflict)
	case resp.StatusCode >= 300:
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func programPath(id string) string {
	return "/api/v1/programs/" + url.PathEscape(id)
}

func (c *HTTPClient) GetProgram(ctx context.Context, ownerID, id string) (*models.Program, error) {
	var p models.Program
	if err := c.do(ctx, http.MethodGet, programPath(id), ownerID, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) ListPrograms(ctx context.Context, ownerID string) ([]storage.ProgramSummary, error) {
	var list []storage.ProgramSummary
	if err := c.do(ctx, http.MethodGet, "/api/v1/programs", ownerID, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// CreateProgram stores p remotely and updates it with the stored version.
func (c *HTTPClient) CreateProgram(ctx context.Context, p *models.Program) error {
	return c.do(ctx, http.MethodPost, "/api/v1/programs", p.OwnerID, p, p)
}

// ReplaceProgram overwrites p remotely and updates it with the new version.
func (c *HTTPClient) ReplaceProgram(ctx context.Context, p *models.Program) error {
	return c.do(ctx, http.MethodPut, programPath(p.ID), p.OwnerID, p, p)
}

type classifyBody struct {
	Names  []string `json:"names"`
	Format string   `json:"format,omitempty"`
}

// Classify asks the remote server to label names. Failures are reported
// as classify.ErrExternalService so enrichment treats them as best-effort.
func (c *HTTPClient) Classify(ctx context.Context, names []string) ([]classify.Label, error) {
	var labels []classify.Label
	if err := c.do(ctx, http.MethodPost, "/api/v1/exercises/classify", "", classifyBody{Names: names}, &labels); err != nil {
		return nil, &classify.ExternalServiceError{Op: "remote classify", Err: err}
	}
	return labels, nil
}

// ClassifyText asks the remote server for a prose classification.
func (c *HTTPClient) ClassifyText(ctx context.Context, names []string) (string, error) {
	var resp struct {
		Text string `json:"text"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/exercises/classify", "", classifyBody{Names: names, Format: "text"}, &resp); err != nil {
		return "", &classify.ExternalServiceError{Op: "remote classify", Err: err}
	}
	return resp.Text, nil
}
