package smoke

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrUnexpectedStatus is wrapped by APIError.
var ErrUnexpectedStatus = errors.New("unexpected status")

// APIError carries a non-success response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %d: %s: %s", ErrUnexpectedStatus, e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return ErrUnexpectedStatus }

// HTTPClient wraps http.Client with a base URL.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// NewHTTPClient creates a client; a nil hc uses a client with timeout.
func NewHTTPClient(baseURL string, timeout time.Duration, hc *http.Client) *HTTPClient {
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &HTTPClient{client: hc, baseURL: baseURL}
}

// Get performs a GET and decodes a JSON response into out.
func (c *HTTPClient) Get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

// Post performs a POST with a JSON body and decodes the response into out.
func (c *HTTPClient) Post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var er errorResponse
		if json.Unmarshal(body, &er) == nil {
			apiErr.Code, apiErr.Message = er.Error.Code, er.Error.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
