// Package sfcgal is a thin client for the remote geometry-processing
// endpoint.
package sfcgal

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
)

// Status is the availability report of the processing endpoint.
type Status struct {
	Available  bool     `json:"available"`
	Operations []string `json:"operations"`
}

type processRequest struct {
	Operation string                 `json:"operation"`
	GeoJSON   json.RawMessage        `json:"geojson"`
	Params    map[string]interface{} `json:"params,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client talks to one processing endpoint.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) endpoint() (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", c.BaseURL, err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/sfcgal"
	return u.String(), nil
}

// Fetch the endpoint status. A transport failure is an error; an
// unavailable backend is a valid answer.
func (c *Client) Fetch(ctx context.Context) (*Status, error) {
	endpoint, err := c.endpoint()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query processing endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("processing endpoint returned status %d", resp.StatusCode)
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode endpoint status: %w", err)
	}
	return &status, nil
}

// Process runs one operation over the GeoJSON payload and returns the
// processed GeoJSON bytes. Non-2xx responses and malformed bodies are
// failures.
func (c *Client) Process(ctx context.Context, operation string, geojsonData []byte, params map[string]interface{}) ([]byte, error) {
	endpoint, err := c.endpoint()
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(processRequest{
		Operation: operation,
		GeoJSON:   geojsonData,
		Params:    params,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("run %q: %w", operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %q response: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("%s failed: %s", operation, e.Error)
		}
		return nil, fmt.Errorf("%s failed with status %d", operation, resp.StatusCode)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("%s returned malformed JSON", operation)
	}
	return data, nil
}
