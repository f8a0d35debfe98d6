// Package sonarr talks to a Sonarr v3 server and implements the push
// workflow that adds selected anime to it.
package sonarr

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

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("sonarr %s %s: status %d: %s", e.Method, e.Endpoint, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("sonarr %s %s: status %d", e.Method, e.Endpoint, e.StatusCode)
}

// Client handles API interactions with Sonarr.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

func (c *Client) SystemStatus(ctx context.Context) (*SystemStatus, error) {
	var status SystemStatus
	if err := c.do(ctx, http.MethodGet, "/api/v3/system/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) RootFolders(ctx context.Context) ([]RootFolder, error) {
	var folders []RootFolder
	if err := c.do(ctx, http.MethodGet, "/api/v3/rootfolder", nil, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// Lookup searches series by title.
func (c *Client) Lookup(ctx context.Context, term string) ([]Series, error) {
	var series []Series
	endpoint := "/api/v3/series/lookup?term=" + url.QueryEscape(term)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &series); err != nil {
		return nil, err
	}
	return series, nil
}

// Series lists the series already in the library.
func (c *Client) Series(ctx context.Context) ([]Series, error) {
	var series []Series
	if err := c.do(ctx, http.MethodGet, "/api/v3/series", nil, &series); err != nil {
		return nil, err
	}
	return series, nil
}

func (c *Client) AddSeries(ctx context.Context, req AddSeriesRequest) (*Series, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var added Series
	if err := c.do(ctx, http.MethodPost, "/api/v3/series", bytes.NewReader(body), &added); err != nil {
		return nil, err
	}
	return &added, nil
}

// do performs an authenticated request and decodes the JSON response into v.
func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sonarr %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, Endpoint: endpoint, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
