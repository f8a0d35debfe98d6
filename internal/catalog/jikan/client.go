// Package jikan is a client for the Jikan v4 API, the unofficial
// MyAnimeList REST API.
package jikan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vrsandeep/anisync/internal/models"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.jikan.moe/v4"

	// MinInterval is the smallest spacing allowed between two requests.
	// Jikan rejects clients that go faster.
	MinInterval = 400 * time.Millisecond

	defaultMaxPages = 10
)

// ErrMissingData is returned when a response carries no data payload.
var ErrMissingData = errors.New("jikan: response has no data")

// Client serializes every request through one limiter, so concurrent callers
// still see at least the configured interval between requests.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	maxPages    int
}

// New creates a client. An interval below MinInterval is raised to it and a
// non-positive maxPages uses the default page cap.
func New(baseURL string, interval time.Duration, maxPages int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if interval < MinInterval {
		interval = MinInterval
	}
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	return &Client{
		httpClient:  &http.Client{Timeout: 20 * time.Second},
		baseURL:     baseURL,
		rateLimiter: rate.NewLimiter(rate.Every(interval), 1),
		maxPages:    maxPages,
	}
}

// SetInterval changes the request spacing at runtime.
func (c *Client) SetInterval(interval time.Duration) {
	if interval < MinInterval {
		interval = MinInterval
	}
	c.rateLimiter.SetLimit(rate.Every(interval))
}

// Interval returns the current request spacing.
func (c *Client) Interval() time.Duration {
	return time.Duration(float64(time.Second) / float64(c.rateLimiter.Limit()))
}

// SeasonAnime lists the anime of a season, following pagination up to the
// page cap. Records repeated across pages are dropped.
func (c *Client) SeasonAnime(ctx context.Context, season models.Season, year int) ([]AnimeData, error) {
	var all []AnimeData
	seen := make(map[int]bool)

	for page := 1; page <= c.maxPages; page++ {
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))

		var resp SeasonResponse
		if err := c.get(ctx, fmt.Sprintf("/seasons/%d/%s", year, season), query, &resp); err != nil {
			return nil, err
		}
		if resp.Data == nil {
			return nil, ErrMissingData
		}
		for _, a := range resp.Data {
			if seen[a.MalID] {
				continue
			}
			seen[a.MalID] = true
			all = append(all, a)
		}
		if !resp.Pagination.HasNextPage {
			break
		}
	}
	if all == nil {
		all = []AnimeData{}
	}
	return all, nil
}

// AnimeFull fetches the detailed record of one anime.
func (c *Client) AnimeFull(ctx context.Context, id int) (*AnimeData, error) {
	var resp AnimeResponse
	if err := c.get(ctx, fmt.Sprintf("/anime/%d/full", id), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, ErrMissingData
	}
	return resp.Data, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, v interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("jikan request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("jikan request %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding jikan response: %w", err)
	}
	return nil
}
