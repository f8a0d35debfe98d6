// Package mal is a minimal client for the official MyAnimeList v2 API,
// authenticated with an application client id.
package mal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/vrsandeep/anisync/internal/models"
)

const DefaultBaseURL = "https://api.myanimelist.net/v2"

const seasonFields = "id,title,main_picture,alternative_titles,synopsis,mean,genres,studios,num_episodes,start_date,status,start_season"

type Picture struct {
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

type AlternativeTitles struct {
	Synonyms []string `json:"synonyms"`
	En       string   `json:"en"`
	Ja       string   `json:"ja"`
}

type Named struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type StartSeason struct {
	Year   int    `json:"year"`
	Season string `json:"season"`
}

// Node is one anime record of the MAL API.
type Node struct {
	ID                int                `json:"id"`
	Title             string             `json:"title"`
	MainPicture       *Picture           `json:"main_picture"`
	AlternativeTitles *AlternativeTitles `json:"alternative_titles"`
	Synopsis          string             `json:"synopsis"`
	Mean              *float64           `json:"mean"`
	Genres            []Named            `json:"genres"`
	Studios           []Named            `json:"studios"`
	NumEpisodes       *int               `json:"num_episodes"`
	StartDate         string             `json:"start_date"`
	Status            string             `json:"status"`
	StartSeason       *StartSeason       `json:"start_season"`
}

type seasonResponse struct {
	Data []struct {
		Node Node `json:"node"`
	} `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		baseURL:    baseURL,
	}
}

// SeasonalAnime returns the first page (up to 100 records) of the seasonal
// listing visible to clientID.
func (c *Client) SeasonalAnime(ctx context.Context, clientID string, season models.Season, year int) ([]Node, error) {
	query := url.Values{}
	query.Set("limit", "100")
	query.Set("fields", seasonFields)

	var resp seasonResponse
	if err := c.get(ctx, clientID, fmt.Sprintf("/anime/season/%d/%s", year, season), query, &resp); err != nil {
		return nil, err
	}
	nodes := make([]Node, 0, len(resp.Data))
	for _, d := range resp.Data {
		nodes = append(nodes, d.Node)
	}
	return nodes, nil
}

// Verify checks that clientID is accepted by the API.
func (c *Client) Verify(ctx context.Context, clientID string) error {
	query := url.Values{}
	query.Set("fields", "id")
	var node Node
	return c.get(ctx, clientID, "/anime/1", query, &node)
}

func (c *Client) get(ctx context.Context, clientID, path string, query url.Values, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.URL.RawQuery = query.Encode()
	req.Header.Set("X-MAL-CLIENT-ID", clientID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mal request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mal request %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding mal response: %w", err)
	}
	return nil
}
