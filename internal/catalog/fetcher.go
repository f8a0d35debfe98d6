// Package catalog fetches season catalogs from the remote metadata APIs and
// normalizes them into anime records.
package catalog

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/vrsandeep/anisync/internal/catalog/jikan"
	"github.com/vrsandeep/anisync/internal/catalog/mal"
	"github.com/vrsandeep/anisync/internal/models"
)

// CatalogAPI is the primary metadata source.
type CatalogAPI interface {
	SeasonAnime(ctx context.Context, season models.Season, year int) ([]jikan.AnimeData, error)
	AnimeFull(ctx context.Context, id int) (*jikan.AnimeData, error)
}

// AccountAPI is the optional linked account that contributes extra records.
type AccountAPI interface {
	SeasonalAnime(ctx context.Context, clientID string, season models.Season, year int) ([]mal.Node, error)
	Verify(ctx context.Context, clientID string) error
}

// AccountSource reports whether the account is linked.
type AccountSource interface {
	MalConfig(ctx context.Context) models.MalConfig
}

type Fetcher struct {
	catalog  CatalogAPI
	account  AccountAPI
	accounts AccountSource
}

// NewFetcher creates a fetcher. account and accounts may be nil when no
// linked account is supported.
func NewFetcher(catalog CatalogAPI, account AccountAPI, accounts AccountSource) *Fetcher {
	return &Fetcher{catalog: catalog, account: account, accounts: accounts}
}

// FetchSeason fetches and normalizes one season, then appends the extra
// records of the linked account. A failing extra step only logs.
func (f *Fetcher) FetchSeason(ctx context.Context, season models.Season, year int) (*models.SeasonCatalog, error) {
	raw, err := f.catalog.SeasonAnime(ctx, season, year)
	if err != nil {
		return nil, fmt.Errorf("fetch %s %d: %w", season, year, err)
	}

	result := &models.SeasonCatalog{Season: season, Year: year, Anime: make([]models.Anime, 0, len(raw))}
	seen := make(map[int]bool, len(raw))
	for _, d := range raw {
		if seen[d.MalID] {
			continue
		}
		seen[d.MalID] = true
		result.Anime = append(result.Anime, inSeason(FromJikan(d), season, year))
	}

	extra, err := f.extraRecords(ctx, season, year)
	if err != nil {
		log.Printf("Catalog Error: extra records for %s %d: %v", season, year, err)
		return result, nil
	}
	for _, a := range extra {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		result.Anime = append(result.Anime, inSeason(a, season, year))
	}
	return result, nil
}

// extraRecords is a no-op unless the account is linked.
func (f *Fetcher) extraRecords(ctx context.Context, season models.Season, year int) ([]models.Anime, error) {
	if f.account == nil || f.accounts == nil {
		return nil, nil
	}
	cfg := f.accounts.MalConfig(ctx)
	if !cfg.Connected || cfg.ClientID == "" {
		return nil, nil
	}
	nodes, err := f.account.SeasonalAnime(ctx, cfg.ClientID, season, year)
	if err != nil {
		return nil, err
	}
	out := make([]models.Anime, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, FromMAL(n))
	}
	return out, nil
}

// FetchAnime fetches the detailed record of one anime.
func (f *Fetcher) FetchAnime(ctx context.Context, id int) (*models.Anime, error) {
	d, err := f.catalog.AnimeFull(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch anime %d: %w", id, err)
	}
	a := FromJikan(*d)
	return &a, nil
}

// TestAccount checks a client id against the account API.
func (f *Fetcher) TestAccount(ctx context.Context, clientID string) error {
	if f.account == nil {
		return fmt.Errorf("no account API configured")
	}
	if strings.TrimSpace(clientID) == "" {
		return fmt.Errorf("client id cannot be empty")
	}
	return f.account.Verify(ctx, clientID)
}

// inSeason fills a missing season or year with the listing's own.
func inSeason(a models.Anime, season models.Season, year int) models.Anime {
	if a.Season == "" {
		a.Season = season
	}
	if a.Year == nil {
		y := year
		a.Year = &y
	}
	return a
}
