// This file defines the core data structures (models) for the catalog side of
// the application: anime records and the season catalogs that hold them.

package models

import (
	"fmt"
	"strings"
)

// Season is one of the four quarterly broadcast windows.
type Season string

const (
	Winter Season = "winter"
	Spring Season = "spring"
	Summer Season = "summer"
	Fall   Season = "fall"
)

// Seasons lists the seasons in calendar order.
var Seasons = []Season{Winter, Spring, Summer, Fall}

// ParseSeason validates a season name. It is case-insensitive.
func ParseSeason(s string) (Season, error) {
	season := Season(strings.ToLower(strings.TrimSpace(s)))
	switch season {
	case Winter, Spring, Summer, Fall:
		return season, nil
	}
	return "", fmt.Errorf("invalid season %q", s)
}

// AlternativeTitles holds the localized titles of an anime.
type AlternativeTitles struct {
	Japanese string `json:"japanese,omitempty"`
	English  string `json:"english,omitempty"`
}

// Anime represents one cataloged title.
type Anime struct {
	ID                int                `json:"id"`
	Title             string             `json:"title"`
	AlternativeTitles *AlternativeTitles `json:"alternative_titles,omitempty"`
	Image             string             `json:"image"`
	Synopsis          string             `json:"synopsis"`
	Score             *float64           `json:"score,omitempty"`
	Season            Season             `json:"season,omitempty"`
	Year              *int               `json:"year,omitempty"`
	Status            string             `json:"status"`
	Genres            []string           `json:"genres"`
	Studios           []string           `json:"studios,omitempty"`
	Episodes          *int               `json:"episodes,omitempty"`
	AiringStart       *string            `json:"airing_start,omitempty"` // YYYY-MM-DD

	// Derived flags. They are projections of the selection set and of the
	// series manager's library, never stored as truth.
	Selected bool `json:"selected"`
	InSonarr bool `json:"in_sonarr"`
}

// Titles returns the primary title followed by any non-empty alternative.
func (a *Anime) Titles() []string {
	titles := []string{a.Title}
	if a.AlternativeTitles != nil {
		if a.AlternativeTitles.English != "" {
			titles = append(titles, a.AlternativeTitles.English)
		}
		if a.AlternativeTitles.Japanese != "" {
			titles = append(titles, a.AlternativeTitles.Japanese)
		}
	}
	return titles
}

// SeasonCatalog is the list of titles for one season and year.
type SeasonCatalog struct {
	Season Season  `json:"season"`
	Year   int     `json:"year"`
	Anime  []Anime `json:"anime"`
}

// SeasonKey builds the cache key for a season, e.g. "winter-2024".
func SeasonKey(season Season, year int) string {
	return fmt.Sprintf("%s-%d", season, year)
}

// Key returns the cache key of the catalog.
func (c *SeasonCatalog) Key() string {
	return SeasonKey(c.Season, c.Year)
}

// Clone returns a deep enough copy of the catalog that the anime slice can
// be modified without touching the original.
func (c *SeasonCatalog) Clone() *SeasonCatalog {
	if c == nil {
		return nil
	}
	out := &SeasonCatalog{Season: c.Season, Year: c.Year}
	out.Anime = make([]Anime, len(c.Anime))
	copy(out.Anime, c.Anime)
	return out
}

// StripDerived clears the selected and in_sonarr flags on every record.
// Catalogs are stripped before they are written to the cache.
func (c *SeasonCatalog) StripDerived() {
	for i := range c.Anime {
		c.Anime[i].Selected = false
		c.Anime[i].InSonarr = false
	}
}
