// Package filter narrows anime lists by the browse criteria and lists the
// values those criteria can take.
package filter

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/vrsandeep/anisync/internal/models"
)

// Criteria selects records. Zero values match everything.
type Criteria struct {
	Genres     []string `json:"genres,omitempty"`
	Seasons    []string `json:"seasons,omitempty"`
	Year       *int     `json:"year,omitempty"`
	Studios    []string `json:"studios,omitempty"`
	ScoreAbove *float64 `json:"score_above,omitempty"`
}

// Empty reports whether the criteria match everything.
func (c Criteria) Empty() bool {
	return len(c.Genres) == 0 && len(c.Seasons) == 0 && c.Year == nil && len(c.Studios) == 0 && !c.filtersScore()
}

// A zero threshold means no score filter.
func (c Criteria) filtersScore() bool {
	return c.ScoreAbove != nil && *c.ScoreAbove != 0
}

// Options are the distinct values present in a list.
type Options struct {
	Genres  []string `json:"genres"`
	Seasons []string `json:"seasons"`
	Studios []string `json:"studios"`
	Years   []int    `json:"years"`
}

// Apply returns the records matching every criterion, in input order.
func Apply(list []models.Anime, c Criteria) []models.Anime {
	out := make([]models.Anime, 0, len(list))
	for _, a := range list {
		if matches(&a, c) {
			out = append(out, a)
		}
	}
	return out
}

func matches(a *models.Anime, c Criteria) bool {
	if len(c.Genres) > 0 && !anyOf(a.Genres, c.Genres) {
		return false
	}
	// Records without a season are not excluded by a season filter.
	if len(c.Seasons) > 0 && a.Season != "" && !anyOf([]string{string(a.Season)}, c.Seasons) {
		return false
	}
	if c.Year != nil && (a.Year == nil || *a.Year != *c.Year) {
		return false
	}
	if len(c.Studios) > 0 && !anyOf(a.Studios, c.Studios) {
		return false
	}
	if c.filtersScore() && (a.Score == nil || *a.Score < *c.ScoreAbove) {
		return false
	}
	return true
}

func anyOf(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

// BuildOptions collects the naturally sorted distinct genres, seasons and studios of
// list, and its years newest first.
func BuildOptions(list []models.Anime) Options {
	genres := make(map[string]bool)
	seasons := make(map[string]bool)
	studios := make(map[string]bool)
	years := make(map[int]bool)
	for _, a := range list {
		for _, g := range a.Genres {
			genres[g] = true
		}
		for _, s := range a.Studios {
			studios[s] = true
		}
		if a.Season != "" {
			seasons[string(a.Season)] = true
		}
		if a.Year != nil {
			years[*a.Year] = true
		}
	}

	opts := Options{
		Genres:  sortedKeys(genres),
		Studios: sortedKeys(studios),
		Seasons: []string{},
		Years:   make([]int, 0, len(years)),
	}
	for _, s := range models.Seasons {
		if seasons[string(s)] {
			opts.Seasons = append(opts.Seasons, string(s))
		}
	}
	for y := range years {
		opts.Years = append(opts.Years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(opts.Years)))
	return opts
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sort.SliceStable(keys, func(i, j int) bool { return NaturalLess(keys[i], keys[j]) })
	return keys
}

// ParseQuery reads criteria from query parameters. Lists may repeat the
// parameter or use commas: ?genre=Action&genre=Drama or ?genre=Action,Drama.
// Unparsable numbers are ignored.
func ParseQuery(q url.Values) Criteria {
	c := Criteria{
		Genres:  list(q, "genre"),
		Seasons: list(q, "season"),
		Studios: list(q, "studio"),
	}
	if v := q.Get("year"); v != "" {
		if year, err := strconv.Atoi(v); err == nil {
			c.Year = &year
		}
	}
	if v := q.Get("score_above"); v != "" {
		if score, err := strconv.ParseFloat(v, 64); err == nil {
			c.ScoreAbove = &score
		}
	}
	return c
}

func list(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
