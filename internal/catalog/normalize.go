package catalog

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/vrsandeep/anisync/internal/catalog/jikan"
	"github.com/vrsandeep/anisync/internal/catalog/mal"
	"github.com/vrsandeep/anisync/internal/models"
	"golang.org/x/net/html"
)

const (
	UnknownTitle = "Unknown Title"
	NoSynopsis   = "No synopsis available."
)

// FromJikan converts a Jikan record into an Anime.
func FromJikan(d jikan.AnimeData) models.Anime {
	english := deref(d.TitleEnglish)
	japanese := deref(d.TitleJapanese)
	for _, t := range d.Titles {
		switch {
		case english == "" && t.Type == "English":
			english = t.Title
		case japanese == "" && t.Type == "Japanese":
			japanese = t.Title
		}
	}

	a := models.Anime{
		ID:                d.MalID,
		Title:             pickTitle(d.Title, english),
		AlternativeTitles: altTitles(japanese, english),
		Image:             firstNonEmpty(d.Images.JPG.LargeImageURL, d.Images.JPG.ImageURL, d.Images.WebP.LargeImageURL, d.Images.WebP.ImageURL),
		Synopsis:          cleanSynopsis(deref(d.Synopsis)),
		Score:             d.Score,
		Year:              d.Year,
		Status:            d.Status,
		Episodes:          d.Episodes,
		AiringStart:       dateOnly(d.Aired.From),
		Genres:            names(d.Genres, d.ExplicitGenres, d.Themes),
		Studios:           names(d.Studios),
	}
	if d.Season != nil {
		if s, err := models.ParseSeason(*d.Season); err == nil {
			a.Season = s
		}
	}
	return a
}

// FromMAL converts a MyAnimeList record into an Anime.
func FromMAL(n mal.Node) models.Anime {
	var english, japanese string
	if n.AlternativeTitles != nil {
		english = n.AlternativeTitles.En
		japanese = n.AlternativeTitles.Ja
	}

	a := models.Anime{
		ID:                n.ID,
		Title:             pickTitle(n.Title, english),
		AlternativeTitles: altTitles(japanese, english),
		Synopsis:          cleanSynopsis(n.Synopsis),
		Score:             n.Mean,
		Status:            malStatus(n.Status),
		Episodes:          n.NumEpisodes,
		Genres:            []string{},
		Studios:           []string{},
	}
	if n.MainPicture != nil {
		a.Image = firstNonEmpty(n.MainPicture.Large, n.MainPicture.Medium)
	}
	if n.StartDate != "" {
		a.AiringStart = dateOnly(&n.StartDate)
	}
	if n.StartSeason != nil {
		if s, err := models.ParseSeason(n.StartSeason.Season); err == nil {
			a.Season = s
		}
		if n.StartSeason.Year > 0 {
			year := n.StartSeason.Year
			a.Year = &year
		}
	}
	for _, g := range n.Genres {
		a.Genres = append(a.Genres, g.Name)
	}
	for _, s := range n.Studios {
		a.Studios = append(a.Studios, s.Name)
	}
	return a
}

func pickTitle(title, english string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	if english != "" {
		return english
	}
	return UnknownTitle
}

func altTitles(japanese, english string) *models.AlternativeTitles {
	if japanese == "" && english == "" {
		return nil
	}
	return &models.AlternativeTitles{Japanese: japanese, English: english}
}

// cleanSynopsis strips markup and decodes entities.
func cleanSynopsis(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoSynopsis
	}
	if strings.ContainsAny(s, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil {
			doc.Find("br").Each(func(_ int, br *goquery.Selection) {
				br.ReplaceWithNodes(&html.Node{Type: html.TextNode, Data: "\n"})
			})
			s = strings.TrimSpace(doc.Text())
		}
	}
	if s == "" {
		return NoSynopsis
	}
	return s
}

// dateOnly reduces an RFC 3339 timestamp or a date to YYYY-MM-DD.
func dateOnly(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	var out string
	if t, err := time.Parse(time.RFC3339, *v); err == nil {
		out = t.Format("2006-01-02")
	} else if t, err := time.Parse("2006-01-02", *v); err == nil {
		out = t.Format("2006-01-02")
	} else if t, err := time.Parse("2006-01", *v); err == nil {
		out = t.Format("2006-01-02")
	} else {
		return nil
	}
	return &out
}

// names flattens resource lists into unique names, never nil.
func names(lists ...[]jikan.NamedResource) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, r := range list {
			if r.Name == "" || seen[r.Name] {
				continue
			}
			seen[r.Name] = true
			out = append(out, r.Name)
		}
	}
	return out
}

// malStatus turns "currently_airing" into "Currently Airing".
func malStatus(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
