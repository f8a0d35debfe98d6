package catalog

import (
	"time"

	"github.com/vrsandeep/anisync/internal/models"
)

// CurrentSeason maps the month of now to its broadcast season.
func CurrentSeason(now time.Time) (models.Season, int) {
	year := now.Year()
	switch now.Month() {
	case time.January, time.February, time.March:
		return models.Winter, year
	case time.April, time.May, time.June:
		return models.Spring, year
	case time.July, time.August, time.September:
		return models.Summer, year
	default:
		return models.Fall, year
	}
}

// NextSeason returns the season following season/year. Only fall rolls over
// into the next year.
func NextSeason(season models.Season, year int) (models.Season, int) {
	switch season {
	case models.Winter:
		return models.Spring, year
	case models.Spring:
		return models.Summer, year
	case models.Summer:
		return models.Fall, year
	default:
		return models.Winter, year + 1
	}
}
