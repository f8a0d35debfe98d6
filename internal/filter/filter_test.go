package filter

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/anisync/internal/models"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func sampleList() []models.Anime {
	return []models.Anime{
		{ID: 1, Title: "A", Genres: []string{"Action", "Drama"}, Studios: []string{"MAPPA"}, Season: models.Winter, Year: intPtr(2025), Score: floatPtr(8.5)},
		{ID: 2, Title: "B", Genres: []string{"Comedy"}, Studios: []string{"Bones"}, Season: models.Spring, Year: intPtr(2025), Score: floatPtr(7)},
		{ID: 3, Title: "C", Genres: []string{"Action"}, Year: intPtr(2024)},
	}
}

func ids(list []models.Anime) []int {
	out := []int{}
	for _, a := range list {
		out = append(out, a.ID)
	}
	return out
}

func TestApply(t *testing.T) {
	testCases := []struct {
		name     string
		criteria Criteria
		want     []int
	}{
		{"empty matches all", Criteria{}, []int{1, 2, 3}},
		{"genre any-of", Criteria{Genres: []string{"drama", "comedy"}}, []int{1, 2}},
		{"season keeps records without season", Criteria{Seasons: []string{"winter"}}, []int{1, 3}},
		{"year", Criteria{Year: intPtr(2024)}, []int{3}},
		{"studio excludes records without studios", Criteria{Studios: []string{"mappa"}}, []int{1}},
		{"score excludes unscored", Criteria{ScoreAbove: floatPtr(7)}, []int{1, 2}},
		{"zero score threshold is no filter", Criteria{ScoreAbove: floatPtr(0)}, []int{1, 2, 3}},
		{"combined", Criteria{Genres: []string{"Action"}, ScoreAbove: floatPtr(8)}, []int{1}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(Apply(sampleList(), tc.criteria)))
		})
	}
}

func TestBuildOptions(t *testing.T) {
	opts := BuildOptions(sampleList())
	assert.Equal(t, []string{"Action", "Comedy", "Drama"}, opts.Genres)
	assert.Equal(t, []string{"winter", "spring"}, opts.Seasons)
	assert.Equal(t, []string{"Bones", "MAPPA"}, opts.Studios)
	assert.Equal(t, []int{2025, 2024}, opts.Years)

	empty := BuildOptions(nil)
	assert.NotNil(t, empty.Genres)
	assert.NotNil(t, empty.Years)
}

func TestParseQuery(t *testing.T) {
	q, err := url.ParseQuery("genre=Action,Drama&genre=Comedy&season=fall&year=2024&score_above=7.5&studio=MAPPA")
	require.NoError(t, err)

	c := ParseQuery(q)
	assert.Equal(t, []string{"Action", "Drama", "Comedy"}, c.Genres)
	assert.Equal(t, []string{"fall"}, c.Seasons)
	assert.Equal(t, []string{"MAPPA"}, c.Studios)
	require.NotNil(t, c.Year)
	assert.Equal(t, 2024, *c.Year)
	require.NotNil(t, c.ScoreAbove)
	assert.Equal(t, 7.5, *c.ScoreAbove)
	assert.False(t, c.Empty())

	c = ParseQuery(url.Values{"year": {"soon"}})
	assert.True(t, c.Empty())

	c = ParseQuery(url.Values{"score_above": {"0"}})
	assert.True(t, c.Empty())
	assert.Len(t, Apply(sampleList(), c), 3)
}
