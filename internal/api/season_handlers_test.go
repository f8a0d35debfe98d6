package api_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/anisync/internal/coordinator"
	"github.com/vrsandeep/anisync/internal/filter"
	"github.com/vrsandeep/anisync/internal/models"
	"github.com/vrsandeep/anisync/internal/testutil"
)

type seasonBody struct {
	State  string         `json:"state"`
	Season string         `json:"season"`
	Year   int            `json:"year"`
	Total  int            `json:"total"`
	Anime  []models.Anime `json:"anime"`
}

func TestSeasonHandlers(t *testing.T) {
	server, app := testutil.SetupTestServer(t)
	router := server.Router()

	t.Run("Empty slot", func(t *testing.T) {
		rr := doRequest(t, router, "GET", "/api/seasons/current", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var body seasonBody
		decodeBody(t, rr, &body)
		assert.Equal(t, coordinator.StateEmpty, body.State)
		assert.Empty(t, body.Anime)
	})

	t.Run("Load current", func(t *testing.T) {
		rr := doRequest(t, router, "POST", "/api/seasons/current/load", nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var body seasonBody
		decodeBody(t, rr, &body)
		assert.Equal(t, coordinator.StateReady, body.State)
		assert.Len(t, body.Anime, 3)
		assert.NotEmpty(t, body.Season)
	})

	t.Run("Filter current", func(t *testing.T) {
		rr := doRequest(t, router, "GET", "/api/seasons/current?genre=fantasy&score_above=9", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var body seasonBody
		decodeBody(t, rr, &body)
		assert.Equal(t, 3, body.Total)
		require.Len(t, body.Anime, 1)
		assert.Equal(t, 101, body.Anime[0].ID)
	})

	t.Run("Filter options", func(t *testing.T) {
		rr := doRequest(t, router, "GET", "/api/filters/options?slot=current", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var opts filter.Options
		decodeBody(t, rr, &opts)
		assert.Equal(t, []string{"Action", "Adventure", "Comedy", "Fantasy"}, opts.Genres)
		assert.Equal(t, []string{"Madhouse", "Production I.G", "Trigger"}, opts.Studios)

		rr = doRequest(t, router, "GET", "/api/filters/options?slot=later", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("State", func(t *testing.T) {
		rr := doRequest(t, router, "GET", "/api/state", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var snap coordinator.Snapshot
		decodeBody(t, rr, &snap)
		require.NotNil(t, snap.Current)
		assert.Nil(t, snap.Next)
		assert.False(t, snap.Loading)
	})

	t.Run("Arbitrary season", func(t *testing.T) {
		rr := doRequest(t, router, "GET", "/api/seasons/summer/2019", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var body seasonBody
		decodeBody(t, rr, &body)
		assert.Equal(t, "summer", body.Season)
		assert.Equal(t, 2019, body.Year)
		assert.Len(t, body.Anime, 3)
		// The slots are not touched.
		assert.Nil(t, app.Coordinator().Next())
	})

	t.Run("Arbitrary season bad input", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, doRequest(t, router, "GET", "/api/seasons/monsoon/2019", nil).Code)
		assert.Equal(t, http.StatusBadRequest, doRequest(t, router, "GET", "/api/seasons/summer/abc", nil).Code)
	})
}

func TestLoadSlotUpstreamFailure(t *testing.T) {
	server, app := testutil.SetupTestServer(t)
	router := server.Router()
	app.Jikan.SetFailing(true)

	rr := doRequest(t, router, "POST", "/api/seasons/next/load", nil)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, coordinator.StateEmpty, app.Coordinator().SlotState(coordinator.SlotNext))
}

func TestLoadSlotInvalidRulePattern(t *testing.T) {
	server, app := testutil.SetupTestServer(t)
	router := server.Router()

	_, err := app.Repository().SaveRule(context.Background(), models.AutoRule{
		Name:    "Broken",
		Enabled: true,
		Conditions: []models.RuleCondition{
			{Field: models.FieldTitle, Operator: models.OpMatches, Value: models.StringValue("([")},
		},
	})
	require.NoError(t, err)

	rr := doRequest(t, router, "POST", "/api/seasons/current/load", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = doRequest(t, router, "POST", "/api/rules/apply", nil)
	assert.Equal(t, http.StatusOK, rr.Code, "no slot is loaded, so no rule runs")
}
