package api_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/anisync/internal/models"
	"github.com/vrsandeep/anisync/internal/testutil"
)

type selectionBody struct {
	AnimeID  int  `json:"anime_id"`
	Selected bool `json:"selected"`
}

func TestSelectionHandlers(t *testing.T) {
	server, app := testutil.SetupTestServer(t)
	router := server.Router()
	require.NoError(t, app.Coordinator().LoadCurrentSeason(context.Background()))

	t.Run("Toggle twice", func(t *testing.T) {
		var body selectionBody
		rr := doRequest(t, router, "POST", "/api/selection/101/toggle", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		decodeBody(t, rr, &body)
		assert.True(t, body.Selected)

		rr = doRequest(t, router, "POST", "/api/selection/101/toggle", nil)
		decodeBody(t, rr, &body)
		assert.False(t, body.Selected)
		assert.Empty(t, app.Repository().SelectedIDs(context.Background()))
	})

	t.Run("Add is idempotent", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			rr := doRequest(t, router, "POST", "/api/selection/102", nil)
			require.Equal(t, http.StatusOK, rr.Code)
		}
		assert.Equal(t, []int{102}, app.Repository().SelectedIDs(context.Background()))
	})

	t.Run("Get one", func(t *testing.T) {
		var body selectionBody
		rr := doRequest(t, router, "GET", "/api/selection/102", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		decodeBody(t, rr, &body)
		assert.Equal(t, 102, body.AnimeID)
		assert.True(t, body.Selected)
	})

	t.Run("List ids and anime", func(t *testing.T) {
		// Selected but not part of a loaded season.
		doRequest(t, router, "POST", "/api/selection/999", nil)

		var ids map[string][]int
		decodeBody(t, doRequest(t, router, "GET", "/api/selection", nil), &ids)
		assert.Equal(t, []int{102, 999}, ids["selected_ids"])

		var anime []models.Anime
		decodeBody(t, doRequest(t, router, "GET", "/api/selection/anime", nil), &anime)
		require.Len(t, anime, 1)
		assert.Equal(t, 102, anime[0].ID)
		assert.True(t, anime[0].Selected)
	})

	t.Run("Invalid id", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, doRequest(t, router, "POST", "/api/selection/abc/toggle", nil).Code)
		assert.Equal(t, http.StatusBadRequest, doRequest(t, router, "GET", "/api/selection/-4", nil).Code)
	})
}
