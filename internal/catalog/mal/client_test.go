package mal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/anisync/internal/models"
)

func TestSeasonalAnime(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-MAL-CLIENT-ID") != "client-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "/anime/season/2024/fall", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `{"data":[{"node":{"id":10,"title":"Extra","mean":7.2,"genres":[{"id":1,"name":"Action"}],"start_season":{"year":2024,"season":"fall"}}}],"paging":{}}`)
	}))
	defer server.Close()

	c := New(server.URL)
	nodes, err := c.SeasonalAnime(context.Background(), "client-1", models.Fall, 2024)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, 10, nodes[0].ID)
	assert.Equal(t, "Action", nodes[0].Genres[0].Name)

	_, err = c.SeasonalAnime(context.Background(), "wrong", models.Fall, 2024)
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-MAL-CLIENT-ID") != "good" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, `{"id":1}`)
	}))
	defer server.Close()

	c := New(server.URL)
	assert.NoError(t, c.Verify(context.Background(), "good"))
	assert.Error(t, c.Verify(context.Background(), "bad"))
}
