package jikan

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/anisync/internal/models"
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/seasons/2024/winter", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{"pagination":{"last_visible_page":2,"has_next_page":true},"data":[{"mal_id":1,"title":"First"},{"mal_id":2,"title":"Second"}]}`)
		default:
			fmt.Fprint(w, `{"pagination":{"last_visible_page":2,"has_next_page":false},"data":[{"mal_id":2,"title":"Second"},{"mal_id":3,"title":"Third"}]}`)
		}
	})
	mux.HandleFunc("/seasons/2024/spring", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"pagination":{"has_next_page":false}}`)
	})
	mux.HandleFunc("/seasons/2024/summer", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})
	mux.HandleFunc("/anime/1/full", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"mal_id":1,"title":"First","score":8.5,"genres":[{"name":"Action"}]}}`)
	})
	mux.HandleFunc("/anime/2/full", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestSeasonAnimeFollowsPagination(t *testing.T) {
	server := setupTestServer(t)
	c := New(server.URL, MinInterval, 5)

	anime, err := c.SeasonAnime(context.Background(), models.Winter, 2024)
	require.NoError(t, err)
	require.Len(t, anime, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{anime[0].MalID, anime[1].MalID, anime[2].MalID})
}

func TestSeasonAnimeMissingData(t *testing.T) {
	server := setupTestServer(t)
	c := New(server.URL, MinInterval, 5)

	_, err := c.SeasonAnime(context.Background(), models.Spring, 2024)
	assert.True(t, errors.Is(err, ErrMissingData))
}

func TestSeasonAnimeNon2xx(t *testing.T) {
	server := setupTestServer(t)
	c := New(server.URL, MinInterval, 5)

	_, err := c.SeasonAnime(context.Background(), models.Summer, 2024)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestAnimeFull(t *testing.T) {
	server := setupTestServer(t)
	c := New(server.URL, MinInterval, 5)

	a, err := c.AnimeFull(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "First", a.Title)
	require.NotNil(t, a.Score)
	assert.Equal(t, 8.5, *a.Score)

	_, err = c.AnimeFull(context.Background(), 2)
	assert.True(t, errors.Is(err, ErrMissingData))
}

func TestRequestsAreSpaced(t *testing.T) {
	var mu sync.Mutex
	var stamps []time.Time
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		stamps = append(stamps, time.Now())
		mu.Unlock()
		fmt.Fprint(w, `{"data":{"mal_id":1,"title":"x"}}`)
	}))
	defer server.Close()

	c := New(server.URL, MinInterval, 1)
	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.AnimeFull(context.Background(), 1); err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Zero(t, failures.Load())
	require.Len(t, stamps, 3)

	// Allow some scheduling slack below the nominal interval.
	slack := 50 * time.Millisecond
	for i := 1; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1])
		assert.GreaterOrEqual(t, gap, MinInterval-slack, "gap %d too short: %v", i, gap)
	}
}

func TestIntervalIsClamped(t *testing.T) {
	c := New("", 100*time.Millisecond, 0)
	assert.Equal(t, MinInterval, c.Interval())
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, defaultMaxPages, c.maxPages)

	c.SetInterval(time.Second)
	assert.Equal(t, time.Second, c.Interval())
	c.SetInterval(0)
	assert.Equal(t, MinInterval, c.Interval())
}
