package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/vrsandeep/anisync/internal/catalog/jikan"
	"github.com/vrsandeep/anisync/internal/models"
	"github.com/vrsandeep/anisync/internal/sonarr"
)

func ptr[T any](v T) *T { return &v }

// SampleAnime is served by the fake Jikan server for every season that has no
// fixture of its own.
func SampleAnime() []jikan.AnimeData {
	return []jikan.AnimeData{
		{
			MalID:        101,
			Title:        "Sousou no Frieren",
			TitleEnglish: ptr("Frieren: Beyond Journey's End"),
			Status:       "Currently Airing",
			Score:        ptr(9.1),
			Episodes:     ptr(28),
			Synopsis:     ptr("An elf mage outlives her party."),
			Genres:       []jikan.NamedResource{{Name: "Adventure"}, {Name: "Fantasy"}},
			Studios:      []jikan.NamedResource{{Name: "Madhouse"}},
		},
		{
			MalID:    102,
			Title:    "Dungeon Meshi",
			Status:   "Currently Airing",
			Score:    ptr(8.6),
			Synopsis: ptr("Adventurers cook the monsters they slay."),
			Genres:   []jikan.NamedResource{{Name: "Comedy"}, {Name: "Fantasy"}},
			Studios:  []jikan.NamedResource{{Name: "Trigger"}},
		},
		{
			MalID:   103,
			Title:   "Kaiju No. 8",
			Status:  "Not yet aired",
			Genres:  []jikan.NamedResource{{Name: "Action"}},
			Studios: []jikan.NamedResource{{Name: "Production I.G"}},
		},
	}
}

// JikanServer is a fake Jikan v4 API.
type JikanServer struct {
	*httptest.Server

	mu       sync.Mutex
	seasons  map[string][]jikan.AnimeData
	failing  bool
	requests int
}

// NewJikanServer starts a fake Jikan API that serves SampleAnime for every
// season. Use SetSeason to override one season.
func NewJikanServer(t *testing.T) *JikanServer {
	t.Helper()
	js := &JikanServer{seasons: make(map[string][]jikan.AnimeData)}

	r := chi.NewRouter()
	r.Get("/seasons/{year}/{season}", func(w http.ResponseWriter, r *http.Request) {
		year, _ := strconv.Atoi(chi.URLParam(r, "year"))
		season, err := models.ParseSeason(chi.URLParam(r, "season"))
		if err != nil {
			http.Error(w, "bad season", http.StatusBadRequest)
			return
		}
		data, ok := js.season(models.SeasonKey(season, year))
		if !ok {
			http.Error(w, "upstream failure", http.StatusInternalServerError)
			return
		}
		writeJSON(w, jikan.SeasonResponse{Data: data})
	})
	r.Get("/anime/{id}/full", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(chi.URLParam(r, "id"))
		js.mu.Lock()
		js.requests++
		js.mu.Unlock()
		for _, a := range SampleAnime() {
			if a.MalID == id {
				writeJSON(w, jikan.AnimeResponse{Data: &a})
				return
			}
		}
		http.Error(w, "not found", http.StatusNotFound)
	})

	js.Server = httptest.NewServer(r)
	t.Cleanup(js.Close)
	return js
}

func (js *JikanServer) season(key string) ([]jikan.AnimeData, bool) {
	js.mu.Lock()
	defer js.mu.Unlock()
	js.requests++
	if js.failing {
		return nil, false
	}
	if data, ok := js.seasons[key]; ok {
		return data, true
	}
	return SampleAnime(), true
}

// SetSeason replaces the records served for one season.
func (js *JikanServer) SetSeason(season models.Season, year int, data []jikan.AnimeData) {
	js.mu.Lock()
	defer js.mu.Unlock()
	js.seasons[models.SeasonKey(season, year)] = data
}

// SetFailing makes every season request return a server error.
func (js *JikanServer) SetFailing(failing bool) {
	js.mu.Lock()
	defer js.mu.Unlock()
	js.failing = failing
}

// Requests returns the number of requests served.
func (js *JikanServer) Requests() int {
	js.mu.Lock()
	defer js.mu.Unlock()
	return js.requests
}

// SonarrServer is a fake Sonarr v3 API. Lookups return one series titled
// after the search term.
type SonarrServer struct {
	*httptest.Server
	APIKey string

	mu    sync.Mutex
	added []sonarr.AddSeriesRequest
}

func NewSonarrServer(t *testing.T) *SonarrServer {
	t.Helper()
	ss := &SonarrServer{APIKey: "test-api-key"}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Api-Key") != ss.APIKey {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Get("/api/v3/system/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, sonarr.SystemStatus{AppName: "Sonarr", Version: "4.0.5.1710"})
	})
	r.Get("/api/v3/rootfolder", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []sonarr.RootFolder{{ID: 1, Path: "/tv/anime", Accessible: true}})
	})
	r.Get("/api/v3/series/lookup", func(w http.ResponseWriter, r *http.Request) {
		term := r.URL.Query().Get("term")
		writeJSON(w, []sonarr.Series{{Title: term, TvdbID: len(term) + 1000, TitleSlug: "slug-" + strconv.Itoa(len(term))}})
	})
	r.Get("/api/v3/series", func(w http.ResponseWriter, r *http.Request) {
		ss.mu.Lock()
		defer ss.mu.Unlock()
		series := make([]sonarr.Series, 0, len(ss.added))
		for i, a := range ss.added {
			series = append(series, sonarr.Series{ID: i + 1, Title: a.Title, TvdbID: a.TvdbID, TitleSlug: a.TitleSlug})
		}
		writeJSON(w, series)
	})
	r.Post("/api/v3/series", func(w http.ResponseWriter, r *http.Request) {
		var req sonarr.AddSeriesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		ss.mu.Lock()
		ss.added = append(ss.added, req)
		id := len(ss.added)
		ss.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, sonarr.Series{ID: id, Title: req.Title, TvdbID: req.TvdbID, TitleSlug: req.TitleSlug})
	})

	ss.Server = httptest.NewServer(r)
	t.Cleanup(ss.Close)
	return ss
}

// Added returns the add-series requests received so far.
func (ss *SonarrServer) Added() []sonarr.AddSeriesRequest {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return append([]sonarr.AddSeriesRequest{}, ss.added...)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	json.NewEncoder(w).Encode(v)
}
