package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vrsandeep/anisync/internal/coordinator"
	"github.com/vrsandeep/anisync/internal/filter"
	"github.com/vrsandeep/anisync/internal/models"
)

// seasonResponse is one season catalog as shown by the browse views. Total
// counts the records before filtering.
type seasonResponse struct {
	State  string         `json:"state,omitempty"`
	Season models.Season  `json:"season,omitempty"`
	Year   int            `json:"year,omitempty"`
	Total  int            `json:"total"`
	Anime  []models.Anime `json:"anime"`
}

func newSeasonResponse(state string, sc *models.SeasonCatalog, c filter.Criteria) seasonResponse {
	resp := seasonResponse{State: state, Anime: []models.Anime{}}
	if sc == nil {
		return resp
	}
	resp.Season = sc.Season
	resp.Year = sc.Year
	resp.Total = len(sc.Anime)
	resp.Anime = filter.Apply(sc.Anime, c)
	return resp
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, s.app.Coordinator().Snapshot())
}

func (s *Server) handleGetSlot(name string) http.HandlerFunc {
	slot, _ := coordinator.ParseSlot(name)
	return func(w http.ResponseWriter, r *http.Request) {
		c := s.app.Coordinator()
		var sc *models.SeasonCatalog
		if slot == coordinator.SlotNext {
			sc = c.Next()
		} else {
			sc = c.Current()
		}
		RespondWithJSON(w, http.StatusOK, newSeasonResponse(c.SlotState(slot), sc, filter.ParseQuery(r.URL.Query())))
	}
}

func (s *Server) handleLoadSlot(name string) http.HandlerFunc {
	slot, _ := coordinator.ParseSlot(name)
	return func(w http.ResponseWriter, r *http.Request) {
		c := s.app.Coordinator()
		if err := c.Load(r.Context(), slot); err != nil {
			respondWithLoadError(w, err)
			return
		}
		sc := c.Current()
		if slot == coordinator.SlotNext {
			sc = c.Next()
		}
		RespondWithJSON(w, http.StatusOK, newSeasonResponse(c.SlotState(slot), sc, filter.Criteria{}))
	}
}

// handleLoadSeason serves an arbitrary season without touching the slots.
func (s *Server) handleLoadSeason(w http.ResponseWriter, r *http.Request) {
	season, err := models.ParseSeason(chi.URLParam(r, "season"))
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1917 || year > 9999 {
		RespondWithError(w, http.StatusBadRequest, "Invalid year")
		return
	}

	sc, err := s.app.Coordinator().LoadSeason(r.Context(), season, year)
	if err != nil {
		respondWithLoadError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, newSeasonResponse(coordinator.StateReady, sc, filter.ParseQuery(r.URL.Query())))
}

func (s *Server) handleGetFilterOptions(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("slot")
	if name == "" {
		name = "current"
	}
	slot, err := coordinator.ParseSlot(name)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	c := s.app.Coordinator()
	sc := c.Current()
	if slot == coordinator.SlotNext {
		sc = c.Next()
	}
	var list []models.Anime
	if sc != nil {
		list = sc.Anime
	}
	RespondWithJSON(w, http.StatusOK, filter.BuildOptions(list))
}
