package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/vrsandeep/anisync/internal/models"
	"github.com/vrsandeep/anisync/internal/sonarr"
)

type pushRequest struct {
	RootFolder string `json:"root_folder"`
}

// decodeOptional decodes a JSON body that may be absent.
func decodeOptional(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) handleGetSonarrConfig(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, s.app.Bridge().Config(r.Context()))
}

func (s *Server) handleUpdateSonarrConfig(w http.ResponseWriter, r *http.Request) {
	var cfg models.SonarrConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	bridge := s.app.Bridge()
	if err := bridge.SaveConfig(r.Context(), cfg); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to save Sonarr settings")
		return
	}
	RespondWithJSON(w, http.StatusOK, bridge.Config(r.Context()))
}

// handleTestSonarr probes the server. Fields missing from the body are taken
// from the stored settings.
func (s *Server) handleTestSonarr(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		URL    string `json:"url"`
		APIKey string `json:"api_key"`
	}
	if err := decodeOptional(r, &payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	bridge := s.app.Bridge()
	stored := bridge.Config(r.Context())
	if strings.TrimSpace(payload.URL) == "" {
		payload.URL = stored.URL
	}
	if payload.APIKey == "" {
		payload.APIKey = stored.APIKey
	}
	if strings.TrimSpace(payload.URL) == "" || payload.APIKey == "" {
		RespondWithError(w, http.StatusBadRequest, "Sonarr URL and API key are required")
		return
	}

	cfg, err := bridge.TestConnection(r.Context(), payload.URL, payload.APIKey)
	if err != nil {
		RespondWithError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.syncLibraryTitles(r)
	RespondWithJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleSetRootFolder(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	bridge := s.app.Bridge()
	if err := bridge.SetDefaultFolder(r.Context(), payload.Path); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	RespondWithJSON(w, http.StatusOK, bridge.Config(r.Context()))
}

// handlePush selects one anime and adds it to Sonarr.
func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	id, ok := animeIDParam(r)
	if !ok {
		RespondWithError(w, http.StatusBadRequest, "Invalid anime ID")
		return
	}
	var payload pushRequest
	if err := decodeOptional(r, &payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	bridge := s.app.Bridge()
	if bridge.IsPending(id) {
		RespondWithError(w, http.StatusConflict, "This anime is already being added to Sonarr")
		return
	}

	anime, found := s.app.Coordinator().FindAnime(id)
	if !found {
		// Records of an arbitrary season are not kept in the slots.
		fetched, err := s.app.Fetcher().FetchAnime(r.Context(), id)
		if err != nil {
			RespondWithError(w, http.StatusNotFound, fmt.Sprintf("Anime %d not found", id))
			return
		}
		anime = *fetched
	}

	// Adding a series to Sonarr implies selecting it.
	s.app.Coordinator().AddToSelected(id)

	err := bridge.Push(r.Context(), anime, payload.RootFolder)
	switch {
	case errors.Is(err, sonarr.ErrNotConnected):
		RespondWithError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, sonarr.ErrNoMatch):
		RespondWithError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		RespondWithError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.syncLibraryTitles(r)
	RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Added \"%s\" to Sonarr", anime.Title),
	})
}

// handlePushAll pushes every selected record of the loaded seasons. Items
// fail independently.
func (s *Server) handlePushAll(w http.ResponseWriter, r *http.Request) {
	var payload pushRequest
	if err := decodeOptional(r, &payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	bridge := s.app.Bridge()
	if !bridge.Config(r.Context()).Connected {
		RespondWithError(w, http.StatusConflict, sonarr.ErrNotConnected.Error())
		return
	}

	var todo []models.Anime
	for _, a := range s.app.Coordinator().GetSelected() {
		if a.InSonarr || bridge.IsPending(a.ID) {
			continue
		}
		todo = append(todo, a)
	}

	results := bridge.PushAll(r.Context(), todo, payload.RootFolder)
	if results == nil {
		results = []sonarr.PushResult{}
	}
	s.syncLibraryTitles(r)
	RespondWithJSON(w, http.StatusOK, results)
}

func (s *Server) handleGetPending(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string][]int{"pending": s.app.Bridge().Pending()})
}

// syncLibraryTitles refreshes the in-Sonarr flags after the library changed.
func (s *Server) syncLibraryTitles(r *http.Request) {
	titles, err := s.app.Bridge().ExistingTitles(r.Context())
	if err != nil {
		if !errors.Is(err, sonarr.ErrNotConnected) {
			log.Printf("API Error: failed to refresh Sonarr library: %v", err)
		}
		return
	}
	s.app.Coordinator().SetLibraryTitles(titles)
}
