package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vrsandeep/anisync/internal/models"
)

func (s *Server) handleGetMalConfig(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, s.app.Repository().MalConfig(r.Context()))
}

// handleUpdateMalConfig links or unlinks the MyAnimeList account. A client id
// is only stored as connected after the API accepted it.
func (s *Server) handleUpdateMalConfig(w http.ResponseWriter, r *http.Request) {
	var payload models.MalConfig
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	cfg := models.MalConfig{ClientID: strings.TrimSpace(payload.ClientID)}
	var testErr error
	if cfg.ClientID != "" {
		testErr = s.app.Fetcher().TestAccount(r.Context(), cfg.ClientID)
		cfg.Connected = testErr == nil
	}

	if err := s.app.Repository().SaveMalConfig(r.Context(), cfg); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to save MyAnimeList settings")
		return
	}
	if testErr != nil {
		RespondWithError(w, http.StatusBadGateway, "MyAnimeList rejected the client id: "+testErr.Error())
		return
	}
	RespondWithJSON(w, http.StatusOK, cfg)
}
