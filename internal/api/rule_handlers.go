package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vrsandeep/anisync/internal/models"
)

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, s.app.Repository().Rules(r.Context()))
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var rule models.AutoRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	rule.ID = ""

	saved, err := s.app.Repository().SaveRule(r.Context(), rule)
	if err != nil {
		respondWithRuleError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "ruleID")
	var rule models.AutoRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	rule.ID = ruleID

	repo := s.app.Repository()
	exists := false
	for _, existing := range repo.Rules(r.Context()) {
		if existing.ID == ruleID {
			exists = true
			break
		}
	}
	if !exists {
		RespondWithError(w, http.StatusNotFound, "Rule not found")
		return
	}

	saved, err := repo.SaveRule(r.Context(), rule)
	if err != nil {
		respondWithRuleError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	err := s.app.Repository().DeleteRule(r.Context(), chi.URLParam(r, "ruleID"))
	if errors.Is(err, models.ErrNotFound) {
		RespondWithError(w, http.StatusNotFound, "Rule not found")
		return
	}
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to delete rule")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Rule deleted"})
}

// handleApplyRules runs the rules over both loaded seasons now.
func (s *Server) handleApplyRules(w http.ResponseWriter, r *http.Request) {
	added, err := s.app.Coordinator().ApplyRulesNow(r.Context())
	if err != nil {
		respondWithLoadError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]int{"added": added})
}

func respondWithRuleError(w http.ResponseWriter, err error) {
	if errors.Is(err, models.ErrNoConditions) {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	RespondWithError(w, http.StatusInternalServerError, "Failed to save rule")
}
