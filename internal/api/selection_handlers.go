package api

import (
	"net/http"
)

func (s *Server) handleGetSelectedIDs(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string][]int{"selected_ids": s.app.Coordinator().SelectedIDs()})
}

// handleGetSelectedAnime lists the selected records of both loaded seasons.
func (s *Server) handleGetSelectedAnime(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, s.app.Coordinator().GetSelected())
}

func (s *Server) handleIsSelected(w http.ResponseWriter, r *http.Request) {
	id, ok := animeIDParam(r)
	if !ok {
		RespondWithError(w, http.StatusBadRequest, "Invalid anime ID")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"anime_id": id,
		"selected": s.app.Coordinator().IsSelected(id),
	})
}

func (s *Server) handleToggleSelection(w http.ResponseWriter, r *http.Request) {
	id, ok := animeIDParam(r)
	if !ok {
		RespondWithError(w, http.StatusBadRequest, "Invalid anime ID")
		return
	}
	selected := s.app.Coordinator().ToggleSelection(id)
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"anime_id": id,
		"selected": selected,
	})
}

func (s *Server) handleAddToSelected(w http.ResponseWriter, r *http.Request) {
	id, ok := animeIDParam(r)
	if !ok {
		RespondWithError(w, http.StatusBadRequest, "Invalid anime ID")
		return
	}
	s.app.Coordinator().AddToSelected(id)
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"anime_id": id,
		"selected": true,
	})
}
