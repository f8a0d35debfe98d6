package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"version": s.app.Version})
}

func (s *Server) handleRunAdminJob(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	err := s.app.JobManager().RunJob(payload.JobID, s.app)
	if err != nil {
		RespondWithError(w, http.StatusConflict, err.Error()) // 409 Conflict if a job is already running
		return
	}

	RespondWithJSON(w, http.StatusAccepted, map[string]string{
		"message": "Job '" + payload.JobID + "' started successfully.",
	})
}

func (s *Server) handleGetAdminJobsStatus(w http.ResponseWriter, r *http.Request) {
	statuses := s.app.JobManager().GetStatus()
	RespondWithJSON(w, http.StatusOK, statuses)
}

// handleHealth reports the database state and the storage failover counters.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	repo := s.app.Repository()
	body := map[string]interface{}{
		"status":         "ok",
		"storage":        repo.Stats(),
		"jikan_interval": s.app.JikanInterval().String(),
		"clients":        s.app.WsHub().ClientCount(),
	}
	if err := repo.Ping(r.Context()); err != nil {
		body["status"] = "degraded"
		body["error"] = "Database connection failed"
		RespondWithJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	RespondWithJSON(w, http.StatusOK, body)
}
