// Helper functions for sending standardized JSON responses.

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vrsandeep/anisync/internal/rules"
)

// RespondWithJSON writes a JSON response with the given status code and payload.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		// If marshaling fails, return an error response
		RespondWithError(w, http.StatusInternalServerError, "Failed to marshal response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// RespondWithError writes a standardized JSON error response.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithLoadError maps a catalog or rule failure to a status code. A bad
// rule pattern is the user's to fix; anything else is an upstream failure.
func respondWithLoadError(w http.ResponseWriter, err error) {
	var patternErr *rules.InvalidPatternError
	if errors.As(err, &patternErr) {
		RespondWithError(w, http.StatusUnprocessableEntity, patternErr.Error())
		return
	}
	RespondWithError(w, http.StatusBadGateway, err.Error())
}

func animeIDParam(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "animeID"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
