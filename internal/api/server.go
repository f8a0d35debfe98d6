// It defines the API server, sets up the routes (endpoints)
// using chi, and links them to the handler functions.

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vrsandeep/anisync/internal/core"
)

// Server holds the dependencies for our API.
type Server struct {
	app *core.App
}

// NewServer creates a new Server instance.
func NewServer(app *core.App) *Server {
	return &Server{app: app}
}

// Router sets up and returns the main router for the application.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Logs requests to the console
	r.Use(middleware.Recoverer) // Recovers from panics
	r.Use(middleware.Timeout(120 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", s.handleGetVersion)
		r.Get("/health", s.handleHealth)
		r.Get("/state", s.handleGetState)

		// Season slots. Static segments win over {season}/{year}.
		r.Get("/seasons/current", s.handleGetSlot("current"))
		r.Get("/seasons/next", s.handleGetSlot("next"))
		r.Post("/seasons/current/load", s.handleLoadSlot("current"))
		r.Post("/seasons/next/load", s.handleLoadSlot("next"))
		r.Get("/seasons/{season}/{year}", s.handleLoadSeason)
		r.Get("/filters/options", s.handleGetFilterOptions)

		// Selection
		r.Get("/selection", s.handleGetSelectedIDs)
		r.Get("/selection/anime", s.handleGetSelectedAnime)
		r.Get("/selection/{animeID}", s.handleIsSelected)
		r.Post("/selection/{animeID}/toggle", s.handleToggleSelection)
		r.Post("/selection/{animeID}", s.handleAddToSelected)

		// Auto-selection rules
		r.Get("/rules", s.handleListRules)
		r.Post("/rules", s.handleCreateRule)
		r.Post("/rules/apply", s.handleApplyRules)
		r.Put("/rules/{ruleID}", s.handleUpdateRule)
		r.Delete("/rules/{ruleID}", s.handleDeleteRule)

		// Sonarr
		r.Get("/sonarr/config", s.handleGetSonarrConfig)
		r.Put("/sonarr/config", s.handleUpdateSonarrConfig)
		r.Post("/sonarr/test", s.handleTestSonarr)
		r.Put("/sonarr/root-folder", s.handleSetRootFolder)
		r.Post("/sonarr/push-all", s.handlePushAll)
		r.Post("/sonarr/push/{animeID}", s.handlePush)
		r.Get("/sonarr/pending", s.handleGetPending)

		// MyAnimeList account
		r.Get("/mal/config", s.handleGetMalConfig)
		r.Put("/mal/config", s.handleUpdateMalConfig)

		// Admin Job Triggers
		r.Route("/admin", func(r chi.Router) {
			r.Get("/jobs/status", s.handleGetAdminJobsStatus)
			r.Post("/jobs/run", s.handleRunAdminJob)
		})
	})

	// WebSocket route
	r.Get("/ws/notifications", func(w http.ResponseWriter, r *http.Request) {
		s.app.WsHub().ServeWs(w, r)
	})

	return r
}
