// Shared test app and server setup, which simplifies the API and job tests.

package testutil

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/vrsandeep/anisync/internal/api"
	"github.com/vrsandeep/anisync/internal/config"
	"github.com/vrsandeep/anisync/internal/core"
	"github.com/vrsandeep/anisync/internal/flatstore"
)

// TestApp bundles a wired core.App with the fake remote APIs behind it.
type TestApp struct {
	*core.App
	Jikan  *JikanServer
	Sonarr *SonarrServer
}

// SetupTestApp builds a core.App on an in-memory database, an in-memory file
// fallback and fake Jikan and Sonarr servers.
func SetupTestApp(t *testing.T) *TestApp {
	t.Helper()

	jikanServer := NewJikanServer(t)
	sonarrServer := NewSonarrServer(t)

	cfg := &config.Config{}
	cfg.Jikan.BaseURL = jikanServer.URL
	cfg.Jikan.RequestIntervalMS = 400
	cfg.Jikan.MaxPages = 1
	cfg.Mal.BaseURL = "http://127.0.0.1:0"
	cfg.Sonarr.FallbackRootFolder = "/anime"

	fallback, err := flatstore.NewFileKV(afero.NewMemMapFs(), "/fallback")
	if err != nil {
		t.Fatalf("Failed to create fallback store: %v", err)
	}

	app := core.Build(cfg, SetupTestDB(t), fallback)
	app.Version = "test"
	t.Cleanup(app.Close)

	return &TestApp{App: app, Jikan: jikanServer, Sonarr: sonarrServer}
}

// SetupTestServer initializes a full test app and api.Server for integration testing.
func SetupTestServer(t *testing.T) (*api.Server, *TestApp) {
	t.Helper()
	app := SetupTestApp(t)
	return api.NewServer(app.App), app
}
