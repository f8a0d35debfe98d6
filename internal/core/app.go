package core

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/spf13/afero"
	"github.com/vrsandeep/anisync/internal/assets"
	"github.com/vrsandeep/anisync/internal/catalog"
	"github.com/vrsandeep/anisync/internal/catalog/jikan"
	"github.com/vrsandeep/anisync/internal/catalog/mal"
	"github.com/vrsandeep/anisync/internal/config"
	"github.com/vrsandeep/anisync/internal/coordinator"
	"github.com/vrsandeep/anisync/internal/db"
	"github.com/vrsandeep/anisync/internal/flatstore"
	"github.com/vrsandeep/anisync/internal/jobs"
	"github.com/vrsandeep/anisync/internal/repository"
	"github.com/vrsandeep/anisync/internal/rules"
	"github.com/vrsandeep/anisync/internal/sonarr"
	"github.com/vrsandeep/anisync/internal/store"
	"github.com/vrsandeep/anisync/internal/websocket"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

// App holds the core components of the application that are shared
// between the server, the jobs and the CLI.
type App struct {
	config      *config.Config
	db          *sql.DB
	fallback    flatstore.KV
	repo        *repository.Repository
	jikan       *jikan.Client
	fetcher     *catalog.Fetcher
	coordinator *coordinator.Coordinator
	bridge      *sonarr.Bridge
	wsHub       *websocket.Hub
	jobManager  *jobs.JobManager
	Version     string
}

// New sets up and returns a new App instance. It handles loading the
// configuration, initializing the database connection, and running migrations.
func New() (*App, error) {
	// Load configuration from config.yml
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig opens the storage described by cfg and builds the App.
func NewWithConfig(cfg *config.Config) (*App, error) {
	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.RunMigrations(database, assets.MigrationsFS); err != nil {
		// We can't proceed without a valid database schema.
		database.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	fallback, err := OpenFallback(cfg.Fallback)
	if err != nil {
		database.Close()
		return nil, err
	}

	app := Build(cfg, database, fallback)
	log.Println("Core application setup complete.")
	return app, nil
}

// OpenFallback opens the flat store named by cfg.Driver.
func OpenFallback(cfg config.FallbackConfig) (flatstore.KV, error) {
	switch cfg.Driver {
	case "", "file":
		kv, err := flatstore.NewFileKV(afero.NewOsFs(), cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file fallback: %w", err)
		}
		return kv, nil
	case "redis":
		kv, err := flatstore.NewRedisKV(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open redis fallback: %w", err)
		}
		return kv, nil
	default:
		return nil, fmt.Errorf("unknown fallback driver %q", cfg.Driver)
	}
}

// Build wires the components on top of already opened storage. The App owns
// database and fallback from here on.
func Build(cfg *config.Config, database *sql.DB, fallback flatstore.KV) *App {
	app := &App{
		config:   cfg,
		db:       database,
		fallback: fallback,
		Version:  Version,
	}

	var fallbackBackend repository.Backend
	if fallback != nil {
		fallbackBackend = flatstore.New(fallback)
	}
	app.repo = repository.New(store.New(database), fallbackBackend)

	app.wsHub = websocket.NewHub()
	go app.wsHub.Run()

	app.jikan = jikan.New(cfg.Jikan.BaseURL, cfg.Jikan.RequestInterval(), cfg.Jikan.MaxPages)
	app.fetcher = catalog.NewFetcher(app.jikan, mal.New(cfg.Mal.BaseURL), app.repo)

	app.coordinator = coordinator.New(context.Background(), app.fetcher, app.repo, rules.NewEngine(app.repo),
		coordinator.WithNotifier(app.wsHub))
	app.bridge = sonarr.NewBridge(app.repo, app.wsHub, cfg.Sonarr.FallbackRootFolder)

	app.jobManager = jobs.NewManager(app)
	jobs.RegisterDefaultJobs(app.jobManager)

	return app
}

// WatchConfig applies config file changes that are safe to take at runtime.
func (a *App) WatchConfig() {
	a.config.Watch(func(updated *config.Config) {
		interval := updated.Jikan.RequestInterval()
		if interval != a.jikan.Interval() {
			a.jikan.SetInterval(interval)
			log.Printf("Jikan request interval set to %v", interval)
		}
	})
}

func (a *App) Config() *config.Config                { return a.config }
func (a *App) DB() *sql.DB                           { return a.db }
func (a *App) Repository() *repository.Repository    { return a.repo }
func (a *App) Fetcher() *catalog.Fetcher             { return a.fetcher }
func (a *App) Coordinator() *coordinator.Coordinator { return a.coordinator }
func (a *App) Bridge() *sonarr.Bridge                { return a.bridge }
func (a *App) WsHub() *websocket.Hub                 { return a.wsHub }
func (a *App) JobManager() *jobs.JobManager          { return a.jobManager }
func (a *App) JikanInterval() time.Duration          { return a.jikan.Interval() }

// Close gracefully closes the application's resources.
func (a *App) Close() {
	if a.coordinator != nil {
		a.coordinator.Close()
	}
	if a.fallback != nil {
		if err := a.fallback.Close(); err != nil {
			log.Printf("Core Error: failed to close fallback store: %v", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
