package sonarr

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/vrsandeep/anisync/internal/models"
)

var (
	ErrNotConnected = errors.New("sonarr is not connected")
	ErrNoMatch      = errors.New("no matching series found in sonarr")
)

// DefaultRootFolder is used when neither the call nor the configuration
// names a destination.
const DefaultRootFolder = "/anime"

const defaultQualityProfile = 1

var minVersion = semver.MustParse("3.0.0")

// API is the subset of the Sonarr API the bridge uses.
type API interface {
	SystemStatus(ctx context.Context) (*SystemStatus, error)
	RootFolders(ctx context.Context) ([]RootFolder, error)
	Lookup(ctx context.Context, term string) ([]Series, error)
	Series(ctx context.Context) ([]Series, error)
	AddSeries(ctx context.Context, req AddSeriesRequest) (*Series, error)
}

// ConfigStore persists the connection settings.
type ConfigStore interface {
	SonarrConfig(ctx context.Context) models.SonarrConfig
	SaveSonarrConfig(ctx context.Context, cfg models.SonarrConfig) error
}

type Notifier interface {
	Notify(kind, message string)
}

// PushResult is the outcome of one item of a batch push.
type PushResult struct {
	AnimeID int    `json:"anime_id"`
	Title   string `json:"title"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Bridge pushes anime to Sonarr and tracks the pushes in flight.
type Bridge struct {
	store          ConfigStore
	notifier       Notifier
	fallbackFolder string
	newAPI         func(baseURL, apiKey string) API

	mu      sync.Mutex
	pending map[int]bool
}

// NewBridge creates a bridge. An empty fallbackFolder uses DefaultRootFolder.
func NewBridge(store ConfigStore, notifier Notifier, fallbackFolder string) *Bridge {
	if fallbackFolder == "" {
		fallbackFolder = DefaultRootFolder
	}
	return &Bridge{
		store:          store,
		notifier:       notifier,
		fallbackFolder: fallbackFolder,
		newAPI:         func(baseURL, apiKey string) API { return NewClient(baseURL, apiKey) },
		pending:        make(map[int]bool),
	}
}

func (b *Bridge) notify(kind, message string) {
	if b.notifier != nil {
		b.notifier.Notify(kind, message)
	}
}

// Config returns the stored settings.
func (b *Bridge) Config(ctx context.Context) models.SonarrConfig {
	return b.store.SonarrConfig(ctx)
}

// SaveConfig stores new connection settings. The connection must be tested
// again before pushes are allowed.
func (b *Bridge) SaveConfig(ctx context.Context, cfg models.SonarrConfig) error {
	cfg.URL = strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	cfg.Connected = false
	return b.store.SaveSonarrConfig(ctx, cfg)
}

// TestConnection probes the server. On success the settings are saved as
// connected together with the server's root folders; on failure nothing is
// saved.
func (b *Bridge) TestConnection(ctx context.Context, baseURL, apiKey string) (models.SonarrConfig, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" || apiKey == "" {
		return models.SonarrConfig{}, fmt.Errorf("url and api key are required")
	}
	api := b.newAPI(baseURL, apiKey)

	status, err := api.SystemStatus(ctx)
	if err != nil {
		b.notify(models.NotifyError, "Failed to connect to Sonarr")
		return models.SonarrConfig{}, err
	}
	if err := checkVersion(status.Version); err != nil {
		b.notify(models.NotifyError, err.Error())
		return models.SonarrConfig{}, err
	}

	folders, err := api.RootFolders(ctx)
	if err != nil {
		b.notify(models.NotifyError, "Failed to load Sonarr root folders")
		return models.SonarrConfig{}, err
	}

	prev := b.store.SonarrConfig(ctx)
	cfg := models.SonarrConfig{
		URL:         baseURL,
		APIKey:      apiKey,
		Connected:   true,
		RootFolders: make([]models.RootFolder, 0, len(folders)),
	}
	for _, f := range folders {
		cfg.RootFolders = append(cfg.RootFolders, models.RootFolder{
			ID: f.ID, Path: f.Path, Accessible: f.Accessible, FreeSpace: f.FreeSpace, TotalSpace: f.TotalSpace,
		})
		if f.Path == prev.DefaultRootFolder {
			cfg.DefaultRootFolder = f.Path
		}
	}
	if cfg.DefaultRootFolder == "" && len(cfg.RootFolders) > 0 {
		cfg.DefaultRootFolder = cfg.RootFolders[0].Path
	}

	if err := b.store.SaveSonarrConfig(ctx, cfg); err != nil {
		return models.SonarrConfig{}, err
	}
	b.notify(models.NotifySuccess, "Successfully connected to Sonarr")
	return cfg, nil
}

// checkVersion requires Sonarr v3 or later. Sonarr reports four-part
// versions such as 4.0.0.748; only the first three parts are compared.
func checkVersion(version string) error {
	parts := strings.SplitN(strings.TrimPrefix(version, "v"), ".", 4)
	if len(parts) > 3 {
		parts = parts[:3]
	}
	v, err := semver.NewVersion(strings.Join(parts, "."))
	if err != nil {
		return fmt.Errorf("unrecognized sonarr version %q: %w", version, err)
	}
	if v.LessThan(minVersion) {
		return fmt.Errorf("sonarr %s is not supported, version %s or later is required", version, minVersion)
	}
	return nil
}

// SetDefaultFolder chooses the default destination. When root folders are
// known the path must be one of them.
func (b *Bridge) SetDefaultFolder(ctx context.Context, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("root folder cannot be empty")
	}
	cfg := b.store.SonarrConfig(ctx)
	if len(cfg.RootFolders) > 0 {
		known := false
		for _, f := range cfg.RootFolders {
			if f.Path == path {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown root folder %q", path)
		}
	}
	cfg.DefaultRootFolder = path
	return b.store.SaveSonarrConfig(ctx, cfg)
}

// IsPending reports whether a push of id is in flight.
func (b *Bridge) IsPending(id int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending[id]
}

// Pending lists the ids being pushed.
func (b *Bridge) Pending() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]int, 0, len(b.pending))
	for id := range b.pending {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (b *Bridge) setPending(id int, v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if v {
		b.pending[id] = true
	} else {
		delete(b.pending, id)
	}
}

// Push adds anime to Sonarr. The bridge never refuses a repeated call for a
// pending id; callers check IsPending first.
func (b *Bridge) Push(ctx context.Context, anime models.Anime, folderOverride string) error {
	b.setPending(anime.ID, true)
	defer b.setPending(anime.ID, false)

	err := b.push(ctx, anime, folderOverride)
	if err != nil {
		log.Printf("Sonarr Error: failed to add %q: %v", anime.Title, err)
		b.notify(models.NotifyError, fmt.Sprintf("Failed to add \"%s\" to Sonarr: %v", anime.Title, err))
		return err
	}
	b.notify(models.NotifySuccess, fmt.Sprintf("Added \"%s\" to Sonarr", anime.Title))
	return nil
}

func (b *Bridge) push(ctx context.Context, anime models.Anime, folderOverride string) error {
	cfg := b.store.SonarrConfig(ctx)
	if !cfg.Connected {
		return ErrNotConnected
	}
	api := b.newAPI(cfg.URL, cfg.APIKey)

	results, err := api.Lookup(ctx, anime.Title)
	if err != nil {
		return err
	}
	match, ok := bestMatch(anime, results)
	if !ok {
		return ErrNoMatch
	}

	_, err = api.AddSeries(ctx, AddSeriesRequest{
		Title:            match.Title,
		TvdbID:           match.TvdbID,
		TitleSlug:        match.TitleSlug,
		Year:             match.Year,
		Images:           nonNilImages(match.Images),
		Seasons:          nonNilSeasons(match.Seasons),
		QualityProfileID: defaultQualityProfile,
		RootFolderPath:   b.resolveFolder(cfg, folderOverride),
		Monitored:        true,
		SeasonFolder:     true,
		SeriesType:       "anime",
		AddOptions: AddOptions{
			Monitor:                  "all",
			SearchForMissingEpisodes: true,
		},
	})
	return err
}

// PushAll pushes every item independently. One failure never stops the
// batch.
func (b *Bridge) PushAll(ctx context.Context, animes []models.Anime, folderOverride string) []PushResult {
	results := make([]PushResult, 0, len(animes))
	for _, a := range animes {
		r := PushResult{AnimeID: a.ID, Title: a.Title, Success: true}
		if err := b.Push(ctx, a, folderOverride); err != nil {
			r.Success = false
			r.Error = err.Error()
		}
		results = append(results, r)
	}
	return results
}

// ExistingTitles returns the lower-cased titles of the series in Sonarr,
// alternates included.
func (b *Bridge) ExistingTitles(ctx context.Context) ([]string, error) {
	cfg := b.store.SonarrConfig(ctx)
	if !cfg.Connected {
		return nil, ErrNotConnected
	}
	series, err := b.newAPI(cfg.URL, cfg.APIKey).Series(ctx)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(series))
	for _, s := range series {
		for _, t := range seriesTitles(s) {
			titles = append(titles, strings.ToLower(t))
		}
	}
	return titles, nil
}

func (b *Bridge) resolveFolder(cfg models.SonarrConfig, override string) string {
	if f := strings.TrimSpace(override); f != "" {
		return f
	}
	if cfg.DefaultRootFolder != "" {
		return cfg.DefaultRootFolder
	}
	return b.fallbackFolder
}

// bestMatch prefers a result whose title or alternate title equals one of
// the anime's titles, ignoring case, and otherwise takes the first result.
func bestMatch(anime models.Anime, results []Series) (Series, bool) {
	if len(results) == 0 {
		return Series{}, false
	}
	wanted := make(map[string]bool)
	for _, t := range anime.Titles() {
		wanted[strings.ToLower(strings.TrimSpace(t))] = true
	}
	for _, s := range results {
		for _, t := range seriesTitles(s) {
			if wanted[strings.ToLower(strings.TrimSpace(t))] {
				return s, true
			}
		}
	}
	return results[0], true
}

func seriesTitles(s Series) []string {
	titles := []string{s.Title}
	for _, alt := range s.AlternateTitles {
		if alt.Title != "" {
			titles = append(titles, alt.Title)
		}
	}
	return titles
}

func nonNilImages(images []Image) []Image {
	if images == nil {
		return []Image{}
	}
	return images
}

func nonNilSeasons(seasons []Season) []Season {
	if seasons == nil {
		return []Season{}
	}
	return seasons
}
