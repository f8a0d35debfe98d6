package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/anisync/internal/models"
	"github.com/vrsandeep/anisync/internal/rules"
)

type fakeFetcher struct {
	mu       sync.Mutex
	catalogs map[string]*models.SeasonCatalog
	err      error
	calls    int
}

func (f *fakeFetcher) FetchSeason(ctx context.Context, season models.Season, year int) (*models.SeasonCatalog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	sc, ok := f.catalogs[models.SeasonKey(season, year)]
	if !ok {
		return nil, errors.New("season not found")
	}
	return sc.Clone(), nil
}

func (f *fakeFetcher) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type memRepo struct {
	mu       sync.Mutex
	seasons  map[string]*models.SeasonCatalog
	selected []int
	saves    int
	rules    []models.AutoRule
}

func newMemRepo() *memRepo {
	return &memRepo{seasons: make(map[string]*models.SeasonCatalog)}
}

func (r *memRepo) Season(ctx context.Context, key string) (*models.SeasonCatalog, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sc, ok := r.seasons[key]
	return sc.Clone(), ok
}

func (r *memRepo) SaveSeason(ctx context.Context, sc *models.SeasonCatalog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := sc.Clone()
	stored.StripDerived()
	r.seasons[sc.Key()] = stored
	return nil
}

func (r *memRepo) SelectedIDs(ctx context.Context) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int{}, r.selected...)
}

func (r *memRepo) SaveSelectedIDs(ctx context.Context, ids []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected = append([]int{}, ids...)
	r.saves++
	return nil
}

func (r *memRepo) Rules(ctx context.Context) []models.AutoRule {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.AutoRule{}, r.rules...)
}

func (r *memRepo) setRules(rules []models.AutoRule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = rules
}

type recordingNotifier struct {
	mu    sync.Mutex
	kinds []string
}

func (n *recordingNotifier) Notify(kind, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
}

func (n *recordingNotifier) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.kinds) == 0 {
		return ""
	}
	return n.kinds[len(n.kinds)-1]
}

// January 2025: current is winter 2025, next is spring 2025.
func fixedClock() time.Time { return time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC) }

func testCatalogs() map[string]*models.SeasonCatalog {
	return map[string]*models.SeasonCatalog{
		"winter-2025": {Season: models.Winter, Year: 2025, Anime: []models.Anime{
			{ID: 1, Title: "Mecha One", Genres: []string{"Mecha", "Action"}, Season: models.Winter},
			{ID: 2, Title: "Slice", Genres: []string{"Slice of Life"}, Season: models.Winter},
			{ID: 3, Title: "Shared", Genres: []string{"Drama"}, Season: models.Winter},
		}},
		"spring-2025": {Season: models.Spring, Year: 2025, Anime: []models.Anime{
			{ID: 3, Title: "Shared", Genres: []string{"Drama"}, Season: models.Spring},
			{ID: 4, Title: "Spring Action", Genres: []string{"Action"}, Season: models.Spring},
		}},
	}
}

func actionRule() models.AutoRule {
	return models.AutoRule{
		ID: "action", Name: "Action", Enabled: true,
		Conditions: []models.RuleCondition{{Field: models.FieldGenre, Operator: models.OpContains, Value: models.StringValue("action")}},
	}
}

func newTestCoordinator(t *testing.T, repo *memRepo, fetcher *fakeFetcher) (*Coordinator, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	c := New(context.Background(), fetcher, repo, rules.NewEngine(repo), WithClock(fixedClock), WithNotifier(n))
	t.Cleanup(c.Close)
	return c, n
}

func TestToggleTwiceRestoresAndPersists(t *testing.T) {
	repo := newMemRepo()
	c, _ := newTestCoordinator(t, repo, &fakeFetcher{catalogs: testCatalogs()})

	before := c.IsSelected(7)
	assert.True(t, c.ToggleSelection(7))
	assert.Equal(t, c.SelectedIDs(), repo.SelectedIDs(context.Background()))
	assert.False(t, c.ToggleSelection(7))
	assert.Equal(t, before, c.IsSelected(7))
	assert.Equal(t, c.SelectedIDs(), repo.SelectedIDs(context.Background()))
	assert.Equal(t, 2, repo.saves)
}

func TestStartupLoadsPersistedSelection(t *testing.T) {
	repo := newMemRepo()
	repo.selected = []int{5, 6}
	c, _ := newTestCoordinator(t, repo, &fakeFetcher{})
	assert.True(t, c.IsSelected(5))
	assert.Equal(t, []int{5, 6}, c.SelectedIDs())
}

func TestLoadFetchesCachesAndAppliesRules(t *testing.T) {
	repo := newMemRepo()
	repo.setRules([]models.AutoRule{actionRule()})
	fetcher := &fakeFetcher{catalogs: testCatalogs()}
	c, _ := newTestCoordinator(t, repo, fetcher)

	assert.Nil(t, c.Current())
	assert.Equal(t, StateEmpty, c.SlotState(SlotCurrent))

	require.NoError(t, c.LoadCurrentSeason(context.Background()))
	cur := c.Current()
	require.NotNil(t, cur)
	assert.Equal(t, models.Winter, cur.Season)
	assert.Equal(t, StateReady, c.SlotState(SlotCurrent))
	assert.True(t, cur.Anime[0].Selected, "action rule selects record 1")
	assert.False(t, cur.Anime[1].Selected)
	assert.Equal(t, []int{1}, repo.SelectedIDs(context.Background()))

	// The cache holds the catalog without derived flags.
	cached, ok := repo.Season(context.Background(), "winter-2025")
	require.True(t, ok)
	assert.False(t, cached.Anime[0].Selected)

	// A second load is served from the cache.
	require.NoError(t, c.LoadCurrentSeason(context.Background()))
	assert.Equal(t, 1, fetcher.calls)
}

func TestLoadFailureKeepsPreviousState(t *testing.T) {
	repo := newMemRepo()
	fetcher := &fakeFetcher{err: errors.New("network down")}
	c, n := newTestCoordinator(t, repo, fetcher)

	assert.Error(t, c.LoadNextSeason(context.Background()))
	assert.Nil(t, c.Next())
	assert.Equal(t, StateEmpty, c.SlotState(SlotNext))
	assert.False(t, c.Loading())
	assert.Equal(t, models.NotifyError, n.last())

	fetcher.setErr(nil)
	fetcher.catalogs = testCatalogs()
	require.NoError(t, c.LoadNextSeason(context.Background()))
	require.NotNil(t, c.Next())

	// A failing refresh keeps the catalog that was shown.
	delete(repo.seasons, "spring-2025")
	fetcher.setErr(errors.New("network down"))
	assert.Error(t, c.LoadNextSeason(context.Background()))
	require.NotNil(t, c.Next())
	assert.Equal(t, StateReady, c.SlotState(SlotNext))
}

func TestInvalidRuleFailsLoad(t *testing.T) {
	repo := newMemRepo()
	repo.setRules([]models.AutoRule{{
		ID: "bad", Name: "bad", Enabled: true,
		Conditions: []models.RuleCondition{{Field: models.FieldTitle, Operator: models.OpMatches, Value: models.StringValue("([")}},
	}})
	c, n := newTestCoordinator(t, repo, &fakeFetcher{catalogs: testCatalogs()})

	err := c.LoadCurrentSeason(context.Background())
	var patternErr *rules.InvalidPatternError
	assert.True(t, errors.As(err, &patternErr))
	assert.Nil(t, c.Current())
	assert.Equal(t, models.NotifyError, n.last())
}

func TestToggleReflectsIntoBothSlotsAndGetSelectedDedupes(t *testing.T) {
	repo := newMemRepo()
	c, _ := newTestCoordinator(t, repo, &fakeFetcher{catalogs: testCatalogs()})
	ctx := context.Background()
	require.NoError(t, c.LoadCurrentSeason(ctx))
	require.NoError(t, c.LoadNextSeason(ctx))

	c.ToggleSelection(3)
	c.ToggleSelection(4)

	assert.True(t, c.Current().Anime[2].Selected)
	assert.True(t, c.Next().Anime[0].Selected)

	selected := c.GetSelected()
	require.Len(t, selected, 2)
	assert.Equal(t, 3, selected[0].ID)
	assert.Equal(t, models.Winter, selected[0].Season, "the current slot's copy comes first")
	assert.Equal(t, 4, selected[1].ID)
}

func TestAddToSelectedIsIdempotent(t *testing.T) {
	repo := newMemRepo()
	c, _ := newTestCoordinator(t, repo, &fakeFetcher{})

	c.AddToSelected(9)
	c.AddToSelected(9)
	assert.True(t, c.IsSelected(9))
	assert.Equal(t, 1, repo.saves)
}

func TestApplyRulesNowIsMonotonic(t *testing.T) {
	repo := newMemRepo()
	c, n := newTestCoordinator(t, repo, &fakeFetcher{catalogs: testCatalogs()})
	ctx := context.Background()
	require.NoError(t, c.LoadCurrentSeason(ctx))
	require.NoError(t, c.LoadNextSeason(ctx))
	c.ToggleSelection(2)

	repo.setRules([]models.AutoRule{actionRule()})
	added, err := c.ApplyRulesNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, []int{1, 2, 4}, c.SelectedIDs())
	assert.Equal(t, []int{1, 2, 4}, repo.SelectedIDs(ctx))
	assert.Equal(t, models.NotifySuccess, n.last())

	added, err = c.ApplyRulesNow(ctx)
	require.NoError(t, err)
	assert.Zero(t, added)
}

func TestLoadSeasonLeavesStateAlone(t *testing.T) {
	repo := newMemRepo()
	repo.setRules([]models.AutoRule{actionRule()})
	c, _ := newTestCoordinator(t, repo, &fakeFetcher{catalogs: testCatalogs()})

	sc, err := c.LoadSeason(context.Background(), models.Spring, 2025)
	require.NoError(t, err)
	assert.True(t, sc.Anime[1].Selected)
	assert.Nil(t, c.Next())
	assert.Empty(t, c.SelectedIDs())
}

func TestLibraryProjection(t *testing.T) {
	repo := newMemRepo()
	c, _ := newTestCoordinator(t, repo, &fakeFetcher{catalogs: testCatalogs()})
	require.NoError(t, c.LoadCurrentSeason(context.Background()))

	c.SetLibraryTitles([]string{"SLICE"})
	cur := c.Current()
	assert.False(t, cur.Anime[0].InSonarr)
	assert.True(t, cur.Anime[1].InSonarr)

	a, ok := c.FindAnime(2)
	require.True(t, ok)
	assert.True(t, a.InSonarr)
}

func TestConcurrentTogglesAreNotLost(t *testing.T) {
	repo := newMemRepo()
	c, _ := newTestCoordinator(t, repo, &fakeFetcher{catalogs: testCatalogs()})

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			c.ToggleSelection(id)
		}(i)
	}
	wg.Wait()
	assert.Len(t, c.SelectedIDs(), 50)
	assert.Len(t, repo.SelectedIDs(context.Background()), 50)
}

func TestSnapshot(t *testing.T) {
	repo := newMemRepo()
	c, _ := newTestCoordinator(t, repo, &fakeFetcher{catalogs: testCatalogs()})
	require.NoError(t, c.LoadCurrentSeason(context.Background()))
	c.ToggleSelection(1)

	snap := c.Snapshot()
	require.NotNil(t, snap.Current)
	assert.Nil(t, snap.Next)
	assert.Equal(t, StateReady, snap.CurrentState)
	assert.Equal(t, StateEmpty, snap.NextState)
	assert.Equal(t, []int{1}, snap.SelectedIDs)
	assert.False(t, snap.Loading)
}

func TestParseSlot(t *testing.T) {
	s, err := ParseSlot("next")
	require.NoError(t, err)
	assert.Equal(t, SlotNext, s)
	_, err = ParseSlot("later")
	assert.Error(t, err)
}
