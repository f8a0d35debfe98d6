// Package coordinator owns the selection state of the application: the two
// visible season slots and the set of selected anime ids.
//
// All state lives in one goroutine. Public methods send closures to it and
// wait for the reply, so loads and toggles never race. Catalog fetches and
// rule reads run in the calling goroutine; only the short state transitions
// and the selection writes run inside the actor.
package coordinator

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/vrsandeep/anisync/internal/catalog"
	"github.com/vrsandeep/anisync/internal/models"
)

// Slot identifies one of the two visible seasons.
type Slot int

const (
	SlotCurrent Slot = iota
	SlotNext
)

func (s Slot) String() string {
	if s == SlotNext {
		return "next"
	}
	return "current"
}

// ParseSlot accepts "current" or "next".
func ParseSlot(s string) (Slot, error) {
	switch s {
	case "current", "":
		return SlotCurrent, nil
	case "next":
		return SlotNext, nil
	}
	return 0, fmt.Errorf("invalid slot %q", s)
}

// Slot states.
const (
	StateEmpty   = "empty"
	StateLoading = "loading"
	StateReady   = "ready"
)

// Fetcher retrieves a season catalog from the remote API.
type Fetcher interface {
	FetchSeason(ctx context.Context, season models.Season, year int) (*models.SeasonCatalog, error)
}

// Repository persists the season cache and the selection.
type Repository interface {
	Season(ctx context.Context, key string) (*models.SeasonCatalog, bool)
	SaveSeason(ctx context.Context, catalog *models.SeasonCatalog) error
	SelectedIDs(ctx context.Context) []int
	SaveSelectedIDs(ctx context.Context, ids []int) error
}

// RuleApplier runs the auto-selection rules over records.
type RuleApplier interface {
	ApplyRules(ctx context.Context, records []models.Anime) ([]models.Anime, error)
}

// Notifier delivers transient user-visible messages.
type Notifier interface {
	Notify(kind, message string)
}

// Snapshot is a consistent view of the coordinator state.
type Snapshot struct {
	Current      *models.SeasonCatalog `json:"current"`
	Next         *models.SeasonCatalog `json:"next"`
	Loading      bool                  `json:"loading"`
	CurrentState string                `json:"current_state"`
	NextState    string                `json:"next_state"`
	SelectedIDs  []int                 `json:"selected_ids"`
}

type slot struct {
	catalog *models.SeasonCatalog
	loads   int
}

func (s *slot) state() string {
	switch {
	case s.loads > 0:
		return StateLoading
	case s.catalog != nil:
		return StateReady
	}
	return StateEmpty
}

// state is only touched by the actor goroutine.
type state struct {
	selected map[int]bool
	slots    [2]slot
	library  map[string]bool
}

type Coordinator struct {
	fetcher  Fetcher
	repo     Repository
	rules    RuleApplier
	notifier Notifier
	now      func() time.Time

	cmds chan func(*state)
	quit chan struct{}
	done chan struct{}
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock replaces time.Now for season resolution.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithNotifier sets the notification sink.
func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) { c.notifier = n }
}

// New loads the persisted selection and starts the actor. Call Close to stop
// it.
func New(ctx context.Context, fetcher Fetcher, repo Repository, rules RuleApplier, opts ...Option) *Coordinator {
	c := &Coordinator{
		fetcher: fetcher,
		repo:    repo,
		rules:   rules,
		now:     time.Now,
		cmds:    make(chan func(*state)),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	st := &state{selected: make(map[int]bool), library: make(map[string]bool)}
	for _, id := range repo.SelectedIDs(ctx) {
		st.selected[id] = true
	}
	go c.run(st)
	return c
}

func (c *Coordinator) run(st *state) {
	defer close(c.done)
	for {
		select {
		case cmd := <-c.cmds:
			cmd(st)
		case <-c.quit:
			return
		}
	}
}

// Close stops the actor. Calls made after Close return zero values.
func (c *Coordinator) Close() {
	select {
	case <-c.quit:
	default:
		close(c.quit)
	}
	<-c.done
}

// exec runs fn on the actor and waits for it to finish. It reports false when
// the coordinator is closed.
func (c *Coordinator) exec(fn func(*state)) bool {
	finished := make(chan struct{})
	select {
	case c.cmds <- func(st *state) { defer close(finished); fn(st) }:
	case <-c.quit:
		return false
	}
	<-finished
	return true
}

func (c *Coordinator) notify(kind, message string) {
	if c.notifier != nil {
		c.notifier.Notify(kind, message)
	}
}

// persist writes the selection. Runs on the actor so writes keep the order
// of the mutations.
func (c *Coordinator) persist(st *state) {
	if err := c.repo.SaveSelectedIDs(context.Background(), sortedIDs(st.selected)); err != nil {
		log.Printf("Coordinator Error: failed to persist selection: %v", err)
	}
}

// project returns a copy of sc with the derived flags computed from the
// selection and the series manager library.
func project(st *state, sc *models.SeasonCatalog) *models.SeasonCatalog {
	if sc == nil {
		return nil
	}
	out := sc.Clone()
	for i := range out.Anime {
		a := &out.Anime[i]
		a.Selected = st.selected[a.ID]
		a.InSonarr = inLibrary(st.library, a)
	}
	return out
}

func inLibrary(library map[string]bool, a *models.Anime) bool {
	if len(library) == 0 {
		return false
	}
	for _, t := range a.Titles() {
		if library[strings.ToLower(t)] {
			return true
		}
	}
	return false
}

func sortedIDs(set map[int]bool) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func copySet(set map[int]bool) map[int]bool {
	out := make(map[int]bool, len(set))
	for id := range set {
		out[id] = true
	}
	return out
}

// seasonFor resolves the season shown in a slot.
func (c *Coordinator) seasonFor(s Slot) (models.Season, int) {
	season, year := catalog.CurrentSeason(c.now())
	if s == SlotNext {
		return catalog.NextSeason(season, year)
	}
	return season, year
}
