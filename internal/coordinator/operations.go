package coordinator

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/vrsandeep/anisync/internal/models"
)

// Current returns the current season catalog, or nil before the first load.
func (c *Coordinator) Current() *models.SeasonCatalog {
	return c.slotCatalog(SlotCurrent)
}

// Next returns the next season catalog, or nil before the first load.
func (c *Coordinator) Next() *models.SeasonCatalog {
	return c.slotCatalog(SlotNext)
}

func (c *Coordinator) slotCatalog(s Slot) *models.SeasonCatalog {
	var out *models.SeasonCatalog
	c.exec(func(st *state) { out = project(st, st.slots[s].catalog) })
	return out
}

// SlotState reports empty, loading or ready.
func (c *Coordinator) SlotState(s Slot) string {
	out := StateEmpty
	c.exec(func(st *state) { out = st.slots[s].state() })
	return out
}

// Loading reports whether any slot is loading.
func (c *Coordinator) Loading() bool {
	var out bool
	c.exec(func(st *state) { out = st.slots[SlotCurrent].loads > 0 || st.slots[SlotNext].loads > 0 })
	return out
}

// Snapshot returns both slots, the loading flag and the selection at once.
func (c *Coordinator) Snapshot() Snapshot {
	snap := Snapshot{CurrentState: StateEmpty, NextState: StateEmpty, SelectedIDs: []int{}}
	c.exec(func(st *state) {
		cur, next := &st.slots[SlotCurrent], &st.slots[SlotNext]
		snap = Snapshot{
			Current:      project(st, cur.catalog),
			Next:         project(st, next.catalog),
			Loading:      cur.loads > 0 || next.loads > 0,
			CurrentState: cur.state(),
			NextState:    next.state(),
			SelectedIDs:  sortedIDs(st.selected),
		}
	})
	return snap
}

func (c *Coordinator) IsSelected(id int) bool {
	var out bool
	c.exec(func(st *state) { out = st.selected[id] })
	return out
}

// SelectedIDs returns the selection in ascending order.
func (c *Coordinator) SelectedIDs() []int {
	out := []int{}
	c.exec(func(st *state) { out = sortedIDs(st.selected) })
	return out
}

// ToggleSelection flips the membership of id, persists the set and returns
// the new membership. Both slots see the change on their next read.
func (c *Coordinator) ToggleSelection(id int) bool {
	var selected bool
	c.exec(func(st *state) {
		if st.selected[id] {
			delete(st.selected, id)
		} else {
			st.selected[id] = true
		}
		selected = st.selected[id]
		c.persist(st)
	})
	return selected
}

// AddToSelected selects id. It does nothing when id is already selected.
func (c *Coordinator) AddToSelected(id int) {
	c.exec(func(st *state) {
		if st.selected[id] {
			return
		}
		st.selected[id] = true
		c.persist(st)
	})
}

// GetSelected returns the selected records of both slots. A record present
// in both slots is returned once, taken from the current slot.
func (c *Coordinator) GetSelected() []models.Anime {
	out := []models.Anime{}
	c.exec(func(st *state) {
		seen := make(map[int]bool)
		for _, s := range []Slot{SlotCurrent, SlotNext} {
			projected := project(st, st.slots[s].catalog)
			if projected == nil {
				continue
			}
			for _, a := range projected.Anime {
				if !a.Selected || seen[a.ID] {
					continue
				}
				seen[a.ID] = true
				out = append(out, a)
			}
		}
	})
	return out
}

// FindAnime looks up a record by id in the loaded slots.
func (c *Coordinator) FindAnime(id int) (models.Anime, bool) {
	var out models.Anime
	var found bool
	c.exec(func(st *state) {
		for _, s := range []Slot{SlotCurrent, SlotNext} {
			projected := project(st, st.slots[s].catalog)
			if projected == nil {
				continue
			}
			for _, a := range projected.Anime {
				if a.ID == id {
					out, found = a, true
					return
				}
			}
		}
	})
	return out, found
}

// SetLibraryTitles replaces the titles known to the series manager. Records
// matching one of them are reported with InSonarr set.
func (c *Coordinator) SetLibraryTitles(titles []string) {
	library := make(map[string]bool, len(titles))
	for _, t := range titles {
		library[strings.ToLower(t)] = true
	}
	c.exec(func(st *state) { st.library = library })
}

// LoadCurrentSeason loads the season of the wall clock into the current slot.
func (c *Coordinator) LoadCurrentSeason(ctx context.Context) error {
	return c.Load(ctx, SlotCurrent)
}

// LoadNextSeason loads the season after the current one into the next slot.
func (c *Coordinator) LoadNextSeason(ctx context.Context) error {
	return c.Load(ctx, SlotNext)
}

// Load fills a slot: the cache is consulted first, a miss is fetched and
// cached, then the rules run and their matches join the selection. On
// failure the slot keeps what it held before and an error notification is
// sent. A load that finishes after a newer one still applies.
func (c *Coordinator) Load(ctx context.Context, s Slot) error {
	season, year := c.seasonFor(s)

	c.exec(func(st *state) { st.slots[s].loads++ })

	result, err := c.resolve(ctx, season, year)
	if err != nil {
		c.exec(func(st *state) { st.slots[s].loads-- })
		c.notify(models.NotifyError, fmt.Sprintf("Failed to load %s %d anime: %v", season, year, err))
		return err
	}

	c.exec(func(st *state) {
		slot := &st.slots[s]
		slot.loads--
		slot.catalog = result.catalog
		if c.union(st, result.matched) {
			c.persist(st)
		}
	})
	return nil
}

// LoadSeason returns an arbitrary season with rules and selection applied.
// Neither the slots nor the selection change.
func (c *Coordinator) LoadSeason(ctx context.Context, season models.Season, year int) (*models.SeasonCatalog, error) {
	result, err := c.resolve(ctx, season, year)
	if err != nil {
		c.notify(models.NotifyError, fmt.Sprintf("Failed to load %s %d anime: %v", season, year, err))
		return nil, err
	}
	var out *models.SeasonCatalog
	c.exec(func(st *state) {
		out = project(st, result.catalog)
		for i := range out.Anime {
			if result.matched[out.Anime[i].ID] {
				out.Anime[i].Selected = true
			}
		}
	})
	return out, nil
}

// ApplyRulesNow runs the rules over both slots and adds every match to the
// selection. It returns the number of newly selected records.
func (c *Coordinator) ApplyRulesNow(ctx context.Context) (int, error) {
	var catalogs []*models.SeasonCatalog
	var snapshot map[int]bool
	c.exec(func(st *state) {
		for _, s := range []Slot{SlotCurrent, SlotNext} {
			if st.slots[s].catalog != nil {
				catalogs = append(catalogs, st.slots[s].catalog)
			}
		}
		snapshot = copySet(st.selected)
	})

	matched := make(map[int]bool)
	for _, sc := range catalogs {
		m, err := c.match(ctx, sc, snapshot)
		if err != nil {
			c.notify(models.NotifyError, fmt.Sprintf("Failed to apply rules: %v", err))
			return 0, err
		}
		for id := range m {
			matched[id] = true
		}
	}

	added := 0
	c.exec(func(st *state) {
		for id := range matched {
			if !st.selected[id] {
				added++
			}
		}
		if c.union(st, matched) {
			c.persist(st)
		}
	})
	c.notify(models.NotifySuccess, fmt.Sprintf("Auto-selection rules applied, %d anime selected", added))
	return added, nil
}

type loadResult struct {
	catalog *models.SeasonCatalog
	matched map[int]bool
}

// resolve runs the cache, fetch, cache write and rules steps in that order.
func (c *Coordinator) resolve(ctx context.Context, season models.Season, year int) (*loadResult, error) {
	key := models.SeasonKey(season, year)

	sc, cached := c.repo.Season(ctx, key)
	if !cached {
		fetched, err := c.fetcher.FetchSeason(ctx, season, year)
		if err != nil {
			return nil, err
		}
		if err := c.repo.SaveSeason(ctx, fetched); err != nil {
			log.Printf("Coordinator Error: failed to cache season %s: %v", key, err)
		}
		sc = fetched
	}
	sc = sc.Clone()
	sc.StripDerived()

	var snapshot map[int]bool
	c.exec(func(st *state) { snapshot = copySet(st.selected) })

	matched, err := c.match(ctx, sc, snapshot)
	if err != nil {
		return nil, err
	}
	return &loadResult{catalog: sc, matched: matched}, nil
}

// match returns the ids the rules select that were not selected in snapshot.
func (c *Coordinator) match(ctx context.Context, sc *models.SeasonCatalog, snapshot map[int]bool) (map[int]bool, error) {
	records := make([]models.Anime, len(sc.Anime))
	copy(records, sc.Anime)
	for i := range records {
		records[i].Selected = snapshot[records[i].ID]
	}

	applied, err := c.rules.ApplyRules(ctx, records)
	if err != nil {
		return nil, err
	}
	matched := make(map[int]bool)
	for i := range applied {
		if applied[i].Selected && !records[i].Selected {
			matched[applied[i].ID] = true
		}
	}
	return matched, nil
}

// union adds ids to the selection and reports whether it changed.
func (c *Coordinator) union(st *state, ids map[int]bool) bool {
	changed := false
	for id := range ids {
		if !st.selected[id] {
			st.selected[id] = true
			changed = true
		}
	}
	return changed
}
