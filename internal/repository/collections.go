package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vrsandeep/anisync/internal/models"
)

const (
	keySelected = "selected"
	keyRules    = "rules"
)

func seasonKey(key string) string  { return "season:" + key }
func settingKey(key string) string { return "setting:" + key }

// Season returns the cached catalog for key.
func (r *Repository) Season(ctx context.Context, key string) (*models.SeasonCatalog, bool) {
	return readThrough(ctx, r, seasonKey(key),
		func(b Backend) (*models.SeasonCatalog, error) { return b.GetSeason(ctx, key) },
		func(b Backend, c *models.SeasonCatalog) error { return b.SaveSeason(ctx, key, c) },
	)
}

// SaveSeason caches a catalog under its season key. Derived flags are never
// written.
func (r *Repository) SaveSeason(ctx context.Context, catalog *models.SeasonCatalog) error {
	stripped := catalog.Clone()
	stripped.StripDerived()
	key := stripped.Key()
	return r.write(ctx, seasonKey(key), func(b Backend) error {
		return b.SaveSeason(ctx, key, stripped)
	})
}

// SelectedIDs returns the persisted selection, empty when absent.
func (r *Repository) SelectedIDs(ctx context.Context) []int {
	ids, ok := readThrough(ctx, r, keySelected,
		func(b Backend) ([]int, error) { return b.GetSelected(ctx) },
		func(b Backend, ids []int) error { return b.SaveSelected(ctx, ids) },
	)
	if !ok || ids == nil {
		return []int{}
	}
	return ids
}

// SaveSelectedIDs replaces the persisted selection.
func (r *Repository) SaveSelectedIDs(ctx context.Context, ids []int) error {
	return r.write(ctx, keySelected, func(b Backend) error {
		return b.SaveSelected(ctx, ids)
	})
}

// Rules returns the stored rule list in evaluation order.
func (r *Repository) Rules(ctx context.Context) []models.AutoRule {
	rules, ok := readThrough(ctx, r, keyRules,
		func(b Backend) ([]models.AutoRule, error) { return b.GetRules(ctx) },
		func(b Backend, rules []models.AutoRule) error { return b.SaveRules(ctx, rules) },
	)
	if !ok || rules == nil {
		return []models.AutoRule{}
	}
	return rules
}

// SaveRules replaces the whole rule list.
func (r *Repository) SaveRules(ctx context.Context, rules []models.AutoRule) error {
	for i := range rules {
		if err := rules[i].Validate(); err != nil {
			return err
		}
	}
	r.rulesMu.Lock()
	defer r.rulesMu.Unlock()
	return r.saveRules(ctx, rules)
}

func (r *Repository) saveRules(ctx context.Context, rules []models.AutoRule) error {
	return r.write(ctx, keyRules, func(b Backend) error {
		return b.SaveRules(ctx, rules)
	})
}

// SaveRule inserts or replaces one rule. A rule without id gets a new one
// and is appended; an existing rule keeps its position.
func (r *Repository) SaveRule(ctx context.Context, rule models.AutoRule) (models.AutoRule, error) {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if err := rule.Validate(); err != nil {
		return rule, err
	}

	r.rulesMu.Lock()
	defer r.rulesMu.Unlock()

	rules := r.Rules(ctx)
	replaced := false
	for i := range rules {
		if rules[i].ID == rule.ID {
			rules[i] = rule
			replaced = true
			break
		}
	}
	if !replaced {
		rules = append(rules, rule)
	}
	return rule, r.saveRules(ctx, rules)
}

// DeleteRule removes the rule with id. It returns models.ErrNotFound when no
// such rule exists.
func (r *Repository) DeleteRule(ctx context.Context, id string) error {
	r.rulesMu.Lock()
	defer r.rulesMu.Unlock()

	rules := r.Rules(ctx)
	kept := make([]models.AutoRule, 0, len(rules))
	for _, rule := range rules {
		if rule.ID != id {
			kept = append(kept, rule)
		}
	}
	if len(kept) == len(rules) {
		return fmt.Errorf("rule %s: %w", id, models.ErrNotFound)
	}
	return r.saveRules(ctx, kept)
}

// Setting decodes the setting under key into v. It reports false and leaves
// v untouched when the setting is absent.
func (r *Repository) Setting(ctx context.Context, key string, v interface{}) bool {
	_, ok := readThrough(ctx, r, settingKey(key),
		func(b Backend) (interface{}, error) { return v, b.GetSetting(ctx, key, v) },
		func(b Backend, val interface{}) error { return b.SaveSetting(ctx, key, val) },
	)
	return ok
}

// SaveSetting stores v as the setting under key.
func (r *Repository) SaveSetting(ctx context.Context, key string, v interface{}) error {
	return r.write(ctx, settingKey(key), func(b Backend) error {
		return b.SaveSetting(ctx, key, v)
	})
}

// SonarrConfig returns the stored series manager settings, zero when absent.
func (r *Repository) SonarrConfig(ctx context.Context) models.SonarrConfig {
	var cfg models.SonarrConfig
	if !r.Setting(ctx, models.SettingSonarr, &cfg) {
		return models.SonarrConfig{}
	}
	return cfg
}

func (r *Repository) SaveSonarrConfig(ctx context.Context, cfg models.SonarrConfig) error {
	return r.SaveSetting(ctx, models.SettingSonarr, cfg)
}

// MalConfig returns the stored account link, zero when absent.
func (r *Repository) MalConfig(ctx context.Context) models.MalConfig {
	var cfg models.MalConfig
	if !r.Setting(ctx, models.SettingMal, &cfg) {
		return models.MalConfig{}
	}
	return cfg
}

func (r *Repository) SaveMalConfig(ctx context.Context, cfg models.MalConfig) error {
	return r.SaveSetting(ctx, models.SettingMal, cfg)
}
