// Package flatstore is the flat key/value storage backend. It keeps every
// collection as one JSON document and is used when the structured database
// cannot serve a request.
package flatstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/vrsandeep/anisync/internal/models"
)

// Document keys.
const (
	keySelected    = "selected_anime_ids"
	keyRules       = "autoRules"
	prefixSeason   = "season:"
	prefixSettings = "setting:"
)

// Store implements the storage backend on top of a KV.
type Store struct {
	kv KV
}

func New(kv KV) *Store {
	return &Store{kv: kv}
}

func (s *Store) Name() string { return s.kv.Name() }

func (s *Store) Close() error { return s.kv.Close() }

func (s *Store) get(ctx context.Context, key string, v interface{}) error {
	data, err := s.kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("corrupt document %s: %w", key, err)
	}
	return nil
}

func (s *Store) set(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, key, data)
}

func (s *Store) GetSeason(ctx context.Context, key string) (*models.SeasonCatalog, error) {
	var catalog models.SeasonCatalog
	if err := s.get(ctx, prefixSeason+key, &catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}

func (s *Store) SaveSeason(ctx context.Context, key string, catalog *models.SeasonCatalog) error {
	return s.set(ctx, prefixSeason+key, catalog)
}

func (s *Store) GetSelected(ctx context.Context) ([]int, error) {
	ids := []int{}
	if err := s.get(ctx, keySelected, &ids); err != nil {
		return nil, err
	}
	sort.Ints(ids)
	return ids, nil
}

func (s *Store) SaveSelected(ctx context.Context, ids []int) error {
	sorted := append([]int{}, ids...)
	sort.Ints(sorted)
	return s.set(ctx, keySelected, sorted)
}

func (s *Store) GetRules(ctx context.Context) ([]models.AutoRule, error) {
	rules := []models.AutoRule{}
	if err := s.get(ctx, keyRules, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func (s *Store) SaveRules(ctx context.Context, rules []models.AutoRule) error {
	if rules == nil {
		rules = []models.AutoRule{}
	}
	return s.set(ctx, keyRules, rules)
}

func (s *Store) GetSetting(ctx context.Context, key string, v interface{}) error {
	return s.get(ctx, prefixSettings+key, v)
}

func (s *Store) SaveSetting(ctx context.Context, key string, v interface{}) error {
	return s.set(ctx, prefixSettings+key, v)
}
