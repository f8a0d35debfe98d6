package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vrsandeep/anisync/internal/models"
)

// GetSeason returns the cached catalog stored under key.
func (s *Store) GetSeason(ctx context.Context, key string) (*models.SeasonCatalog, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM seasons WHERE id = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var catalog models.SeasonCatalog
	if err := json.Unmarshal([]byte(data), &catalog); err != nil {
		return nil, fmt.Errorf("corrupt season %s: %w", key, err)
	}
	return &catalog, nil
}

// SaveSeason writes a catalog under key, replacing any previous entry.
func (s *Store) SaveSeason(ctx context.Context, key string, catalog *models.SeasonCatalog) error {
	data, err := json.Marshal(catalog)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO seasons (id, season, year, data, cached_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			season = excluded.season,
			year = excluded.year,
			data = excluded.data,
			cached_at = excluded.cached_at;
	`
	_, err = s.db.ExecContext(ctx, query, key, string(catalog.Season), catalog.Year, string(data), time.Now())
	return err
}
