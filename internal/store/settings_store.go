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

// GetSetting decodes the JSON setting stored under key into v.
func (s *Store) GetSetting(ctx context.Context, key string, v interface{}) error {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(value), v); err != nil {
		return fmt.Errorf("corrupt setting %s: %w", key, err)
	}
	return nil
}

// SaveSetting stores v as JSON under key.
func (s *Store) SaveSetting(ctx context.Context, key string, v interface{}) error {
	value, err := json.Marshal(v)
	if err != nil {
		return err
	}
	query := `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
              ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at;`
	_, err = s.db.ExecContext(ctx, query, key, string(value), time.Now())
	return err
}
