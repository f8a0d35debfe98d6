package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vrsandeep/anisync/internal/models"
)

const collectionSelected = "selected_anime"

// GetSelected returns the selected anime ids in ascending order. It returns
// ErrNotFound when the selection has never been written.
func (s *Store) GetSelected(ctx context.Context) ([]int, error) {
	written, err := s.collectionWritten(ctx, s.db, collectionSelected)
	if err != nil {
		return nil, err
	}
	if !written {
		return nil, models.ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, "SELECT anime_id FROM selected_anime ORDER BY anime_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SaveSelected replaces the stored selection with ids in one transaction.
// Ids that stay selected keep their original selected_at time.
func (s *Store) SaveSelected(ctx context.Context, ids []int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	existing := make(map[int]bool)
	rows, err := tx.QueryContext(ctx, "SELECT anime_id FROM selected_anime")
	if err != nil {
		return err
	}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		existing[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	want := make(map[int]bool, len(ids))
	now := time.Now()
	for _, id := range ids {
		want[id] = true
		if existing[id] {
			continue
		}
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO selected_anime (anime_id, selected_at) VALUES (?, ?)", id, now); err != nil {
			return err
		}
	}
	for id := range existing {
		if want[id] {
			continue
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM selected_anime WHERE anime_id = ?", id); err != nil {
			return err
		}
	}

	if err := s.markCollection(ctx, tx, collectionSelected); err != nil {
		return err
	}
	return tx.Commit()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (s *Store) collectionWritten(ctx context.Context, q queryer, name string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM collections WHERE name = ?", name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) markCollection(ctx context.Context, tx *sql.Tx, name string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO collections (name, updated_at) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET updated_at = excluded.updated_at;
	`, name, time.Now())
	return err
}
