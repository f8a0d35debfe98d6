package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vrsandeep/anisync/internal/models"
)

const collectionRules = "auto_rules"

// GetRules returns the auto-rules in their stored order.
func (s *Store) GetRules(ctx context.Context) ([]models.AutoRule, error) {
	written, err := s.collectionWritten(ctx, s.db, collectionRules)
	if err != nil {
		return nil, err
	}
	if !written {
		return nil, models.ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, enabled, conditions FROM auto_rules ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := []models.AutoRule{}
	for rows.Next() {
		var r models.AutoRule
		var conditions string
		if err := rows.Scan(&r.ID, &r.Name, &r.Enabled, &conditions); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(conditions), &r.Conditions); err != nil {
			return nil, fmt.Errorf("corrupt conditions for rule %s: %w", r.ID, err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// SaveRules replaces the stored rule list. Slice order becomes the
// evaluation order.
func (s *Store) SaveRules(ctx context.Context, rules []models.AutoRule) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM auto_rules"); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO auto_rules (id, position, name, enabled, conditions) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range rules {
		conditions, err := json.Marshal(r.Conditions)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, r.ID, i, r.Name, r.Enabled, string(conditions)); err != nil {
			return err
		}
	}

	if err := s.markCollection(ctx, tx, collectionRules); err != nil {
		return err
	}
	return tx.Commit()
}
