// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Setting returns a system setting value, or def when unset
func (s *Store) Setting(ctx context.Context, key, def string) (string, error) {
	var v sql.NullString
	err := s.get(ctx, &v, `SELECT setting_value FROM system_settings WHERE setting_key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !v.Valid) {
		return def, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query setting %s: %w", key, err)
	}
	return v.String, nil
}

// PutSetting inserts or replaces a system setting
func (s *Store) PutSetting(ctx context.Context, key, value, description string) error {
	return s.InTx(ctx, func(tx *Store) error {
		n, err := tx.exec(ctx, `
			UPDATE system_settings SET setting_value = ?, description = ?, updated_at = ? WHERE setting_key = ?
		`, value, description, tx.Now(), key)
		if err != nil {
			return fmt.Errorf("failed to update setting %s: %w", key, err)
		}
		if n > 0 {
			return nil
		}
		_, err = tx.exec(ctx, `
			INSERT INTO system_settings (setting_key, setting_value, description, updated_at) VALUES (?, ?, ?, ?)
		`, key, value, description, tx.Now())
		if err != nil {
			return fmt.Errorf("failed to insert setting %s: %w", key, err)
		}
		return nil
	})
}
