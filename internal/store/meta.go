package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// MetaIDMode records whether the journal was written with one id allocator
// shared by both registries ("shared") or one per registry ("separate").
const MetaIDMode = "id_mode"

// Meta returns the journal setting stored under key.
// ok is false when the key has never been set.
func (s *Store) Meta(ctx context.Context, key string) (value string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read meta %q: %w", key, err)
	}
	return value, true, nil
}

// ClaimMeta stores value under key unless the key is already set, and
// returns the value now stored. Callers compare the result with value to
// detect a conflicting setting.
func (s *Store) ClaimMeta(ctx context.Context, key, value string) (string, error) {
	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO meta (key, value) VALUES (?, ?)`, key, value); err != nil {
		return "", fmt.Errorf("write meta %q: %w", key, err)
	}
	stored, _, err := s.Meta(ctx, key)
	return stored, err
}
