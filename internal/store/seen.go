package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Seen returns the modification time last recorded for path.
func (s *Store) Seen(ctx context.Context, path string) (time.Time, bool, error) {
	ctx = ensureContext(ctx)
	var raw string
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, "SELECT mtime FROM seen_files WHERE path = ?", path).Scan(&raw)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("lookup seen file: %w", err)
	}
	mtime, err := parseTimeString(raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse seen mtime %q: %w", raw, err)
	}
	return mtime, true, nil
}

// MarkSeen records mtime for path, replacing any earlier value.
func (s *Store) MarkSeen(ctx context.Context, path string, mtime time.Time) error {
	_, err := s.execWithRetry(ctx,
		`INSERT INTO seen_files (path, mtime, recorded_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET mtime = excluded.mtime, recorded_at = excluded.recorded_at`,
		path, formatTime(mtime), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("mark seen file: %w", err)
	}
	return nil
}

// PruneSeen drops entries whose path no longer exists according to exists.
// It returns the number of removed rows.
func (s *Store) PruneSeen(ctx context.Context, exists func(string) bool) (int, error) {
	ctx = ensureContext(ctx)
	if exists == nil {
		return 0, nil
	}
	rows, err := s.db.QueryContext(ctx, "SELECT path FROM seen_files")
	if err != nil {
		return 0, fmt.Errorf("list seen files: %w", err)
	}
	var stale []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			rows.Close()
			return 0, err
		}
		if !exists(path) {
			stale = append(stale, path)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	removed := 0
	for _, path := range stale {
		res, err := s.execWithRetry(ctx, "DELETE FROM seen_files WHERE path = ?", path)
		if err != nil {
			return removed, fmt.Errorf("prune seen file: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			removed += int(n)
		}
	}
	return removed, nil
}
