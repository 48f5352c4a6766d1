package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Stats returns history counts grouped by status plus the dedup row count.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	stats := Stats{ByStatus: make(map[Status]int)}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM extractions GROUP BY status`)
	if err != nil {
		return stats, fmt.Errorf("extraction stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return stats, err
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM seen_files").Scan(&stats.SeenFiles); err != nil {
		return stats, fmt.Errorf("count seen files: %w", err)
	}
	return stats, nil
}

// ResetInterrupted marks rows left running by a previous process as
// interrupted. It is called once at daemon startup.
func (s *Store) ResetInterrupted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE extractions SET status = ?, error_kind = COALESCE(error_kind, 'canceled'), finished_at = ?
		 WHERE status = ?`,
		string(StatusInterrupted), formatTime(time.Now()), string(StatusRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("reset interrupted extractions: %w", err)
	}
	return res.RowsAffected()
}

// ClearHistory removes every finished history row. Running rows stay.
func (s *Store) ClearHistory(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, "DELETE FROM extractions WHERE status != ?", string(StatusRunning))
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}

// CheckHealth returns diagnostic information about the state database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	ctx = ensureContext(ctx)
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("state database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat state database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("state database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("state database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping state database: %w", err)
	}
	health.DatabaseReadable = true

	if err := s.db.QueryRowContext(connCtx, "SELECT version FROM schema_version LIMIT 1").Scan(&health.SchemaVersion); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("read schema version: %w", err)
	}

	for _, table := range expectedTables {
		var count int
		row := s.db.QueryRowContext(connCtx, "SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = ?", table)
		if err := row.Scan(&count); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("query table info: %w", err)
		}
		if count == 0 {
			health.MissingTables = append(health.MissingTables, table)
			continue
		}
		var rows int
		if err := s.db.QueryRowContext(connCtx, "SELECT COUNT(1) FROM "+table).Scan(&rows); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count %s: %w", table, err)
		}
		health.TotalRows += rows
	}

	var integrityResult string
	if err := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check").Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}
