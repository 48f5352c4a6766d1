package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// BeginExtraction inserts a running history row and returns its ID.
func (s *Store) BeginExtraction(ctx context.Context, job Job) (int64, error) {
	if strings.TrimSpace(job.Archive) == "" {
		return 0, errors.New("archive path is required")
	}
	res, err := s.execWithRetry(ctx,
		`INSERT INTO extractions (archive, archive_name, format, target_dir, status, correlation_id, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.Archive,
		job.ArchiveName,
		nullableString(job.Format),
		nullableString(job.TargetDir),
		string(StatusRunning),
		nullableString(job.CorrelationID),
		formatTime(time.Now()),
	)
	if err != nil {
		return 0, fmt.Errorf("insert extraction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("extraction id: %w", err)
	}
	return id, nil
}

// UpdateProgress stores the latest percentage of a running extraction.
// Lower values than the stored one are ignored.
func (s *Store) UpdateProgress(ctx context.Context, id int64, percent float64) error {
	_, err := s.execWithRetry(ctx,
		`UPDATE extractions SET progress_percent = ?
		 WHERE id = ? AND status = ? AND progress_percent < ?`,
		percent, id, string(StatusRunning), percent,
	)
	if err != nil {
		return fmt.Errorf("update extraction progress: %w", err)
	}
	return nil
}

// FinishExtraction records the final outcome of an extraction.
func (s *Store) FinishExtraction(ctx context.Context, id int64, outcome Outcome) error {
	status := StatusFailed
	if outcome.Success {
		status = StatusSucceeded
	}
	query := `UPDATE extractions SET status = ?, error_kind = ?, error_message = ?, files = ?, bytes = ?,
		archive_deleted = ?, finished_at = ?`
	if outcome.Success {
		query += ", progress_percent = 100"
	}
	query += " WHERE id = ?"
	res, err := s.execWithRetry(ctx, query,
		string(status),
		nullableString(outcome.ErrorKind),
		nullableString(outcome.ErrorMessage),
		outcome.Files,
		outcome.Bytes,
		boolToInt(outcome.ArchiveDeleted),
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish extraction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish extraction: no row with id %d", id)
	}
	return nil
}

// GetExtraction fetches one history row. A missing row returns nil.
func (s *Store) GetExtraction(ctx context.Context, id int64) (*Extraction, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+extractionColumns+" FROM extractions WHERE id = ?", id)
	rec, err := scanExtraction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get extraction: %w", err)
	}
	return rec, nil
}

// ListExtractions returns history rows, newest first.
func (s *Store) ListExtractions(ctx context.Context, filter Filter) ([]*Extraction, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + extractionColumns + " FROM extractions"
	args := make([]any, 0, 2)
	if filter.Status != "" {
		query += " WHERE status = ?"
		args = append(args, string(filter.Status))
	}
	query += " ORDER BY id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list extractions: %w", err)
	}
	defer rows.Close()

	var records []*Extraction
	for rows.Next() {
		rec, err := scanExtraction(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
