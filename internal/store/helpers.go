package store

import (
	"database/sql"
	"errors"
	"time"
)

const extractionColumns = "id, archive, archive_name, format, target_dir, status, error_kind, error_message, progress_percent, files, bytes, archive_deleted, correlation_id, started_at, finished_at"

func scanExtraction(scanner interface{ Scan(dest ...any) error }) (*Extraction, error) {
	var (
		rec         Extraction
		format      sql.NullString
		targetDir   sql.NullString
		statusStr   string
		errorKind   sql.NullString
		errorMsg    sql.NullString
		deleted     sql.NullInt64
		correlation sql.NullString
		startedRaw  sql.NullString
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.Archive,
		&rec.ArchiveName,
		&format,
		&targetDir,
		&statusStr,
		&errorKind,
		&errorMsg,
		&rec.ProgressPercent,
		&rec.Files,
		&rec.Bytes,
		&deleted,
		&correlation,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	rec.Format = format.String
	rec.TargetDir = targetDir.String
	rec.Status = Status(statusStr)
	rec.ErrorKind = errorKind.String
	rec.ErrorMessage = errorMsg.String
	rec.ArchiveDeleted = deleted.Valid && deleted.Int64 != 0
	rec.CorrelationID = correlation.String
	if started, err := parseTimeString(startedRaw.String); err == nil {
		rec.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			rec.FinishedAt = &finished
		}
	}
	return &rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
