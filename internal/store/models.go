package store

import "time"

// Status is the lifecycle state of one extraction record.
type Status string

const (
	StatusRunning     Status = "running"
	StatusSucceeded   Status = "succeeded"
	StatusFailed      Status = "failed"
	StatusInterrupted Status = "interrupted"
)

// ParseStatus normalizes a user supplied status filter.
func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusRunning, StatusSucceeded, StatusFailed, StatusInterrupted:
		return Status(value), true
	}
	return "", false
}

// Job describes an extraction that is about to start.
type Job struct {
	Archive       string
	ArchiveName   string
	Format        string
	TargetDir     string
	CorrelationID string
}

// Outcome is recorded when an extraction finishes.
type Outcome struct {
	Success        bool
	ErrorKind      string
	ErrorMessage   string
	Files          int
	Bytes          int64
	ArchiveDeleted bool
}

// Extraction is one persisted history row.
type Extraction struct {
	ID              int64      `json:"id"`
	Archive         string     `json:"archive"`
	ArchiveName     string     `json:"archive_name"`
	Format          string     `json:"format,omitempty"`
	TargetDir       string     `json:"target_dir,omitempty"`
	Status          Status     `json:"status"`
	ErrorKind       string     `json:"error_kind,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	ProgressPercent float64    `json:"progress_percent"`
	Files           int        `json:"files"`
	Bytes           int64      `json:"bytes"`
	ArchiveDeleted  bool       `json:"archive_deleted"`
	CorrelationID   string     `json:"correlation_id,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
}

// Duration reports how long the extraction ran. Running rows report zero.
func (e Extraction) Duration() time.Duration {
	if e.FinishedAt == nil || e.StartedAt.IsZero() {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}

// Filter narrows ListExtractions. Zero values mean no restriction.
type Filter struct {
	Status Status
	Limit  int
}

// Stats summarizes history and dedup state.
type Stats struct {
	ByStatus  map[Status]int `json:"by_status"`
	Total     int            `json:"total"`
	SeenFiles int            `json:"seen_files"`
}

// DatabaseHealth captures diagnostic information about the state database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    int
	MissingTables    []string
	IntegrityCheck   bool
	TotalRows        int
	Error            string
}
