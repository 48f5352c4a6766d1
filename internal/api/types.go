package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// HistoryItem describes one extraction record in a transport-friendly format.
type HistoryItem struct {
	ID              int64   `json:"id"`
	Archive         string  `json:"archive"`
	ArchiveName     string  `json:"archiveName"`
	Format          string  `json:"format,omitempty"`
	TargetDir       string  `json:"targetDir,omitempty"`
	Status          string  `json:"status"`
	ErrorKind       string  `json:"errorKind,omitempty"`
	ErrorMessage    string  `json:"errorMessage,omitempty"`
	Progress        float64 `json:"progress"`
	Files           int     `json:"files"`
	Bytes           int64   `json:"bytes"`
	ArchiveDeleted  bool    `json:"archiveDeleted"`
	CorrelationID   string  `json:"correlationId,omitempty"`
	StartedAt       string  `json:"startedAt,omitempty"`
	FinishedAt      string  `json:"finishedAt,omitempty"`
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
}

// WatcherStatus summarizes the poll loop.
type WatcherStatus struct {
	Running             bool    `json:"running"`
	PollIntervalSeconds float64 `json:"pollIntervalSeconds"`
	Cycles              uint64  `json:"cycles"`
	LastCycle           string  `json:"lastCycle,omitempty"`
	Detected            uint64  `json:"detected"`
	Failures            uint64  `json:"failures"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running        bool               `json:"running"`
	PID            int                `json:"pid"`
	DatabasePath   string             `json:"databasePath"`
	LockFilePath   string             `json:"lockFilePath"`
	LogPath        string             `json:"logPath,omitempty"`
	Folders        []string           `json:"folders"`
	DeleteArchives bool               `json:"deleteArchives"`
	Watcher        WatcherStatus      `json:"watcher"`
	History        map[string]int     `json:"history"`
	SeenFiles      int                `json:"seenFiles"`
	LastExtraction *HistoryItem       `json:"lastExtraction,omitempty"`
	Dependencies   []DependencyStatus `json:"dependencies"`
}

// HistoryResponse wraps a collection of history items.
type HistoryResponse struct {
	Items []HistoryItem `json:"items"`
}

// FoldersResponse lists the watched folders in scan order.
type FoldersResponse struct {
	Folders []string `json:"folders"`
}

// ExtractResult reports the outcome of a manual extraction.
type ExtractResult struct {
	Archive         string  `json:"archive"`
	ArchiveName     string  `json:"archiveName"`
	TargetDir       string  `json:"targetDir"`
	Format          string  `json:"format,omitempty"`
	Success         bool    `json:"success"`
	ErrorKind       string  `json:"errorKind,omitempty"`
	Error           string  `json:"error,omitempty"`
	Files           int     `json:"files"`
	Bytes           int64   `json:"bytes"`
	Deleted         bool    `json:"deleted"`
	DurationSeconds float64 `json:"durationSeconds"`
	CorrelationID   string  `json:"correlationId,omitempty"`
}
