package ipc

import "autounzip/internal/api"

// StopRequest asks the daemon to stop and exit.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse mirrors the HTTP API status DTO.
type StatusResponse = api.DaemonStatus

// HistoryItem mirrors the HTTP API history DTO.
type HistoryItem = api.HistoryItem

// DependencyStatus describes availability of an external dependency.
type DependencyStatus = api.DependencyStatus

// FolderRequest names a watch folder to add or remove.
type FolderRequest struct {
	Path string `json:"path"`
}

// FolderResponse reports the resolved folder and the resulting watch list.
type FolderResponse struct {
	Folder  string   `json:"folder"`
	Folders []string `json:"folders"`
}

// ListFoldersRequest fetches the watch list.
type ListFoldersRequest struct{}

// ListFoldersResponse contains the watched folders in scan order.
type ListFoldersResponse struct {
	Folders []string `json:"folders"`
}

// HistoryRequest filters extraction history. Zero values mean no restriction.
type HistoryRequest struct {
	Status string `json:"status"`
	Limit  int    `json:"limit"`
}

// HistoryResponse contains history entries, newest first.
type HistoryResponse struct {
	Items []HistoryItem `json:"items"`
}

// ClearHistoryRequest removes finished history entries.
type ClearHistoryRequest struct{}

// ClearHistoryResponse reports number of removed entries.
type ClearHistoryResponse struct {
	Removed int64 `json:"removed"`
}

// DatabaseHealthRequest fetches detailed database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse reports database health information.
type DatabaseHealthResponse struct {
	DBPath           string   `json:"db_path"`
	DatabaseExists   bool     `json:"database_exists"`
	DatabaseReadable bool     `json:"database_readable"`
	SchemaVersion    int      `json:"schema_version"`
	MissingTables    []string `json:"missing_tables"`
	IntegrityCheck   bool     `json:"integrity_check"`
	TotalRows        int      `json:"total_rows"`
	Error            string   `json:"error"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// ExtractRequest runs one archive through the daemon's workflow. An empty
// TargetDir means the sibling directory; a nil Delete defers to configuration.
type ExtractRequest struct {
	Path      string `json:"path"`
	TargetDir string `json:"target_dir"`
	Delete    *bool  `json:"delete,omitempty"`
}

// ExtractResponse reports the outcome of a manual extraction.
type ExtractResponse struct {
	Result api.ExtractResult `json:"result"`
}
