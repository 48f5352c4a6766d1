package api

import (
	"slices"
	"strings"
	"time"

	"autounzip/internal/deps"
	"autounzip/internal/store"
	"autounzip/internal/watcher"
	"autounzip/internal/workflow"
)

// FromExtraction converts a history row to its API representation.
func FromExtraction(rec *store.Extraction) HistoryItem {
	if rec == nil {
		return HistoryItem{}
	}
	dto := HistoryItem{
		ID:             rec.ID,
		Archive:        rec.Archive,
		ArchiveName:    rec.ArchiveName,
		Format:         rec.Format,
		TargetDir:      rec.TargetDir,
		Status:         string(rec.Status),
		ErrorKind:      rec.ErrorKind,
		ErrorMessage:   rec.ErrorMessage,
		Progress:       rec.ProgressPercent,
		Files:          rec.Files,
		Bytes:          rec.Bytes,
		ArchiveDeleted: rec.ArchiveDeleted,
		CorrelationID:  rec.CorrelationID,
	}
	if !rec.StartedAt.IsZero() {
		dto.StartedAt = rec.StartedAt.UTC().Format(dateTimeFormat)
	}
	if rec.FinishedAt != nil && !rec.FinishedAt.IsZero() {
		dto.FinishedAt = rec.FinishedAt.UTC().Format(dateTimeFormat)
		dto.DurationSeconds = rec.Duration().Seconds()
	}
	return dto
}

// FromExtractions converts a slice of history rows into API DTOs.
func FromExtractions(recs []*store.Extraction) []HistoryItem {
	out := make([]HistoryItem, 0, len(recs))
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		out = append(out, FromExtraction(rec))
	}
	return out
}

// MergeHistoryStats returns counts for every known status, zero-filled, keyed
// by lowercase status string.
func MergeHistoryStats(stats map[store.Status]int) map[string]int {
	out := map[string]int{
		string(store.StatusRunning):     0,
		string(store.StatusSucceeded):   0,
		string(store.StatusFailed):      0,
		string(store.StatusInterrupted): 0,
	}
	for status, count := range stats {
		out[strings.ToLower(string(status))] += count
	}
	return out
}

// FromWatcherStatus converts the watcher's counters.
func FromWatcherStatus(st watcher.Status) WatcherStatus {
	dto := WatcherStatus{
		Running:             st.Running,
		PollIntervalSeconds: st.PollInterval.Seconds(),
		Cycles:              st.Cycles,
		Detected:            st.Detected,
		Failures:            st.Failures,
	}
	if !st.LastCycle.IsZero() {
		dto.LastCycle = st.LastCycle.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromDependencies converts dependency checks, sorted by name.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, DependencyStatus{
			Name:        s.Name,
			Command:     s.Command,
			Description: s.Description,
			Optional:    s.Optional,
			Available:   s.Available,
			Detail:      s.Detail,
		})
	}
	slices.SortStableFunc(out, func(a, b DependencyStatus) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// FromOutcome converts a workflow outcome.
func FromOutcome(out workflow.Outcome) ExtractResult {
	return ExtractResult{
		Archive:         out.Result.Archive,
		ArchiveName:     out.ArchiveName,
		TargetDir:       out.TargetDir,
		Format:          out.Format,
		Success:         out.Success,
		ErrorKind:       out.ErrorKind,
		Error:           out.Error,
		Files:           out.Files,
		Bytes:           out.Bytes,
		Deleted:         out.Deleted,
		DurationSeconds: roundSeconds(out.Duration),
		CorrelationID:   out.CorrelationID,
	}
}

func roundSeconds(d time.Duration) float64 {
	return d.Round(time.Millisecond).Seconds()
}
