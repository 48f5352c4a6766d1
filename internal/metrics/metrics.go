// Package metrics exposes Prometheus instruments for the watcher and the
// extraction workflow. Instruments register with the default registry on
// import; the daemon serves them on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "autounzip"

// Result labels for ExtractionsTotal.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	ExtractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "extractions_total",
		Help:      "Archives processed, by format and result",
	}, []string{"format", "result"})

	ExtractionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "extraction_duration_seconds",
		Help:      "Wall time spent extracting one archive",
		Buckets:   []float64{0.05, 0.25, 1, 5, 15, 60, 300, 900},
	}, []string{"format"})

	ExtractedBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "extracted_bytes_total",
		Help:      "Bytes written to target directories",
	}, []string{"format"})

	WatcherCyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "watcher_cycles_total",
		Help:      "Completed poll cycles",
	})

	WatcherFolderErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "watcher_folder_errors_total",
		Help:      "Watch folder listings that failed",
	})

	ArchivesDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "archives_detected_total",
		Help:      "Archives handed to the workflow",
	})

	CallbackFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "callback_failures_total",
		Help:      "Archive handler invocations that returned an error or panicked",
	})
)

// RecordExtraction updates the extraction instruments for one workflow run.
func RecordExtraction(format string, success bool, duration time.Duration, bytes int64) {
	if format == "" {
		format = "unknown"
	}
	result := ResultFailure
	if success {
		result = ResultSuccess
	}
	ExtractionsTotal.WithLabelValues(format, result).Inc()
	ExtractionDuration.WithLabelValues(format).Observe(duration.Seconds())
	if bytes > 0 {
		ExtractedBytesTotal.WithLabelValues(format).Add(float64(bytes))
	}
}

// WatcherObserver feeds watcher loop events into the counters above.
type WatcherObserver struct{}

func (WatcherObserver) CycleCompleted()        { WatcherCyclesTotal.Inc() }
func (WatcherObserver) FolderError(string)     { WatcherFolderErrorsTotal.Inc() }
func (WatcherObserver) ArchiveDetected(string) { ArchivesDetectedTotal.Inc() }
func (WatcherObserver) CallbackFailed(string)  { CallbackFailuresTotal.Inc() }

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
