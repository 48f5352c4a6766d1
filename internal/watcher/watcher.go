package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"autounzip/internal/extract"
	"autounzip/internal/logging"
	"autounzip/internal/services"
)

const (
	maxPollInterval    = time.Hour
	defaultStopTimeout = 2 * time.Second
)

// Callback receives the absolute path of a new or modified archive. It runs
// on the poll goroutine; the next folder is not scanned until it returns.
type Callback func(ctx context.Context, path string) error

// Observer receives loop events, typically to feed metrics.
type Observer interface {
	CycleCompleted()
	FolderError(folder string)
	ArchiveDetected(path string)
	CallbackFailed(path string)
}

type nopObserver struct{}

func (nopObserver) CycleCompleted()        {}
func (nopObserver) FolderError(string)     {}
func (nopObserver) ArchiveDetected(string) {}
func (nopObserver) CallbackFailed(string)  {}

// Status is a point-in-time view of the loop for status reporting.
type Status struct {
	Running      bool          `json:"running"`
	PollInterval time.Duration `json:"poll_interval"`
	Cycles       uint64        `json:"cycles"`
	LastCycle    time.Time     `json:"last_cycle,omitzero"`
	Detected     uint64        `json:"detected"`
	Failures     uint64        `json:"failures"`
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithLogger sets the base logger. A component attribute is added.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) { w.logger = logging.NewComponentLogger(logger, "watcher") }
}

// WithSeenStore replaces the default in-memory dedup store.
func WithSeenStore(store SeenStore) Option {
	return func(w *Watcher) {
		if store != nil {
			w.seen = store
		}
	}
}

// WithMinFileAge skips files modified more recently than age. They are
// picked up on a later cycle once they have settled.
func WithMinFileAge(age time.Duration) Option {
	return func(w *Watcher) {
		if age > 0 {
			w.minAge = age
		}
	}
}

// WithObserver registers loop event hooks.
func WithObserver(obs Observer) Option {
	return func(w *Watcher) {
		if obs != nil {
			w.observer = obs
		}
	}
}

// WithStopTimeout bounds how long Stop waits for the loop to exit.
func WithStopTimeout(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.stopTimeout = d
		}
	}
}

// Watcher polls a set of folders and reports archives through a Callback.
type Watcher struct {
	folders   func() []string
	onArchive Callback
	interval  time.Duration

	logger      *slog.Logger
	seen        SeenStore
	observer    Observer
	minAge      time.Duration
	stopTimeout time.Duration
	now         func() time.Time

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}

	stats Status
}

// New validates the poll interval (seconds, fractional allowed, at most one
// hour) and builds a stopped Watcher.
func New(folders func() []string, onArchive Callback, intervalSeconds float64, opts ...Option) (*Watcher, error) {
	if folders == nil {
		return nil, services.Wrap(services.ErrConfiguration, "watcher", "new", "folder accessor is required", nil)
	}
	if onArchive == nil {
		return nil, services.Wrap(services.ErrConfiguration, "watcher", "new", "archive callback is required", nil)
	}
	interval := time.Duration(intervalSeconds * float64(time.Second))
	if intervalSeconds <= 0 || interval <= 0 || interval > maxPollInterval {
		return nil, services.Wrap(services.ErrConfiguration, "watcher", "new",
			fmt.Sprintf("poll interval %gs outside (0, 3600]", intervalSeconds), nil)
	}
	w := &Watcher{
		folders:     folders,
		onArchive:   onArchive,
		interval:    interval,
		logger:      logging.NewComponentLogger(nil, "watcher"),
		seen:        NewMemoryStore(),
		observer:    nopObserver{},
		stopTimeout: defaultStopTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.stats.PollInterval = interval
	return w, nil
}

// Start launches the poll goroutine. Calling Start on a running watcher is
// a no-op. If a previous Stop timed out, Start blocks until that loop has
// exited so two loops never run at once. The loop ends when Stop is called
// or ctx is canceled; ctx is also handed to the callback, so canceling it
// aborts an extraction in flight while Stop does not.
func (w *Watcher) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for {
		if w.running {
			return
		}
		prev := w.done
		if prev == nil || closed(prev) {
			break
		}
		w.logger.Info("waiting for previous poll loop to exit",
			logging.String(logging.FieldEventType, "watcher_restart_wait"),
		)
		w.mu.Unlock()
		<-prev
		w.mu.Lock()
	}
	w.running = true
	w.stats.Running = true
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	go w.loop(ctx, w.stop, w.done)
	w.logger.Info("watcher started",
		logging.String(logging.FieldEventType, "watcher_started"),
		logging.Duration("poll_interval", w.interval),
		logging.Int("folders", len(w.folders())),
	)
}

// Stop signals the loop and waits, bounded, for it to exit. An extraction
// already running is allowed to finish; if it outlasts the bound Stop
// returns false and the loop exits on its own afterwards.
func (w *Watcher) Stop() bool {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return true
	}
	w.running = false
	stop, done := w.stop, w.done
	w.mu.Unlock()

	close(stop)
	timer := time.NewTimer(w.stopTimeout)
	defer timer.Stop()
	select {
	case <-done:
		w.logger.Info("watcher stopped", logging.String(logging.FieldEventType, "watcher_stopped"))
		return true
	case <-timer.C:
		logging.WarnWithContext(w.logger, "watcher did not stop in time", "watcher_stop_timeout",
			logging.Duration("timeout", w.stopTimeout),
			logging.String(logging.FieldErrorHint, "a long extraction is still running"),
			logging.String(logging.FieldImpact, "the running extraction finishes before the loop exits"),
		)
		return false
	}
}

// Running reports whether the loop goroutine is active.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Status returns loop counters.
func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer func() {
		w.mu.Lock()
		w.stats.Running = false
		w.mu.Unlock()
	}()

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-timer.C:
		}
		w.cycle(ctx, stop)
		timer.Reset(w.interval)
	}
}

// cycle runs one scan over a snapshot of the folder list.
func (w *Watcher) cycle(ctx context.Context, stop <-chan struct{}) {
	for _, folder := range w.folders() {
		if stopped(ctx, stop) {
			return
		}
		w.scanFolder(ctx, stop, folder)
	}
	w.mu.Lock()
	w.stats.Cycles++
	w.stats.LastCycle = w.now()
	w.mu.Unlock()
	w.observer.CycleCompleted()
}

func (w *Watcher) scanFolder(ctx context.Context, stop <-chan struct{}, folder string) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			w.logger.Debug("watch folder missing; treating as empty", logging.String(logging.FieldFolder, folder))
			return
		}
		w.observer.FolderError(folder)
		logging.WarnWithContext(w.logger, "watch folder listing failed", "watch_folder_error",
			logging.String(logging.FieldFolder, folder),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check folder permissions"),
			logging.String(logging.FieldImpact, "archives in this folder are not detected this cycle"),
		)
		return
	}

	for _, entry := range entries {
		if stopped(ctx, stop) {
			return
		}
		if entry.IsDir() || !extract.IsArchive(entry.Name()) {
			continue
		}
		path := filepath.Join(folder, entry.Name())
		// Stat follows symlinks so a link to an archive is picked up.
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		mtime := info.ModTime()
		if w.minAge > 0 && w.now().Sub(mtime) < w.minAge {
			w.logger.Debug("archive still settling", logging.Archive(path))
			continue
		}
		if !w.isNew(ctx, path, mtime) {
			continue
		}
		w.dispatch(ctx, folder, path)
	}
}

// isNew consults the dedup store and records mtime when the callback should fire.
func (w *Watcher) isNew(ctx context.Context, path string, mtime time.Time) bool {
	prev, ok, err := w.seen.Seen(ctx, path)
	if err != nil {
		logging.WarnWithContext(w.logger, "dedup lookup failed", "dedup_error",
			logging.Archive(path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the state database"),
			logging.String(logging.FieldImpact, "archive is retried next cycle"),
		)
		return false
	}
	if ok && !prev.Before(mtime) {
		return false
	}
	if err := w.seen.MarkSeen(ctx, path, mtime); err != nil {
		logging.WarnWithContext(w.logger, "dedup record failed", "dedup_error",
			logging.Archive(path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the state database"),
			logging.String(logging.FieldImpact, "archive is retried next cycle"),
		)
		return false
	}
	return true
}

// dispatch runs the callback, containing errors and panics so the loop survives.
func (w *Watcher) dispatch(ctx context.Context, folder, path string) {
	w.mu.Lock()
	w.stats.Detected++
	w.mu.Unlock()
	w.observer.ArchiveDetected(path)

	cbCtx := services.WithFolder(services.WithArchive(ctx, path), folder)
	logger := logging.WithContext(cbCtx, w.logger)
	logger.Info("archive detected", logging.String(logging.FieldEventType, "archive_detected"))

	err := w.invoke(cbCtx, path)
	if err == nil {
		return
	}
	w.mu.Lock()
	w.stats.Failures++
	w.mu.Unlock()
	w.observer.CallbackFailed(path)
	logging.ErrorWithContext(logger, "archive handler failed", "callback_failed",
		logging.Error(err),
		logging.ErrorKind(services.Kind(err)),
		logging.String(logging.FieldErrorHint, "polling continues with the next archive"),
	)
}

func (w *Watcher) invoke(ctx context.Context, path string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("archive handler panic: %v", r)
		}
	}()
	return w.onArchive(ctx, path)
}

func closed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func stopped(ctx context.Context, stop <-chan struct{}) bool {
	select {
	case <-ctx.Done():
		return true
	case <-stop:
		return true
	default:
		return false
	}
}
