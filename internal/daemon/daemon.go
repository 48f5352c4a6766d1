package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"autounzip/internal/api"
	"autounzip/internal/config"
	"autounzip/internal/deps"
	"autounzip/internal/extract"
	"autounzip/internal/logging"
	"autounzip/internal/metrics"
	"autounzip/internal/notifications"
	"autounzip/internal/services"
	"autounzip/internal/store"
	"autounzip/internal/watcher"
	"autounzip/internal/workflow"
)

// Daemon coordinates the watcher, the archive workflow and the HTTP API, and
// enforces single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	notifier  notifications.Service
	folders   *config.WatchSet
	watcher   *watcher.Watcher
	workflow  *workflow.Processor
	apiServer *apiServer
	shutdown  func()

	lockPath string
	lock     *flock.Flock

	cfgMu       sync.Mutex
	lifecycleMu sync.Mutex
	running     atomic.Bool
	ctx         context.Context
	cancel      context.CancelFunc
}

// Option customizes a Daemon.
type Option func(*daemonOptions)

type daemonOptions struct {
	notifier  notifications.Service
	extractor workflow.Extractor
	shutdown  func()
}

// WithNotifier replaces the notifier built from configuration.
func WithNotifier(n notifications.Service) Option {
	return func(o *daemonOptions) { o.notifier = n }
}

// WithExtractor replaces the built-in extraction dispatcher.
func WithExtractor(e workflow.Extractor) Option {
	return func(o *daemonOptions) { o.extractor = e }
}

// WithShutdown registers the function RequestShutdown calls to end the
// hosting process.
func WithShutdown(fn func()) Option {
	return func(o *daemonOptions) { o.shutdown = fn }
}

// ExtractRequest describes a manual one-shot extraction.
type ExtractRequest struct {
	Path      string
	TargetDir string
	Delete    *bool
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || st == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	var o daemonOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.notifier == nil {
		o.notifier = notifications.NewService(cfg, logger)
	}
	if o.extractor == nil {
		o.extractor = extract.NewDispatcher(
			extract.WithLogger(logger),
			extract.WithCabHelper(cfg.CabHelperBinary()),
		)
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		notifier: o.notifier,
		folders:  config.NewWatchSet(cfg.Watch.Folders),
		shutdown: o.shutdown,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}

	d.workflow = workflow.New(o.extractor, o.notifier, d.deleteArchives,
		workflow.WithLogger(logger),
		workflow.WithHistory(st),
		workflow.WithMinFreeSpace(uint64(cfg.Extraction.MinFreeSpaceMB)*1024*1024),
	)

	watchOpts := []watcher.Option{
		watcher.WithLogger(logger),
		watcher.WithObserver(metrics.WatcherObserver{}),
		watcher.WithMinFileAge(cfg.MinFileAge()),
	}
	if cfg.Watch.PersistSeen {
		watchOpts = append(watchOpts, watcher.WithSeenStore(st))
	}
	w, err := watcher.New(d.folders.Snapshot, d.workflow.Handle, cfg.Watch.PollIntervalSeconds, watchOpts...)
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	d.watcher = w

	d.apiServer, err = newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, fmt.Errorf("create api server: %w", err)
	}
	return d, nil
}

// Start acquires the daemon lock, reconciles state left by a previous run and
// launches the watcher and the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	d.lifecycleMu.Lock()
	defer d.lifecycleMu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another autounzip daemon instance is already running")
	}

	d.reconcile(ctx)

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.apiServer.start(d.ctx); err != nil {
		d.cancel()
		_ = d.lock.Unlock()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start api server: %w", err)
	}
	d.watcher.Start(d.ctx)

	d.running.Store(true)
	d.logger.Info("autounzip daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("lock", d.lockPath),
		logging.Int("folders", d.folders.Len()),
		logging.Float64("poll_interval_seconds", d.cfg.Watch.PollIntervalSeconds),
	)
	return nil
}

// reconcile marks extractions interrupted by a crash and drops dedup entries
// for files that no longer exist.
func (d *Daemon) reconcile(ctx context.Context) {
	if n, err := d.store.ResetInterrupted(ctx); err != nil {
		logging.WarnWithContext(d.logger, "failed to reset interrupted extractions", "history_reset_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "history may show stale running rows"),
		)
	} else if n > 0 {
		d.logger.Info("marked interrupted extractions",
			logging.String(logging.FieldEventType, "history_reset"),
			logging.Int64("count", n),
		)
	}
	if !d.cfg.Watch.PersistSeen {
		return
	}
	pruned, err := d.store.PruneSeen(ctx, func(path string) bool {
		_, statErr := os.Stat(path)
		return statErr == nil
	})
	if err != nil {
		logging.WarnWithContext(d.logger, "failed to prune seen files", "seen_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "seen table keeps entries for deleted archives"),
		)
		return
	}
	if pruned > 0 {
		d.logger.Debug("pruned seen files", logging.Int("count", pruned))
	}
}

// Stop stops the watcher and API and releases the daemon lock. The watcher
// gets a bounded grace period before in-flight work is canceled.
func (d *Daemon) Stop() {
	d.lifecycleMu.Lock()
	defer d.lifecycleMu.Unlock()
	if !d.running.Load() {
		return
	}

	if !d.watcher.Stop() {
		d.logger.Warn("watcher did not stop in time; canceling in-flight extraction",
			logging.String(logging.FieldEventType, "watcher_stop_timeout"),
		)
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.apiServer.stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if the next start fails"),
		)
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("autounzip daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
}

// RequestShutdown stops the daemon and asks the hosting process to exit.
func (d *Daemon) RequestShutdown() {
	d.Stop()
	if d.shutdown != nil {
		d.shutdown()
	}
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether Start succeeded and Stop has not been called.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) api.DaemonStatus {
	status := api.DaemonStatus{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		DatabasePath:   d.store.Path(),
		LockFilePath:   d.lockPath,
		LogPath:        d.cfg.LogPath(),
		Folders:        d.folders.Snapshot(),
		DeleteArchives: d.deleteArchives(),
		Watcher:        api.FromWatcherStatus(d.watcher.Status()),
		History:        api.MergeHistoryStats(nil),
		Dependencies:   api.FromDependencies(deps.CheckBinaries(deps.ExtractionRequirements(d.cfg.CabHelperBinary()))),
	}
	if stats, err := d.store.Stats(ctx); err == nil {
		status.History = api.MergeHistoryStats(stats.ByStatus)
		status.SeenFiles = stats.SeenFiles
	} else {
		d.logger.Debug("history stats unavailable", logging.Error(err))
	}
	if recent, err := d.store.ListExtractions(ctx, store.Filter{Limit: 1}); err == nil && len(recent) > 0 {
		item := api.FromExtraction(recent[0])
		status.LastExtraction = &item
	}
	return status
}

// ListFolders returns the watched folders in scan order.
func (d *Daemon) ListFolders() []string {
	return d.folders.Snapshot()
}

// AddFolder starts watching path on the next poll cycle and persists it to
// the configuration file.
func (d *Daemon) AddFolder(path string) (string, error) {
	d.cfgMu.Lock()
	defer d.cfgMu.Unlock()

	resolved, err := d.cfg.AddWatchFolder(path)
	if err != nil {
		return resolved, err
	}
	if err := d.persistConfig(); err != nil {
		_, _ = d.cfg.RemoveWatchFolder(resolved)
		return resolved, err
	}
	if err := d.folders.Add(resolved); err != nil && !errors.Is(err, config.ErrFolderExists) {
		return resolved, err
	}
	d.logger.Info("watch folder added",
		logging.String(logging.FieldEventType, "folder_added"),
		logging.String(logging.FieldFolder, resolved),
	)
	return resolved, nil
}

// RemoveFolder stops watching path and persists the change.
func (d *Daemon) RemoveFolder(path string) (string, error) {
	d.cfgMu.Lock()
	defer d.cfgMu.Unlock()

	previous := append([]string(nil), d.cfg.Watch.Folders...)
	resolved, err := d.cfg.RemoveWatchFolder(path)
	if err != nil {
		return resolved, err
	}
	if err := d.persistConfig(); err != nil {
		d.cfg.Watch.Folders = previous
		return resolved, err
	}
	if err := d.folders.Remove(resolved); err != nil && !errors.Is(err, config.ErrFolderNotFound) {
		return resolved, err
	}
	d.logger.Info("watch folder removed",
		logging.String(logging.FieldEventType, "folder_removed"),
		logging.String(logging.FieldFolder, resolved),
	)
	return resolved, nil
}

func (d *Daemon) persistConfig() error {
	if strings.TrimSpace(d.cfg.SourcePath()) == "" {
		return nil
	}
	if err := d.cfg.Save(""); err != nil {
		return services.Wrap(services.ErrConfiguration, "daemon", "save config", d.cfg.SourcePath(), err)
	}
	return nil
}

func (d *Daemon) deleteArchives() bool {
	d.cfgMu.Lock()
	defer d.cfgMu.Unlock()
	return d.cfg.Extraction.DeleteArchivesAfterExtract
}

// History lists recorded extractions, newest first.
func (d *Daemon) History(ctx context.Context, filter store.Filter) ([]*store.Extraction, error) {
	return d.store.ListExtractions(ctx, filter)
}

// ClearHistory removes finished extraction records.
func (d *Daemon) ClearHistory(ctx context.Context) (int64, error) {
	return d.store.ClearHistory(ctx)
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (store.DatabaseHealth, error) {
	return d.store.CheckHealth(ctx)
}

// TestNotification sends a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Extract runs one archive through the same workflow the watcher uses. It
// works whether or not the watcher is running.
func (d *Daemon) Extract(ctx context.Context, req ExtractRequest) (workflow.Outcome, error) {
	trimmed := strings.TrimSpace(req.Path)
	if trimmed == "" {
		return workflow.Outcome{}, errors.New("archive path is required")
	}
	absPath, err := filepath.Abs(trimmed)
	if err != nil {
		return workflow.Outcome{}, fmt.Errorf("resolve archive path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return workflow.Outcome{}, services.Wrap(services.ErrNotFound, "daemon", "extract", absPath, err)
	}
	if info.IsDir() {
		return workflow.Outcome{}, fmt.Errorf("archive path %q is a directory", absPath)
	}
	out := d.workflow.Run(ctx, workflow.Request{
		Path:      absPath,
		TargetDir: strings.TrimSpace(req.TargetDir),
		Delete:    req.Delete,
	})
	return out, nil
}
