package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"autounzip/internal/config"
	"autounzip/internal/daemon"
	"autounzip/internal/ipc"
	"autounzip/internal/logging"
	"autounzip/internal/notifications"
	"autounzip/internal/preflight"
	"autounzip/internal/store"
)

// Options configures daemon process runtime behavior.
type Options struct {
	// LogLevel overrides logging.level for this run without touching the
	// configuration file.
	LogLevel string
	// Diagnostic tees every record at debug level into a per-run JSON file
	// in paths.log_dir.
	Diagnostic bool
}

// Run starts the autounzip daemon and blocks until SIGINT, SIGTERM, an IPC
// stop request, or cancellation of cmdCtx.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := uuid.NewString()
	logCfg := *cfg
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		logCfg.Logging.Level = level
	}
	logger, err := logging.NewFromConfig(&logCfg, runID)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if opts.Diagnostic {
		diagLogger, closer, err := logging.WithDiagnosticFile(logger, cfg.Paths.LogDir, runID)
		if err != nil {
			return err
		}
		defer closer.Close()
		logger = diagLogger
	}

	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.DaemonRetentionTargets(cfg)...)
	logPreflight(signalCtx, logger, cfg)

	st, err := store.Open(cfg)
	if err != nil {
		logging.ErrorWithContext(logger, "open state store", "store_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.state_dir permissions or remove a database from a newer release"),
		)
		return err
	}
	defer st.Close()

	notifier := notifications.NewService(cfg, logger)
	d, err := daemon.New(cfg, st, logger,
		daemon.WithNotifier(notifier),
		daemon.WithShutdown(cancel),
	)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	// In-flight extractions get the watcher's grace period on shutdown, so the
	// daemon context is detached from signal cancellation.
	if err := d.Start(context.WithoutCancel(signalCtx)); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "stop the running instance with autounzip stop"),
		)
		return err
	}

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := notifier.NotifyStartup(signalCtx, len(d.ListFolders())); err != nil {
		logging.WarnWithContext(logger, "startup notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "no startup push was delivered"),
		)
	}

	<-signalCtx.Done()
	logger.Info("autounzip daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	results := preflight.RunAll(ctx, cfg)
	for _, r := range results {
		if r.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
			)
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
		)
	}
	logger.Info("preflight complete",
		logging.String(logging.FieldEventType, "preflight_complete"),
		logging.Int("checks", len(results)),
		logging.Int("failed", len(preflight.Failed(results))),
	)
}
