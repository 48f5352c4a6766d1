package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"autounzip/internal/api"
	"autounzip/internal/config"
	"autounzip/internal/deps"
	"autounzip/internal/ipc"
	"autounzip/internal/store"
)

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	ConfigPath string
	LogLevel   string
	Diagnostic bool
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State    StartState
	Launched bool
	PID      int
}

// Launch starts a detached autounzip daemon process.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	args := []string{"daemon"}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		args = append(args, "--log-level", level)
	}
	if opts.Diagnostic {
		args = append(args, "--diagnostic")
	}

	proc := exec.Command(executablePath, args...)
	proc.SysProcAttr = detachedAttrs()
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForClient waits for IPC socket availability and returns a connected client.
func WaitForClient(socketPath string, timeout time.Duration) (*ipc.Client, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err == nil {
			return client, nil
		}
		lastErr = err
		time.Sleep(200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for daemon")
	}
	return nil, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureStarted launches the daemon unless one already answers on the socket.
func EnsureStarted(socketPath, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	if client, err := ipc.Dial(socketPath); err == nil {
		defer client.Close()
		result := StartResult{State: StartStateAlreadyRunning}
		if status, statusErr := client.Status(); statusErr == nil && status != nil {
			result.PID = status.PID
		}
		return result, nil
	}

	if err := Launch(executablePath, opts); err != nil {
		return StartResult{}, err
	}
	client, err := WaitForClient(socketPath, waitTimeout)
	if err != nil {
		return StartResult{}, err
	}
	defer client.Close()

	result := StartResult{State: StartStateStarted, Launched: true}
	if status, statusErr := client.Status(); statusErr == nil && status != nil {
		result.PID = status.PID
	}
	return result, nil
}

// WaitForShutdown waits for the daemon socket to stop answering.
func WaitForShutdown(socketPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err != nil {
			if isDaemonUnavailable(err) {
				return nil
			}
			time.Sleep(200 * time.Millisecond)
			continue
		}
		_ = client.Close()
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("daemon did not stop within %s", timeout)
}

// ProcessInfo returns whether daemon IPC is reachable and the daemon PID when available.
func ProcessInfo(socketPath string) (bool, int, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if isDaemonUnavailable(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	defer client.Close()
	status, statusErr := client.Status()
	if statusErr != nil {
		return true, 0, statusErr
	}
	pid := 0
	if status != nil {
		pid = status.PID
	}
	return true, pid, nil
}

// ReadPID parses the daemon PID file.
func ReadPID(pidPath string) (int, error) {
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid file %q", pidPath)
	}
	return pid, nil
}

// TerminateProcess sends SIGTERM to the daemon, escalating to SIGKILL when it
// is still alive after gracePeriod. The PID file and socket are cleaned up.
func TerminateProcess(pidPath, socketPath string, fallbackPID int, gracePeriod time.Duration) (int, bool, error) {
	pid := fallbackPID
	if parsed, err := ReadPID(pidPath); err == nil {
		pid = parsed
	} else if !errors.Is(err, os.ErrNotExist) && pid <= 0 {
		return 0, false, fmt.Errorf("read daemon pid file: %w", err)
	}
	if pid <= 0 {
		return 0, false, fmt.Errorf("unable to determine daemon pid (pid file: %s)", pidPath)
	}
	if pid == os.Getpid() {
		return 0, false, fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, false, fmt.Errorf("locate daemon process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return 0, false, fmt.Errorf("signal daemon process %d: %w", pid, err)
	}

	killed := false
	if WaitForShutdown(socketPath, gracePeriod) != nil {
		if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return 0, false, fmt.Errorf("kill daemon process %d: %w", pid, err)
		}
		killed = true
	}
	if err := os.Remove(pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return pid, killed, fmt.Errorf("remove pid file %q: %w", pidPath, err)
	}
	if killed {
		_ = os.Remove(socketPath)
	}
	return pid, killed, nil
}

// ErrDaemonNotRunning indicates daemon IPC is unavailable.
var ErrDaemonNotRunning = errors.New("daemon not running")

// StopResult captures daemon stop/termination outcome.
type StopResult struct {
	StopAcknowledged bool
	Terminated       bool
	ForcedKill       bool
	PID              int
}

// StopAndTerminate asks the daemon to stop over IPC and falls back to signals
// when it is still answering after gracePeriod.
func StopAndTerminate(socketPath string, cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	if cfg == nil {
		return StopResult{}, errors.New("configuration not available")
	}
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if isDaemonUnavailable(err) {
			return StopResult{}, ErrDaemonNotRunning
		}
		return StopResult{}, err
	}
	pid := 0
	if status, statusErr := client.Status(); statusErr == nil && status != nil {
		pid = status.PID
	}
	resp, err := client.Stop()
	_ = client.Close()
	result := StopResult{PID: pid}
	if err == nil && resp != nil {
		result.StopAcknowledged = resp.Stopped
	}

	if WaitForShutdown(socketPath, gracePeriod) == nil {
		return result, nil
	}

	killedPID, forced, termErr := TerminateProcess(cfg.PIDPath(), socketPath, pid, gracePeriod)
	if termErr != nil {
		return result, fmt.Errorf("failed to stop daemon process: %w", termErr)
	}
	result.Terminated = true
	result.ForcedKill = forced
	result.PID = killedPID
	return result, nil
}

// BuildStatusSnapshot returns live status from the daemon, or an offline
// snapshot read from the state database and configuration.
func BuildStatusSnapshot(ctx context.Context, socketPath string, cfg *config.Config) (*ipc.StatusResponse, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}
	client, err := ipc.Dial(socketPath)
	if err == nil {
		defer client.Close()
		if resp, statusErr := client.Status(); statusErr == nil && resp != nil {
			return resp, nil
		}
	}

	snapshot := &ipc.StatusResponse{
		DatabasePath:   cfg.DatabasePath(),
		LockFilePath:   cfg.LockPath(),
		LogPath:        cfg.LogPath(),
		Folders:        append([]string(nil), cfg.Watch.Folders...),
		DeleteArchives: cfg.Extraction.DeleteArchivesAfterExtract,
		Watcher:        api.WatcherStatus{PollIntervalSeconds: cfg.Watch.PollIntervalSeconds},
		History:        api.MergeHistoryStats(nil),
		Dependencies:   api.FromDependencies(deps.CheckBinaries(deps.ExtractionRequirements(cfg.CabHelperBinary()))),
	}
	if _, statErr := os.Stat(cfg.DatabasePath()); statErr != nil {
		return snapshot, nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	st, openErr := store.OpenPath(cfg.DatabasePath())
	if openErr != nil {
		return snapshot, nil
	}
	defer st.Close()
	if stats, statsErr := st.Stats(queryCtx); statsErr == nil {
		snapshot.History = api.MergeHistoryStats(stats.ByStatus)
		snapshot.SeenFiles = stats.SeenFiles
	}
	if recent, listErr := st.ListExtractions(queryCtx, store.Filter{Limit: 1}); listErr == nil && len(recent) > 0 {
		item := api.FromExtraction(recent[0])
		snapshot.LastExtraction = &item
	}
	return snapshot, nil
}

func isDaemonUnavailable(err error) bool {
	return os.IsNotExist(err) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}
