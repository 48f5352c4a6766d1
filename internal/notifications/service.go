package notifications

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"autounzip/internal/config"
	"autounzip/internal/logging"
)

const userAgent = "AutoUnzip-Go/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyStartup(ctx context.Context, folders int) error
	NotifyProgress(ctx context.Context, archiveName string, percent float64) error
	NotifyCompletion(ctx context.Context, archiveName string, success bool, targetDir string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured,
// or by the logger otherwise.
func NewService(cfg *config.Config, logger *slog.Logger) Service {
	if cfg == nil {
		return noopService{}
	}
	logger = logging.NewComponentLogger(logger, "notifications")

	var transport sender
	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		transport = &ntfySender{endpoint: topic, client: &http.Client{Timeout: timeout}}
	} else {
		transport = &logSender{logger: logger}
	}

	n := cfg.Notifications
	return &service{
		transport:  transport,
		logger:     logger,
		startup:    n.Startup,
		progress:   n.Progress,
		completion: n.Completion,
		milestones: newMilestoneGate(float64(n.ProgressMilestone), n.MinProgressIntervalSeconds),
	}
}

// NewNop returns a Service that drops everything.
func NewNop() Service { return noopService{} }

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type sender interface {
	send(ctx context.Context, data payload) error
}

type service struct {
	transport  sender
	logger     *slog.Logger
	startup    bool
	progress   bool
	completion bool
	milestones *milestoneGate
}

func (s *service) NotifyStartup(ctx context.Context, folders int) error {
	if !s.startup {
		return nil
	}
	return s.transport.send(ctx, payload{
		title:   "Auto-Unzip",
		message: fmt.Sprintf("Auto-Unzip is running, watching %d %s", folders, plural(folders, "folder", "folders")),
		tags:    []string{"autounzip", "startup"},
	})
}

func (s *service) NotifyProgress(ctx context.Context, archiveName string, percent float64) error {
	if !s.progress {
		return nil
	}
	rounded, ok := s.milestones.allow(archiveName, percent)
	if !ok {
		return nil
	}
	return s.transport.send(ctx, payload{
		title:    "Auto-Unzip",
		message:  fmt.Sprintf("Extracting %s - %d%%", strings.TrimSpace(archiveName), rounded),
		tags:     []string{"autounzip", "progress"},
		priority: "low",
	})
}

func (s *service) NotifyCompletion(ctx context.Context, archiveName string, success bool, targetDir string) error {
	s.milestones.forget(archiveName)
	if !s.completion {
		return nil
	}
	archiveName = strings.TrimSpace(archiveName)
	data := payload{
		title:   "Auto-Unzip - Extraction Complete",
		message: fmt.Sprintf("Extracted to %s", targetDir),
		tags:    []string{"autounzip", "extract", "completed"},
	}
	if !success {
		data = payload{
			title:    "Auto-Unzip - Extraction Failed",
			message:  fmt.Sprintf("Failed to extract %s", archiveName),
			tags:     []string{"autounzip", "extract", "failed"},
			priority: "high",
		}
	}
	return s.transport.send(ctx, data)
}

func (s *service) TestNotification(ctx context.Context) error {
	return s.transport.send(ctx, payload{
		title:    "Auto-Unzip - Test",
		message:  "Notification system test",
		tags:     []string{"autounzip", "test"},
		priority: "low",
	})
}

type ntfySender struct {
	endpoint string
	client   *http.Client
}

func (n *ntfySender) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// logSender writes notifications to the structured log.
type logSender struct {
	logger *slog.Logger
}

func (l *logSender) send(_ context.Context, data payload) error {
	l.logger.Info(data.message,
		logging.String(logging.FieldEventType, "notification"),
		logging.String("title", data.title),
		logging.String("tags", strings.Join(data.tags, ",")),
	)
	return nil
}

type noopService struct{}

func (noopService) NotifyStartup(context.Context, int) error                     { return nil }
func (noopService) NotifyProgress(context.Context, string, float64) error        { return nil }
func (noopService) NotifyCompletion(context.Context, string, bool, string) error { return nil }
func (noopService) TestNotification(context.Context) error                       { return nil }

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
