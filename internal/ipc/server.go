package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"

	"log/slog"

	"autounzip/internal/api"
	"autounzip/internal/daemon"
	"autounzip/internal/logging"
	"autounzip/internal/store"
)

// ServiceName is the JSON-RPC service the daemon registers.
const ServiceName = "AutoUnzip"

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName(ServiceName, srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun autounzip stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String("component", "ipc"))
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.RequestShutdown()
	resp.Stopped = true
	s.log().Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	*resp = s.daemon.Status(s.ctx)
	return nil
}

func (s *service) ListFolders(_ ListFoldersRequest, resp *ListFoldersResponse) error {
	resp.Folders = s.daemon.ListFolders()
	return nil
}

func (s *service) AddFolder(req FolderRequest, resp *FolderResponse) error {
	folder, err := s.daemon.AddFolder(req.Path)
	if err != nil {
		return err
	}
	resp.Folder = folder
	resp.Folders = s.daemon.ListFolders()
	return nil
}

func (s *service) RemoveFolder(req FolderRequest, resp *FolderResponse) error {
	folder, err := s.daemon.RemoveFolder(req.Path)
	if err != nil {
		return err
	}
	resp.Folder = folder
	resp.Folders = s.daemon.ListFolders()
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	filter := store.Filter{Limit: req.Limit}
	if value := strings.TrimSpace(req.Status); value != "" {
		status, ok := store.ParseStatus(strings.ToLower(value))
		if !ok {
			return fmt.Errorf("unknown history status %q", value)
		}
		filter.Status = status
	}
	records, err := s.daemon.History(s.ctx, filter)
	if err != nil {
		return err
	}
	resp.Items = api.FromExtractions(records)
	return nil
}

func (s *service) ClearHistory(_ ClearHistoryRequest, resp *ClearHistoryResponse) error {
	removed, err := s.daemon.ClearHistory(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log().Info("history cleared",
		logging.String(logging.FieldEventType, "history_clear"),
		logging.Int64("removed_count", removed))
	return nil
}

func (s *service) DatabaseHealth(_ DatabaseHealthRequest, resp *DatabaseHealthResponse) error {
	health, err := s.daemon.DatabaseHealth(s.ctx)
	if err != nil && health.Error == "" {
		return err
	}
	resp.DBPath = health.DBPath
	resp.DatabaseExists = health.DatabaseExists
	resp.DatabaseReadable = health.DatabaseReadable
	resp.SchemaVersion = health.SchemaVersion
	resp.MissingTables = append(resp.MissingTables, health.MissingTables...)
	resp.IntegrityCheck = health.IntegrityCheck
	resp.TotalRows = health.TotalRows
	resp.Error = health.Error
	return err
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}

func (s *service) Extract(req ExtractRequest, resp *ExtractResponse) error {
	s.log().Debug("manual extraction requested", logging.Archive(req.Path))
	out, err := s.daemon.Extract(s.ctx, daemon.ExtractRequest{
		Path:      req.Path,
		TargetDir: req.TargetDir,
		Delete:    req.Delete,
	})
	if err != nil {
		return err
	}
	resp.Result = api.FromOutcome(out)
	return nil
}
