package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"soundbridge/internal/daemon"
	"soundbridge/internal/journal"
	"soundbridge/internal/lifecycle"
	"soundbridge/internal/logging"
	"soundbridge/internal/soundlist"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path. The shutdown
// callback is invoked when a client requests daemon exit.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger, shutdown func()) (*Server, error) {
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
	srv := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc"), ctx: ctx, shutdown: shutdown}
	if err := rpcServer.RegisterName("Soundbridge", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
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
				s.logger.Warn("accept failed", logging.Error(err))
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
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

type service struct {
	daemon   *daemon.Daemon
	logger   *slog.Logger
	ctx      context.Context
	shutdown func()
}

func mutationResponse(resp *MutationResponse, outcome *daemon.MutationOutcome) {
	if outcome == nil {
		return
	}
	if outcome.Entry != nil {
		resp.RequestID = outcome.Entry.RequestID
		resp.Operation = outcome.Entry.Operation
		resp.Detail = outcome.Entry.Detail
	}
	if outcome.Report != nil {
		resp.AssignedID = outcome.Report.Change.AssignedID
		resp.RemovedRefs = outcome.Report.Change.RemovedRefs
		resp.Renumbered = outcome.Report.Change.Renumbered
		if resp.Detail == "" {
			resp.Detail = outcome.Report.Change.Detail
		}
		resp.Stopped = outcome.Report.Stopped
		resp.StopDegraded = outcome.Report.StopDegraded
		resp.Relaunched = outcome.Report.Relaunched
		resp.ReadyDegraded = outcome.Report.ReadyDegraded
		resp.ElapsedMillis = outcome.Report.Elapsed.Milliseconds()
	}
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.StartedAt = status.StartedAt
	resp.Phase = string(status.Phase)
	resp.BoardAlive = status.BoardAlive
	resp.DocumentPath = status.DocumentPath
	resp.DatabasePath = status.DatabasePath
	resp.SocketPath = status.SocketPath
	resp.LockPath = status.LockPath
	resp.JournalStats = make(map[string]int, len(status.JournalStats))
	for k, v := range status.JournalStats {
		resp.JournalStats[string(k)] = v
	}
	return nil
}

func (s *service) Preflight(_ PreflightRequest, resp *PreflightResponse) error {
	for _, result := range s.daemon.Preflight(s.ctx) {
		resp.Checks = append(resp.Checks, PreflightCheck{
			Name:   result.Name,
			Passed: result.Passed,
			Detail: result.Detail,
		})
	}
	return nil
}

func (s *service) SoundAdd(req SoundAddRequest, resp *MutationResponse) error {
	outcome, err := s.daemon.SoundAdd(s.ctx, soundlist.Definition{
		URL:      req.URL,
		Tag:      req.Tag,
		Artist:   req.Artist,
		Title:    req.Title,
		Duration: req.Duration,
	})
	mutationResponse(resp, outcome)
	return err
}

func (s *service) SoundAttach(req SoundAttachRequest, resp *MutationResponse) error {
	outcome, err := s.daemon.SoundAttach(s.ctx, req.Category, req.ID, req.Position)
	mutationResponse(resp, outcome)
	return err
}

func (s *service) SoundDetach(req SoundDetachRequest, resp *MutationResponse) error {
	outcome, err := s.daemon.SoundDetach(s.ctx, req.ID)
	mutationResponse(resp, outcome)
	return err
}

func (s *service) SoundRemove(req SoundRemoveRequest, resp *MutationResponse) error {
	outcome, err := s.daemon.SoundRemove(s.ctx, req.ID)
	mutationResponse(resp, outcome)
	return err
}

func (s *service) SoundUpdate(req SoundUpdateRequest, resp *MutationResponse) error {
	outcome, err := s.daemon.SoundUpdate(s.ctx, req.Ordinal, req.Attributes)
	mutationResponse(resp, outcome)
	return err
}

func (s *service) CategoryReorder(req CategoryReorderRequest, resp *MutationResponse) error {
	outcome, err := s.daemon.CategoryReorder(s.ctx, req.Name, req.Position)
	mutationResponse(resp, outcome)
	return err
}

func (s *service) Restart(_ RestartRequest, resp *RestartResponse) error {
	report, err := s.daemon.RestartBoard(s.ctx)
	if report != nil {
		fillRestart(resp, report)
	}
	return err
}

func fillRestart(resp *RestartResponse, report *lifecycle.Report) {
	resp.Stopped = report.Stopped
	resp.StopDegraded = report.StopDegraded
	resp.Relaunched = report.Relaunched
	resp.ReadyDegraded = report.ReadyDegraded
	resp.ElapsedMillis = report.Elapsed.Milliseconds()
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	entries, err := s.daemon.History(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Entries = make([]HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		resp.Entries = append(resp.Entries, historyEntry(entry))
	}
	return nil
}

func historyEntry(entry *journal.Entry) HistoryEntry {
	return HistoryEntry{
		ID:           entry.ID,
		RequestID:    entry.RequestID,
		Operation:    entry.Operation,
		Detail:       entry.Detail,
		Status:       string(entry.Status),
		ErrorMessage: entry.ErrorMessage,
		CreatedAt:    entry.CreatedAt,
		UpdatedAt:    entry.UpdatedAt,
	}
}

func (s *service) Play(req PlayRequest, _ *PlayResponse) error {
	return s.daemon.Play(s.ctx, req.ID)
}

func (s *service) StopAll(_ StopAllRequest, _ *StopAllResponse) error {
	return s.daemon.StopAllSounds(s.ctx)
}

func (s *service) TogglePause(_ TogglePauseRequest, _ *TogglePauseResponse) error {
	return s.daemon.TogglePause(s.ctx)
}

func (s *service) Volume(req VolumeRequest, resp *VolumeResponse) error {
	if req.Set {
		if err := s.daemon.SetVolume(s.ctx, req.Percent); err != nil {
			return err
		}
	}
	percent, err := s.daemon.GetVolume(s.ctx)
	if err != nil {
		return err
	}
	resp.Percent = percent
	return nil
}

func (s *service) PlayStatus(_ PlayStatusRequest, resp *PlayStatusResponse) error {
	status, err := s.daemon.PlayStatus(s.ctx)
	if err != nil {
		return err
	}
	resp.Status = status
	return nil
}

func (s *service) Shutdown(_ ShutdownRequest, resp *ShutdownResponse) error {
	s.logger.Info("daemon shutdown requested via IPC")
	resp.Stopping = true
	if s.shutdown != nil {
		// Detached so the RPC response reaches the client first.
		go s.shutdown()
	}
	return nil
}
